package types

import (
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies a connected data source
type SourceKind string

// SourceKind constants
const (
	SourceKindGitHub   SourceKind = "github"
	SourceKindResume   SourceKind = "resume"
	SourceKindLinkedIn SourceKind = "linkedin"
)

// GitHubSource is a connected code-hosting account
type GitHubSource struct {
	Username    string    `json:"username"`
	AccessToken string    `json:"-"`
	ConnectedAt time.Time `json:"connected_at"`
}

// DocumentSource is an uploaded document already parsed into normalized facts
type DocumentSource struct {
	Kind       SourceKind       `json:"kind"`
	FileName   string           `json:"file_name,omitempty"`
	Facts      *NormalizedFacts `json:"facts"`
	UploadedAt time.Time        `json:"uploaded_at"`
}

// ConnectedSources is everything a user has connected. GitHub is required for generation;
// resume and LinkedIn are optional enrichers.
type ConnectedSources struct {
	UserID   uuid.UUID       `json:"user_id"`
	GitHub   *GitHubSource   `json:"github,omitempty"`
	Resume   *DocumentSource `json:"resume,omitempty"`
	LinkedIn *DocumentSource `json:"linkedin,omitempty"`
}

// ResumeFacts returns the resume facts or nil
func (c *ConnectedSources) ResumeFacts() *NormalizedFacts {
	if c == nil || c.Resume == nil {
		return nil
	}
	return c.Resume.Facts
}

// LinkedInFacts returns the LinkedIn facts or nil
func (c *ConnectedSources) LinkedInFacts() *NormalizedFacts {
	if c == nil || c.LinkedIn == nil {
		return nil
	}
	return c.LinkedIn.Facts
}
