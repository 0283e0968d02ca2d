package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/portfolio-generator/internal/github"
	"github.com/jonathan/portfolio-generator/internal/llm"
	"github.com/jonathan/portfolio-generator/internal/persist"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"github not connected", ErrGitHubNotConnected, KindRequiredInputMissing},
		{"no structured output", fmt.Errorf("project narrative: %w", llm.ErrNoStructuredOutput), KindMalformedOutput},
		{"schema violation", fmt.Errorf("%w: missing about_me", llm.ErrMalformedOutput), KindMalformedOutput},
		{"write failure", &persist.WriteError{Entity: "project", Key: "api", Cause: errors.New("deadlock")}, KindPersistence},
		{"backend overloaded", &llm.APIError{StatusCode: http.StatusServiceUnavailable}, KindUpstreamUnavailable},
		{"github rate limited", &github.APIError{StatusCode: http.StatusForbidden, RateLimitExhausted: true}, KindUpstreamUnavailable},
		{"github not found", &github.APIError{StatusCode: http.StatusNotFound}, KindInternal},
		{"plain error", errors.New("boom"), KindInternal},
		{"explicit kind wins", &Error{Kind: KindPartialEnrichment, Err: llm.ErrNoStructuredOutput}, KindPartialEnrichment},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_MessageIsVerbatim(t *testing.T) {
	cause := errors.New("failed to fetch repositories: HTTP 502")
	err := wrap(StageAnalyzingSource, cause)

	assert.Equal(t, cause.Error(), err.Error())
	assert.ErrorIs(t, err, cause)

	var pe *Error
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, StageAnalyzingSource, pe.Stage)
	assert.Equal(t, KindInternal, pe.Kind)
}

func TestWrap_KeepsExistingClassification(t *testing.T) {
	inner := &Error{Kind: KindRequiredInputMissing, Stage: StageFetchingSources, Err: ErrGitHubNotConnected}
	err := wrap(StageAnalyzingSource, inner)

	var pe *Error
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, StageFetchingSources, pe.Stage)
	assert.Nil(t, wrap(StageCoaching, nil))
}
