package types

import (
	"github.com/go-playground/validator/v10"
)

// Generation option defaults
const (
	DefaultMaxProjects = 6
	DefaultTargetRole  = "Software Engineer"
)

// GenerateOptions are the caller-supplied knobs for one generation run
type GenerateOptions struct {
	MinStars    int    `json:"min_stars" validate:"gte=0"`
	MaxProjects int    `json:"max_projects" validate:"gte=1,lte=20"`
	TargetRole  string `json:"target_role" validate:"max=120"`
}

// WithDefaults fills zero values with defaults
func (o GenerateOptions) WithDefaults() GenerateOptions {
	if o.MaxProjects == 0 {
		o.MaxProjects = DefaultMaxProjects
	}
	if o.TargetRole == "" {
		o.TargetRole = DefaultTargetRole
	}
	return o
}

// Validate validates the GenerateOptions using the validator.
func (o *GenerateOptions) Validate() error {
	validate := validator.New()
	return validate.Struct(o)
}
