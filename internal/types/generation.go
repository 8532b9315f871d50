package types

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Framework is the rhetorical structure used for a rewrite.
type Framework string

const (
	FrameworkAIDA         Framework = "aida"
	FrameworkPAS          Framework = "pas"
	FrameworkStorytelling Framework = "storytelling"
	FrameworkQnA          Framework = "qna"
	FrameworkListicle     Framework = "listicle"
)

// Perspective is the narrative voice of a rewrite.
type Perspective string

const (
	PerspectiveFirstPerson Perspective = "first_person"
	PerspectiveThirdPerson Perspective = "third_person"
	PerspectiveExpert      Perspective = "expert"
)

// GenerationConfig controls how raw text is rewritten. Zero fields take defaults.
type GenerationConfig struct {
	Framework       Framework   `json:"framework" validate:"omitempty,oneof=aida pas storytelling qna listicle"`
	PersuasionLevel int         `json:"persuasion_level" validate:"omitempty,min=1,max=5"`
	TargetLength    int         `json:"target_length" validate:"omitempty,min=300,max=5000"`
	Audience        string      `json:"audience" validate:"max=200"`
	Perspective     Perspective `json:"perspective" validate:"omitempty,oneof=first_person third_person expert"`
}

// DefaultGenerationConfig returns the settings used when a request leaves them out.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Framework:       FrameworkAIDA,
		PersuasionLevel: 3,
		TargetLength:    1500,
		Audience:        "일반 환자",
		Perspective:     PerspectiveExpert,
	}
}

// WithDefaults fills unset fields from DefaultGenerationConfig.
func (c GenerationConfig) WithDefaults() GenerationConfig {
	d := DefaultGenerationConfig()
	if c.Framework == "" {
		c.Framework = d.Framework
	}
	if c.PersuasionLevel == 0 {
		c.PersuasionLevel = d.PersuasionLevel
	}
	if c.TargetLength == 0 {
		c.TargetLength = d.TargetLength
	}
	if c.Audience == "" {
		c.Audience = d.Audience
	}
	if c.Perspective == "" {
		c.Perspective = d.Perspective
	}
	return c
}

// CreateRequest asks for a new post generated from raw medical information.
type CreateRequest struct {
	OriginalText string           `json:"original_text" validate:"required,min=20,max=20000"`
	Config       GenerationConfig `json:"config"`
}

// RewriteRequest asks for a new version of an existing post. A nil Config reuses the
// post's previous configuration.
type RewriteRequest struct {
	Config *GenerationConfig `json:"config,omitempty"`
}

// StatusRequest changes the lifecycle state of a post.
type StatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=draft published archived"`
}

// ProfileRequest replaces an owner's writing-style profile.
type ProfileRequest struct {
	Tone             string   `json:"tone" validate:"max=100"`
	Specialty        string   `json:"specialty" validate:"required,max=100"`
	Location         string   `json:"location" validate:"max=100"`
	ClinicName       string   `json:"clinic_name" validate:"max=100"`
	SignaturePhrases []string `json:"signature_phrases" validate:"max=20,dive,required,max=100"`
	AvoidPhrases     []string `json:"avoid_phrases" validate:"max=50,dive,required,max=100"`
}

// TextRequest carries a single text for the stateless compliance and scoring endpoints.
type TextRequest struct {
	Text string `json:"text" validate:"max=50000"`
}

// BatchRequest carries several texts for a batch compliance scan.
type BatchRequest struct {
	Texts []string `json:"texts" validate:"required,min=1,max=100,dive,max=50000"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared request validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report JSON field names in errors
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate validates the CreateRequest using the validator.
func (r *CreateRequest) Validate() error {
	return Validator().Struct(r)
}

// Validate validates the RewriteRequest using the validator.
func (r *RewriteRequest) Validate() error {
	if r.Config == nil {
		return nil
	}
	return Validator().Struct(r.Config)
}

// Validate validates the StatusRequest using the validator.
func (r *StatusRequest) Validate() error {
	return Validator().Struct(r)
}

// Validate validates the ProfileRequest using the validator.
func (r *ProfileRequest) Validate() error {
	return Validator().Struct(r)
}

// Profile returns the request as ownerID's profile. Nil phrase lists become empty.
func (r *ProfileRequest) Profile(ownerID uuid.UUID) StyleProfile {
	p := StyleProfile{
		OwnerID:          ownerID,
		Tone:             r.Tone,
		Specialty:        r.Specialty,
		Location:         r.Location,
		ClinicName:       r.ClinicName,
		SignaturePhrases: r.SignaturePhrases,
		AvoidPhrases:     r.AvoidPhrases,
	}
	if p.SignaturePhrases == nil {
		p.SignaturePhrases = []string{}
	}
	if p.AvoidPhrases == nil {
		p.AvoidPhrases = []string{}
	}
	return p
}

// Validate validates the TextRequest using the validator.
func (r *TextRequest) Validate() error {
	return Validator().Struct(r)
}

// Validate validates the BatchRequest using the validator.
func (r *BatchRequest) Validate() error {
	return Validator().Struct(r)
}
