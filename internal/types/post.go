// Package types defines the posts, versions, writing-style profiles and generation settings
// shared by the pipeline, the store and the HTTP API.
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/medcontent/internal/compliance"
	"github.com/jonathan/medcontent/internal/persuasion"
)

// Status is the publication lifecycle state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// SEO holds search keywords and hashtags for a post. Keywords are ordered by importance.
type SEO struct {
	Keywords []string `json:"keywords"`
	Hashtags []string `json:"hashtags"`
}

// Post is a generated blog post with the fields of its latest version.
type Post struct {
	ID              uuid.UUID            `json:"id"`
	OwnerID         uuid.UUID            `json:"owner_id"`
	OriginalText    string               `json:"original_text"`
	Content         string               `json:"content"`
	Title           string               `json:"title"`
	MetaDescription string               `json:"meta_description"`
	PersuasionScore float64              `json:"persuasion_score"`
	Persuasion      persuasion.Breakdown `json:"persuasion"`
	MedicalLawCheck compliance.Report    `json:"medical_law_check"`
	SEO             SEO                  `json:"seo"`
	Status          Status               `json:"status"`
	Config          GenerationConfig     `json:"config"`
	Version         int                  `json:"version"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Version is one immutable revision of a post. VersionNumber runs 1..n per post with no gaps.
type Version struct {
	ID              uuid.UUID        `json:"id"`
	PostID          uuid.UUID        `json:"post_id"`
	VersionNumber   int              `json:"version_number"`
	Content         string           `json:"content"`
	PersuasionScore float64          `json:"persuasion_score"`
	Config          GenerationConfig `json:"config"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Revision carries the regenerated fields written by a rewrite.
type Revision struct {
	Content         string
	Title           string
	MetaDescription string
	Persuasion      persuasion.Breakdown
	MedicalLawCheck compliance.Report
	SEO             SEO
	Config          GenerationConfig
}

// StyleProfile is an owner's writing-style profile, created with defaults on first use.
type StyleProfile struct {
	OwnerID          uuid.UUID `json:"owner_id"`
	Tone             string    `json:"tone"`
	Specialty        string    `json:"specialty"`
	Location         string    `json:"location"`
	ClinicName       string    `json:"clinic_name"`
	SignaturePhrases []string  `json:"signature_phrases"`
	AvoidPhrases     []string  `json:"avoid_phrases"`
	CreatedAt        time.Time `json:"created_at"`
}

// DefaultStyleProfile returns the profile given to owners who have none yet.
func DefaultStyleProfile(ownerID uuid.UUID) StyleProfile {
	return StyleProfile{
		OwnerID:          ownerID,
		Tone:             "친절하고 신뢰감 있는",
		Specialty:        "일반의원",
		Location:         "서울",
		SignaturePhrases: []string{},
		AvoidPhrases:     []string{},
	}
}
