package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jonathan/medcontent/internal/types"
)

var profileColumns = []string{
	"owner_id", "tone", "specialty", "location", "clinic_name",
	"signature_phrases", "avoid_phrases", "created_at",
}

// GetOrCreateProfile returns the owner's style profile, creating the default one on first use.
func (s *Store) GetOrCreateProfile(ctx context.Context, ownerID uuid.UUID) (*types.StyleProfile, error) {
	profile, err := s.getProfile(ctx, ownerID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	def := types.DefaultStyleProfile(ownerID)
	def.CreatedAt = s.now()
	query, args, err := s.profileInsert(def).Suffix("ON CONFLICT (owner_id) DO NOTHING").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build profile insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	// A concurrent first request may have won the insert; read whichever row exists.
	return s.getProfile(ctx, ownerID)
}

// SaveProfile creates or replaces the owner's style profile.
func (s *Store) SaveProfile(ctx context.Context, profile *types.StyleProfile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = s.now()
	}
	query, args, err := s.profileInsert(*profile).Suffix(
		"ON CONFLICT (owner_id) DO UPDATE SET tone = excluded.tone, specialty = excluded.specialty, " +
			"location = excluded.location, clinic_name = excluded.clinic_name, " +
			"signature_phrases = excluded.signature_phrases, avoid_phrases = excluded.avoid_phrases",
	).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build profile upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *Store) profileInsert(p types.StyleProfile) sq.InsertBuilder {
	return s.builder.Insert("style_profiles").Columns(profileColumns...).Values(
		p.OwnerID.String(), p.Tone, p.Specialty, p.Location, p.ClinicName,
		jsonList(p.SignaturePhrases), jsonList(p.AvoidPhrases), p.CreatedAt,
	)
}

func (s *Store) getProfile(ctx context.Context, ownerID uuid.UUID) (*types.StyleProfile, error) {
	query, args, err := s.builder.Select(profileColumns...).From("style_profiles").
		Where(sq.Eq{"owner_id": ownerID.String()}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build profile query: %w", err)
	}

	var p types.StyleProfile
	var owner string
	var signatures, avoid []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&owner, &p.Tone, &p.Specialty, &p.Location,
		&p.ClinicName, &signatures, &avoid, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if p.OwnerID, err = uuid.Parse(owner); err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", owner, err)
	}
	if err := json.Unmarshal(signatures, &p.SignaturePhrases); err != nil {
		return nil, fmt.Errorf("failed to decode signature phrases: %w", err)
	}
	if err := json.Unmarshal(avoid, &p.AvoidPhrases); err != nil {
		return nil, fmt.Errorf("failed to decode avoid phrases: %w", err)
	}
	return &p, nil
}

// jsonList encodes a string list, writing [] for nil.
func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}
