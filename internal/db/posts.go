package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jonathan/medcontent/internal/config"
	"github.com/jonathan/medcontent/internal/types"
)

var postColumns = []string{
	"id", "owner_id", "original_text", "content", "title", "meta_description",
	"persuasion_score", "persuasion", "medical_law_check", "seo", "status", "config",
	"version", "created_at", "updated_at",
}

var versionColumns = []string{
	"id", "post_id", "version_number", "content", "persuasion_score", "config", "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

// CreatePost inserts post together with its first version in one transaction. ID,
// Version and timestamps are assigned on post.
func (s *Store) CreatePost(ctx context.Context, post *types.Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := s.now()
	post.CreatedAt, post.UpdatedAt = now, now
	post.Version = 1
	if post.Status == "" {
		post.Status = types.StatusDraft
	}

	persuasionJSON, reportJSON, seoJSON, configJSON, err := marshalPostJSON(post)
	if err != nil {
		return err
	}

	insertPost, args, err := s.builder.Insert("posts").Columns(postColumns...).Values(
		post.ID.String(), post.OwnerID.String(), post.OriginalText, post.Content, post.Title,
		post.MetaDescription, post.PersuasionScore, persuasionJSON, reportJSON, seoJSON,
		string(post.Status), configJSON, post.Version, now, now,
	).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build post insert: %w", err)
	}

	version := types.Version{
		ID:              uuid.New(),
		PostID:          post.ID,
		VersionNumber:   1,
		Content:         post.Content,
		PersuasionScore: post.PersuasionScore,
		Config:          post.Config,
		CreatedAt:       now,
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertPost, args...); err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		return s.insertVersion(ctx, tx, version)
	})
}

// GetPost returns the post with id, or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (*types.Post, error) {
	query, args, err := s.builder.Select(postColumns...).From("posts").
		Where(sq.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build post query: %w", err)
	}

	post, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// ListPosts returns the owner's posts, newest first.
func (s *Store) ListPosts(ctx context.Context, ownerID uuid.UUID, limit uint64) ([]types.Post, error) {
	query, args, err := s.builder.Select(postColumns...).From("posts").
		Where(sq.Eq{"owner_id": ownerID.String()}).
		OrderBy("created_at DESC").Limit(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build post list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := []types.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

// AppendRevision stores rev as the next version of the post and makes it the post's
// current content. The post row is locked for the duration so concurrent revisions get
// consecutive version numbers.
func (s *Store) AppendRevision(ctx context.Context, postID uuid.UUID, rev types.Revision) (*types.Post, error) {
	selectPost := s.builder.Select(postColumns...).From("posts").Where(sq.Eq{"id": postID.String()})
	if s.driver != config.DriverSQLite {
		selectPost = selectPost.Suffix("FOR UPDATE")
	}
	lockQuery, lockArgs, err := selectPost.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build post query: %w", err)
	}
	countQuery, countArgs, err := s.builder.Select("COUNT(*)").From("post_versions").
		Where(sq.Eq{"post_id": postID.String()}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build version count: %w", err)
	}

	var post *types.Post
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		locked, err := scanPost(tx.QueryRowContext(ctx, lockQuery, lockArgs...))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock post: %w", err)
		}
		post = locked

		var count int
		if err := tx.QueryRowContext(ctx, countQuery, countArgs...).Scan(&count); err != nil {
			return fmt.Errorf("failed to count versions: %w", err)
		}

		now := s.now()
		post.Content = rev.Content
		post.Title = rev.Title
		post.MetaDescription = rev.MetaDescription
		post.Persuasion = rev.Persuasion
		post.PersuasionScore = rev.Persuasion.Total
		post.MedicalLawCheck = rev.MedicalLawCheck
		post.SEO = rev.SEO
		post.Config = rev.Config
		post.Version = count + 1
		post.UpdatedAt = now

		if err := s.insertVersion(ctx, tx, types.Version{
			ID:              uuid.New(),
			PostID:          post.ID,
			VersionNumber:   post.Version,
			Content:         post.Content,
			PersuasionScore: post.PersuasionScore,
			Config:          post.Config,
			CreatedAt:       now,
		}); err != nil {
			return err
		}

		persuasionJSON, reportJSON, seoJSON, configJSON, err := marshalPostJSON(post)
		if err != nil {
			return err
		}
		update, args, err := s.builder.Update("posts").
			Set("content", post.Content).
			Set("title", post.Title).
			Set("meta_description", post.MetaDescription).
			Set("persuasion_score", post.PersuasionScore).
			Set("persuasion", persuasionJSON).
			Set("medical_law_check", reportJSON).
			Set("seo", seoJSON).
			Set("config", configJSON).
			Set("version", post.Version).
			Set("updated_at", now).
			Where(sq.Eq{"id": post.ID.String()}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build post update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, update, args...); err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// ListVersions returns every version of the post in ascending version order.
func (s *Store) ListVersions(ctx context.Context, postID uuid.UUID) ([]types.Version, error) {
	query, args, err := s.builder.Select(versionColumns...).From("post_versions").
		Where(sq.Eq{"post_id": postID.String()}).OrderBy("version_number").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build version query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	versions := []types.Version{}
	for rows.Next() {
		var v types.Version
		var id, pid string
		var configJSON []byte
		if err := rows.Scan(&id, &pid, &v.VersionNumber, &v.Content, &v.PersuasionScore, &configJSON, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		if v.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid version id %q: %w", id, err)
		}
		if v.PostID, err = uuid.Parse(pid); err != nil {
			return nil, fmt.Errorf("invalid post id %q: %w", pid, err)
		}
		if err := json.Unmarshal(configJSON, &v.Config); err != nil {
			return nil, fmt.Errorf("failed to decode version config: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// UpdateStatus sets the lifecycle status of a post.
func (s *Store) UpdateStatus(ctx context.Context, postID uuid.UUID, status types.Status) error {
	query, args, err := s.builder.Update("posts").
		Set("status", string(status)).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": postID.String()}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build status update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) insertVersion(ctx context.Context, tx *sql.Tx, v types.Version) error {
	configJSON, err := json.Marshal(v.Config)
	if err != nil {
		return fmt.Errorf("failed to encode version config: %w", err)
	}
	query, args, err := s.builder.Insert("post_versions").Columns(versionColumns...).Values(
		v.ID.String(), v.PostID.String(), v.VersionNumber, v.Content, v.PersuasionScore,
		string(configJSON), v.CreatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build version insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert version %d: %w", v.VersionNumber, err)
	}
	return nil
}

func marshalPostJSON(post *types.Post) (persuasionJSON, reportJSON, seoJSON, configJSON string, err error) {
	fields := []struct {
		name string
		v    any
		out  *string
	}{
		{"persuasion", post.Persuasion, &persuasionJSON},
		{"medical_law_check", post.MedicalLawCheck, &reportJSON},
		{"seo", post.SEO, &seoJSON},
		{"config", post.Config, &configJSON},
	}
	for _, f := range fields {
		b, mErr := json.Marshal(f.v)
		if mErr != nil {
			return "", "", "", "", fmt.Errorf("failed to encode %s: %w", f.name, mErr)
		}
		*f.out = string(b)
	}
	return persuasionJSON, reportJSON, seoJSON, configJSON, nil
}

func scanPost(row rowScanner) (*types.Post, error) {
	var p types.Post
	var id, owner, status string
	var persuasionJSON, reportJSON, seoJSON, configJSON []byte
	if err := row.Scan(&id, &owner, &p.OriginalText, &p.Content, &p.Title, &p.MetaDescription,
		&p.PersuasionScore, &persuasionJSON, &reportJSON, &seoJSON, &status, &configJSON,
		&p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid post id %q: %w", id, err)
	}
	if p.OwnerID, err = uuid.Parse(owner); err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", owner, err)
	}
	p.Status = types.Status(status)

	for _, f := range []struct {
		name string
		data []byte
		dst  any
	}{
		{"persuasion", persuasionJSON, &p.Persuasion},
		{"medical_law_check", reportJSON, &p.MedicalLawCheck},
		{"seo", seoJSON, &p.SEO},
		{"config", configJSON, &p.Config},
	} {
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", f.name, err)
		}
	}
	return &p, nil
}
