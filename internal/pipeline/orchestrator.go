// Package pipeline orchestrates post generation: rewrite, compliance check, auto-fix,
// scoring, SEO, titling and persistence, reporting progress to subscribers as it goes.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/medcontent/internal/compliance"
	"github.com/jonathan/medcontent/internal/db"
	"github.com/jonathan/medcontent/internal/ingestion"
	"github.com/jonathan/medcontent/internal/notify"
	"github.com/jonathan/medcontent/internal/observability"
	"github.com/jonathan/medcontent/internal/persuasion"
	"github.com/jonathan/medcontent/internal/repair"
	"github.com/jonathan/medcontent/internal/rewriting"
	"github.com/jonathan/medcontent/internal/seo"
	"github.com/jonathan/medcontent/internal/types"
)

// DefaultCallTimeout bounds each external call when Deps.CallTimeout is zero.
const DefaultCallTimeout = 90 * time.Second

// Rewriter produces the blog post body.
type Rewriter interface {
	Rewrite(ctx context.Context, in rewriting.RewriteInput) (string, error)
}

// KeywordExtractor derives SEO keywords and hashtags.
type KeywordExtractor interface {
	Extract(text, specialty, location string) (keywords, hashtags []string)
}

// TitleGenerator produces the title, meta description and hashtags.
type TitleGenerator interface {
	Generate(ctx context.Context, text, specialty string) (seo.TitleResult, error)
}

// Store persists posts, versions and profiles.
type Store interface {
	GetOrCreateProfile(ctx context.Context, ownerID uuid.UUID) (*types.StyleProfile, error)
	SaveProfile(ctx context.Context, profile *types.StyleProfile) error
	CreatePost(ctx context.Context, post *types.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*types.Post, error)
	ListPosts(ctx context.Context, ownerID uuid.UUID, limit uint64) ([]types.Post, error)
	AppendRevision(ctx context.Context, postID uuid.UUID, rev types.Revision) (*types.Post, error)
	ListVersions(ctx context.Context, postID uuid.UUID) ([]types.Version, error)
	UpdateStatus(ctx context.Context, postID uuid.UUID, status types.Status) error
}

// Deps are the collaborators of an Orchestrator. Store, Rewriter, Keywords and Titles
// are required; the rest default when nil.
type Deps struct {
	Store    Store
	Rewriter Rewriter
	Keywords KeywordExtractor
	Titles   TitleGenerator

	Scanner  *compliance.Scanner
	Fixer    *repair.Fixer
	Scorer   *persuasion.Scorer
	Notifier notify.Notifier
	Logger   *slog.Logger
	Metrics  *observability.Metrics

	CallTimeout time.Duration
}

// Orchestrator runs the generation pipeline. It is safe for concurrent use; runs share
// nothing but the store and the notifier.
type Orchestrator struct {
	store       Store
	rewriter    Rewriter
	keywords    KeywordExtractor
	titles      TitleGenerator
	scanner     *compliance.Scanner
	fixer       *repair.Fixer
	scorer      *persuasion.Scorer
	notifier    notify.Notifier
	logger      *slog.Logger
	metrics     *observability.Metrics
	callTimeout time.Duration
}

// New creates an Orchestrator from d.
func New(d Deps) *Orchestrator {
	o := &Orchestrator{
		store:       d.Store,
		rewriter:    d.Rewriter,
		keywords:    d.Keywords,
		titles:      d.Titles,
		scanner:     d.Scanner,
		fixer:       d.Fixer,
		scorer:      d.Scorer,
		notifier:    d.Notifier,
		logger:      d.Logger,
		metrics:     d.Metrics,
		callTimeout: d.CallTimeout,
	}
	if o.scanner == nil {
		o.scanner = compliance.NewScanner(nil)
	}
	if o.fixer == nil {
		o.fixer = repair.NewFixer(o.scanner)
	}
	if o.scorer == nil {
		o.scorer = persuasion.NewScorer()
	}
	if o.notifier == nil {
		o.notifier = notify.Nop{}
	}
	if o.logger == nil {
		o.logger = observability.NopLogger()
	}
	if o.callTimeout <= 0 {
		o.callTimeout = DefaultCallTimeout
	}
	return o
}

// RunOption configures a single pipeline run.
type RunOption func(*runOptions)

type runOptions struct {
	taskID string
}

// WithTaskID sets the task id reported in progress events. A fresh id is used otherwise.
func WithTaskID(id string) RunOption {
	return func(o *runOptions) { o.taskID = id }
}

// ValidateCreate checks a create request without running anything.
func ValidateCreate(req types.CreateRequest) error {
	if err := req.Validate(); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// ValidateConfig checks a generation config supplied for a rewrite.
func ValidateConfig(cfg *types.GenerationConfig) error {
	r := types.RewriteRequest{Config: cfg}
	if err := r.Validate(); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// Create generates, checks and stores a new post from raw medical information. The post
// and its first version are written in one transaction.
func (o *Orchestrator) Create(ctx context.Context, ownerID uuid.UUID, req types.CreateRequest, opts ...RunOption) (*types.Post, error) {
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}
	original, err := ingestion.Normalize(req.OriginalText)
	if err != nil {
		return nil, &ValidationError{Message: "could not read original_text", Cause: err}
	}
	if strings.TrimSpace(original) == "" {
		return nil, &ValidationError{Message: "original_text has no text content"}
	}
	cfg := req.Config.WithDefaults()

	r := o.newRun("create", ownerID, opts)
	r.enter(StageInit)

	r.enter(StageProfileLoaded)
	profile, err := o.store.GetOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, r.fail(&PersistenceError{Op: "load profile", Cause: err})
	}

	r.enter(StageRewritten)
	content, err := o.rewrite(ctx, r, original, *profile, cfg)
	if err != nil {
		return nil, r.fail(err)
	}

	content, report := o.check(r, content)

	r.enter(StageScored)
	breakdown := o.scorer.Score(content)

	r.enter(StageSEOExtracted)
	keywords, hashtags := o.keywords.Extract(content, profile.Specialty, profile.Location)

	r.enter(StageTitled)
	title, err := o.generateTitle(ctx, content, profile.Specialty)
	if err != nil {
		return nil, r.fail(err)
	}

	post := &types.Post{
		OwnerID:         ownerID,
		OriginalText:    original,
		Content:         content,
		Title:           title.Title,
		MetaDescription: title.MetaDescription,
		PersuasionScore: breakdown.Total,
		Persuasion:      breakdown,
		MedicalLawCheck: report,
		SEO: types.SEO{
			Keywords: seo.MergeKeywords(keywords, title.PrimaryKeyword),
			Hashtags: seo.MergeHashtags(hashtags, title.Hashtags),
		},
		Status: types.StatusDraft,
		Config: cfg,
	}

	r.enter(StagePersisted)
	if err := o.store.CreatePost(ctx, post); err != nil {
		return nil, r.fail(&PersistenceError{Op: "create post", Cause: err})
	}

	r.complete(post)
	return post, nil
}

// Rewrite regenerates an existing post from its original text and appends the result as
// the next version. cfg nil reuses the post's previous configuration. Title, meta
// description and SEO carry over from the previous version.
func (o *Orchestrator) Rewrite(ctx context.Context, ownerID, postID uuid.UUID, cfg *types.GenerationConfig, opts ...RunOption) (*types.Post, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	r := o.newRun("rewrite", ownerID, opts)
	r.enter(StageInit)

	post, err := o.GetPost(ctx, ownerID, postID)
	if err != nil {
		return nil, r.fail(err)
	}
	genConfig := post.Config
	if cfg != nil {
		genConfig = *cfg
	}
	genConfig = genConfig.WithDefaults()

	r.enter(StageProfileLoaded)
	profile, err := o.store.GetOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, r.fail(&PersistenceError{Op: "load profile", Cause: err})
	}

	r.enter(StageRewritten)
	content, err := o.rewrite(ctx, r, post.OriginalText, *profile, genConfig)
	if err != nil {
		return nil, r.fail(err)
	}

	content, report := o.check(r, content)

	r.enter(StageScored)
	breakdown := o.scorer.Score(content)

	r.enter(StagePersisted)
	updated, err := o.store.AppendRevision(ctx, post.ID, types.Revision{
		Content:         content,
		Title:           post.Title,
		MetaDescription: post.MetaDescription,
		Persuasion:      breakdown,
		MedicalLawCheck: report,
		SEO:             post.SEO,
		Config:          genConfig,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, r.fail(ErrNotFound)
		}
		return nil, r.fail(&PersistenceError{Op: "append revision", Cause: err})
	}

	r.complete(updated)
	return updated, nil
}

// rewrite calls the rewriter under the call timeout and logs style problems.
func (o *Orchestrator) rewrite(ctx context.Context, r *run, original string, profile types.StyleProfile, cfg types.GenerationConfig) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	content, err := o.rewriter.Rewrite(callCtx, rewriting.RewriteInput{
		OriginalText: original,
		Profile:      profile,
		Config:       cfg,
	})
	if err != nil {
		return "", &UpstreamGenerationError{Call: "rewrite", Cause: err}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", &UpstreamGenerationError{Call: "rewrite", Cause: errors.New("empty rewrite")}
	}

	if style := rewriting.ValidateStyle(content, profile, cfg.TargetLength); !style.OK() {
		r.logger.Warn("rewrite misses style profile",
			"avoid_phrases", style.AvoidedPhrases,
			"length_ok", style.TargetLength)
	}
	return content, nil
}

// check scans content and, when it is not compliant, auto-fixes and rescans it.
func (o *Orchestrator) check(r *run, content string) (string, compliance.Report) {
	r.enter(StageComplianceChecked)
	report := o.scanner.Scan(content)
	if report.IsCompliant {
		o.metrics.ObserveReport(report)
		return content, report
	}

	r.enter(StageAutoFixed)
	fixed, changes := o.fixer.FixReport(content, report)

	r.enter(StageComplianceRechecked)
	report = o.scanner.Scan(fixed)
	report.AutoFixed = true
	report.Changes = changes
	o.metrics.ObserveReport(report)

	r.logger.Info("auto-fixed non-compliant text",
		"changes", len(changes),
		"remaining_violations", len(report.Violations))
	return fixed, report
}

func (o *Orchestrator) generateTitle(ctx context.Context, content, specialty string) (seo.TitleResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	title, err := o.titles.Generate(callCtx, content, specialty)
	if err != nil {
		return seo.TitleResult{}, &UpstreamGenerationError{Call: "title", Cause: err}
	}
	return title, nil
}

// GetPost returns the owner's post, or ErrNotFound when it is missing or foreign.
func (o *Orchestrator) GetPost(ctx context.Context, ownerID, postID uuid.UUID) (*types.Post, error) {
	post, err := o.store.GetPost(ctx, postID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get post", Cause: err}
	}
	if post.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return post, nil
}

// ListPosts returns the owner's most recent posts.
func (o *Orchestrator) ListPosts(ctx context.Context, ownerID uuid.UUID, limit uint64) ([]types.Post, error) {
	posts, err := o.store.ListPosts(ctx, ownerID, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list posts", Cause: err}
	}
	return posts, nil
}

// ListVersions returns the version history of the owner's post.
func (o *Orchestrator) ListVersions(ctx context.Context, ownerID, postID uuid.UUID) ([]types.Version, error) {
	if _, err := o.GetPost(ctx, ownerID, postID); err != nil {
		return nil, err
	}
	versions, err := o.store.ListVersions(ctx, postID)
	if err != nil {
		return nil, &PersistenceError{Op: "list versions", Cause: err}
	}
	return versions, nil
}

// UpdateStatus moves the owner's post to status. Publishing itself happens elsewhere.
func (o *Orchestrator) UpdateStatus(ctx context.Context, ownerID, postID uuid.UUID, status types.Status) error {
	req := types.StatusRequest{Status: status}
	if err := req.Validate(); err != nil {
		return NewValidationError(err)
	}
	if _, err := o.GetPost(ctx, ownerID, postID); err != nil {
		return err
	}
	err := o.store.UpdateStatus(ctx, postID, status)
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return &PersistenceError{Op: "update status", Cause: err}
	}
	return nil
}

// Profile returns the owner's writing-style profile, creating it on first use.
func (o *Orchestrator) Profile(ctx context.Context, ownerID uuid.UUID) (*types.StyleProfile, error) {
	profile, err := o.store.GetOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, &PersistenceError{Op: "load profile", Cause: err}
	}
	return profile, nil
}

// SaveProfile replaces the owner's writing-style profile.
func (o *Orchestrator) SaveProfile(ctx context.Context, profile *types.StyleProfile) error {
	if err := o.store.SaveProfile(ctx, profile); err != nil {
		return &PersistenceError{Op: "save profile", Cause: err}
	}
	return nil
}
