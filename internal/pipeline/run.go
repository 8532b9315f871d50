package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/medcontent/internal/ids"
	"github.com/jonathan/medcontent/internal/notify"
	"github.com/jonathan/medcontent/internal/types"
)

// run tracks one pipeline execution: its task id, the stage it is in and the last stage
// that finished.
type run struct {
	o         *Orchestrator
	operation string
	taskID    string
	owner     string
	current   Stage
	completed Stage
	started   time.Time
	logger    *slog.Logger
}

func (o *Orchestrator) newRun(operation string, ownerID uuid.UUID, opts []RunOption) *run {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.taskID == "" {
		ro.taskID = ids.New()
	}
	return &run{
		o:         o,
		operation: operation,
		taskID:    ro.taskID,
		owner:     ownerID.String(),
		completed: StageInit,
		started:   time.Now(),
		logger: o.logger.With(
			"operation", operation,
			"task_id", ro.taskID,
			"owner_id", ownerID.String(),
		),
	}
}

// enter marks the current stage finished and announces s before its work starts.
func (r *run) enter(s Stage) {
	if r.current != "" {
		r.completed = r.current
	}
	r.current = s

	def, _ := GetStage(s)
	r.o.metrics.StageEntered(r.operation, string(s))
	r.logger.Debug("stage", "stage", string(s), "progress", def.Percent)
	r.o.notifier.Notify(r.owner, notify.Event{
		Type:     notify.EventProgress,
		TaskID:   r.taskID,
		Stage:    string(s),
		Progress: def.Percent,
		Message:  def.Message,
	})
}

// complete announces the finished post.
func (r *run) complete(post *types.Post) {
	def, _ := GetStage(StageCompleted)
	r.completed = r.current
	r.current = StageCompleted

	r.o.metrics.StageEntered(r.operation, string(StageCompleted))
	r.o.metrics.RunFinished(r.operation, "success", time.Since(r.started))
	r.logger.Info("pipeline completed",
		"post_id", post.ID.String(),
		"version", post.Version,
		"persuasion_score", post.PersuasionScore,
		"compliance_score", post.MedicalLawCheck.Score,
		"duration", time.Since(r.started))

	r.o.notifier.Notify(r.owner, notify.Event{
		Type:     notify.EventCompletion,
		TaskID:   r.taskID,
		Stage:    string(StageCompleted),
		Progress: def.Percent,
		Message:  def.Message,
		Data: map[string]any{
			"post_id":          post.ID.String(),
			"score":            post.PersuasionScore,
			"compliance_score": post.MedicalLawCheck.Score,
			"version":          post.Version,
		},
	})
}

// fail reports err to subscribers and wraps it with the last finished stage.
func (r *run) fail(err error) error {
	r.o.metrics.RunFinished(r.operation, "failure", time.Since(r.started))
	r.logger.Error("pipeline failed",
		"stage", string(r.current),
		"last_completed", string(r.completed),
		"error", err)

	r.o.notifier.Notify(r.owner, notify.Event{
		Type:     notify.EventError,
		TaskID:   r.taskID,
		Stage:    string(r.current),
		Progress: r.current.Percent(),
		Message:  fmt.Sprintf("%s 단계에서 실패했습니다: %v", r.current, err),
		Data:     map[string]any{"last_completed_stage": string(r.completed)},
	})
	return &Error{TaskID: r.taskID, Stage: r.completed, Err: err}
}
