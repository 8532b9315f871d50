package server

import (
	"context"
	"net/http"

	"github.com/jonathan/medcontent/internal/ids"
	"github.com/jonathan/medcontent/internal/pipeline"
	"github.com/jonathan/medcontent/internal/server/middleware"
	"github.com/jonathan/medcontent/internal/types"
)

// acceptedResponse is returned for pipelines started in the background. Progress is
// delivered on /events and /ws under TaskID.
type acceptedResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// handleCreatePost starts the generation pipeline. With ?wait=true it blocks and
// returns the stored post.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.GetOwnerID(r)

	var req types.CreateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := pipeline.ValidateCreate(req); err != nil {
		s.errorResponse(w, err)
		return
	}

	taskID := ids.New()
	if waitRequested(r) {
		post, err := s.posts.Create(r.Context(), ownerID, req, pipeline.WithTaskID(taskID))
		if err != nil {
			s.errorResponse(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, post)
		return
	}

	s.runAsync(r, taskID, func(ctx context.Context) error {
		_, err := s.posts.Create(ctx, ownerID, req, pipeline.WithTaskID(taskID))
		return err
	})
	s.jsonResponse(w, http.StatusAccepted, acceptedResponse{TaskID: taskID, Status: "accepted"})
}

// handleRewritePost regenerates a post as its next version.
func (s *Server) handleRewritePost(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.GetOwnerID(r)
	postID, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	var req types.RewriteRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := pipeline.ValidateConfig(req.Config); err != nil {
		s.errorResponse(w, err)
		return
	}
	// Fail fast on unknown posts instead of accepting a task that cannot succeed.
	if _, err := s.posts.GetPost(r.Context(), ownerID, postID); err != nil {
		s.errorResponse(w, err)
		return
	}

	taskID := ids.New()
	if waitRequested(r) {
		post, err := s.posts.Rewrite(r.Context(), ownerID, postID, req.Config, pipeline.WithTaskID(taskID))
		if err != nil {
			s.errorResponse(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, post)
		return
	}

	s.runAsync(r, taskID, func(ctx context.Context) error {
		_, err := s.posts.Rewrite(ctx, ownerID, postID, req.Config, pipeline.WithTaskID(taskID))
		return err
	})
	s.jsonResponse(w, http.StatusAccepted, acceptedResponse{TaskID: taskID, Status: "accepted"})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.GetOwnerID(r)
	postID, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	post, err := s.posts.GetPost(r.Context(), ownerID, postID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, post)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.GetOwnerID(r)
	limit, err := listLimit(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	posts, err := s.posts.ListPosts(r.Context(), ownerID, limit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if posts == nil {
		posts = []types.Post{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.GetOwnerID(r)
	postID, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	versions, err := s.posts.ListVersions(r.Context(), ownerID, postID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if versions == nil {
		versions = []types.Version{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"versions": versions, "count": len(versions)})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.GetOwnerID(r)
	postID, err := pathID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	var req types.StatusRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := s.posts.UpdateStatus(r.Context(), ownerID, postID, req.Status); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"id": postID.String(), "status": string(req.Status)})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.GetOwnerID(r)

	profile, err := s.posts.Profile(r.Context(), ownerID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.GetOwnerID(r)

	var req types.ProfileRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, pipeline.NewValidationError(err))
		return
	}

	profile := req.Profile(ownerID)
	if err := s.posts.SaveProfile(r.Context(), &profile); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}
