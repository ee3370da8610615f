package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kazumae/fx-forecast-backend/database"
	"github.com/kazumae/fx-forecast-backend/database/comments"
)

// createCommentRequest accepts the owner under its generic or family specific name
type createCommentRequest struct {
	OwnerID         int64           `json:"owner_id"`
	ForecastID      int64           `json:"forecast_id"`
	ReviewID        int64           `json:"review_id"`
	ParentCommentID *int64          `json:"parent_comment_id"`
	CommentType     string          `json:"comment_type"`
	Content         string          `json:"content"`
	Author          string          `json:"author"`
	ExtraMetadata   json.RawMessage `json:"extra_metadata"`
}

func (req createCommentRequest) ownerID() int64 {
	switch {
	case req.OwnerID > 0:
		return req.OwnerID
	case req.ForecastID > 0:
		return req.ForecastID
	default:
		return req.ReviewID
	}
}

// handleListComments returns the comment tree of one forecast or review
func (s *Server) handleListComments(f comments.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := getPathID(r, "id")
		if err != nil {
			s.respondWithError(w, r, err)
			return
		}

		tree, err := s.Comments.List(r.Context(), f, ownerID)
		if err != nil {
			s.respondWithError(w, r, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"comments": tree,
			"count":    len(tree),
		})
	}
}

// handleCreateComment stores a comment; top-level questions come back with their AI answer
func (s *Server) handleCreateComment(f comments.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCommentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondWithError(w, r, err)
			return
		}

		in := comments.CreateInput{
			OwnerID:         req.ownerID(),
			ParentCommentID: req.ParentCommentID,
			CommentType:     strings.TrimSpace(req.CommentType),
			Content:         req.Content,
			Author:          strings.TrimSpace(req.Author),
		}
		if in.OwnerID <= 0 {
			s.respondWithError(w, r, database.NewValidationError(f.OwnerColumn, "is required"))
			return
		}
		if raw := strings.TrimSpace(string(req.ExtraMetadata)); raw != "" && raw != "null" {
			if !strings.HasPrefix(raw, "{") {
				s.respondWithError(w, r, database.NewValidationError("extra_metadata", "must be a JSON object"))
				return
			}
			in.ExtraMetadata = raw
		}

		node, err := s.Comments.Create(r.Context(), f, in)
		if err != nil {
			s.respondWithError(w, r, err)
			return
		}

		respondJSON(w, http.StatusCreated, node)
	}
}

// handleUpdateComment replaces the content of a user comment
func (s *Server) handleUpdateComment(f comments.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := getPathID(r, "id")
		if err != nil {
			s.respondWithError(w, r, err)
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondWithError(w, r, err)
			return
		}

		node, err := s.Comments.Update(r.Context(), f, id, req.Content)
		if err != nil {
			s.respondWithError(w, r, err)
			return
		}

		respondJSON(w, http.StatusOK, node)
	}
}

// handleDeleteComment removes a user comment with its replies
func (s *Server) handleDeleteComment(f comments.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := getPathID(r, "id")
		if err != nil {
			s.respondWithError(w, r, err)
			return
		}

		if err := s.Comments.Delete(r.Context(), f, id); err != nil {
			s.respondWithError(w, r, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Comment deleted",
			"id":      id,
		})
	}
}
