package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/livrarias/backend/models"
	"github.com/livrarias/backend/store"
	"github.com/rs/zerolog"
)

type CommentStore interface {
	InsertComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id int) error
}

type CommentsHandler struct {
	Store CommentStore
	Log   zerolog.Logger
}

type createCommentRequest struct {
	BookID  int    `json:"book_id" validate:"required"`
	UserID  int    `json:"user_id" validate:"required"`
	Comment string `json:"comment" validate:"required"`
}

func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "book_id, user_id and comment are required")
		return
	}
	comment := &models.Comment{
		BookID:  req.BookID,
		UserID:  req.UserID,
		Comment: req.Comment,
		Date:    time.Now().UTC(),
	}
	if err := h.Store.InsertComment(r.Context(), comment); err != nil {
		h.Log.Error().Err(err).Msg("insert comment")
		respondError(w, http.StatusInternalServerError, "failed to add comment")
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "comment not found")
		return
	}
	if err := h.Store.DeleteComment(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "comment not found")
			return
		}
		h.Log.Error().Err(err).Int("id", id).Msg("delete comment")
		respondError(w, http.StatusInternalServerError, "failed to delete comment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "comment deleted",
	})
}
