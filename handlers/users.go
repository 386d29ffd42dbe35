package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/livrarias/backend/models"
	"github.com/livrarias/backend/store"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
)

type UserStore interface {
	ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, error)
	InsertUsers(ctx context.Context, users []models.User) ([]models.User, error)
	UserByID(ctx context.Context, id int) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
	UpdateUser(ctx context.Context, id int, fields bson.M) error
	BooksByIDs(ctx context.Context, ids []int) ([]models.Book, error)
}

type UsersHandler struct {
	Store UserStore
	Log   zerolog.Logger
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	users, total, err := h.Store.ListUsers(r.Context(), page, limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("list users")
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"Paging": models.NewPaging(page, limit, total),
		"Users":  users,
	})
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := json.NewDecoder(r.Body).Decode(&users); err != nil || len(users) == 0 {
		respondError(w, http.StatusBadRequest, "provide at least one user")
		return
	}
	inserted, err := h.Store.InsertUsers(r.Context(), users)
	if err != nil {
		h.Log.Error().Err(err).Msg("insert users")
		respondError(w, http.StatusInternalServerError, "failed to add users")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": strconv.Itoa(len(inserted)) + " user(s) added",
		"users":   inserted,
	})
}

// Get returns the user and the top 3 books they reviewed, best rated first.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	user, err := h.Store.UserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error().Err(err).Int("id", id).Msg("get user")
		respondError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if len(user.Reviews) == 0 {
		respondError(w, http.StatusNotFound, "user has no reviews")
		return
	}

	bookIDs := make([]int, 0, len(user.Reviews))
	scores := map[int]float64{}
	for _, rev := range user.Reviews {
		bookIDs = append(bookIDs, rev.BookID)
		scores[rev.BookID] = rev.Score
	}
	books, err := h.Store.BooksByIDs(r.Context(), bookIDs)
	if err != nil {
		h.Log.Error().Err(err).Int("id", id).Msg("reviewed books")
		respondError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if len(books) == 0 {
		respondError(w, http.StatusNotFound, "no books found for the user's reviews")
		return
	}

	rated := make([]models.BookWithRating, 0, len(books))
	for _, b := range books {
		rated = append(rated, models.BookWithRating{Book: b, Rating: scores[b.ID]})
	}
	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].Rating > rated[j].Rating
	})
	if len(rated) > 3 {
		rated = rated[:3]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user": models.UserSummary{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
		"Top 3 livros do utilizador": rated,
	})
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err := h.Store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error().Err(err).Int("id", id).Msg("delete user")
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "user deleted",
	})
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	var fields bson.M
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.Store.UpdateUser(r.Context(), id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error().Err(err).Int("id", id).Msg("update user")
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}
