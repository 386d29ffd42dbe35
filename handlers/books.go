package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/livrarias/backend/models"
	"github.com/livrarias/backend/store"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
)

// BookStore is the slice of the store the book endpoints need. *store.DB
// implements it; tests substitute a fake.
type BookStore interface {
	ListBooks(ctx context.Context, page, limit int) ([]models.Book, int64, error)
	InsertBooks(ctx context.Context, books []models.Book) ([]models.Book, error)
	BookByID(ctx context.Context, id int) (*models.Book, error)
	DeleteBook(ctx context.Context, id int) error
	UpdateBook(ctx context.Context, id int, fields bson.M) error
	TopByAverageScore(ctx context.Context, limit int) ([]models.RatedBook, error)
	FiveStarBooks(ctx context.Context, page, limit int) ([]models.FiveStarBook, int64, error)
	BooksWithComments(ctx context.Context, page, limit int) ([]models.CommentedBook, int64, error)
	ReviewsByJob(ctx context.Context, page, limit int) ([]models.JobReviews, int64, error)
	BooksByReviewVolume(ctx context.Context, order, page, limit int) ([]models.ReviewVolume, int64, error)
	BooksByYear(ctx context.Context, year, page, limit int) ([]models.Book, int64, error)
	FilterBooks(ctx context.Context, f store.BookFilter, page, limit int) ([]models.Book, int64, error)
	CommentsForBook(ctx context.Context, bookID int) ([]models.Comment, error)
	UsersByIDs(ctx context.Context, ids []int) ([]models.User, error)
	UsersReviewedBook(ctx context.Context, bookID int) ([]models.User, error)
}

type BooksHandler struct {
	Store BookStore
	Log   zerolog.Logger
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	books, total, err := h.Store.ListBooks(r.Context(), page, limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("list books")
		respondError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"Paging": models.NewPaging(page, limit, total),
		"Livros": books,
	})
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var books []models.Book
	if err := json.NewDecoder(r.Body).Decode(&books); err != nil || len(books) == 0 {
		respondError(w, http.StatusBadRequest, "provide at least one book")
		return
	}
	inserted, err := h.Store.InsertBooks(r.Context(), books)
	if err != nil {
		h.Log.Error().Err(err).Msg("insert books")
		respondError(w, http.StatusInternalServerError, "failed to add books")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": strconv.Itoa(len(inserted)) + " book(s) added",
		"books":   inserted,
	})
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}
	if err := h.Store.DeleteBook(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "book not found")
			return
		}
		h.Log.Error().Err(err).Int("id", id).Msg("delete book")
		respondError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "book deleted",
	})
}

func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}
	var fields bson.M
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.Store.UpdateBook(r.Context(), id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "book not found")
			return
		}
		h.Log.Error().Err(err).Int("id", id).Msg("update book")
		respondError(w, http.StatusInternalServerError, "failed to update book")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "book updated"})
}

// TopByScore returns the {limit} best books by mean review score. The result
// is a hard-truncated leaderboard, not a paginated list.
func (h *BooksHandler) TopByScore(w http.ResponseWriter, r *http.Request) {
	if _, _, err := parsePaging(r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := strconv.Atoi(chi.URLParam(r, "limit"))
	if err != nil || limit < 1 {
		respondError(w, http.StatusBadRequest, "limit must be a positive number")
		return
	}
	books, err := h.Store.TopByAverageScore(r.Context(), limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("top books by score")
		respondError(w, http.StatusInternalServerError, "failed to rank books by score")
		return
	}
	if books == nil {
		books = []models.RatedBook{}
	}
	respondJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) FiveStar(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	books, total, err := h.Store.FiveStarBooks(r.Context(), page, limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("five star books")
		respondError(w, http.StatusInternalServerError, "failed to rank books by five-star reviews")
		return
	}
	if books == nil {
		books = []models.FiveStarBook{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"Paging": models.NewPaging(page, limit, total),
		"Livros": books,
	})
}

func (h *BooksHandler) WithComments(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	books, total, err := h.Store.BooksWithComments(r.Context(), page, limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("books with comments")
		respondError(w, http.StatusInternalServerError, "failed to rank books by comments")
		return
	}
	if books == nil {
		books = []models.CommentedBook{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"Paging": models.NewPaging(page, limit, total),
		"Livros": books,
	})
}

func (h *BooksHandler) ReviewsByJob(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	jobs, total, err := h.Store.ReviewsByJob(r.Context(), page, limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("reviews by job")
		respondError(w, http.StatusInternalServerError, "failed to count reviews by job")
		return
	}
	if jobs == nil {
		jobs = []models.JobReviews{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"Paging": models.NewPaging(page, limit, total),
		"Lista":  jobs,
	})
}

func (h *BooksHandler) ByReviewVolume(w http.ResponseWriter, r *http.Request) {
	var order int
	switch chi.URLParam(r, "order") {
	case "asc":
		order = 1
	case "desc":
		order = -1
	default:
		respondError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}
	page, limit, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	books, total, err := h.Store.BooksByReviewVolume(r.Context(), order, page, limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("books by review volume")
		respondError(w, http.StatusInternalServerError, "failed to rank books by review volume")
		return
	}
	if books == nil {
		books = []models.ReviewVolume{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"Paging": models.NewPaging(page, limit, total),
		"Livros": books,
	})
}

// Get returns the book, its average review score and its comments enriched
// with author details.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}
	book, err := h.Store.BookByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "book not found")
			return
		}
		h.Log.Error().Err(err).Int("id", id).Msg("get book")
		respondError(w, http.StatusInternalServerError, "failed to fetch book")
		return
	}

	comments, err := h.Store.CommentsForBook(r.Context(), id)
	if err != nil {
		h.Log.Error().Err(err).Int("id", id).Msg("comments for book")
		respondError(w, http.StatusInternalServerError, "failed to fetch book")
		return
	}
	userIDs := make([]int, 0, len(comments))
	seen := map[int]bool{}
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			userIDs = append(userIDs, c.UserID)
		}
	}
	authors := map[int]models.User{}
	if len(userIDs) > 0 {
		users, err := h.Store.UsersByIDs(r.Context(), userIDs)
		if err != nil {
			h.Log.Error().Err(err).Int("id", id).Msg("comment authors")
			respondError(w, http.StatusInternalServerError, "failed to fetch book")
			return
		}
		for _, u := range users {
			authors[u.ID] = u
		}
	}
	enriched := make([]models.CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		// A comment may reference a deleted user; author fields stay empty.
		author := authors[c.UserID]
		enriched = append(enriched, models.CommentWithAuthor{
			Comment:         c,
			UserFirstName:   author.FirstName,
			UserLastName:    author.LastName,
			UserJob:         author.Job,
			UserYearOfBirth: author.YearOfBirth,
		})
	}

	reviewers, err := h.Store.UsersReviewedBook(r.Context(), id)
	if err != nil {
		h.Log.Error().Err(err).Int("id", id).Msg("book reviewers")
		respondError(w, http.StatusInternalServerError, "failed to fetch book")
		return
	}
	var sum float64
	var count int
	for _, u := range reviewers {
		for _, rev := range u.Reviews {
			if rev.BookID == id {
				sum += rev.Score
				count++
			}
		}
	}
	averageScore := 0.0
	if count > 0 {
		averageScore = sum / float64(count)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"book":         book,
		"averageScore": averageScore,
		"comments":     enriched,
	})
}

func (h *BooksHandler) ByYear(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	yearStr := chi.URLParam(r, "year")
	year, err := strconv.Atoi(yearStr)
	if err != nil || len(yearStr) != 4 || year < 0 {
		respondError(w, http.StatusBadRequest, "year must be a 4-digit number")
		return
	}
	books, total, err := h.Store.BooksByYear(r.Context(), year, page, limit)
	if err != nil {
		h.Log.Error().Err(err).Int("year", year).Msg("books by year")
		respondError(w, http.StatusInternalServerError, "failed to list books by year")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"Paging": models.NewPaging(page, limit, total),
		"Livros": books,
	})
}

func (h *BooksHandler) Filter(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	filter := store.BookFilter{
		Category: q.Get("category"),
		Author:   q.Get("author"),
	}
	switch q.Get("price") {
	case "":
	case "asc":
		filter.PriceOrder = 1
	default:
		filter.PriceOrder = -1
	}
	books, total, err := h.Store.FilterBooks(r.Context(), filter, page, limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("filter books")
		respondError(w, http.StatusInternalServerError, "failed to filter books")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"Paging": models.NewPaging(page, limit, total),
		"Livros": books,
	})
}
