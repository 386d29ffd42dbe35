package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/livrarias/backend/models"
	"github.com/livrarias/backend/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// fakeBookStore serves the book endpoints from in-memory slices and records
// whether it was queried at all, so tests can assert that validation errors
// short-circuit before the store.
type fakeBookStore struct {
	books     []models.Book
	comments  []models.Comment
	users     []models.User
	reviewers []models.User
	rated     []models.RatedBook
	fiveStar  []models.FiveStarBook
	commented []models.CommentedBook
	jobs      []models.JobReviews
	volumes   []models.ReviewVolume

	nextID        int
	queried       bool
	updatedFields bson.M
}

func pageSlice[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (f *fakeBookStore) ListBooks(_ context.Context, page, limit int) ([]models.Book, int64, error) {
	f.queried = true
	return pageSlice(f.books, page, limit), int64(len(f.books)), nil
}

func (f *fakeBookStore) InsertBooks(_ context.Context, books []models.Book) ([]models.Book, error) {
	f.queried = true
	for i := range books {
		f.nextID++
		books[i].ID = f.nextID
	}
	f.books = append(f.books, books...)
	return books, nil
}

func (f *fakeBookStore) BookByID(_ context.Context, id int) (*models.Book, error) {
	f.queried = true
	for _, b := range f.books {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeBookStore) DeleteBook(_ context.Context, id int) error {
	f.queried = true
	for i, b := range f.books {
		if b.ID == id {
			f.books = append(f.books[:i], f.books[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeBookStore) UpdateBook(_ context.Context, id int, fields bson.M) error {
	f.queried = true
	f.updatedFields = fields
	for _, b := range f.books {
		if b.ID == id {
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeBookStore) TopByAverageScore(_ context.Context, limit int) ([]models.RatedBook, error) {
	f.queried = true
	if limit < len(f.rated) {
		return f.rated[:limit], nil
	}
	return f.rated, nil
}

func (f *fakeBookStore) FiveStarBooks(_ context.Context, page, limit int) ([]models.FiveStarBook, int64, error) {
	f.queried = true
	return pageSlice(f.fiveStar, page, limit), int64(len(f.fiveStar)), nil
}

func (f *fakeBookStore) BooksWithComments(_ context.Context, page, limit int) ([]models.CommentedBook, int64, error) {
	f.queried = true
	return pageSlice(f.commented, page, limit), int64(len(f.commented)), nil
}

func (f *fakeBookStore) ReviewsByJob(_ context.Context, page, limit int) ([]models.JobReviews, int64, error) {
	f.queried = true
	return pageSlice(f.jobs, page, limit), int64(len(f.jobs)), nil
}

func (f *fakeBookStore) BooksByReviewVolume(_ context.Context, _, page, limit int) ([]models.ReviewVolume, int64, error) {
	f.queried = true
	return pageSlice(f.volumes, page, limit), int64(len(f.volumes)), nil
}

func (f *fakeBookStore) BooksByYear(_ context.Context, year, page, limit int) ([]models.Book, int64, error) {
	f.queried = true
	var matched []models.Book
	for _, b := range f.books {
		if b.PublishedDate != nil && b.PublishedDate.Year() == year {
			matched = append(matched, b)
		}
	}
	return pageSlice(matched, page, limit), int64(len(matched)), nil
}

func (f *fakeBookStore) FilterBooks(_ context.Context, _ store.BookFilter, page, limit int) ([]models.Book, int64, error) {
	f.queried = true
	return pageSlice(f.books, page, limit), int64(len(f.books)), nil
}

func (f *fakeBookStore) CommentsForBook(_ context.Context, bookID int) ([]models.Comment, error) {
	f.queried = true
	var matched []models.Comment
	for _, c := range f.comments {
		if c.BookID == bookID {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (f *fakeBookStore) UsersByIDs(_ context.Context, ids []int) ([]models.User, error) {
	f.queried = true
	var matched []models.User
	for _, u := range f.users {
		for _, id := range ids {
			if u.ID == id {
				matched = append(matched, u)
			}
		}
	}
	return matched, nil
}

func (f *fakeBookStore) UsersReviewedBook(_ context.Context, bookID int) ([]models.User, error) {
	f.queried = true
	var matched []models.User
	for _, u := range f.reviewers {
		for _, rev := range u.Reviews {
			if rev.BookID == bookID {
				matched = append(matched, u)
				break
			}
		}
	}
	return matched, nil
}

func newBooksRouter(s BookStore) *chi.Mux {
	h := &BooksHandler{Store: s, Log: zerolog.Nop()}
	r := chi.NewRouter()
	r.Get("/books", h.List)
	r.Post("/books", h.Create)
	r.Get("/books/top/{limit}", h.TopByScore)
	r.Get("/books/star", h.FiveStar)
	r.Get("/books/comments", h.WithComments)
	r.Get("/books/job", h.ReviewsByJob)
	r.Get("/books/ratings/{order}", h.ByReviewVolume)
	r.Get("/books/year/{year}", h.ByYear)
	r.Get("/books/filter/by", h.Filter)
	r.Get("/books/{id}", h.Get)
	r.Put("/books/{id}", h.Update)
	r.Delete("/books/{id}", h.Delete)
	return r
}

func someBooks(n int) []models.Book {
	books := make([]models.Book, n)
	for i := range books {
		books[i] = models.Book{ID: i + 1, Title: "book"}
	}
	return books
}

type pagedBooksResponse struct {
	Paging models.Paging `json:"Paging"`
	Livros []models.Book `json:"Livros"`
}

func TestListBooksPaging(t *testing.T) {
	r := newBooksRouter(&fakeBookStore{books: someBooks(5)})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books?page=1&limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp pagedBooksResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Livros, 2)
	assert.Equal(t, 3, resp.Paging.NumberOfPages)
	assert.Equal(t, int64(5), resp.Paging.TotalCount)
	require.NotNil(t, resp.Paging.NextPage)
	assert.Equal(t, 2, *resp.Paging.NextPage)
	assert.Nil(t, resp.Paging.PreviousPage)
}

func TestListBooksInvalidPagingSkipsQuery(t *testing.T) {
	for _, target := range []string{
		"/books?page=0",
		"/books?limit=0",
		"/books?page=-3",
		"/books?page=abc",
	} {
		fake := &fakeBookStore{books: someBooks(5)}
		r := newBooksRouter(fake)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.False(t, fake.queried, target)
	}
}

func TestCreateBooksSequentialIDs(t *testing.T) {
	fake := &fakeBookStore{nextID: 10}
	r := newBooksRouter(fake)
	body, _ := json.Marshal([]models.Book{{Title: "a"}, {Title: "b"}, {Title: "c"}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/books", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Books []models.Book `json:"books"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Books, 3)
	assert.Equal(t, 11, resp.Books[0].ID)
	assert.Equal(t, 12, resp.Books[1].ID)
	assert.Equal(t, 13, resp.Books[2].ID)
}

func TestCreateBooksRejectsEmptyAndNonArray(t *testing.T) {
	for _, body := range []string{"[]", `{"title":"x"}`, ""} {
		fake := &fakeBookStore{}
		r := newBooksRouter(fake)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/books", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.False(t, fake.queried, body)
	}
}

func TestDeleteBookNotFound(t *testing.T) {
	fake := &fakeBookStore{books: someBooks(2)}
	r := newBooksRouter(fake)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/books/99", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, fake.books, 2)
}

func TestUpdateBookPassesFields(t *testing.T) {
	fake := &fakeBookStore{books: someBooks(1)}
	r := newBooksRouter(fake)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/books/1",
		bytes.NewBufferString(`{"price": 9.5, "_id": 42}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 9.5, fake.updatedFields["price"])
}

func TestRatingsRejectsInvalidOrder(t *testing.T) {
	fake := &fakeBookStore{}
	r := newBooksRouter(fake)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/ratings/xyz", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, fake.queried)
}

func TestRatingsAcceptsAscAndDesc(t *testing.T) {
	for _, order := range []string{"asc", "desc"} {
		r := newBooksRouter(&fakeBookStore{volumes: []models.ReviewVolume{{ID: 1, Title: "x"}}})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/ratings/"+order, nil))
		assert.Equal(t, http.StatusOK, rec.Code, order)
	}
}

func TestByYearRejectsMalformedYear(t *testing.T) {
	for _, year := range []string{"20x4", "123", "12345", "abcd"} {
		fake := &fakeBookStore{}
		r := newBooksRouter(fake)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/year/"+year, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code, year)
		assert.False(t, fake.queried, year)
	}
}

func TestTopByScoreRejectsBadLimit(t *testing.T) {
	for _, limit := range []string{"0", "-1", "abc"} {
		r := newBooksRouter(&fakeBookStore{})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/top/"+limit, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
}

func TestTopByScoreTruncates(t *testing.T) {
	rated := []models.RatedBook{
		{Book: models.Book{ID: 1}, AverageScore: 5},
		{Book: models.Book{ID: 2}, AverageScore: 4},
		{Book: models.Book{ID: 3}, AverageScore: 3},
	}
	r := newBooksRouter(&fakeBookStore{rated: rated})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/top/2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []models.RatedBook
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 2)
	assert.Equal(t, 1, resp[0].ID)
}

func TestBookDetailAverageScoreZeroWithoutReviews(t *testing.T) {
	r := newBooksRouter(&fakeBookStore{books: someBooks(1)})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		AverageScore float64                    `json:"averageScore"`
		Comments     []models.CommentWithAuthor `json:"comments"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Zero(t, resp.AverageScore)
	assert.Empty(t, resp.Comments)
}

func TestBookDetailJoinsCommentsAndScore(t *testing.T) {
	fake := &fakeBookStore{
		books: someBooks(1),
		comments: []models.Comment{
			{ID: 1, BookID: 1, UserID: 7, Comment: "great"},
			{ID: 2, BookID: 1, UserID: 99, Comment: "orphaned author"},
		},
		users: []models.User{
			{ID: 7, FirstName: "Ana", LastName: "Silva", Job: "Engineer", YearOfBirth: 1990},
		},
		reviewers: []models.User{
			{ID: 7, Reviews: []models.Review{{BookID: 1, Score: 4}, {BookID: 2, Score: 1}}},
			{ID: 8, Reviews: []models.Review{{BookID: 1, Score: 2}}},
		},
	}
	r := newBooksRouter(fake)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		AverageScore float64                    `json:"averageScore"`
		Comments     []models.CommentWithAuthor `json:"comments"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	// (4 + 2) / 2; the review of book 2 does not count.
	assert.Equal(t, 3.0, resp.AverageScore)
	require.Len(t, resp.Comments, 2)
	assert.Equal(t, "Ana", resp.Comments[0].UserFirstName)
	assert.Equal(t, "Engineer", resp.Comments[0].UserJob)
	assert.Empty(t, resp.Comments[1].UserFirstName)
}

func TestBookDetailNotFound(t *testing.T) {
	r := newBooksRouter(&fakeBookStore{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/123", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFiveStarPagingUsesTrueTotal(t *testing.T) {
	fiveStar := make([]models.FiveStarBook, 7)
	for i := range fiveStar {
		fiveStar[i] = models.FiveStarBook{Book: models.Book{ID: i + 1}, FiveStarReviews: 7 - i}
	}
	r := newBooksRouter(&fakeBookStore{fiveStar: fiveStar})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/star?page=2&limit=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Paging models.Paging         `json:"Paging"`
		Livros []models.FiveStarBook `json:"Livros"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Paging.NumberOfPages)
	assert.Equal(t, int64(7), resp.Paging.TotalCount)
	assert.Len(t, resp.Livros, 3)
}
