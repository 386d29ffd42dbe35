package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/livrarias/backend/models"
	"github.com/livrarias/backend/store"
	"github.com/rs/zerolog"
)

const defaultRadiusMeters = 1000

type LivrariaStore interface {
	LivrariaByID(ctx context.Context, id int) (*models.Livraria, error)
	AddBooksToLivraria(ctx context.Context, id int, bookIDs []int) error
	BooksByIDs(ctx context.Context, ids []int) ([]models.Book, error)
	LivrariasNear(ctx context.Context, lon, lat float64, radius int) ([]models.Livraria, error)
	LivrariasWithinPolygon(ctx context.Context, coords [][]float64) ([]models.Livraria, error)
	FeiraContainsPoint(ctx context.Context, lon, lat float64) (bool, error)
}

type LivrariasHandler struct {
	Store LivrariaStore
	Log   zerolog.Logger
}

// AddBooks merges book ids into the livraria's set; duplicates are ignored.
func (h *LivrariasHandler) AddBooks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "livraria not found")
		return
	}
	var books []struct {
		ID int `json:"_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&books); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	bookIDs := make([]int, len(books))
	for i, b := range books {
		bookIDs[i] = b.ID
	}
	if err := h.Store.AddBooksToLivraria(r.Context(), id, bookIDs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "livraria not found")
			return
		}
		h.Log.Error().Err(err).Int("id", id).Msg("add books to livraria")
		respondError(w, http.StatusInternalServerError, "failed to add books to livraria")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "book ids added to livraria"})
}

// ListBooks pages through the books curated onto a livraria.
func (h *LivrariasHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "livraria not found")
		return
	}
	page, limit, err := parsePaging(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	livraria, err := h.Store.LivrariaByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "livraria not found")
			return
		}
		h.Log.Error().Err(err).Int("id", id).Msg("get livraria")
		respondError(w, http.StatusInternalServerError, "failed to list livraria books")
		return
	}
	if len(livraria.Books) == 0 {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"Paging": models.NewPaging(page, limit, 0),
			"Livros": []models.Book{},
		})
		return
	}
	books, err := h.Store.BooksByIDs(r.Context(), livraria.Books)
	if err != nil {
		h.Log.Error().Err(err).Int("id", id).Msg("livraria books")
		respondError(w, http.StatusInternalServerError, "failed to list livraria books")
		return
	}
	total := int64(len(books))
	paging := models.NewPaging(page, limit, total)
	if page > paging.NumberOfPages {
		respondError(w, http.StatusBadRequest, "page does not exist")
		return
	}
	start := (page - 1) * limit
	end := start + limit
	if end > len(books) {
		end = len(books)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"Paging": paging,
		"Livros": books[start:end],
	})
}

func parseCoords(r *http.Request) (lon, lat float64, err error) {
	q := r.URL.Query()
	lat, err = strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return 0, 0, errors.New("lat must be a valid number")
	}
	lon, err = strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return 0, 0, errors.New("lon must be a valid number")
	}
	return lon, lat, nil
}

func parseRadius(r *http.Request) (int, error) {
	v := r.URL.Query().Get("radius")
	if v == "" {
		return defaultRadiusMeters, nil
	}
	radius, err := strconv.Atoi(v)
	if err != nil || radius < 1 {
		return 0, errors.New("radius must be a positive number of meters")
	}
	return radius, nil
}

// Near lists livrarias within the radius, closest first.
func (h *LivrariasHandler) Near(w http.ResponseWriter, r *http.Request) {
	lon, lat, err := parseCoords(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius, err := parseRadius(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	livrarias, err := h.Store.LivrariasNear(r.Context(), lon, lat, radius)
	if err != nil {
		h.Log.Error().Err(err).Msg("livrarias near")
		respondError(w, http.StatusInternalServerError, "failed to search nearby livrarias")
		return
	}
	if livrarias == nil {
		livrarias = []models.Livraria{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"livrarias": livrarias})
}

// CountNear is Near reduced to a count.
func (h *LivrariasHandler) CountNear(w http.ResponseWriter, r *http.Request) {
	lon, lat, err := parseCoords(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius, err := parseRadius(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	livrarias, err := h.Store.LivrariasNear(r.Context(), lon, lat, radius)
	if err != nil {
		h.Log.Error().Err(err).Msg("count livrarias near")
		respondError(w, http.StatusInternalServerError, "failed to count nearby livrarias")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": len(livrarias)})
}

type routeRequest struct {
	Coordenadas [][]float64 `json:"coordenadas" validate:"required,min=3,dive,len=2"`
}

// Route finds point livrarias inside the polygon drawn around a route.
func (h *LivrariasHandler) Route(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "at least 3 coordinate pairs are required to define a polygon")
		return
	}
	livrarias, err := h.Store.LivrariasWithinPolygon(r.Context(), req.Coordenadas)
	if err != nil {
		h.Log.Error().Err(err).Msg("livrarias within route")
		respondError(w, http.StatusInternalServerError, "failed to search livrarias within the route")
		return
	}
	if len(livrarias) == 0 {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "no livrarias found within the route",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "livrarias found within the route",
		"livrarias": livrarias,
	})
}

// VerifyFeira checks whether a point lies inside the Feira do Livro polygon.
// Being outside is a normal answer, not an error.
func (h *LivrariasHandler) VerifyFeira(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lon") == "" {
		respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	lon, lat, err := parseCoords(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	inside, err := h.Store.FeiraContainsPoint(r.Context(), lon, lat)
	if err != nil {
		h.Log.Error().Err(err).Msg("verify feira")
		respondError(w, http.StatusInternalServerError, "failed to verify the point against the Feira do Livro")
		return
	}
	if inside {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "the point is inside the Feira do Livro area",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "the point is outside the Feira do Livro area",
	})
}
