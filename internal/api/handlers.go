package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/terramesh/api/internal/playground"
	"github.com/terramesh/api/internal/solver"
)

const requestTimeout = 30 * time.Second

type Handler struct {
	manager *playground.Manager
}

func NewHandler(manager *playground.Manager) *Handler {
	return &Handler{manager: manager}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "terramesh-api",
		"version":   "1.0.0",
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response)
}

// GenerateMap creates a new terrain from the posted parameters; omitted
// fields fall back to the configured defaults.
func (h *Handler) GenerateMap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Algorithm string  `json:"algorithm"`
		Width     int     `json:"width"`
		Height    int     `json:"height"`
		Roughness float64 `json:"roughness"`
		BlockSize int     `json:"block_size"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Width < 0 || req.Height < 0 {
		h.renderError(w, r, http.StatusBadRequest, "width and height must be non-negative", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	record, err := h.manager.GenerateMap(ctx, playground.GenerateParams{
		Algorithm: req.Algorithm,
		Width:     req.Width,
		Height:    req.Height,
		Roughness: req.Roughness,
		BlockSize: req.BlockSize,
	})
	if err != nil {
		if errors.Is(err, playground.ErrInvalidParams) {
			h.renderError(w, r, http.StatusBadRequest, "invalid map parameters", err)
			return
		}
		log.Error("failed to generate map", "error", err, "algorithm", req.Algorithm)
		h.renderError(w, r, http.StatusInternalServerError, "failed to generate map", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, record)
}

// GetMap returns a map's metadata together with its elevation grid.
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mapID(w, r)
	if !ok {
		return
	}

	hm, record, err := h.manager.GetMap(id)
	if err != nil {
		h.renderMapError(w, r, id, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"map":  record,
		"data": hm.Data(),
	})
}

// GetSmallMap returns the block-averaged overview of a map.
func (h *Handler) GetSmallMap(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mapID(w, r)
	if !ok {
		return
	}

	small, err := h.manager.SmallMap(id)
	if err != nil {
		h.renderMapError(w, r, id, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"width":  small.Width(),
		"height": small.Height(),
		"data":   small.Data(),
	})
}

// SolveRoute computes a route between two marker locations on a map. An
// unreachable goal is a 200 with found=false, not an error.
func (h *Handler) SolveRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mapID(w, r)
	if !ok {
		return
	}

	var req struct {
		Start solver.Location `json:"start"`
		End   solver.Location `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.manager.SolveRoute(ctx, id, req.Start, req.End)
	if err != nil {
		if errors.Is(err, playground.ErrMapNotFound) {
			h.renderError(w, r, http.StatusNotFound, "map not found", err)
			return
		}
		if errors.Is(err, playground.ErrInvalidParams) {
			h.renderError(w, r, http.StatusBadRequest, "invalid route locations", err)
			return
		}
		log.Error("failed to solve route", "error", err, "map_id", id)
		h.renderError(w, r, http.StatusInternalServerError, "failed to solve route", err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"found":  result.Record.Found,
		"record": result.Record,
		"path":   result.Path,
	})
}

// ListRoutes returns the solve history of a map, newest first.
func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mapID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	routes, err := h.manager.ListRoutes(ctx, id)
	if err != nil {
		log.Error("failed to list routes", "error", err, "map_id", id)
		h.renderError(w, r, http.StatusInternalServerError, "failed to list routes", err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"map_id": id,
		"routes": routes,
	})
}

func (h *Handler) mapID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid map id", err)
		return 0, false
	}
	return id, true
}

func (h *Handler) renderMapError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, playground.ErrMapNotFound) {
		h.renderError(w, r, http.StatusNotFound, "map not found", err)
		return
	}
	log.Error("failed to load map", "error", err, "map_id", id)
	h.renderError(w, r, http.StatusInternalServerError, "failed to load map", err)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	errorResponse := ErrorResponse{
		Error:   message,
		Code:    status,
		Message: message,
	}

	if err != nil {
		log.Error("API error", "error", err, "message", message, "status", status)
		// Don't expose internal errors to the client
		if status >= 500 {
			errorResponse.Error = "Internal server error"
		}
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse)
}
