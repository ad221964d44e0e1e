package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nidhogg/ensemble/internal/character"
	"github.com/nidhogg/ensemble/internal/graph"
	"github.com/nidhogg/ensemble/internal/interaction"
	"github.com/nidhogg/ensemble/internal/relationship"
	"github.com/nidhogg/ensemble/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store     store.Store
	processor *interaction.Processor
	projector *graph.Projector // optional
	logger    *zap.Logger
}

// NewHandler creates a new API handler. projector may be nil.
func NewHandler(st store.Store, processor *interaction.Processor, projector *graph.Projector, logger *zap.Logger) *Handler {
	return &Handler{
		store:     st,
		processor: processor,
		projector: projector,
		logger:    logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		r.Get("/characters", h.listCharacters)
		r.Post("/characters", h.createCharacter)
		r.Get("/characters/{id}", h.getCharacter)
		r.Get("/characters/{id}/neighbors", h.getNeighbors)

		r.Post("/interactions", h.processInteraction)
		r.Get("/compatibility/{a}/{b}", h.getCompatibility)
		r.Get("/relationships/{a}/{b}", h.getRelationship)
		r.Get("/ecosystems/{id}/bonds", h.getStrongestBonds)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ensemble"})
}

// createCharacterRequest is the character creation payload.
type createCharacterRequest struct {
	Name        string                       `json:"name"`
	EcosystemID string                       `json:"ecosystem_id"`
	Profile     character.PersonalityProfile `json:"profile"`
}

func (h *Handler) createCharacter(w http.ResponseWriter, r *http.Request) {
	var req createCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Name == "" || req.EcosystemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and ecosystem_id are required"})
		return
	}
	if err := req.Profile.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	now := time.Now()
	c := &character.Character{
		ID:           uuid.NewString(),
		Name:         req.Name,
		EcosystemID:  req.EcosystemID,
		Profile:      req.Profile,
		Emotions:     character.NewEmotionalState(),
		SocialEnergy: 1.0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.SaveCharacter(r.Context(), c); err != nil {
		h.logger.Error("create character failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "save failed"})
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) listCharacters(w http.ResponseWriter, r *http.Request) {
	ecosystemID := r.URL.Query().Get("ecosystem_id")
	if ecosystemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ecosystem_id query parameter is required"})
		return
	}
	chars, err := h.store.ListCharacters(r.Context(), ecosystemID)
	if err != nil {
		h.logger.Error("list characters failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	if chars == nil {
		chars = []*character.Character{}
	}
	writeJSON(w, http.StatusOK, chars)
}

func (h *Handler) getCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.store.GetCharacter(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "character not found"})
		return
	}
	if err != nil {
		h.logger.Error("get character failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get failed"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) processInteraction(w http.ResponseWriter, r *http.Request) {
	var req interaction.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.processor.Process(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, interaction.ErrInvalidParticipants),
			errors.Is(err, character.ErrInvalidInteractionType):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, interaction.ErrInteractionBusy):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			h.logger.Error("interaction failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "interaction failed"})
		}
		return
	}
	// Feasibility failures are results, not errors.
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getCompatibility(w http.ResponseWriter, r *http.Request) {
	a := chi.URLParam(r, "a")
	b := chi.URLParam(r, "b")
	score, err := h.processor.Compatibility(r.Context(), a, b)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, interaction.ErrInvalidParticipants) || errors.Is(err, character.ErrInvalidProfile) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (h *Handler) getRelationship(w http.ResponseWriter, r *http.Request) {
	ecosystemID := r.URL.Query().Get("ecosystem_id")
	if ecosystemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ecosystem_id query parameter is required"})
		return
	}
	rel, err := h.store.GetRelationship(r.Context(), ecosystemID, chi.URLParam(r, "a"), chi.URLParam(r, "b"))
	if err != nil {
		h.logger.Error("get relationship failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get failed"})
		return
	}
	if rel == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": relationship.ErrUnknownRelationship.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (h *Handler) getNeighbors(w http.ResponseWriter, r *http.Request) {
	if h.projector == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "graph unavailable"})
		return
	}
	ecosystemID := r.URL.Query().Get("ecosystem_id")
	if ecosystemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ecosystem_id query parameter is required"})
		return
	}
	neighbors, err := h.projector.Neighbors(r.Context(), ecosystemID, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("neighbors query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	writeJSON(w, http.StatusOK, neighbors)
}

func (h *Handler) getStrongestBonds(w http.ResponseWriter, r *http.Request) {
	if h.projector == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "graph unavailable"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	bonds, err := h.projector.StrongestBonds(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.logger.Error("bonds query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	writeJSON(w, http.StatusOK, bonds)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
