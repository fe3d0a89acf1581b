package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/strafelabs/bracket-engine/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bracketService}
}

// RecordResultHandler handles POST /matches/{matchID}/result.
func (h *BracketHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var input struct {
		Team1Score int `json:"team1_score"`
		Team2Score int `json:"team2_score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.RecordResult(r.Context(), matchID, input.Team1Score, input.Team2Score)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetLiveHandler handles POST /matches/{matchID}/live.
func (h *BracketHandler) SetLiveHandler(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var input struct {
		IsLive bool `json:"is_live"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.bracketService.SetMatchLive(r.Context(), matchID, input.IsLive)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetBracketHandler handles POST /bracket/reset.
func (h *BracketHandler) ResetBracketHandler(w http.ResponseWriter, r *http.Request) {
	matches, err := h.bracketService.ResetBracket(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetBracketHandler handles GET /bracket.
func (h *BracketHandler) GetBracketHandler(w http.ResponseWriter, r *http.Request) {
	state, err := h.bracketService.GetBracketState(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
