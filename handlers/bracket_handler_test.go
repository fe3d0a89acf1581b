package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/strafelabs/bracket-engine/models"
	"github.com/strafelabs/bracket-engine/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBracketService struct {
	recordResult func(matchID string, team1Score, team2Score int) (*services.RecordResultOutput, error)
	bracketState func() (*services.BracketState, error)
}

func (s *stubBracketService) RecordResult(_ context.Context, matchID string, team1Score, team2Score int) (*services.RecordResultOutput, error) {
	return s.recordResult(matchID, team1Score, team2Score)
}

func (s *stubBracketService) ResetBracket(_ context.Context) ([]*models.Match, error) {
	return nil, nil
}

func (s *stubBracketService) GetBracketState(_ context.Context) (*services.BracketState, error) {
	return s.bracketState()
}

func (s *stubBracketService) SetMatchLive(_ context.Context, _ string, _ bool) (*models.Match, error) {
	return nil, nil
}

func newTestRouter(service services.BracketService) *chi.Mux {
	handler := NewBracketHandler(service)
	router := chi.NewRouter()
	router.Post("/matches/{matchID}/result", handler.RecordResultHandler)
	router.Get("/bracket", handler.GetBracketHandler)
	return router
}

func TestRecordResultHandler(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"decided result", `{"team1_score": 2, "team2_score": 0}`, nil, http.StatusOK},
		{"unknown match", `{"team1_score": 2, "team2_score": 0}`, services.ErrMatchNotFound, http.StatusNotFound},
		{"match not ready", `{"team1_score": 2, "team2_score": 0}`, services.ErrMatchNotReady, http.StatusConflict},
		{"already decided", `{"team1_score": 0, "team2_score": 2}`, services.ErrMatchAlreadyDecided, http.StatusConflict},
		{"negative score", `{"team1_score": -1, "team2_score": 0}`, services.ErrInvalidScore, http.StatusBadRequest},
		{"malformed body", `{"team1_score": `, nil, http.StatusBadRequest},
		{"unknown field", `{"scores": [2, 0]}`, nil, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubBracketService{
				recordResult: func(matchID string, team1Score, team2Score int) (*services.RecordResultOutput, error) {
					assert.Equal(t, "wb-r1-m1", matchID)
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					winner := 1
					return &services.RecordResultOutput{
						Match:   &models.Match{ID: matchID, WinnerID: &winner, IsFinished: true},
						Decided: true,
						Routed:  true,
					}, nil
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/matches/wb-r1-m1/result", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			newTestRouter(service).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"decided":true`)
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestGetBracketHandler(t *testing.T) {
	service := &stubBracketService{
		bracketState: func() (*services.BracketState, error) {
			return &services.BracketState{
				Teams:   []*models.Team{{ID: 1, Name: "Team A", Seed: 1}},
				Matches: []*models.Match{{ID: "wb-r1-m1", Bracket: models.BracketWinner, Round: 1, Position: 1}},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/bracket", nil)
	rec := httptest.NewRecorder()
	newTestRouter(service).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"wb-r1-m1"`)
	assert.Contains(t, rec.Body.String(), `"Team A"`)
}
