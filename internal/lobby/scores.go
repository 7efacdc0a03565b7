package lobby

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"skyraid/internal/data"

	"golang.org/x/crypto/bcrypt"
)

type Scores struct {
	Board data.Leaderboard
	// AdminHash is the bcrypt hash of the token allowed to reset the board.
	// Empty disables reset.
	AdminHash []byte
}

func NewScores(board data.Leaderboard, adminHash string) *Scores {
	return &Scores{Board: board, AdminHash: []byte(adminHash)}
}

type scoreRequest struct {
	Name         string  `json:"name"`
	TimeSurvived float64 `json:"timeSurvived"`
}

// ServeHTTP routes /api/scores by method.
func (s *Scores) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.TopHandler(w, r)
	case http.MethodPost:
		s.RecordHandler(w, r)
	case http.MethodDelete:
		s.ResetHandler(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// TopHandler lists the best scores, longest survival first.
func (s *Scores) TopHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	scores, err := s.Board.TopScores(r.Context(), limit)
	if err != nil {
		log.Println("[DATA] top scores:", err)
		http.Error(w, "failed to load scores", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scores)
}

// RecordHandler stores one finished single-player run.
func (s *Scores) RecordHandler(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	err := s.Board.RecordScore(r.Context(), req.Name, req.TimeSurvived)
	switch {
	case errors.Is(err, data.ErrInvalidScore):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Println("[DATA] record score:", err)
		http.Error(w, "failed to save score", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ResetHandler clears the board for a caller holding the admin token.
func (s *Scores) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := s.Board.Reset(r.Context()); err != nil {
		log.Println("[DATA] reset scores:", err)
		http.Error(w, "failed to reset scores", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Scores) authorized(r *http.Request) bool {
	if len(s.AdminHash) == 0 {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(s.AdminHash, []byte(token)) == nil
}
