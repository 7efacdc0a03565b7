package lobby

import (
	"encoding/json"
	"net/http"

	"skyraid/internal/room"
)

type createRoomResponse struct {
	Code string `json:"code"`
}

// RoomsHandler lists live rooms on GET and opens a fresh one on POST.
func RoomsHandler(m *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(m.List())
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(createRoomResponse{Code: m.Create()})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// NewMux wires the HTTP surface: websocket endpoint, APIs and static files.
func NewMux(ws http.Handler, scores *Scores, rooms *room.Manager, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/api/scores", scores)
	mux.Handle("/api/rooms", RoomsHandler(rooms))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}
