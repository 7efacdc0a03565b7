package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"skyraid/internal/data"
	"skyraid/internal/protocol"
	"skyraid/internal/room"

	"golang.org/x/crypto/bcrypt"
)

type brokenBoard struct{}

func (brokenBoard) RecordScore(context.Context, string, float64) error {
	return errors.New("connection refused")
}
func (brokenBoard) TopScores(context.Context, int) ([]data.Score, error) {
	return nil, errors.New("connection refused")
}
func (brokenBoard) Reset(context.Context) error { return errors.New("connection refused") }

func do(t *testing.T, h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecordAndList(t *testing.T) {
	s := NewScores(data.NewMemoryStore(), "")

	for _, body := range []string{
		`{"name":"ada","timeSurvived":42.5}`,
		`{"name":"bob","timeSurvived":90}`,
	} {
		if rec := do(t, s, http.MethodPost, "/api/scores", body, nil); rec.Code != http.StatusCreated {
			t.Fatalf("POST %s = %d %s", body, rec.Code, rec.Body.String())
		}
	}

	rec := do(t, s, http.MethodGet, "/api/scores?limit=1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET = %d", rec.Code)
	}
	var got []data.Score
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "bob" || got[0].TimeSurvived != 90 {
		t.Fatalf("top = %+v", got)
	}
}

func TestRejectsInvalidScores(t *testing.T) {
	s := NewScores(data.NewMemoryStore(), "")
	for _, body := range []string{
		`{"name":"","timeSurvived":10}`,
		`{"name":"ada","timeSurvived":-4}`,
		`{"name":"` + strings.Repeat("x", 25) + `","timeSurvived":10}`,
		`not json`,
	} {
		if rec := do(t, s, http.MethodPost, "/api/scores", body, nil); rec.Code != http.StatusBadRequest {
			t.Fatalf("POST %q = %d, want 400", body, rec.Code)
		}
	}
	if rec := do(t, s, http.MethodGet, "/api/scores?limit=abc", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/api/scores", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PUT = %d", rec.Code)
	}
}

func TestPersistenceFailureIs500(t *testing.T) {
	s := NewScores(brokenBoard{}, "")
	if rec := do(t, s, http.MethodPost, "/api/scores", `{"name":"ada","timeSurvived":1}`, nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("POST = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/scores", "", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("GET = %d", rec.Code)
	}
}

func TestResetNeedsAdminToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	board := data.NewMemoryStore()
	s := NewScores(board, string(hash))
	_ = board.RecordScore(context.Background(), "ada", 5)

	if rec := do(t, s, http.MethodDelete, "/api/scores", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/scores", "", map[string]string{"Authorization": "Bearer wrong"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/scores", "", map[string]string{"Authorization": "Bearer s3cret"}); rec.Code != http.StatusNoContent {
		t.Fatalf("good token = %d", rec.Code)
	}
	if top, _ := board.TopScores(context.Background(), 0); len(top) != 0 {
		t.Fatalf("board not reset")
	}

	disabled := NewScores(board, "")
	if rec := do(t, disabled, http.MethodDelete, "/api/scores", "", map[string]string{"Authorization": "Bearer s3cret"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("reset without configured hash = %d", rec.Code)
	}
}

func TestMuxRoutes(t *testing.T) {
	m := room.NewManager(room.Options{TickHz: protocol.SimTickHz, BroadcastHz: protocol.BroadcastHz})
	defer m.Shutdown()
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	mux := NewMux(ws, NewScores(data.NewMemoryStore(), ""), m, "")

	if rec := do(t, mux, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodGet, "/ws", "", nil); rec.Code != http.StatusTeapot {
		t.Fatalf("ws route = %d", rec.Code)
	}

	rec := do(t, mux, http.MethodPost, "/api/rooms", "", nil)
	var created struct{ Code string }
	if rec.Code != http.StatusCreated || json.Unmarshal(rec.Body.Bytes(), &created) != nil || created.Code == "" {
		t.Fatalf("create room = %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, mux, http.MethodGet, "/api/rooms", "", nil)
	var rooms []room.RoomInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &rooms); err != nil || len(rooms) != 1 || rooms[0].Code != created.Code {
		t.Fatalf("rooms = %s", rec.Body.String())
	}
}
