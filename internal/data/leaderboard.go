package data

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	MaxNameRunes   = 24
	MaxSurvivedSec = 86400
	DefaultLimit   = 10
	MaxLimit       = 100
)

var ErrInvalidScore = errors.New("invalid score")

// Score is one leaderboard entry.
type Score struct {
	Name         string    `json:"name"`
	TimeSurvived float64   `json:"timeSurvived"`
	Date         time.Time `json:"date"`
}

// Leaderboard records survival times and lists the best ones, longest first.
type Leaderboard interface {
	RecordScore(ctx context.Context, name string, secs float64) error
	TopScores(ctx context.Context, limit int) ([]Score, error)
	Reset(ctx context.Context) error
}

// ValidateScore trims the name and checks both fields.
func ValidateScore(name string, secs float64) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameRunes {
		return "", fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidScore, MaxNameRunes)
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 || secs > MaxSurvivedSec {
		return "", fmt.Errorf("%w: time survived must be between 0 and %d seconds", ErrInvalidScore, MaxSurvivedSec)
	}
	return name, nil
}

// ClampLimit maps a requested limit onto 1..MaxLimit, zero meaning the default.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// MemoryStore keeps scores in process. It backs DB-less runs and tests.
type MemoryStore struct {
	mu     sync.Mutex
	scores []Score
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) RecordScore(_ context.Context, name string, secs float64) error {
	name, err := ValidateScore(name, secs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, Score{Name: name, TimeSurvived: secs, Date: m.now().UTC()})
	return nil
}

func (m *MemoryStore) TopScores(_ context.Context, limit int) ([]Score, error) {
	m.mu.Lock()
	out := slices.Clone(m.scores)
	m.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Score) int {
		if c := cmp.Compare(b.TimeSurvived, a.TimeSurvived); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	if limit = ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = nil
	return nil
}
