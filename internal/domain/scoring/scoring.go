// Package scoring validates raw score input and turns it into ledger entries.
package scoring

import (
	"errors"
	"math"
	"strconv"
	"strings"

	model "github.com/okian/tally/internal/domain/model"
)

const (
	// MaxAmount bounds the magnitude of any raw or stored amount. The range is
	// symmetric so the inverse of every entry is representable too.
	MaxAmount = math.MaxInt32
	// DefaultMaxRound is the highest round number accepted by default.
	DefaultMaxRound = 1000
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithMin rejects transformed amounts below lo.
func WithMin(lo int) Option {
	return func(s *Scorer) {
		s.bounds.Min = &lo
	}
}

// WithMax rejects transformed amounts above hi.
func WithMax(hi int) Option {
	return func(s *Scorer) {
		s.bounds.Max = &hi
	}
}

// WithMaxRound sets the highest accepted round number. Values below one keep
// the default.
func WithMaxRound(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxRound = n
		}
	}
}

// WithBounds sets both bounds at once. Nil leaves a side unconstrained.
func WithBounds(b Bounds) Option {
	return func(s *Scorer) {
		s.bounds = b
	}
}

// Bounds is an optional closed range for stored amounts.
type Bounds struct {
	Min *int
	Max *int
}

// Check returns a ValidationError when amount falls outside the range.
func (b Bounds) Check(amount int) error {
	if b.Min != nil && amount < *b.Min {
		return &model.ValidationError{Field: "score", Reason: "must be at least " + strconv.Itoa(*b.Min)}
	}
	if b.Max != nil && amount > *b.Max {
		return &model.ValidationError{Field: "score", Reason: "must be at most " + strconv.Itoa(*b.Max)}
	}
	return nil
}

// Input is one raw score submission as it arrives from a caller.
type Input struct {
	SessionID string
	PlayerID  int
	Round     int
	Raw       string
	Kind      string
}

// Scorer builds score entries. It is safe for concurrent use.
type Scorer struct {
	bounds   Bounds
	maxRound int
}

// NewScorer creates a scorer with the given options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{maxRound: DefaultMaxRound}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bounds returns the configured bounds.
func (s *Scorer) Bounds() Bounds {
	return s.bounds
}

// MaxRound returns the highest accepted round number.
func (s *Scorer) MaxRound() int {
	return s.maxRound
}

// Entry validates in and returns the entry to append. Nothing is recorded here:
// submitting the same input twice yields two entries.
func (s *Scorer) Entry(in Input) (model.ScoreEntry, error) {
	if in.Round < 0 {
		return model.ScoreEntry{}, &model.ValidationError{Field: "round", Reason: "must not be negative"}
	}
	if in.Round > s.maxRound {
		return model.ScoreEntry{}, &model.ValidationError{Field: "round", Reason: "must be at most " + strconv.Itoa(s.maxRound)}
	}
	if in.PlayerID <= 0 {
		return model.ScoreEntry{}, &model.ValidationError{Field: "playerId", Reason: "is required"}
	}
	raw, err := ParseAmount(in.Raw)
	if err != nil {
		return model.ScoreEntry{}, err
	}
	kind, err := model.ParseKind(in.Kind)
	if err != nil {
		return model.ScoreEntry{}, err
	}
	amount := Apply(kind, raw)
	if err := s.bounds.Check(amount); err != nil {
		return model.ScoreEntry{}, err
	}
	return model.ScoreEntry{
		SessionID: in.SessionID,
		PlayerID:  in.PlayerID,
		Round:     in.Round,
		Amount:    amount,
		Kind:      kind,
	}, nil
}

// ParseAmount parses a finite integral number within ±MaxAmount. "12", "-3"
// and "4.0" are accepted; "", "abc", "NaN", "Inf", "2.5" and "9999999999"
// are not.
func ParseAmount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &model.ValidationError{Field: "score", Reason: "is required"}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	switch {
	case err == nil && (n > MaxAmount || n < -MaxAmount), errors.Is(err, strconv.ErrRange):
		return 0, &model.ValidationError{Field: "score", Reason: "is out of range"}
	case err == nil:
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &model.ValidationError{Field: "score", Reason: "must be a finite number"}
	}
	if f != math.Trunc(f) {
		return 0, &model.ValidationError{Field: "score", Reason: "must be a whole number"}
	}
	if f > MaxAmount || f < -MaxAmount {
		return 0, &model.ValidationError{Field: "score", Reason: "is out of range"}
	}
	return int(f), nil
}

// Apply transforms a raw amount by kind. Penalties are always stored negative;
// regular and bonus entries keep the input as given.
func Apply(kind model.Kind, raw int) int {
	if kind == model.KindPenalty {
		if raw < 0 {
			return raw
		}
		return -raw
	}
	return raw
}
