package repository

import (
	"errors"
	"time"

	model "github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/metrics"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = model.ErrNotFound
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrUnknownDriver = errors.New("unknown database driver")
)

// observe records the latency of one store call.
func observe(store, op string, start time.Time) {
	metrics.RecordStoreLatency(store, op, float64(time.Since(start).Microseconds())/1000)
}
