package engine

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRunID mints the identifier for one pipeline run: a ULID, so IDs are
// unique across concurrent invocations yet sort by creation time. The logs
// root and the results-dir run marker both key on it.
func NewRunID() (string, error) {
	now := time.Now().UTC()
	id, err := ulid.New(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
