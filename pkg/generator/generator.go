package generator

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDLength fits the users.id column.
const IDLength = ulid.EncodedSize

// NewID returns a ULID stamped with now, so ids sort by creation time.
func NewID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
