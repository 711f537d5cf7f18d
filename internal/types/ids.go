package types

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationID identifies one evaluation run (UUIDv7).
// String alias enables type safety while maintaining JSON string
// serialization. Time-ordering clusters sequential inserts in B-tree pages.
type EvaluationID string

// PackRecordID identifies one published pack record (UUIDv7).
type PackRecordID string

// NewEvaluationID generates a UUIDv7 evaluation identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewEvaluationID() EvaluationID {
	return EvaluationID(uuid.Must(uuid.NewV7()).String())
}

// NewPackRecordID generates a UUIDv7 pack record identifier.
func NewPackRecordID() PackRecordID {
	return PackRecordID(uuid.Must(uuid.NewV7()).String())
}

// ParsePackRecordID validates and converts a string to PackRecordID.
func ParsePackRecordID(s string) (PackRecordID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return PackRecordID(s), nil
}

// EvaluationIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func EvaluationIDTime(id EvaluationID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
