package dynamodb

import (
	"time"

	"github.com/google/uuid"

	apperrors "idp-backend/pkg/errors"
)

// timeFormat is fixed width so that the string order of two serialized
// timestamps matches their chronological order, and so that a timestamp
// round-trips to the exact same string. Precision is microseconds; every
// write truncates to it before serializing.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// clock returns the observed-now value used for createdAt/updatedAt. It
// is a variable so tests can pin time.
var clock = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, apperrors.NewInternalError("malformed stored timestamp").WithCause(err)
	}
	return t, nil
}

// formatOptTime serializes an optional timestamp; nil maps to the empty
// string, which the item structs omit entirely.
func formatOptTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseOptTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// uuidString serializes a reference; the zero UUID maps to an absent
// attribute rather than a "nil" sentinel.
func uuidString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperrors.NewInternalError("malformed stored identifier").WithCause(err)
	}
	return id, nil
}
