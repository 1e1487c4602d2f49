package timeutils

import (
	"encoding/json"
	"strconv"
	"time"
)

// EpochSeconds decodes a vendor timestamp that may arrive as a JSON number,
// a numeric string, or garbage. Non-numeric values decode to zero instead of
// failing the surrounding payload.
type EpochSeconds int64

func (e *EpochSeconds) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*e = 0
		return nil
	}

	switch v := raw.(type) {
	case float64:
		*e = EpochSeconds(int64(v))
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*e = EpochSeconds(n)
		} else {
			*e = 0
		}
	default:
		*e = 0
	}
	return nil
}

// Time converts to a UTC time.Time. Zero means "absent".
func (e EpochSeconds) Time() time.Time {
	if e <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(e), 0).UTC()
}

// IsZero reports whether no usable timestamp was present.
func (e EpochSeconds) IsZero() bool {
	return e <= 0
}

// OrNow returns the decoded timestamp, falling back to now (UTC) when absent.
func (e EpochSeconds) OrNow() time.Time {
	if e.IsZero() {
		return time.Now().UTC()
	}
	return e.Time()
}
