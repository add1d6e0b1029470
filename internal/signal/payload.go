package signal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Payload is the decoded body of the signal endpoint. Only the last element
// of Signal is used; the rest of the body is kept verbatim for diagnostics.
type Payload struct {
	Signal json.RawMessage `json:"signal"`

	raw json.RawMessage
}

// NewPayload decodes a JSON object into a Payload.
func NewPayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	p.raw = append(json.RawMessage(nil), data...)
	return &p, nil
}

// Pretty returns the full payload indented for logging.
func (p *Payload) Pretty() string {
	if p == nil || len(p.raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.raw, "", "  "); err != nil {
		return string(p.raw)
	}
	return buf.String()
}

// Latest returns the last value of the signal series.
func (p *Payload) Latest() (int, error) {
	if p == nil {
		return 0, ErrSignalMissing
	}

	trimmed := bytes.TrimSpace(p.Signal)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, ErrSignalMissing
	}

	var series []json.RawMessage
	if err := json.Unmarshal(trimmed, &series); err != nil {
		// An empty string counts as absent, like an empty list.
		var s string
		if json.Unmarshal(trimmed, &s) == nil && s == "" {
			return 0, ErrSignalMissing
		}
		return 0, fmt.Errorf("%w: %v", ErrSignalMalformed, err)
	}
	if len(series) == 0 {
		return 0, ErrSignalMissing
	}

	last := bytes.TrimSpace(series[len(series)-1])
	if bytes.Equal(last, []byte("null")) {
		return 0, fmt.Errorf("%w: null", ErrSignalUnknown)
	}
	var f float64
	if err := json.Unmarshal(last, &f); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrSignalUnknown, last)
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s", ErrSignalUnknown, last)
	}
	return int(f), nil
}
