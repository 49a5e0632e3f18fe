package model

import (
	"bytes"
	"encoding/json"
)

// AnalyticsPayload is the product analytics document. Classification never
// looks inside it; it is kept verbatim for other dashboard panels.
type AnalyticsPayload json.RawMessage

// MarshalJSON emits the payload as-is ("null" when empty).
func (p AnalyticsPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON stores a copy of the raw document.
func (p *AnalyticsPayload) UnmarshalJSON(b []byte) error {
	*p = append((*p)[:0], b...)
	return nil
}

// PerformancePayload is the product performance document:
//
//	{ "performance": [ ProductPerformanceRecord, ... ] }
type PerformancePayload struct {
	Performance []ProductPerformanceRecord `json:"performance"`
	// Skipped counts array entries that were not JSON objects.
	Skipped int `json:"-"`
}

// UnmarshalJSON decodes the envelope. A missing, null or non-array
// performance field yields an empty slice; entries that are not objects are
// skipped and counted rather than failing the whole document. Only a body
// that is not a JSON object is an error.
func (p *PerformancePayload) UnmarshalJSON(b []byte) error {
	var env struct {
		Performance json.RawMessage `json:"performance"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(env.Performance, &entries); err != nil {
		entries = nil
	}
	out := PerformancePayload{Performance: make([]ProductPerformanceRecord, 0, len(entries))}
	for _, raw := range entries {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			out.Skipped++
			continue
		}
		var rec ProductPerformanceRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			out.Skipped++
			continue
		}
		out.Performance = append(out.Performance, rec)
	}
	*p = out
	return nil
}
