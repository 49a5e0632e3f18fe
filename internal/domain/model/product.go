// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ProductID identifies a product. Upstream sends it either as a JSON number
// or a JSON string; both decode to the same textual form.
type ProductID string

// UnmarshalJSON accepts numbers and strings; anything else decodes as "".
func (id *ProductID) UnmarshalJSON(b []byte) error {
	s, _ := scalar(b)
	*id = ProductID(s)
	return nil
}

// ProductPerformanceRecord is one row of the performance source.
//
// Optional counters and rating fields are pointers: nil means the upstream
// omitted the field (or sent something unusable). Classification reads them
// through UnitsSold/Stock, which default absent values to zero; the record
// itself keeps the field absent so it re-encodes exactly as received.
type ProductPerformanceRecord struct {
	ID               ProductID  `json:"id"`
	Name             string     `json:"name"`
	Price            float64    `json:"price"`
	TotalUnitsSold   *int64     `json:"total_units_sold,omitempty"`
	CurrentStock     *int64     `json:"current_stock,omitempty"`
	AverageRating    *float64   `json:"average_rating,omitempty"`
	LatestRatingDate *time.Time `json:"latest_rating_date,omitempty"`

	// numericID is set when upstream sent the id as a JSON number.
	numericID bool
}

// UnitsSold returns total units sold, or 0 when absent.
func (r ProductPerformanceRecord) UnitsSold() int64 {
	if r.TotalUnitsSold == nil {
		return 0
	}
	return *r.TotalUnitsSold
}

// Stock returns current stock, or 0 when absent.
func (r ProductPerformanceRecord) Stock() int64 {
	if r.CurrentStock == nil {
		return 0
	}
	return *r.CurrentStock
}

// Rated reports whether the product carries an average rating.
func (r ProductPerformanceRecord) Rated() bool {
	return r.AverageRating != nil
}

// RatedOn returns the most recent rating time, if any.
func (r ProductPerformanceRecord) RatedOn() (time.Time, bool) {
	if r.LatestRatingDate == nil {
		return time.Time{}, false
	}
	return *r.LatestRatingDate, true
}

// wireRecord is the raw decode target; optional fields stay raw so that a bad
// value in one of them never fails the whole record.
type wireRecord struct {
	ID               json.RawMessage `json:"id"`
	Name             json.RawMessage `json:"name"`
	Price            json.RawMessage `json:"price"`
	TotalUnitsSold   json.RawMessage `json:"total_units_sold"`
	CurrentStock     json.RawMessage `json:"current_stock"`
	AverageRating    json.RawMessage `json:"average_rating"`
	LatestRatingDate json.RawMessage `json:"latest_rating_date"`
}

// UnmarshalJSON decodes leniently: malformed optional fields become absent.
func (r *ProductPerformanceRecord) UnmarshalJSON(b []byte) error {
	var w wireRecord
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	id, _ := scalar(w.ID)
	*r = ProductPerformanceRecord{
		ID:               ProductID(id),
		numericID:        isNumber(w.ID),
		Name:             parseString(w.Name),
		TotalUnitsSold:   parseInt(w.TotalUnitsSold),
		CurrentStock:     parseInt(w.CurrentStock),
		AverageRating:    parseFloat(w.AverageRating),
		LatestRatingDate: parseTime(w.LatestRatingDate),
	}
	if p := parseFloat(w.Price); p != nil {
		r.Price = *p
	}
	return nil
}

// MarshalJSON encodes the record with its id in the form it was received: a
// numeric upstream id stays a JSON number.
func (r ProductPerformanceRecord) MarshalJSON() ([]byte, error) {
	type plain ProductPerformanceRecord
	id := json.RawMessage(r.ID)
	if !r.numericID || !isNumber(id) {
		b, err := json.Marshal(string(r.ID))
		if err != nil {
			return nil, err
		}
		id = b
	}
	return json.Marshal(struct {
		ID json.RawMessage `json:"id"`
		plain
	}{ID: id, plain: plain(r)})
}

// isNumber reports whether raw is a single JSON number.
func isNumber(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return false
	}
	return json.Valid(raw)
}

// timeLayouts are tried in order when decoding rating timestamps.
var timeLayouts = []string{ //nolint:gochecknoglobals // fixed layout table
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// scalar returns the textual form of a JSON number or string.
func scalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	case '{', '[':
		return "", false
	}
	return string(raw), true
}

func parseString(raw json.RawMessage) string {
	s, _ := scalar(raw)
	return s
}

func parseInt(raw json.RawMessage) *int64 {
	s, ok := scalar(raw)
	if !ok {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	// Whole-valued floats such as 25.0 are still counts.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return nil
	}
	n := int64(f)
	return &n
}

func parseFloat(raw json.RawMessage) *float64 {
	s, ok := scalar(raw)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseTime(raw json.RawMessage) *time.Time {
	s, ok := scalar(raw)
	if !ok {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
