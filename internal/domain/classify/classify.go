// Package classify partitions a product performance snapshot into the
// dashboard buckets: top saleable, non-saleable and rated today.
//
// Classification is a pure function of the records and the UTC calendar day
// of now. It never fails; an empty snapshot produces an empty Result.
package classify

import (
	"sort"
	"time"

	"github.com/okian/shelfpulse/internal/domain/model"
)

// Classification thresholds.
const (
	// SaleableThreshold is exclusive: a product is saleable when it sold more.
	SaleableThreshold = 20
	// NonSaleableCeiling is exclusive: non-saleable products sold 1..NonSaleableCeiling-1.
	NonSaleableCeiling = 3
	// TopLimit caps the saleable and non-saleable lists.
	TopLimit = 10
)

// Record is the classified input type.
type Record = model.ProductPerformanceRecord

// Result is one classified snapshot. Slices are never nil.
type Result struct {
	TopSaleableProducts  []Record `json:"top_saleable_products"`
	NonSaleableProducts  []Record `json:"non_saleable_products"`
	CurrentRatedProducts []Record `json:"current_rated_products"`
	// Counts are taken before the TopLimit cap.
	SaleableCount    int `json:"saleable_count"`
	NonSaleableCount int `json:"non_saleable_count"`
}

// Classify builds a Result from records as of now.
func Classify(records []Record, now time.Time) Result {
	saleable := filter(records, func(r Record) bool {
		return r.UnitsSold() > SaleableThreshold
	})
	nonSaleable := filter(records, func(r Record) bool {
		sold := r.UnitsSold()
		return sold > 0 && sold < NonSaleableCeiling
	})
	rated := filter(records, func(r Record) bool {
		at, ok := r.RatedOn()
		return ok && SameUTCDay(at, now)
	})

	sortByUnitsSoldDesc(saleable)
	sortByUnitsSoldDesc(nonSaleable)

	return Result{
		TopSaleableProducts:  truncate(saleable, TopLimit),
		NonSaleableProducts:  truncate(nonSaleable, TopLimit),
		CurrentRatedProducts: rated,
		SaleableCount:        len(saleable),
		NonSaleableCount:     len(nonSaleable),
	}
}

// SameUTCDay reports whether a and b fall on the same calendar day in UTC.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// filter copies the records matching keep, preserving input order.
func filter(records []Record, keep func(Record) bool) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// sortByUnitsSoldDesc orders by units sold, highest first. Equal counts keep
// their input order; there is no secondary key.
func sortByUnitsSoldDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UnitsSold() > records[j].UnitsSold()
	})
}

func truncate(records []Record, limit int) []Record {
	if len(records) <= limit {
		return records
	}
	return records[:limit:limit]
}

// IsEmpty reports the "no data yet" state: all three buckets are empty.
func (r Result) IsEmpty() bool {
	return len(r.TopSaleableProducts) == 0 &&
		len(r.NonSaleableProducts) == 0 &&
		len(r.CurrentRatedProducts) == 0
}

// Distribution is the two-slice saleable/non-saleable split.
type Distribution struct {
	Saleable         int     `json:"saleable"`
	NonSaleable      int     `json:"non_saleable"`
	Total            int     `json:"total"`
	SaleableShare    float64 `json:"saleable_share"`
	NonSaleableShare float64 `json:"non_saleable_share"`
}

// Distribution computes shares from the pre-truncation counts. With no
// products in either bucket both shares are zero.
func (r Result) Distribution() Distribution {
	d := Distribution{
		Saleable:    r.SaleableCount,
		NonSaleable: r.NonSaleableCount,
		Total:       r.SaleableCount + r.NonSaleableCount,
	}
	if d.Total == 0 {
		return d
	}
	d.SaleableShare = float64(d.Saleable) / float64(d.Total)
	d.NonSaleableShare = float64(d.NonSaleable) / float64(d.Total)
	return d
}

// Find returns the first record with id across the three buckets.
func (r Result) Find(id model.ProductID) (Record, bool) {
	for _, bucket := range [][]Record{r.TopSaleableProducts, r.NonSaleableProducts, r.CurrentRatedProducts} {
		for _, rec := range bucket {
			if rec.ID == id {
				return rec, true
			}
		}
	}
	return Record{}, false
}
