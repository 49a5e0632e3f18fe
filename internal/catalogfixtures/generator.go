package catalogfixtures

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/shelfpulse/internal/domain/model"
)

// Sales profiles. Every dashboard bucket and every edge of the thresholds is
// represented once the catalog has a few dozen products.
const (
	profileBestseller = iota // 21..400 units
	profileSteady            // 3..20 units
	profileSlow              // 1..2 units
	profileUnsold            // 0 units
	profileUnknown           // total_units_sold absent
	profileCount
)

// Rating profiles.
const (
	ratedToday = iota
	ratedEarlier
	neverRated
	ratingCount
)

var productNames = []string{ //nolint:gochecknoglobals // fixed word list
	"Desk Lamp", "Coffee Mug", "Notebook", "Wall Poster", "Bar Stool",
	"Area Rug", "Water Bottle", "Backpack", "Phone Stand", "Plant Pot",
	"Throw Pillow", "Picture Frame", "Candle", "Bookend", "Clock",
}

// Catalog is one generated data set.
type Catalog struct {
	Products  []model.ProductPerformanceRecord
	Analytics map[string]interface{}
}

// Generate builds a catalog of n products as of now. Output depends only on
// n, seed and the UTC day of now.
func Generate(n int, seed int64, now time.Time) Catalog {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // fixtures, not secrets
	products := make([]model.ProductPerformanceRecord, 0, n)
	var units, priced int64
	var revenue float64

	for i := 0; i < n; i++ {
		rec := generateProduct(rng, i, now)
		if rec.TotalUnitsSold != nil {
			units += *rec.TotalUnitsSold
			revenue += float64(*rec.TotalUnitsSold) * rec.Price
			priced++
		}
		products = append(products, rec)
	}

	return Catalog{
		Products: products,
		Analytics: map[string]interface{}{
			"as_of":                    now.UTC().Format(time.DateOnly),
			"total_products":           n,
			"total_units_sold":         units,
			"total_revenue":            round2(revenue),
			"products_with_sales_data": priced,
		},
	}
}

func generateProduct(rng *rand.Rand, i int, now time.Time) model.ProductPerformanceRecord {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		id = uuid.New()
	}
	rec := model.ProductPerformanceRecord{
		ID:    model.ProductID(id.String()),
		Name:  productNames[i%len(productNames)],
		Price: round2(1 + rng.Float64()*199),
	}

	// Cycle through the profiles so small catalogs still cover them all.
	switch i % profileCount {
	case profileBestseller:
		rec.TotalUnitsSold = int64p(21 + rng.Int63n(380))
	case profileSteady:
		rec.TotalUnitsSold = int64p(3 + rng.Int63n(18))
	case profileSlow:
		rec.TotalUnitsSold = int64p(1 + rng.Int63n(2))
	case profileUnsold:
		rec.TotalUnitsSold = int64p(0)
	case profileUnknown:
	}

	if rng.Intn(4) > 0 {
		rec.CurrentStock = int64p(rng.Int63n(120))
	}

	day := now.UTC().Truncate(24 * time.Hour)
	switch (i / profileCount) % ratingCount {
	case ratedToday:
		at := day.Add(time.Duration(rng.Int63n(int64(24 * time.Hour))))
		rec.LatestRatingDate = &at
		rec.AverageRating = float64p(round1(1 + rng.Float64()*4))
	case ratedEarlier:
		at := day.AddDate(0, 0, -1-rng.Intn(30)).Add(time.Duration(rng.Int63n(int64(24 * time.Hour))))
		rec.LatestRatingDate = &at
		rec.AverageRating = float64p(round1(1 + rng.Float64()*4))
	case neverRated:
	}
	return rec
}

func int64p(v int64) *int64       { return &v }
func float64p(v float64) *float64 { return &v }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
