package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/shelfpulse/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestProductPerformanceRecord_Decode(t *testing.T) {
	convey.Convey("Given a performance record JSON document", t, func() {
		convey.Convey("When every field is present and well formed", func() {
			doc := `{"id":17,"name":"Desk Lamp","price":19.99,"total_units_sold":25,"current_stock":4,
				"average_rating":4.5,"latest_rating_date":"2026-10-19T08:30:00Z"}`
			var rec model.ProductPerformanceRecord
			err := json.Unmarshal([]byte(doc), &rec)

			convey.Convey("Then it should decode every field", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.ID, convey.ShouldEqual, model.ProductID("17"))
				convey.So(rec.Name, convey.ShouldEqual, "Desk Lamp")
				convey.So(rec.Price, convey.ShouldEqual, 19.99)
				convey.So(rec.UnitsSold(), convey.ShouldEqual, 25)
				convey.So(rec.Stock(), convey.ShouldEqual, 4)
				convey.So(rec.Rated(), convey.ShouldBeTrue)
				at, ok := rec.RatedOn()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(at.Equal(time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When optional fields are absent", func() {
			var rec model.ProductPerformanceRecord
			err := json.Unmarshal([]byte(`{"id":"sku-1","name":"Mug","price":5}`), &rec)

			convey.Convey("Then counters default to zero and the fields stay absent", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.ID, convey.ShouldEqual, model.ProductID("sku-1"))
				convey.So(rec.TotalUnitsSold, convey.ShouldBeNil)
				convey.So(rec.CurrentStock, convey.ShouldBeNil)
				convey.So(rec.UnitsSold(), convey.ShouldEqual, 0)
				convey.So(rec.Stock(), convey.ShouldEqual, 0)
				convey.So(rec.Rated(), convey.ShouldBeFalse)
				_, ok := rec.RatedOn()
				convey.So(ok, convey.ShouldBeFalse)
			})

			convey.Convey("And re-encoding should omit them", func() {
				out, err := json.Marshal(rec)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(out), convey.ShouldNotContainSubstring, "total_units_sold")
				convey.So(string(out), convey.ShouldNotContainSubstring, "current_stock")
				convey.So(string(out), convey.ShouldNotContainSubstring, "latest_rating_date")
			})
		})

		convey.Convey("When re-encoding a decoded record", func() {
			var numeric, text model.ProductPerformanceRecord
			convey.So(json.Unmarshal([]byte(`{"id":17,"name":"Lamp","total_units_sold":25}`), &numeric), convey.ShouldBeNil)
			convey.So(json.Unmarshal([]byte(`{"id":"17","name":"Lamp"}`), &text), convey.ShouldBeNil)

			convey.Convey("Then the id keeps the form it arrived in", func() {
				out, err := json.Marshal(numeric)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(out), convey.ShouldStartWith, `{"id":17,`)
				convey.So(string(out), convey.ShouldContainSubstring, `"total_units_sold":25`)
				convey.So(string(out), convey.ShouldNotContainSubstring, "numericID")

				out, err = json.Marshal(text)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(out), convey.ShouldStartWith, `{"id":"17",`)
			})

			convey.Convey("And records built in code encode the id as a string", func() {
				out, err := json.Marshal(model.ProductPerformanceRecord{ID: "42"})
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(out), convey.ShouldEqual, `{"id":"42","name":"","price":0}`)
			})
		})

		convey.Convey("When optional fields are malformed", func() {
			doc := `{"id":3,"total_units_sold":"lots","current_stock":{"a":1},
				"average_rating":"n/a","latest_rating_date":"yesterday-ish","price":"free"}`
			var rec model.ProductPerformanceRecord
			err := json.Unmarshal([]byte(doc), &rec)

			convey.Convey("Then decoding should still succeed with the fields absent", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.TotalUnitsSold, convey.ShouldBeNil)
				convey.So(rec.CurrentStock, convey.ShouldBeNil)
				convey.So(rec.AverageRating, convey.ShouldBeNil)
				convey.So(rec.LatestRatingDate, convey.ShouldBeNil)
				convey.So(rec.Price, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When numbers arrive as strings or whole floats", func() {
			doc := `{"id":4,"total_units_sold":"21","current_stock":7.0,"average_rating":"3.5"}`
			var rec model.ProductPerformanceRecord
			err := json.Unmarshal([]byte(doc), &rec)

			convey.Convey("Then they should be accepted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.UnitsSold(), convey.ShouldEqual, 21)
				convey.So(rec.Stock(), convey.ShouldEqual, 7)
				convey.So(*rec.AverageRating, convey.ShouldEqual, 3.5)
			})
		})

		convey.Convey("When units sold is fractional", func() {
			var rec model.ProductPerformanceRecord
			err := json.Unmarshal([]byte(`{"id":5,"total_units_sold":2.5}`), &rec)

			convey.Convey("Then it is not a count and decodes as absent", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.TotalUnitsSold, convey.ShouldBeNil)
			})
		})

		convey.Convey("When rating dates use other common layouts", func() {
			layouts := map[string]time.Time{
				`"2026-10-19"`:                     time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
				`"2026-10-19 23:59:59"`:            time.Date(2026, 10, 19, 23, 59, 59, 0, time.UTC),
				`"2026-10-19T01:02:03"`:            time.Date(2026, 10, 19, 1, 2, 3, 0, time.UTC),
				`"2026-10-19T01:02:03.123456789Z"`: time.Date(2026, 10, 19, 1, 2, 3, 123456789, time.UTC),
			}

			convey.Convey("Then each should parse", func() {
				for raw, want := range layouts {
					var rec model.ProductPerformanceRecord
					err := json.Unmarshal([]byte(`{"id":1,"latest_rating_date":`+raw+`}`), &rec)
					convey.So(err, convey.ShouldBeNil)
					convey.So(rec.LatestRatingDate, convey.ShouldNotBeNil)
					convey.So(rec.LatestRatingDate.Equal(want), convey.ShouldBeTrue)
				}
			})
		})

		convey.Convey("When the id is null or an object", func() {
			var a, b model.ProductPerformanceRecord
			errA := json.Unmarshal([]byte(`{"id":null}`), &a)
			errB := json.Unmarshal([]byte(`{"id":{"x":1}}`), &b)

			convey.Convey("Then the id is empty and no error is raised", func() {
				convey.So(errA, convey.ShouldBeNil)
				convey.So(errB, convey.ShouldBeNil)
				convey.So(a.ID, convey.ShouldEqual, model.ProductID(""))
				convey.So(b.ID, convey.ShouldEqual, model.ProductID(""))
			})
		})
	})
}

func TestPerformancePayload_Decode(t *testing.T) {
	convey.Convey("Given a performance payload", t, func() {
		convey.Convey("When it carries records", func() {
			var p model.PerformancePayload
			err := json.Unmarshal([]byte(`{"performance":[{"id":1,"total_units_sold":30},{"id":2}]}`), &p)

			convey.Convey("Then records should keep their order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(p.Performance), convey.ShouldEqual, 2)
				convey.So(p.Performance[0].ID, convey.ShouldEqual, model.ProductID("1"))
				convey.So(p.Performance[1].ID, convey.ShouldEqual, model.ProductID("2"))
				convey.So(p.Skipped, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the performance array is missing, null or not an array", func() {
			for _, doc := range []string{`{}`, `{"performance":null}`, `{"performance":"oops"}`} {
				var p model.PerformancePayload
				err := json.Unmarshal([]byte(doc), &p)

				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Performance, convey.ShouldNotBeNil)
				convey.So(len(p.Performance), convey.ShouldEqual, 0)
			}
		})

		convey.Convey("When the array contains non-object entries", func() {
			var p model.PerformancePayload
			err := json.Unmarshal([]byte(`{"performance":[1,"x",null,{"id":9}]}`), &p)

			convey.Convey("Then they should be skipped and counted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(p.Performance), convey.ShouldEqual, 1)
				convey.So(p.Skipped, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the body is not an object", func() {
			var p model.PerformancePayload
			err := json.Unmarshal([]byte(`[1,2,3]`), &p)

			convey.Convey("Then decoding should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestAnalyticsPayload(t *testing.T) {
	convey.Convey("Given an analytics document", t, func() {
		var p model.AnalyticsPayload
		err := json.Unmarshal([]byte(`{"visits":120,"top_category":"lighting"}`), &p)

		convey.Convey("Then it should round-trip verbatim", func() {
			convey.So(err, convey.ShouldBeNil)
			out, err := json.Marshal(p)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, `{"visits":120,"top_category":"lighting"}`)
		})

		convey.Convey("And an empty payload encodes as null", func() {
			out, err := json.Marshal(model.AnalyticsPayload(nil))
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, "null")
		})
	})
}
