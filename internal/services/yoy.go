package services

import (
	"math"
	"strconv"
	"time"

	"revenue-dashboard/internal/models"
)

const monthsPerYear = 12

// BuildMatrix pivots raw (year, month, total) aggregation rows into the
// fixed 12-month year-over-year comparison. Pure function of its inputs:
// the same rows and years always produce an identical report.
//
// Rows are maps as returned by the query layer, keyed y / m / total_grand.
// Unparseable totals and out-of-range months are excluded rather than
// failing; absent months and an entirely absent year fill with zeros. The
// percentage column is forced to 0.0 whenever the base-year total is zero
// or the division is non-finite.
func BuildMatrix(rows []map[string]any, yearA, yearB int) models.YoYReport {
	totals := make(map[int]map[int]float64, 2)

	for _, row := range rows {
		year, ok := toInt(row["y"])
		if !ok {
			continue
		}
		month, ok := toInt(row["m"])
		if !ok || month < 1 || month > monthsPerYear {
			continue
		}
		total, ok := toFloat(row["total_grand"])
		if !ok {
			continue
		}

		if totals[year] == nil {
			totals[year] = make(map[int]float64, monthsPerYear)
		}
		totals[year][month] += total
	}

	report := models.YoYReport{
		YearA:       yearA,
		YearB:       yearB,
		Rows:        make([]models.YoYRow, 0, monthsPerYear),
		RowsFetched: len(rows),
	}

	for month := 1; month <= monthsPerYear; month++ {
		a := totals[yearA][month]
		b := totals[yearB][month]
		diff := b - a

		report.Rows = append(report.Rows, models.YoYRow{
			Month:     month,
			MonthName: time.Month(month).String()[:3],
			TotalA:    a,
			TotalB:    b,
			Diff:      diff,
			Pct:       safePct(diff, a),
		})

		report.TotalA += a
		report.TotalB += b
	}

	report.OverallPct = safePct(report.TotalB-report.TotalA, report.TotalA)

	return report
}

// safePct is diff/base*100 with the zero/non-finite guard: never NaN, never
// ±Inf, never an error.
func safePct(diff, base float64) float64 {
	if base == 0 {
		return 0.0
	}
	pct := diff / base * 100.0
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0.0
	}
	return pct
}

// toFloat coerces the driver's value for an aggregate column. MySQL returns
// DECIMAL sums as []byte; integers and floats appear for other column types.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case []byte:
		return parseFloatString(string(n))
	case string:
		return parseFloatString(n)
	default:
		return 0, false
	}
}

func parseFloatString(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}
