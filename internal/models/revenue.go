package models

// Branch is one row of the branch reference master. Loaded once from CSV at
// startup and immutable afterwards.
type Branch struct {
	InternalID int    `json:"internal_id"`
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	City       string `json:"city,omitempty"`
}

// BranchOption is a selector entry: a display label plus the identifier bound
// into the revenue query.
type BranchOption struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// YoYRow is one month of the year-over-year comparison. The matrix always
// carries all 12 months; months with no transactions hold zeros.
type YoYRow struct {
	Month     int     `json:"month"`
	MonthName string  `json:"month_name"`
	TotalA    float64 `json:"total_a"`
	TotalB    float64 `json:"total_b"`
	Diff      float64 `json:"diff"`
	Pct       float64 `json:"pct"`
}

// YoYReport is the complete comparison for one branch: 12 month rows plus the
// summary scalars shown as metrics.
type YoYReport struct {
	YearA       int      `json:"year_a"`
	YearB       int      `json:"year_b"`
	Rows        []YoYRow `json:"rows"`
	TotalA      float64  `json:"total_a"`
	TotalB      float64  `json:"total_b"`
	OverallPct  float64  `json:"overall_pct"`
	RowsFetched int      `json:"rows_fetched"`
}
