package core

// Summary is the scalar income/expense/net rollup over a filtered ledger.
// TotalExpense is a positive magnitude; NetAmount = TotalIncome - TotalExpense.
type Summary struct {
	TotalIncome  Money `json:"totalIncome"`
	TotalExpense Money `json:"totalExpense"`
	NetAmount    Money `json:"netAmount"`
}

// CategoryTotal is one bucket of the category breakdown. Amount sums both
// income and expense magnitudes; a nil Category is the bucket for
// transactions recorded without one.
type CategoryTotal struct {
	Category *string `json:"category"`
	Amount   Money   `json:"amount"`
	Count    int     `json:"count"`
}

// TrendPoint is one calendar day's rollup. Days without transactions are
// omitted from the series; the caller fills gaps.
type TrendPoint struct {
	Date    Date  `json:"date"`
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Net     Money `json:"net"`
}

// Report bundles the three derived views computed from a single filtered
// read of the ledger.
type Report struct {
	Summary           Summary         `json:"summary"`
	CategoryBreakdown []CategoryTotal `json:"categoryBreakdown"`
	TrendData         []TrendPoint    `json:"trendData"`
}
