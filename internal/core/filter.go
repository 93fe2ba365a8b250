package core

// Filter narrows a user's ledger. Zero values mean no constraint; Start and
// End bounds are inclusive. The same filter feeds both the listing query and
// the aggregation read so the dashboard and the table view agree on the same
// records.
type Filter struct {
	Type     TransactionType
	Category string
	Start    *Date
	End      *Date
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page holds pagination inputs.
type Page struct {
	Page  int
	Limit int
}

// Normalize applies the clamping policy: page >= 1, limit in [1,100] with
// 20 as the unsupplied default.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset is the row offset of the normalized page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}
