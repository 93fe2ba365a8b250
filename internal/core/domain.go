package core

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const dateLayout = "2006-01-02"

type (
	TransactionType string

	// Date is a calendar day in UTC. Economic dates have day precision;
	// record bookkeeping timestamps stay full time.Time.
	Date struct {
		time.Time
	}

	// Transaction is one ledger entry owned by exactly one user. Amount is
	// a magnitude; direction comes from Type. A nil Category groups into
	// its own bucket during aggregation.
	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      Money
		Currency    string
		Category    *string
		Description string
		Date        Date
		ReceiptID   string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// TransactionUpdate is a partial update; nil fields are left untouched.
	TransactionUpdate struct {
		Type        *TransactionType
		Amount      *Money
		Currency    *string
		Category    *string
		Description *string
		Date        *Date
		ReceiptID   *string
	}

	// Draft is the unsaved transaction proposal produced by receipt
	// extraction. It becomes a Transaction only through an explicit create.
	Draft struct {
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Currency    string          `json:"currency"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
	}
)

func (t TransactionType) Valid() bool { return t == Income || t == Expense }

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Description) > 500 {
		return Validationf("description too long (max 500 characters)")
	}
	return nil
}

func (u TransactionUpdate) Validate() error {
	if u.Type != nil && !u.Type.Valid() {
		return ErrInvalidType
	}
	if u.Amount != nil {
		if err := u.Amount.Validate(); err != nil {
			return err
		}
	}
	if u.Date != nil && u.Date.IsZero() {
		return ErrInvalidDate
	}
	if u.Description != nil && len(*u.Description) > 500 {
		return Validationf("description too long (max 500 characters)")
	}
	return nil
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate accepts YYYY-MM-DD and full RFC 3339 timestamps, truncating the
// latter to the calendar day in UTC.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
