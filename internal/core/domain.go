package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// FallbackColor is used for expenses whose category has no definition.
const FallbackColor = "#6B7280"

const maxDescriptionLen = 200

type (
	// Period is the span a budget applies to.
	Period string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          string
		Amount      Money
		Date        Date
		Category    string // joins Category.Name
		Description string
		ReceiptURL  string // optional
	}

	// ExpenseDraft is an expense not yet assigned an id.
	ExpenseDraft struct {
		Amount      Money
		Date        Date
		Category    string
		Description string
		ReceiptURL  string
	}

	Category struct {
		ID    string
		Name  string
		Color string
	}

	Budget struct {
		ID       string
		Category string
		Amount   Money
		Period   Period
	}

	// BudgetDraft is a budget not yet assigned an id.
	BudgetDraft struct {
		Category string
		Amount   Money
		Period   Period
	}
)

var (
	ErrInvalidDate      = errors.New("date must be a calendar date")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrEmptyDescription = errors.New("description is required")
	ErrLongDescription  = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory    = errors.New("category is required")
	ErrUnknownCategory  = errors.New("category is not defined")
	ErrInvalidPeriod    = errors.New("period must be one of daily, weekly, monthly, yearly")
	ErrDuplicateBudget  = errors.New("a budget for this category already exists")
	ErrEmptyID          = errors.New("id is required")
	ErrDuplicateID      = errors.New("id already in use")
	ErrUnknownAction    = errors.New("unknown reconciliation action")
)

// NewID returns a fresh unique identifier.
func NewID() string {
	return uuid.NewString()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParsePeriod normalizes and validates a period name.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPeriod
	}
	return p, nil
}

func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// CategorySet indexes categories by name, the join key used by expenses
// and budgets.
type CategorySet map[string]Category

func NewCategorySet(cats []Category) CategorySet {
	set := make(CategorySet, len(cats))
	for _, c := range cats {
		set[c.Name] = c
	}
	return set
}

// Has reports whether name is a defined category.
func (s CategorySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Color returns the display color for name, or FallbackColor.
func (s CategorySet) Color(name string) string {
	if c, ok := s[name]; ok && c.Color != "" {
		return c.Color
	}
	return FallbackColor
}

func (e ExpenseDraft) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := e.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if strings.TrimSpace(e.Description) == "" {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(e.Description) > maxDescriptionLen {
		return Invalid("description", ErrLongDescription)
	}
	if strings.TrimSpace(e.Category) == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	return nil
}

// ValidateAgainst checks structure and that the category is defined.
func (e ExpenseDraft) ValidateAgainst(cats CategorySet) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if !cats.Has(e.Category) {
		return Invalid("category", ErrUnknownCategory)
	}
	return nil
}

// WithID promotes the draft to an Expense.
func (e ExpenseDraft) WithID(id string) Expense {
	return Expense{
		ID:          id,
		Amount:      e.Amount,
		Date:        e.Date,
		Category:    e.Category,
		Description: e.Description,
		ReceiptURL:  e.ReceiptURL,
	}
}

// Draft strips the id.
func (e Expense) Draft() ExpenseDraft {
	return ExpenseDraft{
		Amount:      e.Amount,
		Date:        e.Date,
		Category:    e.Category,
		Description: e.Description,
		ReceiptURL:  e.ReceiptURL,
	}
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return Invalid("id", ErrEmptyID)
	}
	return e.Draft().Validate()
}

func (b BudgetDraft) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	if err := b.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if !b.Period.Valid() {
		return Invalid("period", ErrInvalidPeriod)
	}
	return nil
}

// ValidateAgainst checks structure and that the category is defined.
func (b BudgetDraft) ValidateAgainst(cats CategorySet) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if !cats.Has(b.Category) {
		return Invalid("category", ErrUnknownCategory)
	}
	return nil
}

func (b BudgetDraft) WithID(id string) Budget {
	return Budget{ID: id, Category: b.Category, Amount: b.Amount, Period: b.Period}
}

func (b Budget) Draft() BudgetDraft {
	return BudgetDraft{Category: b.Category, Amount: b.Amount, Period: b.Period}
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return Invalid("id", ErrEmptyID)
	}
	return b.Draft().Validate()
}
