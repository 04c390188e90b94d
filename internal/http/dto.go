package http

import (
	"encoding/json"

	"expensedash/internal/core"
	"expensedash/internal/services"
	"expensedash/internal/session"
)

// Wire shapes. Amounts are decimal currency units, dates are YYYY-MM-DD.

type expenseJSON struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	ReceiptURL  string  `json:"receiptUrl,omitempty"`
}

type expenseRequest struct {
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	ReceiptURL  string      `json:"receiptUrl"`
}

type categoryJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type budgetJSON struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Period   string  `json:"period"`
}

type budgetRequest struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
	Period   string      `json:"period"`
}

type progressJSON struct {
	Budget      budgetJSON `json:"budget"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	Spent       float64    `json:"spent"`
	Remaining   float64    `json:"remaining"`
	PercentUsed float64    `json:"percentUsed"`
	OverBudget  bool       `json:"overBudget"`
}

type reconciliationJSON struct {
	Action       string       `json:"action"`
	Budget       budgetJSON   `json:"budget"`
	SuggestionID string       `json:"suggestionId"`
	Budgets      []budgetJSON `json:"budgets"`
	Pending      []budgetJSON `json:"pending"`
}

type monthlyJSON struct {
	Month  string  `json:"month"` // YYYY-MM
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type categoryTotalJSON struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Color      string  `json:"color"`
	Percentage float64 `json:"percentage"`
}

type analyticsJSON struct {
	AsOf               string              `json:"asOf"`
	TotalSpent         float64             `json:"totalSpent"`
	MonthlySpendings   []monthlyJSON       `json:"monthlySpendings"`
	CategoryTotals     []categoryTotalJSON `json:"categoryTotals"`
	RecentTransactions []expenseJSON       `json:"recentTransactions"`
}

type summaryJSON struct {
	TotalSpent           float64            `json:"totalSpent"`
	TopCategory          *categoryTotalJSON `json:"topCategory"`
	CurrentMonth         float64            `json:"currentMonth"`
	PreviousMonth        float64            `json:"previousMonth"`
	MonthlyChangePercent float64            `json:"monthlyChangePercent"`
	ProjectedMonth       float64            `json:"projectedMonth"`
	SavingsOpportunity   float64            `json:"savingsOpportunity"`
}

type dashboardJSON struct {
	Expenses    []expenseJSON  `json:"expenses"`
	Categories  []categoryJSON `json:"categories"`
	Budgets     []budgetJSON   `json:"budgets"`
	Suggestions []budgetJSON   `json:"suggestions"`
	Analytics   analyticsJSON  `json:"analytics"`
	Summary     summaryJSON    `json:"summary"`
	Loading     bool           `json:"loading"`
	LastError   string         `json:"lastError,omitempty"`
	Version     uint64         `json:"version"`
}

type receiptItemJSON struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type receiptJSON struct {
	URL      string            `json:"url"`
	Amount   float64           `json:"amount"`
	Date     string            `json:"date"`
	Vendor   string            `json:"vendor"`
	Category string            `json:"category,omitempty"`
	Items    []receiptItemJSON `json:"items"`
	Draft    expenseJSON       `json:"draft"`
}

func (req expenseRequest) toDraft() (core.ExpenseDraft, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	return core.ExpenseDraft{
		Amount:      amount,
		Date:        date,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		ReceiptURL:  sanitizeInput(req.ReceiptURL),
	}, nil
}

func (req budgetRequest) toDraft() (core.BudgetDraft, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.BudgetDraft{}, err
	}
	period, err := core.ParsePeriod(req.Period)
	if err != nil {
		return core.BudgetDraft{}, core.Invalid("period", err)
	}
	return core.BudgetDraft{
		Category: sanitizeInput(req.Category),
		Amount:   amount,
		Period:   period,
	}, nil
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		Amount:      e.Amount.Float(),
		Date:        e.Date.String(),
		Category:    e.Category,
		Description: e.Description,
		ReceiptURL:  e.ReceiptURL,
	}
}

func toExpensesJSON(in []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(in))
	for _, e := range in {
		out = append(out, toExpenseJSON(e))
	}
	return out
}

func toCategoriesJSON(in []core.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(in))
	for _, c := range in {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	return out
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{ID: b.ID, Category: b.Category, Amount: b.Amount.Float(), Period: string(b.Period)}
}

func toBudgetsJSON(in []core.Budget) []budgetJSON {
	out := make([]budgetJSON, 0, len(in))
	for _, b := range in {
		out = append(out, toBudgetJSON(b))
	}
	return out
}

func toProgressJSON(in []services.BudgetProgress) []progressJSON {
	out := make([]progressJSON, 0, len(in))
	for _, p := range in {
		out = append(out, progressJSON{
			Budget:      toBudgetJSON(p.Budget),
			Start:       p.Start.String(),
			End:         p.End.String(),
			Spent:       p.Spent.Float(),
			Remaining:   p.Remaining.Float(),
			PercentUsed: p.PercentUsed,
			OverBudget:  p.OverBudget,
		})
	}
	return out
}

func toReconciliationJSON(r core.Reconciliation) reconciliationJSON {
	return reconciliationJSON{
		Action:       string(r.Action.Kind),
		Budget:       toBudgetJSON(r.Budget),
		SuggestionID: r.SuggestionID,
		Budgets:      toBudgetsJSON(r.Budgets),
		Pending:      toBudgetsJSON(r.Pending),
	}
}

func toCategoryTotalJSON(c core.CategoryTotal) categoryTotalJSON {
	return categoryTotalJSON{Category: c.Category, Amount: c.Amount.Float(), Color: c.Color, Percentage: c.Percentage}
}

func toAnalyticsJSON(a core.ExpenseAnalytics) analyticsJSON {
	out := analyticsJSON{
		AsOf:               a.AsOf.String(),
		TotalSpent:         a.TotalSpent.Float(),
		MonthlySpendings:   make([]monthlyJSON, 0, len(a.MonthlySpendings)),
		CategoryTotals:     make([]categoryTotalJSON, 0, len(a.CategoryTotals)),
		RecentTransactions: toExpensesJSON(a.RecentTransactions),
	}
	for _, m := range a.MonthlySpendings {
		out.MonthlySpendings = append(out.MonthlySpendings, monthlyJSON{
			Month:  core.NewDate(m.Year, int(m.Month), 1).Format("2006-01"),
			Label:  m.Label,
			Amount: m.Amount.Float(),
		})
	}
	for _, c := range a.CategoryTotals {
		out.CategoryTotals = append(out.CategoryTotals, toCategoryTotalJSON(c))
	}
	return out
}

func toSummaryJSON(s core.DashboardSummary) summaryJSON {
	out := summaryJSON{
		TotalSpent:           s.TotalSpent.Float(),
		CurrentMonth:         s.CurrentMonth.Float(),
		PreviousMonth:        s.PreviousMonth.Float(),
		MonthlyChangePercent: s.MonthlyChangePercent,
		ProjectedMonth:       s.ProjectedMonth.Float(),
		SavingsOpportunity:   s.SavingsOpportunity.Float(),
	}
	if s.TopCategory != nil {
		top := toCategoryTotalJSON(*s.TopCategory)
		out.TopCategory = &top
	}
	return out
}

func toDashboardJSON(st session.State) dashboardJSON {
	return dashboardJSON{
		Expenses:    toExpensesJSON(st.Expenses),
		Categories:  toCategoriesJSON(st.Categories),
		Budgets:     toBudgetsJSON(st.Budgets),
		Suggestions: toBudgetsJSON(st.Suggestions),
		Analytics:   toAnalyticsJSON(st.Analytics),
		Summary:     toSummaryJSON(core.Summarize(st.Analytics)),
		Loading:     st.Loading,
		LastError:   st.LastError,
		Version:     st.Version,
	}
}

func toReceiptJSON(url string, d core.ReceiptData, draft core.ExpenseDraft) receiptJSON {
	out := receiptJSON{
		URL:      url,
		Amount:   d.Amount.Float(),
		Date:     d.Date.String(),
		Vendor:   d.Vendor,
		Category: d.Category,
		Items:    make([]receiptItemJSON, 0, len(d.Items)),
		Draft: expenseJSON{
			Amount:      draft.Amount.Float(),
			Date:        draft.Date.String(),
			Category:    draft.Category,
			Description: draft.Description,
			ReceiptURL:  draft.ReceiptURL,
		},
	}
	for _, it := range d.Items {
		out.Items = append(out.Items, receiptItemJSON{Description: it.Description, Amount: it.Amount.Float()})
	}
	return out
}
