package core

import "strings"

// ReceiptItem is one line of a receipt.
type ReceiptItem struct {
	Description string
	Amount      Money
}

// ReceiptData is what the extractor could read from a receipt. Fields it
// could not determine are left zero.
type ReceiptData struct {
	Amount   Money
	Date     Date
	Vendor   string
	Category string // optional, only when it matches a known category
	Items    []ReceiptItem
}

// Draft pre-fills an expense from the receipt. The vendor becomes the
// description; the caller still validates before saving.
func (r ReceiptData) Draft(receiptURL string) ExpenseDraft {
	return ExpenseDraft{
		Amount:      r.Amount,
		Date:        r.Date,
		Category:    r.Category,
		Description: strings.TrimSpace(r.Vendor),
		ReceiptURL:  receiptURL,
	}
}

// ItemsTotal sums the item amounts.
func (r ReceiptData) ItemsTotal() Money {
	var total Money
	for _, it := range r.Items {
		total = total.Add(it.Amount)
	}
	return total
}
