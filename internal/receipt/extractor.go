package receipt

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"expensedash/internal/core"
	"expensedash/internal/ports"
)

var (
	ErrEmptyReceipt      = errors.New("receipt is empty")
	ErrUnreadableReceipt = errors.New("receipt has no text layer")
	ErrReceiptTooLarge   = errors.New("receipt exceeds the upload limit")
	ErrUnsupportedType   = errors.New("unsupported receipt file type")
)

var (
	amountLine = regexp.MustCompile(`^(.*?)[\s:]+[$€£]?\s?(\d{1,9}[.,]\d{2})\s*$`)
	isoDate    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	slashDate  = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](\d{4})\b`)

	totalWords = []string{"grand total", "amount due", "total due", "total"}
	skipWords  = []string{"subtotal", "sub total", "tax", "vat", "change", "cash", "card", "tip", "balance"}
)

// TextExtractor reads receipts that are plain text, such as the output of
// an OCR pass or an emailed receipt. Images without a text layer are
// rejected with ErrUnreadableReceipt.
type TextExtractor struct {
	categories  ports.CategoryReader
	categorizer *KeywordCategorizer
	now         func() time.Time
}

func NewTextExtractor(categories ports.CategoryReader, categorizer *KeywordCategorizer) *TextExtractor {
	if categorizer == nil {
		categorizer = NewKeywordCategorizer(DefaultRules())
	}
	return &TextExtractor{categories: categories, categorizer: categorizer, now: time.Now}
}

// Extract finds the vendor (first line without an amount or date), the
// purchase date, the item lines and the total. Without a total line the
// items are summed. When no date is printed the upload day is used.
func (x *TextExtractor) Extract(ctx context.Context, name string, data []byte) (core.ReceiptData, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return core.ReceiptData{}, core.Invalid("receipt", ErrEmptyReceipt)
	}
	if !isText(data) {
		return core.ReceiptData{}, core.Invalid("receipt", fmt.Errorf("%s: %w", name, ErrUnreadableReceipt))
	}

	var (
		r        core.ReceiptData
		total    core.Money
		hasTotal bool
		itemText []string
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if r.Date.IsZero() {
			if d, ok := findDate(line); ok {
				r.Date = d
				continue
			}
		}

		m := amountLine.FindStringSubmatch(line)
		if m == nil {
			if r.Vendor == "" {
				r.Vendor = line
			}
			continue
		}
		amount, err := core.ParseAmount(m[2])
		if err != nil {
			continue
		}
		label := strings.TrimSpace(m[1])

		switch {
		case hasAny(lower, skipWords):
		case hasAny(lower, totalWords):
			if !hasTotal {
				total, hasTotal = amount, true
			}
		default:
			r.Items = append(r.Items, core.ReceiptItem{Description: label, Amount: amount})
			itemText = append(itemText, label)
		}
	}
	if err := sc.Err(); err != nil {
		return core.ReceiptData{}, core.Invalid("receipt", err)
	}

	if hasTotal {
		r.Amount = total
	} else {
		r.Amount = r.ItemsTotal()
	}
	if r.Date.IsZero() {
		r.Date = core.DateOf(x.now())
	}

	cats, err := x.categories.ListCategories(ctx)
	if err != nil {
		return core.ReceiptData{}, fmt.Errorf("load categories: %w", err)
	}
	r.Category = x.categorizer.Categorize(r.Vendor, itemText, core.NewCategorySet(cats))
	return r, nil
}

func isText(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return false
	}
	ct := http.DetectContentType(data)
	return strings.HasPrefix(ct, "text/")
}

func hasAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// findDate accepts ISO dates, then day-first and month-first slash dates.
func findDate(line string) (core.Date, bool) {
	if m := isoDate.FindStringSubmatch(line); m != nil {
		if d, err := core.ParseDate(m[1]); err == nil {
			return d, true
		}
	}
	if m := slashDate.FindStringSubmatch(line); m != nil {
		for _, layout := range []string{"2/1/2006", "1/2/2006"} {
			s := m[1] + "/" + m[2] + "/" + m[3]
			if t, err := time.Parse(layout, s); err == nil {
				return core.DateOf(t), true
			}
		}
	}
	return core.Date{}, false
}
