package sheet

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ColumnMap resolves canonical fields to column indices in the detected
// header row. A nil index means the field is absent from this export;
// consumers read absent fields as 0 / empty via Cell, never as an error.
type ColumnMap struct {
	Date            *int
	VoucherNo       *int
	ProductName     *int
	ProductCode     *int
	TransactionMode *int
	Quantity        *int
	Unit            *int
	Rate            *int
	Gross           *int
	Discount        *int
	TaxableAmt      *int
	VatAmt          *int
	NetAmt          *int
}

// Cell reads a cell through an optional column index.
func Cell(row []string, idx *int) string {
	if idx == nil || *idx < 0 || *idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[*idx])
}

var columnSynonyms = []struct {
	field    func(*ColumnMap) **int
	synonyms []string
}{
	{func(m *ColumnMap) **int { return &m.Date }, []string{"date", "date (a.d.)", "date_ad", "trans_date", "transaction date", "sale_date"}},
	{func(m *ColumnMap) **int { return &m.VoucherNo }, []string{"voucher", "voucher no", "voucher no.", "invoice", "bill no", "bill_no"}},
	{func(m *ColumnMap) **int { return &m.ProductName }, []string{"product name", "product", "item", "item name", "description", "product_name"}},
	{func(m *ColumnMap) **int { return &m.ProductCode }, []string{"product code", "code", "item code", "sku", "product_code"}},
	{func(m *ColumnMap) **int { return &m.TransactionMode }, []string{"transaction mode", "payment", "payment mode", "mode", "payment method", "transaction_mode"}},
	{func(m *ColumnMap) **int { return &m.Quantity }, []string{"quantity", "qty", "units", "count"}},
	{func(m *ColumnMap) **int { return &m.Unit }, []string{"unit", "uom"}},
	{func(m *ColumnMap) **int { return &m.Rate }, []string{"rate", "price", "unit price", "unit_price", "mrp"}},
	{func(m *ColumnMap) **int { return &m.Gross }, []string{"gross", "gross amount", "gross_amount", "total"}},
	{func(m *ColumnMap) **int { return &m.Discount }, []string{"discount", "disc", "discount amount", "disc_amount"}},
	{func(m *ColumnMap) **int { return &m.TaxableAmt }, []string{"taxable", "taxable amt", "taxable amt.", "taxable_amt", "non taxable amt.", "taxable amount"}},
	{func(m *ColumnMap) **int { return &m.VatAmt }, []string{"vat", "vat amt", "vat amt.", "vat_amt", "tax", "tax amount"}},
	{func(m *ColumnMap) **int { return &m.NetAmt }, []string{"net", "net amt", "net amt.", "net_amt", "net amount", "final amount", "amount"}},
}

// DetectColumns maps a header row onto canonical fields. For each field the
// synonym list is tried exact-match first, then as a prefix, then as a
// substring; the first hit wins. No exclusivity is enforced across fields,
// so a duplicated header name can map to more than one field.
func DetectColumns(headers []string) ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	var m ColumnMap
	for _, entry := range columnSynonyms {
		syns := make([]string, len(entry.synonyms))
		for i, s := range entry.synonyms {
			syns[i] = NormalizeHeader(s)
		}
		if idx, ok := findColumn(normalized, syns); ok {
			i := idx
			*entry.field(&m) = &i
		}
	}
	return m
}

func findColumn(headers, synonyms []string) (int, bool) {
	for _, syn := range synonyms {
		for i, h := range headers {
			if h == syn {
				return i, true
			}
		}
	}
	for _, syn := range synonyms {
		for i, h := range headers {
			if h != "" && strings.HasPrefix(h, syn) {
				return i, true
			}
		}
	}
	for _, syn := range synonyms {
		for i, h := range headers {
			if h != "" && strings.Contains(h, syn) {
				return i, true
			}
		}
	}
	return 0, false
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader lowercases, strips diacritics, and collapses separator
// runs (underscores, slashes, whitespace) to single spaces.
func NormalizeHeader(h string) string {
	lower := strings.ToLower(strings.TrimSpace(h))
	if folded, _, err := transform.String(stripMarks, lower); err == nil {
		lower = folded
	}

	var b strings.Builder
	pendingSpace := false
	for _, r := range lower {
		switch {
		case unicode.IsSpace(r) || r == '_' || r == '-' || r == '/':
			if b.Len() > 0 {
				pendingSpace = true
			}
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// headerScanLimit bounds how deep the locator looks for the real header;
// title and merged-cell rows above it are rarely more than a handful.
const headerScanLimit = 20

var headerTokens = []string{"date", "voucher", "product"}

// HeaderRowIndex finds the header row: the first of the leading rows with at
// least five non-empty cells and at least one recognizable header token.
// Falls back to row 0 when nothing qualifies.
func HeaderRowIndex(rows [][]string) int {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		filled := 0
		var joined strings.Builder
		for _, cell := range rows[i] {
			if strings.TrimSpace(cell) != "" {
				filled++
			}
			joined.WriteString(strings.ToLower(cell))
			joined.WriteByte(' ')
		}
		if filled < 5 {
			continue
		}
		text := joined.String()
		for _, tok := range headerTokens {
			if strings.Contains(text, tok) {
				return i
			}
		}
	}
	return 0
}
