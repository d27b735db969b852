// Package stitch reconstructs vouchers from the flattened row layout of the
// sales register export: a header row carries the date, voucher number,
// customer and totals, and the detail rows that follow it carry the product
// lines, until the next header row begins.
package stitch

import (
	"math"
	"strings"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
	"github.com/honeylavenderwrites/retailytic/internal/rules"
	"github.com/honeylavenderwrites/retailytic/internal/sheet"
)

// totalsTolerance is how far the header net total may drift from the sum of
// line nets before the transaction is flagged. One currency unit absorbs
// rounding in the export.
const totalsTolerance = 1.0

const defaultUnit = "Pcs"

// Stitcher is a two-state machine: either no transaction is open, or one is
// being built and detail rows attach to it. It is deterministic: the same
// row sequence always yields the same transactions.
type Stitcher struct {
	cols  sheet.ColumnMap
	rules *rules.Ruleset
}

func New(cols sheet.ColumnMap, rs *rules.Ruleset) *Stitcher {
	return &Stitcher{cols: cols, rules: rs}
}

// Stitch walks the data rows (header row excluded) and emits the
// reconstructed transactions. Rows that classify as neither header nor
// detail are dropped, as are detail rows with no open transaction: an
// orphaned line cannot be attributed and must not be invented into a
// synthetic voucher.
func (s *Stitcher) Stitch(rows [][]string) []domain.Transaction {
	txns := make([]domain.Transaction, 0, len(rows)/3)
	var current *domain.Transaction

	flush := func() {
		if current == nil {
			return
		}
		finalize(current)
		txns = append(txns, *current)
		current = nil
	}

	for _, row := range rows {
		if countFilled(row) < 2 || s.isSummaryRow(row) {
			continue
		}

		rawDate := sheet.Cell(row, s.cols.Date)
		date := sheet.ParseDate(rawDate)
		voucher := sheet.Cell(row, s.cols.VoucherNo)
		name := sheet.Cell(row, s.cols.ProductName)
		code := sheet.Cell(row, s.cols.ProductCode)

		switch {
		case date != "" && voucher != "" && name != "" && code == "":
			// Header row. In this layout the product-name cell holds the
			// customer's display name.
			flush()
			current = s.openTransaction(row, date, voucher, name)

		case rawDate == "" && voucher == "" && name != "" && code != "":
			if current == nil {
				continue
			}
			current.Lines = append(current.Lines, s.productLine(row, name, code))

		default:
			// Ambiguous row, dropped.
		}
	}
	flush()
	return txns
}

func (s *Stitcher) openTransaction(row []string, date, voucher, rawName string) *domain.Transaction {
	customer := s.rules.NormalizeCustomer(rawName)
	mode := s.rules.NormalizePayment(sheet.Cell(row, s.cols.TransactionMode))
	if customer == "" {
		// The payment method leaked into the name column; the buyer is a
		// walk-in and the leaked value wins over the mode column.
		customer = domain.WalkInName
		if leaked, ok := s.rules.PaymentFromName(rawName); ok {
			mode = leaked
		}
	}

	return &domain.Transaction{
		Date:            date,
		VoucherNo:       voucher,
		CustomerName:    customer,
		TransactionMode: mode,
		TotalGross:      sheet.ParseAmount(sheet.Cell(row, s.cols.Gross)),
		TotalDiscount:   sheet.ParseAmount(sheet.Cell(row, s.cols.Discount)),
		TotalNet:        sheet.ParseAmount(sheet.Cell(row, s.cols.NetAmt)),
		TotalVat:        sheet.ParseAmount(sheet.Cell(row, s.cols.VatAmt)),
		TotalQty:        sheet.ParseAmount(sheet.Cell(row, s.cols.Quantity)),
	}
}

func (s *Stitcher) productLine(row []string, name, code string) domain.ProductLine {
	unit := sheet.Cell(row, s.cols.Unit)
	if unit == "" {
		unit = defaultUnit
	}
	return domain.ProductLine{
		ProductName: rules.TitleCase(name),
		ProductCode: code,
		Unit:        unit,
		Quantity:    sheet.ParseAmount(sheet.Cell(row, s.cols.Quantity)),
		Rate:        sheet.ParseAmount(sheet.Cell(row, s.cols.Rate)),
		Gross:       sheet.ParseAmount(sheet.Cell(row, s.cols.Gross)),
		Discount:    sheet.ParseAmount(sheet.Cell(row, s.cols.Discount)),
		TaxableAmt:  sheet.ParseAmount(sheet.Cell(row, s.cols.TaxableAmt)),
		VatAmt:      sheet.ParseAmount(sheet.Cell(row, s.cols.VatAmt)),
		NetAmt:      sheet.ParseAmount(sheet.Cell(row, s.cols.NetAmt)),
	}
}

// finalize reconciles header totals against the lines. Header totals are
// taken verbatim; when they disagree with the sum of line nets beyond the
// tolerance the transaction is flagged rather than corrected.
func finalize(t *domain.Transaction) {
	if len(t.Lines) == 0 {
		return
	}
	var lineNet float64
	for _, l := range t.Lines {
		lineNet += l.NetAmt
	}
	if math.Abs(t.TotalNet-lineNet) > totalsTolerance {
		t.TotalsMismatch = true
	}
}

func (s *Stitcher) isSummaryRow(row []string) bool {
	return isSummaryCell(firstFilled(row)) || isSummaryCell(sheet.Cell(row, s.cols.ProductName))
}

func isSummaryCell(cell string) bool {
	upper := strings.ToUpper(strings.TrimSpace(cell))
	return strings.HasPrefix(upper, "TOTAL") || strings.HasPrefix(upper, "GRAND TOTAL")
}

func firstFilled(row []string) string {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return cell
		}
	}
	return ""
}

func countFilled(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}
