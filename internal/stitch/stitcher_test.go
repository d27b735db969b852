package stitch

import (
	"reflect"
	"testing"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
	"github.com/honeylavenderwrites/retailytic/internal/rules"
	"github.com/honeylavenderwrites/retailytic/internal/sheet"
)

var testHeader = []string{
	"Date", "Voucher No.", "Product Name", "Product Code",
	"Transaction Mode", "Qty", "Rate", "Gross Amount", "Discount", "Net Amt.",
}

func newTestStitcher() *Stitcher {
	return New(sheet.DetectColumns(testHeader), rules.Default())
}

func TestStitchHeaderDetailSequence(t *testing.T) {
	rows := [][]string{
		{"2026-01-05", "V1", "ANUSMRITI", "", "Cash", "1", "", "1805", "0", "1805"},
		{"", "", "BELT HALF PANT", "9002", "", "1", "1805", "1805", "0", "1805"},
		{"2026-01-06", "V2", "CASH PARTY", "", "Cash", "1", "", "3209", "0", "3209"},
		{"", "", "Shoes", "9806-2", "", "1", "3209", "3209", "0", "3209"},
	}

	txns := newTestStitcher().Stitch(rows)
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txns))
	}

	first := txns[0]
	if first.CustomerName != "Anusmriti" {
		t.Fatalf("customer = %q, want Anusmriti", first.CustomerName)
	}
	if first.TotalNet != 1805 {
		t.Fatalf("total net = %v, want 1805", first.TotalNet)
	}
	if len(first.Lines) != 1 || first.Lines[0].ProductCode != "9002" {
		t.Fatalf("unexpected lines: %+v", first.Lines)
	}
	if first.Lines[0].ProductName != "Belt Half Pant" {
		t.Fatalf("product name = %q, want title case", first.Lines[0].ProductName)
	}

	second := txns[1]
	if second.CustomerName != domain.WalkInName {
		t.Fatalf("customer = %q, want walk-in sentinel", second.CustomerName)
	}
	if second.TotalNet != 3209 {
		t.Fatalf("total net = %v, want 3209", second.TotalNet)
	}
}

func TestStitchDiscardsOrphanDetail(t *testing.T) {
	rows := [][]string{
		{"", "", "Shoes", "9806-2", "", "1", "3209", "3209", "0", "3209"},
		{"2026-01-06", "V2", "RAMESH", "", "Cash", "1", "", "500", "0", "500"},
		{"", "", "Scarf", "7001", "", "1", "500", "500", "0", "500"},
	}

	txns := newTestStitcher().Stitch(rows)
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}
	if len(txns[0].Lines) != 1 || txns[0].Lines[0].ProductName != "Scarf" {
		t.Fatalf("unexpected lines: %+v", txns[0].Lines)
	}
}

func TestStitchPaymentLeakInNameColumn(t *testing.T) {
	rows := [][]string{
		{"2026-01-07", "V3", "FonePay", "", "", "1", "", "950", "0", "950"},
		{"", "", "Jeans", "4410", "", "1", "950", "950", "0", "950"},
	}

	txns := newTestStitcher().Stitch(rows)
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}
	if txns[0].CustomerName != domain.WalkInName {
		t.Fatalf("customer = %q, want walk-in sentinel", txns[0].CustomerName)
	}
	if txns[0].TransactionMode != "FonePay" {
		t.Fatalf("mode = %q, want FonePay", txns[0].TransactionMode)
	}
}

func TestStitchSkipsSummaryAndSparseRows(t *testing.T) {
	rows := [][]string{
		{"2026-01-08", "V4", "SITA", "", "Cash", "2", "", "1200", "0", "1200"},
		{"", "", "Frock", "3301", "", "1", "600", "600", "0", "600"},
		{"", "", "TOTAL >>", "", "", "", "", "1200", "0", "1200"},
		{"GRAND TOTAL", "", "", "", "", "", "", "1200", "0", "1200"},
		{"note"},
	}

	txns := newTestStitcher().Stitch(rows)
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}
	if len(txns[0].Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(txns[0].Lines))
	}
}

func TestStitchFlagsTotalsMismatch(t *testing.T) {
	rows := [][]string{
		{"2026-01-09", "V5", "HARI", "", "Cash", "2", "", "2000", "0", "2000"},
		{"", "", "Gown", "2201", "", "1", "900", "900", "0", "900"},
	}

	txns := newTestStitcher().Stitch(rows)
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}
	if !txns[0].TotalsMismatch {
		t.Fatalf("expected totals mismatch flag")
	}
	if txns[0].TotalNet != 2000 {
		t.Fatalf("header total must stand verbatim, got %v", txns[0].TotalNet)
	}
}

func TestStitchDeterministic(t *testing.T) {
	rows := [][]string{
		{"2026-01-05", "V1", "ANUSMRITI", "", "Cash", "1", "", "1805", "0", "1805"},
		{"", "", "Belt Half Pant", "9002", "", "1", "1805", "1805", "0", "1805"},
	}
	s := newTestStitcher()
	first := s.Stitch(rows)
	second := s.Stitch(rows)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("stitcher output differs across runs")
	}
}
