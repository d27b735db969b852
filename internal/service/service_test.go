package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/honeylavenderwrites/retailytic/internal/analytics"
	"github.com/honeylavenderwrites/retailytic/internal/cache"
	"github.com/honeylavenderwrites/retailytic/internal/domain"
	"github.com/honeylavenderwrites/retailytic/internal/rules"
	"github.com/honeylavenderwrites/retailytic/internal/store/memory"
)

func newTestService(t *testing.T, bundleCache cache.BundleCache) *Service {
	t.Helper()
	rs := rules.Default()
	engine := analytics.New(rs, analytics.FixedStock(5, 12), analytics.FixedCohorts(50))
	repo := memory.New(zap.NewNop())
	return New(repo, bundleCache, time.Minute, rs, engine, 20, zap.NewNop())
}

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	name := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func registerRows() [][]string {
	return [][]string{
		{"Ambassador Fashion House"},
		{"Sales Register", "", "", "", "", ""},
		{"Date", "Voucher No.", "Product Name", "Product Code", "Transaction Mode", "Qty", "Rate", "Gross Amount", "Discount", "Net Amt."},
		{"2026-01-05", "SI-1001", "ANUSMRITI", "", "Cash", "1", "", "1805", "0", "1805"},
		{"", "", "Belt Half Pant", "9002", "", "1", "1805", "1805", "0", "1805"},
		{"2026-01-06", "SI-1002", "CASH PARTY", "", "Cash", "1", "", "3209", "0", "3209"},
		{"", "", "Shoes", "9806-2", "", "1", "3209", "3209", "0", "3209"},
		{"", "", "TOTAL >>", "", "", "", "", "5014", "0", "5014"},
	}
}

func TestAnalyzeRejectsEmptyUpload(t *testing.T) {
	svc := newTestService(t, cache.NoopBundleCache{})
	if _, err := svc.Analyze(context.Background(), "empty.xlsx", nil); !errors.Is(err, ErrNoFile) {
		t.Fatalf("err = %v, want ErrNoFile", err)
	}
}

func TestAnalyzeRejectsGarbage(t *testing.T) {
	svc := newTestService(t, cache.NoopBundleCache{})
	if _, err := svc.Analyze(context.Background(), "junk.xlsx", []byte("not a workbook")); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestAnalyzeRejectsWorkbookWithoutTransactions(t *testing.T) {
	svc := newTestService(t, cache.NoopBundleCache{})
	data := buildWorkbook(t, [][]string{
		{"Date", "Voucher No.", "Product Name", "Product Code", "Transaction Mode", "Qty"},
	})
	if _, err := svc.Analyze(context.Background(), "headers-only.xlsx", data); !errors.Is(err, ErrNoTransactions) {
		t.Fatalf("err = %v, want ErrNoTransactions", err)
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	svc := newTestService(t, cache.NoopBundleCache{})
	data := buildWorkbook(t, registerRows())

	snap, err := svc.Analyze(context.Background(), "register.xlsx", data)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	b := snap.Bundle
	if !b.Success {
		t.Fatalf("bundle not marked successful")
	}
	if b.Summary.TransactionCount != 2 {
		t.Fatalf("transactions = %d, want 2", b.Summary.TransactionCount)
	}
	if b.Summary.TotalRevenue != 5014 {
		t.Fatalf("revenue = %v, want 5014", b.Summary.TotalRevenue)
	}
	if b.Summary.StartDate != "2026-01-05" || b.Summary.EndDate != "2026-01-06" {
		t.Fatalf("date range = %s..%s", b.Summary.StartDate, b.Summary.EndDate)
	}

	names := map[string]float64{}
	for _, c := range b.Customers {
		names[c.Name] = c.TotalSpend
	}
	if names["Anusmriti"] != 1805 {
		t.Fatalf("Anusmriti spend = %v, want 1805", names["Anusmriti"])
	}
	if names[domain.WalkInName] != 3209 {
		t.Fatalf("walk-in spend = %v, want 3209", names[domain.WalkInName])
	}

	if len(b.KPIData) != 6 {
		t.Fatalf("got %d KPIs, want 6", len(b.KPIData))
	}
	if b.KPIData[0].Label != "Total Revenue" || b.KPIData[0].Value != "रू 5,014" {
		t.Fatalf("revenue KPI = %+v", b.KPIData[0])
	}
	if b.Narratives["overview"] == "" {
		t.Fatalf("missing overview narrative")
	}

	// the upload is now the current dataset
	current, err := svc.Bundle(context.Background())
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if current.ID != snap.ID || current.Sample {
		t.Fatalf("current dataset = %+v, want the upload", current)
	}

	uploads, err := svc.Uploads(context.Background(), 10)
	if err != nil || len(uploads) != 1 {
		t.Fatalf("uploads = %v (%v), want one record", uploads, err)
	}
	if uploads[0].FileName != "register.xlsx" || uploads[0].TransactionCount != 2 {
		t.Fatalf("upload record = %+v", uploads[0])
	}
}

func TestBundleFallsBackToSample(t *testing.T) {
	svc := newTestService(t, cache.NoopBundleCache{})

	snap, err := svc.Bundle(context.Background())
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if !snap.Sample {
		t.Fatalf("expected sample dataset before any upload")
	}
	if snap.Bundle.Summary.TransactionCount == 0 || len(snap.Bundle.BasketRules) == 0 {
		t.Fatalf("sample dataset too thin: %+v", snap.Bundle.Summary)
	}
}

func TestResetRequiresAdmin(t *testing.T) {
	svc := newTestService(t, cache.NoopBundleCache{})
	data := buildWorkbook(t, registerRows())
	if _, err := svc.Analyze(context.Background(), "register.xlsx", data); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if err := svc.Reset(context.Background()); err == nil {
		t.Fatalf("reset without actor must fail")
	}
	analystCtx := WithActor(context.Background(), domain.Actor{Username: "analyst", Role: "analyst"})
	if err := svc.Reset(analystCtx); err == nil {
		t.Fatalf("reset as analyst must fail")
	}

	adminCtx := WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
	if err := svc.Reset(adminCtx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	snap, err := svc.Bundle(context.Background())
	if err != nil {
		t.Fatalf("Bundle after reset: %v", err)
	}
	if !snap.Sample {
		t.Fatalf("expected sample dataset after reset")
	}
}

type mapCache struct {
	bundles map[string]*domain.AnalysisBundle
	hits    int
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.AnalysisBundle, bool, error) {
	b, ok := c.bundles[key]
	if ok {
		c.hits++
	}
	return b, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.AnalysisBundle, _ time.Duration) error {
	c.bundles[key] = value
	return nil
}

func TestAnalyzeUsesBundleCache(t *testing.T) {
	mc := &mapCache{bundles: map[string]*domain.AnalysisBundle{}}
	svc := newTestService(t, mc)
	data := buildWorkbook(t, registerRows())

	first, err := svc.Analyze(context.Background(), "register.xlsx", data)
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	second, err := svc.Analyze(context.Background(), "register.xlsx", data)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if mc.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", mc.hits)
	}
	if second.Bundle.Summary != first.Bundle.Summary {
		t.Fatalf("cached bundle differs from computed one")
	}
}

func TestDataSummaryIsCapped(t *testing.T) {
	svc := newTestService(t, cache.NoopBundleCache{})
	summary, err := svc.DataSummary(context.Background())
	if err != nil {
		t.Fatalf("DataSummary: %v", err)
	}
	if len(summary.TopProducts) > 5 || len(summary.TopCustomers) > 5 {
		t.Fatalf("summary lists not capped: %d products, %d customers", len(summary.TopProducts), len(summary.TopCustomers))
	}
	if summary.Summary.TransactionCount == 0 {
		t.Fatalf("summary missing headline counts")
	}
}
