package analytics

import (
	"testing"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
	"github.com/honeylavenderwrites/retailytic/internal/rules"
)

func newTestEngine() *Engine {
	return New(rules.Default(), FixedStock(5, 12), FixedCohorts(50))
}

func lineTxn(date, voucher, customer string, lines ...domain.ProductLine) domain.Transaction {
	var net float64
	for _, l := range lines {
		net += l.NetAmt
	}
	return domain.Transaction{
		Date:            date,
		VoucherNo:       voucher,
		CustomerName:    customer,
		TransactionMode: "Cash",
		Lines:           lines,
		TotalNet:        net,
	}
}

func line(name, code string, qty, net float64) domain.ProductLine {
	return domain.ProductLine{ProductName: name, ProductCode: code, Quantity: qty, NetAmt: net}
}

func TestProductsABCPartition(t *testing.T) {
	txns := []domain.Transaction{
		lineTxn("2026-01-05", "V1", "A",
			line("Shoes", "P1", 1, 700),
			line("Jeans", "P2", 1, 150),
			line("Belt", "P3", 1, 100),
			line("Scarf", "P4", 1, 50),
		),
	}

	products := newTestEngine().Products(txns)
	if len(products) != 4 {
		t.Fatalf("got %d products, want 4", len(products))
	}

	wantClass := map[string]string{"P1": "A", "P2": "B", "P3": "C", "P4": "C"}
	for _, p := range products {
		if p.ABCClass != wantClass[p.ProductCode] {
			t.Fatalf("product %s class = %s, want %s", p.ProductCode, p.ABCClass, wantClass[p.ProductCode])
		}
	}
	if products[0].ProductCode != "P1" {
		t.Fatalf("products must sort by revenue descending, got %s first", products[0].ProductCode)
	}
	if products[0].Category != "Footwear" {
		t.Fatalf("Shoes category = %s, want Footwear", products[0].Category)
	}
}

func TestProductsProfitMargin(t *testing.T) {
	txns := []domain.Transaction{
		lineTxn("2026-01-05", "V1", "A",
			domain.ProductLine{ProductName: "Jeans", ProductCode: "P1", Quantity: 1, Gross: 1000, Discount: 200, NetAmt: 800},
			line("Scarf", "P2", 1, 500), // no gross recorded
		),
	}

	products := newTestEngine().Products(txns)
	byCode := map[string]domain.ProductAggregate{}
	for _, p := range products {
		byCode[p.ProductCode] = p
	}
	// (1000-200)/1000 margin on 800 revenue
	if got := byCode["P1"].TotalProfit; got != 640 {
		t.Fatalf("P1 profit = %v, want 640", got)
	}
	// flat 30% fallback on 500 revenue
	if got := byCode["P2"].TotalProfit; got != 150 {
		t.Fatalf("P2 profit = %v, want 150", got)
	}
}

func TestCustomersRFM(t *testing.T) {
	txns := []domain.Transaction{
		lineTxn("2026-01-28", "V1", "Anusmriti", line("Jeans", "P1", 1, 5000)),
		lineTxn("2026-01-30", "V2", "Anusmriti", line("Shoes", "P2", 1, 5000)),
		lineTxn("2026-01-30", "V3", domain.WalkInName, line("Belt", "P3", 1, 40000)),
	}

	customers := newTestEngine().Customers(txns)
	if len(customers) != 2 {
		t.Fatalf("got %d customers, want 2", len(customers))
	}

	// walk-in spent more, sorts first
	walkIn := customers[0]
	if !walkIn.IsWalkIn {
		t.Fatalf("expected walk-in first by spend, got %+v", walkIn)
	}
	if walkIn.Segment != domain.SegmentRegular {
		t.Fatalf("walk-in segment = %s, must always be Regular", walkIn.Segment)
	}

	named := customers[1]
	if named.Name != "Anusmriti" {
		t.Fatalf("customer name = %q", named.Name)
	}
	if named.TotalSpend != 10000 || named.TotalOrders != 2 {
		t.Fatalf("spend/orders = %v/%d, want 10000/2", named.TotalSpend, named.TotalOrders)
	}
	// last purchase on the reference date: R=5, two orders: F=2, 10000 spend: M=3
	if named.RecencyScore != 5 || named.FrequencyScore != 2 || named.MonetaryScore != 3 {
		t.Fatalf("RFM = %d/%d/%d, want 5/2/3", named.RecencyScore, named.FrequencyScore, named.MonetaryScore)
	}
	if named.RFMScore != 67 {
		t.Fatalf("RFM score = %d, want 67", named.RFMScore)
	}
	if named.Segment != domain.SegmentRegular {
		t.Fatalf("segment = %s, want Regular", named.Segment)
	}
	if named.CLV != 30000 {
		t.Fatalf("CLV = %v, want spend x3 for repeat buyers", named.CLV)
	}
}

func TestCustomersRecencyIgnoresUnparsedDates(t *testing.T) {
	// The normalizer passes Bikram-Sambat labels through verbatim; they sort
	// above every ISO date lexically and must not become the recency
	// reference.
	txns := []domain.Transaction{
		lineTxn("2026-01-05", "V1", "Ram Thapa", line("Jeans", "P1", 1, 5000)),
		lineTxn("Magh 21", "V2", "Ram Thapa", line("Belt", "P2", 1, 1000)),
	}

	customers := newTestEngine().Customers(txns)
	if len(customers) != 1 {
		t.Fatalf("got %d customers, want 1", len(customers))
	}
	c := customers[0]
	if c.RecencyScore != 5 {
		t.Fatalf("recency = %d, want 5 (reference is the latest parseable date)", c.RecencyScore)
	}
	if c.LastPurchase != "2026-01-05" {
		t.Fatalf("last purchase = %q, want 2026-01-05", c.LastPurchase)
	}
	if c.TotalOrders != 2 {
		t.Fatalf("orders = %d, want 2 (unparsed-date vouchers still count)", c.TotalOrders)
	}
}

func TestSegmentForIsPureAndCoversTable(t *testing.T) {
	cases := []struct {
		r, f, m int
		walkIn  bool
		want    string
	}{
		{5, 5, 5, false, domain.SegmentVIP},
		{5, 5, 5, true, domain.SegmentRegular},
		{4, 4, 4, false, domain.SegmentVIP},
		{3, 3, 1, false, domain.SegmentLoyal},
		{3, 1, 1, false, domain.SegmentRegular},
		{2, 2, 1, false, domain.SegmentAtRisk},
		{1, 1, 1, false, domain.SegmentLost},
	}
	for _, tc := range cases {
		for i := 0; i < 3; i++ {
			if got := segmentFor(tc.r, tc.f, tc.m, tc.walkIn); got != tc.want {
				t.Fatalf("segmentFor(%d,%d,%d,%v) = %s, want %s", tc.r, tc.f, tc.m, tc.walkIn, got, tc.want)
			}
		}
	}
}

func TestMonthlySeriesAndForecast(t *testing.T) {
	txns := []domain.Transaction{
		lineTxn("2025-11-10", "V1", "A", line("Jeans", "P1", 1, 100)),
		lineTxn("2025-12-10", "V2", "A", line("Jeans", "P1", 1, 200)),
		lineTxn("2026-01-10", "V3", "A", line("Jeans", "P1", 1, 300)),
		{Date: "Magh 21", VoucherNo: "V4", CustomerName: "A", TotalNet: 999},
	}

	e := newTestEngine()
	series := e.MonthlySeries(txns)
	if len(series) != 3 {
		t.Fatalf("got %d months, want 3 (unparsed date excluded)", len(series))
	}
	if series[0].Month != "Nov 2025" || series[2].Month != "Jan 2026" {
		t.Fatalf("series order wrong: %+v", series)
	}

	points := e.Forecast(series)
	if len(points) != 4 {
		t.Fatalf("got %d forecast points, want 4", len(points))
	}
	// avg 200, slope (300-100)/3 per step
	if points[0].Predicted != 267 {
		t.Fatalf("first prediction = %v, want 267", points[0].Predicted)
	}
	if points[0].Lower != 240 || points[0].Upper != 293 {
		t.Fatalf("first band = [%v, %v], want [240, 293]", points[0].Lower, points[0].Upper)
	}
	if points[3].Month != "Forecast +4" {
		t.Fatalf("last label = %q", points[3].Month)
	}
	if !(points[3].Upper-points[3].Lower > points[0].Upper-points[0].Lower) {
		t.Fatalf("band must widen with the horizon")
	}
}

func TestInventoryAlerts(t *testing.T) {
	txns := []domain.Transaction{
		lineTxn("2026-01-05", "V1", "A",
			line("Shoes", "P1", 30, 700),
			line("Jeans", "P2", 60, 600),
			line("Belt", "P3", 10, 500),
			line("Scarf", "P4", 10, 400),
			line("Gown", "P5", 10, 300),
			line("Frock", "P6", 10, 200),
			line("Bag", "P7", 10, 100),
		),
	}

	e := newTestEngine() // every product stocked at 5 with reorder point 12
	alerts := e.InventoryAlerts(e.Products(txns))
	if len(alerts) != 5 {
		t.Fatalf("got %d alerts, want cap of 5", len(alerts))
	}
	first := alerts[0]
	if first.Severity != domain.AlertCritical {
		t.Fatalf("severity = %s, want critical at half the reorder point", first.Severity)
	}
	if first.ProductCode != "P1" || first.DaysUntilStockout != 5 {
		t.Fatalf("unexpected first alert: %+v", first)
	}
}

func TestRFMSegmentsAndCohorts(t *testing.T) {
	e := newTestEngine()
	customers := []domain.CustomerAggregate{
		{Segment: domain.SegmentVIP, TotalSpend: 40000},
		{Segment: domain.SegmentLost, TotalSpend: 500},
		{Segment: domain.SegmentLost, TotalSpend: 1500},
	}
	segments := e.RFMSegments(customers)
	if len(segments) != 5 {
		t.Fatalf("got %d segments, want 5", len(segments))
	}
	bySeg := map[string]domain.RFMSegmentSummary{}
	for _, s := range segments {
		bySeg[s.Segment] = s
	}
	if got := bySeg[domain.SegmentLost]; got.Count != 2 || got.AvgSpend != 1000 {
		t.Fatalf("Lost summary = %+v", got)
	}
	if got := bySeg[domain.SegmentVIP].Percentage; got != 33.3 {
		t.Fatalf("VIP percentage = %v, want 33.3", got)
	}

	series := []domain.MonthlySales{{Month: "Nov 2025"}, {Month: "Dec 2025"}, {Month: "Jan 2026"}}
	rows := e.Cohorts(series)
	if len(rows) != 3 {
		t.Fatalf("got %d cohort rows, want 3", len(rows))
	}
	oldest, youngest := rows[0], rows[2]
	if oldest.Periods[0] == nil || *oldest.Periods[0] != 100 {
		t.Fatalf("month 0 retention must be 100, got %+v", oldest.Periods)
	}
	if oldest.Periods[2] == nil || *oldest.Periods[2] != 50 {
		t.Fatalf("fixed provider must fill observed periods, got %+v", oldest.Periods)
	}
	if youngest.Periods[1] != nil {
		t.Fatalf("young cohorts cannot have later periods, got %+v", youngest.Periods)
	}
}
