// Package analytics computes the dashboard views from reconstructed
// transactions: product aggregation with ABC classes, customer RFM scoring,
// monthly series and forecast, category/payment breakdowns, inventory
// alerts, cohort retention, and market-basket rules. Everything except the
// pluggable stock/cohort providers is a deterministic pure function of the
// transaction set.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
	"github.com/honeylavenderwrites/retailytic/internal/rules"
)

const defaultMargin = 0.30

type Engine struct {
	rules   *rules.Ruleset
	stock   StockProvider
	cohorts CohortProvider
}

func New(rs *rules.Ruleset, stock StockProvider, cohorts CohortProvider) *Engine {
	return &Engine{rules: rs, stock: stock, cohorts: cohorts}
}

// Products aggregates lines per product and assigns ABC classes by
// cumulative revenue share: A while ≤70%, B while ≤90%, else C. Profit is
// an estimate from the observed discount depth, falling back to a flat
// margin when a product has no gross amount.
func (e *Engine) Products(txns []domain.Transaction) []domain.ProductAggregate {
	type acc struct {
		name, code                   string
		qty, revenue, gross, discount float64
	}
	byKey := map[string]*acc{}
	order := []string{}
	for _, t := range txns {
		for _, l := range t.Lines {
			key := l.ProductCode
			if key == "" {
				key = l.ProductName
			}
			a, ok := byKey[key]
			if !ok {
				a = &acc{name: l.ProductName, code: l.ProductCode}
				byKey[key] = a
				order = append(order, key)
			}
			a.qty += l.Quantity
			a.revenue += l.NetAmt
			a.gross += l.Gross
			a.discount += l.Discount
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byKey[order[i]].revenue > byKey[order[j]].revenue
	})

	var total float64
	for _, k := range order {
		total += byKey[k].revenue
	}

	products := make([]domain.ProductAggregate, 0, len(order))
	var cumulative float64
	for _, k := range order {
		a := byKey[k]
		cumulative += a.revenue

		class := domain.ABCClassC
		if total > 0 {
			switch frac := cumulative / total; {
			case frac <= 0.7:
				class = domain.ABCClassA
			case frac <= 0.9:
				class = domain.ABCClassB
			}
		}

		margin := defaultMargin
		if a.gross > 0 {
			margin = (a.gross - a.discount) / a.gross
		}

		avgPrice := 0.0
		if a.qty > 0 {
			avgPrice = math.Round(a.revenue / a.qty)
		}

		stock, reorder := e.stock.Levels(a.code)
		products = append(products, domain.ProductAggregate{
			ProductCode:       a.code,
			ProductName:       a.name,
			Category:          e.rules.Categorize(a.name),
			TotalQuantitySold: a.qty,
			TotalRevenue:      math.Round(a.revenue),
			TotalGross:        math.Round(a.gross),
			TotalDiscount:     math.Round(a.discount),
			TotalProfit:       math.Round(a.revenue * margin),
			AvgPrice:          avgPrice,
			StockLevel:        stock,
			ReorderPoint:      reorder,
			ABCClass:          class,
		})
	}
	return products
}

// Customers aggregates spend per customer and scores each on the RFM model.
// Recency is measured against the latest transaction date in the dataset,
// not the wall clock, so re-analyzing an old file gives stable scores.
func (e *Engine) Customers(txns []domain.Transaction) []domain.CustomerAggregate {
	type acc struct {
		name     string
		spend    float64
		vouchers map[string]struct{}
		lastDate string
		modes    map[string]int
	}
	byName := map[string]*acc{}
	order := []string{}
	reference := ""
	for _, t := range txns {
		if t.CustomerName == "" {
			continue
		}
		a, ok := byName[t.CustomerName]
		if !ok {
			a = &acc{name: t.CustomerName, vouchers: map[string]struct{}{}, modes: map[string]int{}}
			byName[t.CustomerName] = a
			order = append(order, t.CustomerName)
		}
		a.spend += t.TotalNet
		if t.VoucherNo != "" {
			a.vouchers[t.VoucherNo] = struct{}{}
		}
		// Unparsed dates pass through the normalizer verbatim; they must not
		// win a lexicographic comparison against real ISO dates.
		if isISODate(t.Date) {
			if t.Date > a.lastDate {
				a.lastDate = t.Date
			}
			if t.Date > reference {
				reference = t.Date
			}
		}
		a.modes[t.TransactionMode]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byName[order[i]].spend > byName[order[j]].spend
	})

	customers := make([]domain.CustomerAggregate, 0, len(order))
	for i, name := range order {
		a := byName[name]
		orders := len(a.vouchers)
		walkIn := name == domain.WalkInName

		r := recencyScore(a.lastDate, reference)
		f := frequencyScore(orders)
		m := monetaryScore(a.spend)
		segment := segmentFor(r, f, m, walkIn)

		avgOrder := 0.0
		if orders > 0 {
			avgOrder = math.Round(a.spend / float64(orders))
		}
		clvFactor := 1.5
		if orders > 1 {
			clvFactor = 3
		}

		customers = append(customers, domain.CustomerAggregate{
			ID:                  fmt.Sprintf("C%03d", i+1),
			Name:                name,
			TotalSpend:          math.Round(a.spend),
			TotalOrders:         orders,
			AvgOrderValue:       avgOrder,
			LastPurchase:        a.lastDate,
			DominantPaymentMode: dominantMode(a.modes),
			RecencyScore:        r,
			FrequencyScore:      f,
			MonetaryScore:       m,
			RFMScore:            int(math.Round(float64(r+f+m) / 15 * 100)),
			Segment:             segment,
			ChurnRisk:           churnRisk(segment),
			CLV:                 math.Round(a.spend * clvFactor),
			IsWalkIn:            walkIn,
		})
	}
	return customers
}

func isISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func recencyScore(lastDate, reference string) int {
	last, err1 := time.Parse("2006-01-02", lastDate)
	ref, err2 := time.Parse("2006-01-02", reference)
	if err1 != nil || err2 != nil {
		return 1
	}
	days := int(ref.Sub(last).Hours() / 24)
	switch {
	case days <= 7:
		return 5
	case days <= 14:
		return 4
	case days <= 30:
		return 3
	case days <= 60:
		return 2
	default:
		return 1
	}
}

func frequencyScore(orders int) int {
	switch {
	case orders >= 10:
		return 5
	case orders >= 6:
		return 4
	case orders >= 3:
		return 3
	case orders >= 2:
		return 2
	default:
		return 1
	}
}

// Monetary thresholds are in rupees and tuned to a small fashion retailer;
// they are rules of thumb, not laws.
func monetaryScore(spend float64) int {
	switch {
	case spend >= 30000:
		return 5
	case spend >= 15000:
		return 4
	case spend >= 8000:
		return 3
	case spend >= 3000:
		return 2
	default:
		return 1
	}
}

// segmentFor maps RFM scores onto a segment. Walk-ins are always Regular:
// the sentinel identity pools unrelated buyers, so loyalty labels would be
// meaningless for it.
func segmentFor(r, f, m int, walkIn bool) string {
	if walkIn {
		return domain.SegmentRegular
	}
	switch {
	case r >= 4 && f >= 4 && m >= 4:
		return domain.SegmentVIP
	case r >= 3 && f >= 3:
		return domain.SegmentLoyal
	case r >= 3:
		return domain.SegmentRegular
	case r <= 2 && f >= 2:
		return domain.SegmentAtRisk
	default:
		return domain.SegmentLost
	}
}

func churnRisk(segment string) float64 {
	switch segment {
	case domain.SegmentVIP:
		return 0.05
	case domain.SegmentLoyal:
		return 0.15
	case domain.SegmentRegular:
		return 0.30
	case domain.SegmentAtRisk:
		return 0.60
	default:
		return 0.85
	}
}

func dominantMode(modes map[string]int) string {
	best, bestCount := "", -1
	keys := make([]string, 0, len(modes))
	for k := range modes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if modes[k] > bestCount {
			best, bestCount = k, modes[k]
		}
	}
	return best
}

// MonthlySeries groups transactions by calendar month of their ISO date and
// sums net revenue. Transactions whose date never parsed are excluded.
func (e *Engine) MonthlySeries(txns []domain.Transaction) []domain.MonthlySales {
	type acc struct {
		revenue float64
		orders  int
	}
	byMonth := map[int]*acc{}
	for _, t := range txns {
		d, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			continue
		}
		key := d.Year()*100 + int(d.Month())
		a, ok := byMonth[key]
		if !ok {
			a = &acc{}
			byMonth[key] = a
		}
		a.revenue += t.TotalNet
		a.orders++
	}

	keys := make([]int, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	series := make([]domain.MonthlySales, 0, len(keys))
	for _, k := range keys {
		a := byMonth[k]
		year, monthNum := k/100, k%100
		avg := 0.0
		if a.orders > 0 {
			avg = math.Round(a.revenue / float64(a.orders))
		}
		series = append(series, domain.MonthlySales{
			Month:    fmt.Sprintf("%s %d", time.Month(monthNum).String()[:3], year),
			Year:     year,
			MonthNum: monthNum,
			Revenue:  math.Round(a.revenue),
			Orders:   a.orders,
			AvgOrder: avg,
		})
	}
	return series
}

// CategoryBreakdown shares product revenue across categories, in percent.
func (e *Engine) CategoryBreakdown(products []domain.ProductAggregate) []domain.CategoryShare {
	type acc struct{ revenue float64 }
	byCat := map[string]*acc{}
	order := []string{}
	var total float64
	for _, p := range products {
		a, ok := byCat[p.Category]
		if !ok {
			a = &acc{}
			byCat[p.Category] = a
			order = append(order, p.Category)
		}
		a.revenue += p.TotalRevenue
		total += p.TotalRevenue
	}

	shares := make([]domain.CategoryShare, 0, len(order))
	for _, cat := range order {
		a := byCat[cat]
		pct := 0.0
		if total > 0 {
			pct = round1(a.revenue / total * 100)
		}
		shares = append(shares, domain.CategoryShare{Name: cat, Value: pct, Revenue: math.Round(a.revenue)})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Revenue > shares[j].Revenue })
	return shares
}

// PaymentBreakdown shares transaction value across payment methods.
func (e *Engine) PaymentBreakdown(txns []domain.Transaction) []domain.PaymentShare {
	type acc struct {
		count  int
		amount float64
	}
	byMode := map[string]*acc{}
	order := []string{}
	var total float64
	for _, t := range txns {
		mode := t.TransactionMode
		if mode == "" {
			mode = e.rules.DefaultPayment
		}
		a, ok := byMode[mode]
		if !ok {
			a = &acc{}
			byMode[mode] = a
			order = append(order, mode)
		}
		a.count++
		a.amount += t.TotalNet
		total += t.TotalNet
	}

	shares := make([]domain.PaymentShare, 0, len(order))
	for _, mode := range order {
		a := byMode[mode]
		pct := 0.0
		if total > 0 {
			pct = round1(a.amount / total * 100)
		}
		shares = append(shares, domain.PaymentShare{Method: mode, Count: a.count, Amount: math.Round(a.amount), Percentage: pct})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Amount > shares[j].Amount })
	return shares
}

// InventoryAlerts lists products at or below their reorder point, worst
// first, capped to five. Days-until-stockout assumes the trailing 30-day
// sales rate continues.
func (e *Engine) InventoryAlerts(products []domain.ProductAggregate) []domain.InventoryAlert {
	alerts := []domain.InventoryAlert{}
	for _, p := range products {
		if p.StockLevel > p.ReorderPoint {
			continue
		}
		dailyRate := p.TotalQuantitySold / 30
		if dailyRate < 1 {
			dailyRate = 1
		}
		days := int(math.Round(float64(p.StockLevel) / dailyRate))
		if days < 1 {
			days = 1
		}
		severity := domain.AlertWarning
		if float64(p.StockLevel) <= float64(p.ReorderPoint)*0.5 {
			severity = domain.AlertCritical
		}
		alerts = append(alerts, domain.InventoryAlert{
			ProductCode:       p.ProductCode,
			ProductName:       p.ProductName,
			StockLevel:        p.StockLevel,
			ReorderPoint:      p.ReorderPoint,
			DaysUntilStockout: days,
			Severity:          severity,
		})
		if len(alerts) == 5 {
			break
		}
	}
	return alerts
}

// Forecast extrapolates the monthly series linearly: the prediction starts
// from the mean of the last three months and moves by the slope observed
// across that window, with an uncertainty band widening 10% per step. This
// is intentionally naive, not a seasonal model.
func (e *Engine) Forecast(series []domain.MonthlySales) []domain.ForecastPoint {
	if len(series) == 0 {
		return nil
	}
	window := series
	if len(window) > 3 {
		window = window[len(window)-3:]
	}
	var sum float64
	for _, m := range window {
		sum += m.Revenue
	}
	avg := sum / float64(len(window))
	slope := (window[len(window)-1].Revenue - window[0].Revenue) / float64(len(window))

	points := make([]domain.ForecastPoint, 0, 4)
	for step := 1; step <= 4; step++ {
		predicted := avg + slope*float64(step)
		band := 0.10 * float64(step)
		points = append(points, domain.ForecastPoint{
			Month:     fmt.Sprintf("Forecast +%d", step),
			Predicted: math.Round(predicted),
			Lower:     math.Round(predicted * (1 - band)),
			Upper:     math.Round(predicted * (1 + band)),
		})
	}
	return points
}

// RFMSegments summarizes the customer list per segment, in the fixed
// segment order the dashboard renders.
func (e *Engine) RFMSegments(customers []domain.CustomerAggregate) []domain.RFMSegmentSummary {
	segments := []string{domain.SegmentVIP, domain.SegmentLoyal, domain.SegmentRegular, domain.SegmentAtRisk, domain.SegmentLost}
	total := len(customers)
	out := make([]domain.RFMSegmentSummary, 0, len(segments))
	for _, seg := range segments {
		count := 0
		var spend float64
		for _, c := range customers {
			if c.Segment == seg {
				count++
				spend += c.TotalSpend
			}
		}
		pct, avg := 0.0, 0.0
		if total > 0 {
			pct = round1(float64(count) / float64(total) * 100)
		}
		if count > 0 {
			avg = math.Round(spend / float64(count))
		}
		out = append(out, domain.RFMSegmentSummary{Segment: seg, Count: count, Percentage: pct, AvgSpend: avg})
	}
	return out
}

// Cohorts hands the oldest months (up to seven) to the cohort provider.
func (e *Engine) Cohorts(series []domain.MonthlySales) []domain.CohortRow {
	labels := make([]string, 0, 7)
	for _, m := range series {
		labels = append(labels, m.Month)
		if len(labels) == 7 {
			break
		}
	}
	if len(labels) == 0 {
		return nil
	}
	return e.cohorts.Retention(labels)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
