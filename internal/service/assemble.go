package service

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
)

// assemble packages every analytics output plus the templated narrative
// snippets into the fixed bundle shape the dashboard consumes.
func (s *Service) assemble(rowCount int, txns []domain.Transaction) domain.AnalysisBundle {
	products := s.engine.Products(txns)
	customers := s.engine.Customers(txns)
	series := s.engine.MonthlySeries(txns)
	forecast := s.engine.Forecast(series)
	segments := s.engine.RFMSegments(customers)
	baskets := s.engine.BasketRules(txns)

	summary := summarize(rowCount, txns, products, customers)
	kpis := buildKPIs(summary, products, series, txns)

	topCustomers := customers
	if len(topCustomers) > s.topCustomers {
		topCustomers = topCustomers[:s.topCustomers]
	}

	return domain.AnalysisBundle{
		Success:           true,
		Summary:           summary,
		KPIData:           kpis,
		Products:          products,
		Customers:         topCustomers,
		MonthlySalesData:  series,
		CategoryBreakdown: s.engine.CategoryBreakdown(products),
		PaymentMethods:    s.engine.PaymentBreakdown(txns),
		InventoryAlerts:   s.engine.InventoryAlerts(products),
		ForecastData:      forecast,
		RFMSegments:       segments,
		CohortData:        s.engine.Cohorts(series),
		BasketRules:       baskets,
		Narratives:        narratives(summary, products, customers, segments, forecast, baskets),
	}
}

func summarize(rowCount int, txns []domain.Transaction, products []domain.ProductAggregate, customers []domain.CustomerAggregate) domain.Summary {
	sum := domain.Summary{
		RowCount:         rowCount,
		TransactionCount: len(txns),
		ProductCount:     len(products),
		CustomerCount:    len(customers),
	}
	for _, t := range txns {
		sum.TotalRevenue += t.TotalNet
		sum.TotalDiscount += t.TotalDiscount
		sum.TotalVat += t.TotalVat
		if t.TotalsMismatch {
			sum.MismatchedTotals++
		}
		if _, err := time.Parse("2006-01-02", t.Date); err != nil {
			continue
		}
		if sum.StartDate == "" || t.Date < sum.StartDate {
			sum.StartDate = t.Date
		}
		if t.Date > sum.EndDate {
			sum.EndDate = t.Date
		}
	}
	sum.TotalRevenue = math.Round(sum.TotalRevenue)
	sum.TotalDiscount = math.Round(sum.TotalDiscount)
	sum.TotalVat = math.Round(sum.TotalVat)
	return sum
}

func buildKPIs(summary domain.Summary, products []domain.ProductAggregate, series []domain.MonthlySales, txns []domain.Transaction) []domain.KPI {
	avgOrder := 0.0
	if summary.TransactionCount > 0 {
		avgOrder = math.Round(summary.TotalRevenue / float64(summary.TransactionCount))
	}

	var totalGross, totalQty float64
	for _, t := range txns {
		totalGross += t.TotalGross
		for _, l := range t.Lines {
			totalQty += l.Quantity
		}
	}
	grossMargin := 30.0
	if totalGross > 0 {
		grossMargin = math.Round((1-(summary.TotalRevenue-summary.TotalVat)/totalGross)*1000) / 10
	}
	turnover := totalQty / math.Max(1, float64(len(products)*20))

	revChange, orderChange, aovChange := momChanges(series)

	return []domain.KPI{
		{Label: "Total Revenue", Value: FormatNPR(summary.TotalRevenue), Change: revChange, Trend: trend(revChange), Icon: "revenue"},
		{Label: "Orders Processed", Value: formatCount(summary.TransactionCount), Change: orderChange, Trend: trend(orderChange), Icon: "orders"},
		{Label: "Avg. Order Value", Value: FormatNPR(avgOrder), Change: aovChange, Trend: trend(aovChange), Icon: "aov"},
		{Label: "Active Customers", Value: formatCount(summary.CustomerCount), Change: 0, Trend: "flat", Icon: "customers"},
		{Label: "Inventory Turnover", Value: fmt.Sprintf("%.1fx", turnover), Change: 0, Trend: "flat", Icon: "inventory"},
		{Label: "Gross Margin", Value: fmt.Sprintf("%.1f%%", grossMargin), Change: 0, Trend: "flat", Icon: "margin"},
	}
}

// momChanges derives month-over-month percentage changes for revenue,
// orders and average order value from the last two months of the series.
func momChanges(series []domain.MonthlySales) (rev, orders, aov float64) {
	if len(series) < 2 {
		return 0, 0, 0
	}
	prev, last := series[len(series)-2], series[len(series)-1]
	rev = pctChange(prev.Revenue, last.Revenue)
	orders = pctChange(float64(prev.Orders), float64(last.Orders))
	aov = pctChange(prev.AvgOrder, last.AvgOrder)
	return rev, orders, aov
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return math.Round((to-from)/from*1000) / 10
}

func trend(change float64) string {
	switch {
	case change > 0:
		return "up"
	case change < 0:
		return "down"
	default:
		return "flat"
	}
}

func narratives(summary domain.Summary, products []domain.ProductAggregate, customers []domain.CustomerAggregate, segments []domain.RFMSegmentSummary, forecast []domain.ForecastPoint, baskets []domain.BasketRule) map[string]string {
	n := map[string]string{
		"overview": fmt.Sprintf("Analyzed %d transactions across %d products and %d customers between %s and %s, totaling %s in net sales.",
			summary.TransactionCount, summary.ProductCount, summary.CustomerCount, summary.StartDate, summary.EndDate, FormatNPR(summary.TotalRevenue)),
	}

	if len(products) > 0 {
		top := products[0]
		n["products"] = fmt.Sprintf("%s leads sales at %s; class A items carry the bulk of revenue, so keep them stocked first.",
			top.ProductName, FormatNPR(top.TotalRevenue))
	}
	if len(customers) > 0 {
		vip := 0
		for _, seg := range segments {
			if seg.Segment == domain.SegmentVIP {
				vip = seg.Count
			}
		}
		n["customers"] = fmt.Sprintf("Top customer %s has spent %s. %d customers currently score as VIP.",
			customers[0].Name, FormatNPR(customers[0].TotalSpend), vip)
	}
	if len(forecast) > 0 {
		n["forecast"] = fmt.Sprintf("Next month projects around %s in revenue on the current trend; treat the widening band as uncertainty, not a promise.",
			FormatNPR(forecast[0].Predicted))
	}
	if len(baskets) > 0 {
		n["basket"] = fmt.Sprintf("Buyers of %s also tend to buy %s (%.0f%% of the time) - a natural bundle candidate.",
			baskets[0].Antecedent, baskets[0].Consequent, baskets[0].Confidence*100)
	}
	if summary.MismatchedTotals > 0 {
		n["quality"] = fmt.Sprintf("%d transactions have header totals that disagree with their line sums; header values were kept verbatim.",
			summary.MismatchedTotals)
	}
	return n
}

var nprPrinter = message.NewPrinter(language.English)

// FormatNPR renders an amount in rupees, switching to lakh notation at one
// lakh the way the dashboard displays money.
func FormatNPR(v float64) string {
	if v >= 100000 {
		return fmt.Sprintf("रू %.2f L", v/100000)
	}
	return nprPrinter.Sprintf("रू %v", number(v))
}

func formatCount(n int) string {
	return nprPrinter.Sprintf("%v", n)
}

func number(v float64) interface{} {
	if v == math.Trunc(v) {
		return int64(v)
	}
	return v
}
