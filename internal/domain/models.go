package domain

import "time"

// ProductLine is one detail row of a voucher. It is owned by its parent
// Transaction and has no independent lifecycle.
type ProductLine struct {
	ProductName string  `json:"product_name"`
	ProductCode string  `json:"product_code"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Gross       float64 `json:"gross"`
	Discount    float64 `json:"discount"`
	TaxableAmt  float64 `json:"taxable_amt"`
	VatAmt      float64 `json:"vat_amt"`
	NetAmt      float64 `json:"net_amt"`
}

// Transaction is one reconstructed voucher. Header-level totals come from the
// header row verbatim; they may legitimately disagree with the sum of the
// lines, in which case TotalsMismatch is set.
type Transaction struct {
	Date            string        `json:"date"` // ISO YYYY-MM-DD, or the raw cell text when unparsed
	VoucherNo       string        `json:"voucher_no"`
	CustomerName    string        `json:"customer_name"`
	TransactionMode string        `json:"transaction_mode"`
	Lines           []ProductLine `json:"lines"`
	TotalGross      float64       `json:"total_gross"`
	TotalDiscount   float64       `json:"total_discount"`
	TotalNet        float64       `json:"total_net"`
	TotalVat        float64       `json:"total_vat"`
	TotalQty        float64       `json:"total_qty"`
	TotalsMismatch  bool          `json:"totals_mismatch,omitempty"`
}

type ProductAggregate struct {
	ProductCode       string  `json:"product_code"`
	ProductName       string  `json:"product_name"`
	Category          string  `json:"category"`
	TotalQuantitySold float64 `json:"total_quantity_sold"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalGross        float64 `json:"total_gross"`
	TotalDiscount     float64 `json:"total_discount"`
	TotalProfit       float64 `json:"total_profit"`
	AvgPrice          float64 `json:"avg_price"`
	StockLevel        int     `json:"stock_level"`
	ReorderPoint      int     `json:"reorder_point"`
	ABCClass          string  `json:"abc_class"`
}

type CustomerAggregate struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	TotalSpend          float64 `json:"total_spend"`
	TotalOrders         int     `json:"total_orders"`
	AvgOrderValue       float64 `json:"avg_order_value"`
	LastPurchase        string  `json:"last_purchase"`
	DominantPaymentMode string  `json:"dominant_payment_mode"`
	RecencyScore        int     `json:"recency_score"`
	FrequencyScore      int     `json:"frequency_score"`
	MonetaryScore       int     `json:"monetary_score"`
	RFMScore            int     `json:"rfm_score"`
	Segment             string  `json:"segment"`
	ChurnRisk           float64 `json:"churn_risk"`
	CLV                 float64 `json:"clv"`
	IsWalkIn            bool    `json:"is_walk_in"`
}

type MonthlySales struct {
	Month    string  `json:"month"` // display label, e.g. "Jan 2026"
	Year     int     `json:"year"`
	MonthNum int     `json:"month_num"`
	Revenue  float64 `json:"revenue"`
	Orders   int     `json:"orders"`
	AvgOrder float64 `json:"avg_order"`
}

type KPI struct {
	Label  string  `json:"label"`
	Value  string  `json:"value"`
	Change float64 `json:"change"`
	Trend  string  `json:"trend"`
	Icon   string  `json:"icon"`
}

type CategoryShare struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"` // percent of category revenue
	Revenue float64 `json:"revenue"`
}

type PaymentShare struct {
	Method     string  `json:"method"`
	Count      int     `json:"count"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type InventoryAlert struct {
	ProductCode       string `json:"product_code"`
	ProductName       string `json:"product_name"`
	StockLevel        int    `json:"stock_level"`
	ReorderPoint      int    `json:"reorder_point"`
	DaysUntilStockout int    `json:"days_until_stockout"`
	Severity          string `json:"severity"` // "critical" or "warning"
}

type ForecastPoint struct {
	Month     string  `json:"month"`
	Predicted float64 `json:"predicted"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

type RFMSegmentSummary struct {
	Segment    string  `json:"segment"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	AvgSpend   float64 `json:"avg_spend"`
}

// CohortRow is one first-purchase cohort; Periods holds retention percentages
// for months 0..N, nil where the cohort is too young to have data.
type CohortRow struct {
	Cohort  string     `json:"cohort"`
	Periods []*float64 `json:"periods"`
}

// BasketRule is a directed association rule "buyers of Antecedent also buy
// Consequent".
type BasketRule struct {
	Antecedent string  `json:"antecedent"`
	Consequent string  `json:"consequent"`
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
}

type Summary struct {
	RowCount         int     `json:"row_count"`
	TransactionCount int     `json:"transaction_count"`
	ProductCount     int     `json:"product_count"`
	CustomerCount    int     `json:"customer_count"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalDiscount    float64 `json:"total_discount"`
	TotalVat         float64 `json:"total_vat"`
	MismatchedTotals int     `json:"mismatched_totals"`
}

// AnalysisBundle is the fixed-shape object the presentation layer and the
// NL-query collaborator consume. It is derived, ephemeral state: a new upload
// replaces the previous bundle wholesale.
type AnalysisBundle struct {
	Success           bool                `json:"success"`
	Summary           Summary             `json:"summary"`
	KPIData           []KPI               `json:"kpi_data"`
	Products          []ProductAggregate  `json:"products"`
	Customers         []CustomerAggregate `json:"customers"`
	MonthlySalesData  []MonthlySales      `json:"monthly_sales_data"`
	CategoryBreakdown []CategoryShare     `json:"category_breakdown"`
	PaymentMethods    []PaymentShare      `json:"payment_methods"`
	InventoryAlerts   []InventoryAlert    `json:"inventory_alerts"`
	ForecastData      []ForecastPoint     `json:"forecast_data"`
	RFMSegments       []RFMSegmentSummary `json:"rfm_segments"`
	CohortData        []CohortRow         `json:"cohort_data"`
	BasketRules       []BasketRule        `json:"basket_rules"`
	Narratives        map[string]string   `json:"narratives"`
}

// DatasetSnapshot wraps a bundle with upload metadata. The store holds exactly
// one current snapshot at a time (sample data until the first upload).
type DatasetSnapshot struct {
	ID         string         `json:"id"`
	FileName   string         `json:"file_name"`
	Sample     bool           `json:"sample"`
	UploadedAt time.Time      `json:"uploaded_at"`
	Bundle     AnalysisBundle `json:"bundle"`
}

type UploadRecord struct {
	ID               string    `json:"id"`
	FileName         string    `json:"file_name"`
	RowCount         int       `json:"row_count"`
	TransactionCount int       `json:"transaction_count"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// DataSummary is the compact view handed to the natural-language query
// collaborator (it has no access to the raw transactions).
type DataSummary struct {
	Summary        Summary             `json:"summary"`
	TopProducts    []ProductAggregate  `json:"top_products"`
	TopCustomers   []CustomerAggregate `json:"top_customers"`
	PaymentMethods []PaymentShare      `json:"payment_methods"`
	MonthlySales   []MonthlySales      `json:"monthly_sales"`
	RFMSegments    []RFMSegmentSummary `json:"rfm_segments"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserSummary struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	SegmentVIP     = "VIP"
	SegmentLoyal   = "Loyal"
	SegmentRegular = "Regular"
	SegmentAtRisk  = "At-Risk"
	SegmentLost    = "Lost"
)

const (
	ABCClassA = "A"
	ABCClassB = "B"
	ABCClassC = "C"
)

const (
	AlertCritical = "critical"
	AlertWarning  = "warning"
)

// WalkInName is the sentinel identity for anonymous buyers.
const WalkInName = "Cash Party (Walk-in)"
