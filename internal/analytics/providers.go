package analytics

import (
	"math/rand"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
)

// StockProvider supplies inventory levels for a product. The sales register
// carries no stock data, so the default provider generates plausible
// stand-in numbers; wire a real inventory source before trusting the
// inventory views for decisions.
type StockProvider interface {
	Levels(productCode string) (stockLevel, reorderPoint int)
}

// CohortProvider supplies the retention table. The register has no customer
// account history to compute real cohorts from, so the default generates a
// plausible decay curve per cohort.
type CohortProvider interface {
	Retention(cohorts []string) []domain.CohortRow
}

type randomStock struct {
	rng *rand.Rand
}

// NewRandomStock returns the stand-in stock generator. The seed makes a
// given run reproducible; levels are still fabricated, not real inventory.
func NewRandomStock(seed int64) StockProvider {
	return &randomStock{rng: rand.New(rand.NewSource(seed))}
}

func (p *randomStock) Levels(string) (int, int) {
	stock := int(p.rng.Float64()*50 + 0.5)
	if stock < 5 {
		stock = 5
	}
	reorder := int(p.rng.Float64()*20 + 0.5)
	if reorder < 3 {
		reorder = 3
	}
	return stock, reorder
}

// FixedStock returns the same levels for every product. Used in tests and
// wherever deterministic placeholder output is preferable.
func FixedStock(stockLevel, reorderPoint int) StockProvider {
	return fixedStock{stock: stockLevel, reorder: reorderPoint}
}

type fixedStock struct {
	stock, reorder int
}

func (p fixedStock) Levels(string) (int, int) { return p.stock, p.reorder }

// retentionBands describes the stand-in decay curve: month 0 is always 100%,
// later months draw from base+jitter.
var retentionBands = []struct {
	base, jitter float64
}{
	{60, 15},
	{45, 15},
	{30, 15},
	{25, 10},
	{20, 8},
	{15, 8},
}

type randomCohorts struct {
	rng *rand.Rand
}

func NewRandomCohorts(seed int64) CohortProvider {
	return &randomCohorts{rng: rand.New(rand.NewSource(seed))}
}

// Retention builds one row per cohort, oldest first. A cohort only has data
// for the months it has existed, so younger cohorts trail off into nils.
func (p *randomCohorts) Retention(cohorts []string) []domain.CohortRow {
	rows := make([]domain.CohortRow, 0, len(cohorts))
	for i, label := range cohorts {
		observed := len(cohorts) - i
		if limit := len(retentionBands) + 1; observed > limit {
			observed = limit
		}
		periods := make([]*float64, len(retentionBands)+1)
		for m := 0; m < observed; m++ {
			var v float64
			if m == 0 {
				v = 100
			} else {
				band := retentionBands[m-1]
				v = float64(int(band.base + p.rng.Float64()*band.jitter + 0.5))
			}
			val := v
			periods[m] = &val
		}
		rows = append(rows, domain.CohortRow{Cohort: label, Periods: periods})
	}
	return rows
}

// FixedCohorts returns a provider whose every observed period is the given
// percentage (month 0 stays 100). Used in tests.
func FixedCohorts(pct float64) CohortProvider {
	return fixedCohorts{pct: pct}
}

type fixedCohorts struct {
	pct float64
}

func (p fixedCohorts) Retention(cohorts []string) []domain.CohortRow {
	rows := make([]domain.CohortRow, 0, len(cohorts))
	for i, label := range cohorts {
		observed := len(cohorts) - i
		if limit := len(retentionBands) + 1; observed > limit {
			observed = limit
		}
		periods := make([]*float64, len(retentionBands)+1)
		for m := 0; m < observed; m++ {
			v := p.pct
			if m == 0 {
				v = 100
			}
			val := v
			periods[m] = &val
		}
		rows = append(rows, domain.CohortRow{Cohort: label, Periods: periods})
	}
	return rows
}
