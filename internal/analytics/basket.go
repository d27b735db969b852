package analytics

import (
	"math"
	"sort"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
)

const (
	minBasketTransactions = 3
	minPairSupport        = 2
	minConfidence         = 0.20
	maxBasketRules        = 8
)

// BasketRules mines "buyers of X also buy Y" association rules. Only
// transactions with at least two distinct product names qualify; with fewer
// than three such baskets there is nothing statistically worth reporting
// and the result is empty. Rules are ranked by lift, ties kept in
// first-seen order.
func (e *Engine) BasketRules(txns []domain.Transaction) []domain.BasketRule {
	baskets := make([][]string, 0, len(txns))
	for _, t := range txns {
		seen := map[string]struct{}{}
		items := []string{}
		for _, l := range t.Lines {
			if l.ProductName == "" {
				continue
			}
			if _, ok := seen[l.ProductName]; ok {
				continue
			}
			seen[l.ProductName] = struct{}{}
			items = append(items, l.ProductName)
		}
		if len(items) >= 2 {
			baskets = append(baskets, items)
		}
	}
	if len(baskets) < minBasketTransactions {
		return []domain.BasketRule{}
	}

	itemFreq := map[string]int{}
	pairFreq := map[[2]string]int{}
	pairOrder := [][2]string{}
	for _, items := range baskets {
		for _, it := range items {
			itemFreq[it]++
		}
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				a, b := items[i], items[j]
				if b < a {
					a, b = b, a
				}
				key := [2]string{a, b}
				if pairFreq[key] == 0 {
					pairOrder = append(pairOrder, key)
				}
				pairFreq[key]++
			}
		}
	}

	total := float64(len(baskets))
	rules := []domain.BasketRule{}
	for _, pair := range pairOrder {
		joint := pairFreq[pair]
		if joint < minPairSupport {
			continue
		}
		for _, dir := range [][2]string{pair, {pair[1], pair[0]}} {
			antecedent, consequent := dir[0], dir[1]
			confidence := float64(joint) / float64(itemFreq[antecedent])
			if confidence < minConfidence {
				continue
			}
			rules = append(rules, domain.BasketRule{
				Antecedent: antecedent,
				Consequent: consequent,
				Support:    round2(float64(joint) / total),
				Confidence: round2(confidence),
				Lift:       round2(confidence / (float64(itemFreq[consequent]) / total)),
			})
		}
	}

	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Lift > rules[j].Lift })
	if len(rules) > maxBasketRules {
		rules = rules[:maxBasketRules]
	}
	return rules
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
