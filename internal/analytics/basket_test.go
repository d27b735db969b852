package analytics

import (
	"testing"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
)

func basket(voucher string, names ...string) domain.Transaction {
	lines := make([]domain.ProductLine, 0, len(names))
	for _, n := range names {
		lines = append(lines, domain.ProductLine{ProductName: n, ProductCode: n, Quantity: 1, NetAmt: 100})
	}
	return lineTxn("2026-01-05", voucher, "A", lines...)
}

func TestBasketRulesRequireThreeQualifyingTransactions(t *testing.T) {
	txns := []domain.Transaction{
		basket("V1", "Shoes", "Socks"),
		basket("V2", "Shoes", "Socks"),
		basket("V3", "Shoes"), // single item, does not qualify
	}
	if rules := newTestEngine().BasketRules(txns); len(rules) != 0 {
		t.Fatalf("got %d rules, want none below the transaction floor", len(rules))
	}
}

func TestBasketRulesPairSupportAndConfidence(t *testing.T) {
	txns := []domain.Transaction{
		basket("V1", "Shoes", "Socks"),
		basket("V2", "Shoes", "Socks"),
		basket("V3", "Shoes", "Belt"),
	}

	rules := newTestEngine().BasketRules(txns)
	if len(rules) == 0 {
		t.Fatalf("expected rules for a pair with joint count 2")
	}

	var shoesToSocks *domain.BasketRule
	for i := range rules {
		if rules[i].Antecedent == "Shoes" && rules[i].Consequent == "Socks" {
			shoesToSocks = &rules[i]
		}
		if rules[i].Antecedent == "Shoes" && rules[i].Consequent == "Belt" {
			t.Fatalf("pair with joint count 1 must not produce a rule")
		}
	}
	if shoesToSocks == nil {
		t.Fatalf("missing Shoes->Socks rule in %+v", rules)
	}
	if shoesToSocks.Support != 0.67 {
		t.Fatalf("support = %v, want 0.67", shoesToSocks.Support)
	}
	if shoesToSocks.Confidence != 0.67 {
		t.Fatalf("confidence = %v, want 0.67", shoesToSocks.Confidence)
	}
	if shoesToSocks.Lift != 1 {
		t.Fatalf("lift = %v, want 1", shoesToSocks.Lift)
	}
}

func TestBasketRulesEmitBothDirectionsAndCap(t *testing.T) {
	txns := []domain.Transaction{
		basket("V1", "A1", "B1", "C1", "D1"),
		basket("V2", "A1", "B1", "C1", "D1"),
		basket("V3", "A1", "B1", "C1", "D1"),
	}

	rules := newTestEngine().BasketRules(txns)
	if len(rules) != maxBasketRules {
		t.Fatalf("got %d rules, want cap of %d", len(rules), maxBasketRules)
	}

	found := map[string]bool{}
	for _, r := range rules {
		found[r.Antecedent+">"+r.Consequent] = true
	}
	if !found["A1>B1"] || !found["B1>A1"] {
		t.Fatalf("expected both directions of the first pair, got %v", found)
	}
}
