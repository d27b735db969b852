// Package rules holds the data-driven normalization tables used by the
// stitcher and the analytics engine: walk-in customer detection, payment
// method synonym folding, the category keyword taxonomy, and the
// name-column/payment-method quirk list. Built-in defaults match the
// Ambassador sales export; a YAML file can override any table.
package rules

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
)

type PaymentMethod struct {
	Canonical string   `yaml:"canonical"`
	Keywords  []string `yaml:"keywords"`
}

type CategoryRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Ruleset is evaluated top to bottom; for categories and payment methods the
// first matching keyword wins, so table order matters.
type Ruleset struct {
	WalkInSynonyms  []string        `yaml:"walk_in_synonyms"`
	Payments        []PaymentMethod `yaml:"payment_methods"`
	DefaultPayment  string          `yaml:"default_payment"`
	Categories      []CategoryRule  `yaml:"categories"`
	DefaultCategory string          `yaml:"default_category"`

	// NameQuirks lists payment keywords that are known to leak into the
	// customer-name column in some exports. Empty means "use every payment
	// keyword", which matches the observed data quirk.
	NameQuirks []string `yaml:"name_payment_quirks"`
}

// Default returns the built-in ruleset.
func Default() *Ruleset {
	return &Ruleset{
		WalkInSynonyms: []string{"CASH PARTY", "CASHPARTY", "CASH"},
		Payments: []PaymentMethod{
			{Canonical: "FonePay", Keywords: []string{"fonepay", "phonepay", "fone pay"}},
			{Canonical: "eSewa", Keywords: []string{"esewa"}},
			{Canonical: "Khalti", Keywords: []string{"khalti"}},
			{Canonical: "Card", Keywords: []string{"creditcard", "debitcard", "card", "visa", "mastercard"}},
			{Canonical: "Cheque", Keywords: []string{"cheque", "check"}},
			{Canonical: "Bank Transfer", Keywords: []string{"banktransfer", "bank", "transfer", "ips", "connectips"}},
			{Canonical: "Cash", Keywords: []string{"cash"}},
		},
		DefaultPayment: "Other",
		Categories: []CategoryRule{
			{Category: "Bottoms", Keywords: []string{"pant", "jeans", "trouser", "skirt"}},
			{Category: "Footwear", Keywords: []string{"shoe", "slipper", "sandal", "boot"}},
			{Category: "Accessories", Keywords: []string{"belt", "bag", "scarf", "clutch", "accessori"}},
			{Category: "Dresses", Keywords: []string{"dress", "gown", "frock", "co-ord"}},
		},
		DefaultCategory: "Tops",
	}
}

// Load reads a YAML override file. Tables present in the file replace the
// corresponding defaults wholesale; absent tables keep the defaults.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var loaded Ruleset
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	rs := Default()
	if len(loaded.WalkInSynonyms) > 0 {
		rs.WalkInSynonyms = loaded.WalkInSynonyms
	}
	if len(loaded.Payments) > 0 {
		rs.Payments = loaded.Payments
	}
	if loaded.DefaultPayment != "" {
		rs.DefaultPayment = loaded.DefaultPayment
	}
	if len(loaded.Categories) > 0 {
		rs.Categories = loaded.Categories
	}
	if loaded.DefaultCategory != "" {
		rs.DefaultCategory = loaded.DefaultCategory
	}
	if len(loaded.NameQuirks) > 0 {
		rs.NameQuirks = loaded.NameQuirks
	}
	return rs, nil
}

// NormalizeCustomer canonicalizes a customer display name. Walk-in synonyms
// map to the sentinel identity; a name that is really a leaked payment method
// normalizes to "" (PaymentFromName recovers the method). Everything else is
// title-cased per token.
func (r *Ruleset) NormalizeCustomer(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}

	upper := strings.ToUpper(name)
	for _, syn := range r.WalkInSynonyms {
		if upper == syn {
			return domain.WalkInName
		}
	}

	if _, ok := r.PaymentFromName(name); ok {
		return ""
	}

	return TitleCase(name)
}

// PaymentFromName reports whether a customer-name cell actually holds a
// payment method (a known export quirk), returning the canonical method.
func (r *Ruleset) PaymentFromName(raw string) (string, bool) {
	key := lettersOnly(raw)
	if key == "" {
		return "", false
	}

	quirks := r.NameQuirks
	if len(quirks) == 0 {
		for _, pm := range r.Payments {
			quirks = append(quirks, pm.Keywords...)
		}
	}
	for _, q := range quirks {
		if key == lettersOnly(q) {
			return r.NormalizePayment(raw), true
		}
	}
	return "", false
}

// NormalizePayment folds a payment-method string onto its canonical form.
// Unrecognized non-empty input is passed through title-cased; missing input
// maps to the default ("Other").
func (r *Ruleset) NormalizePayment(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return r.DefaultPayment
	}

	key := lettersOnly(trimmed)
	for _, pm := range r.Payments {
		for _, kw := range pm.Keywords {
			if key == lettersOnly(kw) || strings.Contains(key, lettersOnly(kw)) {
				return pm.Canonical
			}
		}
	}
	return TitleCase(trimmed)
}

// Categorize maps a product name onto a category via the ordered keyword
// table; first match wins. This is a coarse heuristic, not a catalog lookup.
func (r *Ruleset) Categorize(productName string) string {
	lower := strings.ToLower(productName)
	for _, rule := range r.Categories {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return r.DefaultCategory
}

// TitleCase upper-cases the first letter of each whitespace-delimited token
// and lower-cases the rest.
func TitleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		runes := []rune(strings.ToLower(f))
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
