package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.BundleCacheTTLSeconds != 600 || cfg.TopCustomers != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address = %q", cfg.Address())
	}
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOP_CUSTOMERS", "50")
	t.Setenv("BUNDLE_CACHE_TTL_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.Port != "9090" || cfg.TopCustomers != 50 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.BundleCacheTTLSeconds != 600 {
		t.Fatalf("bad TTL must fall back to default, got %d", cfg.BundleCacheTTLSeconds)
	}
}
