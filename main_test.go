package main

import (
	"testing"
)

func TestBuildAttemptSpecsExplicitSKU(t *testing.T) {
	config := DefaultConfig()

	specs := buildAttemptSpecs(config, "H7980100", "04.5", 1, false)
	if len(specs) != 1 {
		t.Fatalf("Expected one spec, got %d", len(specs))
	}
	if specs[0].SKU != "H7980100" || specs[0].Size != "04.5" || specs[0].Quantity != 1 {
		t.Errorf("Unexpected spec: %+v", specs[0])
	}
}

func TestBuildAttemptSpecsCatalogKey(t *testing.T) {
	config := DefaultConfig()

	// A catalog key resolves to the product's SKU and, when no size is
	// given, to its first listed size.
	specs := buildAttemptSpecs(config, "jordan-1-low", "", 1, false)
	if len(specs) != 1 {
		t.Fatalf("Expected one spec, got %d", len(specs))
	}
	if specs[0].SKU != "H7980100" {
		t.Errorf("Expected catalog key to resolve to SKU H7980100, got %q", specs[0].SKU)
	}
	if specs[0].Size != "04.0" {
		t.Errorf("Expected first catalog size 04.0, got %q", specs[0].Size)
	}
}

func TestBuildAttemptSpecsDefaultsToCatalog(t *testing.T) {
	config := DefaultConfig()

	specs := buildAttemptSpecs(config, "", "", 1, false)
	if len(specs) != 1 {
		t.Fatalf("Expected one spec from the catalog, got %d", len(specs))
	}
	if specs[0].SKU == "" {
		t.Error("Expected a SKU from the catalog")
	}

	config.Products = nil
	specs = buildAttemptSpecs(config, "", "", 1, false)
	if len(specs) != 0 {
		t.Errorf("Expected no specs with an empty catalog, got %d", len(specs))
	}
}

func TestBuildAttemptSpecsAllProducts(t *testing.T) {
	config := DefaultConfig()
	config.Products["dunk-low"] = ProductConfig{
		SKU:   "Z1234500",
		Name:  "Nike Dunk Low",
		Sizes: []string{"09.0"},
	}

	specs := buildAttemptSpecs(config, "", "", 2, true)
	if len(specs) != 2 {
		t.Fatalf("Expected one spec per catalog product, got %d", len(specs))
	}
	for _, spec := range specs {
		if spec.Quantity != 2 {
			t.Errorf("Expected quantity 2, got %d", spec.Quantity)
		}
		if spec.Size == "" {
			t.Errorf("Expected a default size for %s", spec.SKU)
		}
	}
}
