package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if config.BaseURL != "https://www.footlocker.com" {
		t.Errorf("Expected footlocker base URL, got '%s'", config.BaseURL)
	}

	if config.APIBase != "https://www.footlocker.com/zgw" {
		t.Errorf("Expected zgw API base, got '%s'", config.APIBase)
	}

	if config.RequestTimeoutSeconds != 30 {
		t.Errorf("Expected RequestTimeoutSeconds to be 30, got %d", config.RequestTimeoutSeconds)
	}

	if config.TransportAttempts != 1 {
		t.Errorf("Expected TransportAttempts to be 1, got %d", config.TransportAttempts)
	}

	if config.Endpoints.CartAdd == "" || config.Endpoints.PlaceOrder == "" {
		t.Error("Expected endpoint paths to be set")
	}

	if len(config.Products) == 0 {
		t.Error("Expected a non-empty default product catalog")
	}

	if config.UserAgent == "" {
		t.Error("Expected a default user agent")
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "checkout-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configPath := filepath.Join(tempDir, "test-config.yaml")

	config := DefaultConfig()
	config.UserAgent = "Mozilla/5.0 custom"
	config.Cookies = map[string]string{"ZGWID": "abc", "JSESSIONID": "def"}
	config.KasadaToken = "tok-123"
	config.TransportAttempts = 3

	if err := config.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.UserAgent != config.UserAgent {
		t.Errorf("Expected UserAgent '%s', got '%s'", config.UserAgent, loadedConfig.UserAgent)
	}

	if loadedConfig.Cookies["ZGWID"] != "abc" {
		t.Errorf("Expected cookie ZGWID 'abc', got '%s'", loadedConfig.Cookies["ZGWID"])
	}

	if loadedConfig.KasadaToken != "tok-123" {
		t.Errorf("Expected KasadaToken 'tok-123', got '%s'", loadedConfig.KasadaToken)
	}

	if loadedConfig.TransportAttempts != 3 {
		t.Errorf("Expected TransportAttempts 3, got %d", loadedConfig.TransportAttempts)
	}
}

func TestLoadConfigCreatesDefaultIfMissing(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "checkout-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configPath := filepath.Join(tempDir, "new-config.yaml")

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config == nil {
		t.Fatal("LoadConfig returned nil")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created automatically")
	}

	if config.BaseURL != "https://www.footlocker.com" {
		t.Errorf("Expected default base URL, got '%s'", config.BaseURL)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "checkout-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configPath := filepath.Join(tempDir, "invalid-config.yaml")

	invalidYAML := "invalid: yaml: content: [unclosed"
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write invalid YAML: %v", err)
	}

	_, err = LoadConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid YAML, got nil")
	}
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}

	config.UserAgent = ""
	if err := config.Validate(); err == nil {
		t.Error("Expected error for missing user agent")
	}

	config = DefaultConfig()
	config.APIBase = ""
	if err := config.Validate(); err == nil {
		t.Error("Expected error for missing api_base")
	}
}

func TestDefaultHeaders(t *testing.T) {
	config := DefaultConfig()
	config.KasadaToken = "tok-9"

	headers := config.DefaultHeaders()
	if headers["user-agent"] != config.UserAgent {
		t.Errorf("Expected user agent header, got '%s'", headers["user-agent"])
	}
	if headers["x-kpsdk-ct"] != "tok-9" {
		t.Errorf("Expected Kasada token header, got '%s'", headers["x-kpsdk-ct"])
	}
	if headers["origin"] != config.BaseURL {
		t.Errorf("Expected origin to match base URL, got '%s'", headers["origin"])
	}

	config.KasadaToken = ""
	if _, ok := config.DefaultHeaders()["x-kpsdk-ct"]; ok {
		t.Error("Expected no Kasada header when token is unset")
	}
}

func TestProductLookup(t *testing.T) {
	config := DefaultConfig()

	byKey, ok := config.Product("jordan-1-low")
	if !ok {
		t.Fatal("Expected catalog key lookup to succeed")
	}

	bySKU, ok := config.Product(byKey.SKU)
	if !ok {
		t.Fatal("Expected SKU lookup to succeed")
	}
	if bySKU.SKU != byKey.SKU {
		t.Errorf("Key and SKU lookup disagree: %q vs %q", bySKU.SKU, byKey.SKU)
	}

	if _, ok := config.Product("nope"); ok {
		t.Error("Expected unknown product lookup to fail")
	}
}
