package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	sku := flag.String("sku", "", "Product SKU or catalog key (defaults to first catalog entry)")
	size := flag.String("size", "", "Shoe size, e.g. 04.5")
	quantity := flag.Int("qty", 1, "Quantity to order")
	checkOnly := flag.Bool("check-only", false, "Only check availability, no cart or order activity")
	dryRun := flag.Bool("dry-run", false, "Validate config and print the stage plan without network activity")
	debug := flag.Bool("debug", false, "Enable detailed debug logging")
	dropTime := flag.String("drop-time", "", "Drop time (e.g. '2026-02-14 10:00' UTC) - waits until shortly before")
	allProducts := flag.Bool("all", false, "Run one concurrent attempt per catalog product")
	browserLogin := flag.Bool("browser-login", false, "Capture session cookies from a real Chrome login, then exit")
	importCurl := flag.Bool("import-curl", false, "Read a cURL command from stdin, import its cookies, then exit")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *dryRun {
		config.DryRun = true
	}
	if *debug {
		config.DebugMode = true
	}
	if *dropTime != "" {
		config.DropTime = *dropTime
	}

	logFile, err := setupLogging(config.LogFile)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║              Foot Locker Checkout Runner                  ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	if *browserLogin {
		runBrowserLogin(config, *configPath)
		return
	}
	if *importCurl {
		runCurlImport(config, *configPath)
		return
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	specs := buildAttemptSpecs(config, *sku, *size, *quantity, *allProducts)
	if len(specs) == 0 {
		log.Fatal("No product selected. Use -sku/-size or add products to the config catalog.")
	}

	if config.DryRun {
		printPlan(config, specs)
		return
	}

	ctx := context.Background()

	if *checkOnly {
		runCheckOnly(ctx, config, specs[0])
		return
	}

	if config.DropTime != "" {
		waitForConfiguredDrop(config)
	}

	start := time.Now()
	results, err := RunAttempts(ctx, config, specs)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	fmt.Println()
	succeeded := 0
	for _, r := range results {
		fmt.Printf("  %s (size %s): %s\n", r.SKU, r.Size, r.Outcome)
		if r.Outcome.Success {
			succeeded++
		}
	}
	fmt.Printf("\n%d/%d attempts succeeded in %v\n", succeeded, len(results), time.Since(start).Round(time.Millisecond))

	if succeeded == 0 {
		os.Exit(1)
	}
}

func runBrowserLogin(config *Config, configPath string) {
	browser := NewBrowser(config)
	defer browser.Close()

	if err := browser.Launch(); err != nil {
		log.Fatalf("Browser setup failed: %v", err)
	}
	if err := browser.CaptureIntoConfig(); err != nil {
		log.Fatalf("Session capture failed: %v", err)
	}
	if err := config.Save(configPath); err != nil {
		log.Fatalf("Failed to save config: %v", err)
	}
	fmt.Printf("Session saved to %s\n", configPath)
}

func runCurlImport(config *Config, configPath string) {
	fmt.Println("Paste the cURL command (end with Ctrl+D):")
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to read stdin: %v", err)
	}

	count, missing, err := ImportCurlIntoConfig(config, string(input))
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	if err := config.Save(configPath); err != nil {
		log.Fatalf("Failed to save config: %v", err)
	}

	fmt.Printf("Imported %d cookies into %s\n", count, configPath)
	for _, name := range missing {
		fmt.Printf("⚠ required cookie %s is still missing\n", name)
	}
}

func buildAttemptSpecs(config *Config, sku, size string, quantity int, allProducts bool) []AttemptSpec {
	if allProducts {
		var specs []AttemptSpec
		for _, p := range config.Products {
			s := size
			if s == "" && len(p.Sizes) > 0 {
				s = p.Sizes[0]
			}
			specs = append(specs, AttemptSpec{SKU: p.SKU, Size: s, Quantity: quantity})
		}
		return specs
	}

	resolved := sku
	if resolved == "" {
		for _, p := range config.Products {
			resolved = p.SKU
			break
		}
	}
	if resolved == "" {
		return nil
	}

	if p, ok := config.Product(resolved); ok {
		resolved = p.SKU
		if size == "" && len(p.Sizes) > 0 {
			size = p.Sizes[0]
		}
	}

	return []AttemptSpec{{SKU: resolved, Size: size, Quantity: quantity}}
}

func printPlan(config *Config, specs []AttemptSpec) {
	fmt.Println("Dry run: no network activity. Planned attempts:")
	for _, spec := range specs {
		fmt.Printf("  %s size %s x%d\n", spec.SKU, spec.Size, spec.Quantity)
	}
	fmt.Println("\nStages:")
	for _, name := range []string{
		StageInitializeSession, StageCheckAvailability, StageAddToCart,
		StageFetchCart, StageGuestCheckout, StageSubmitContact,
		StageVerifyAddress, StageSetShippingAddress, StageSubmitPayment,
		StagePlaceOrder,
	} {
		fmt.Printf("  %s\n", name)
	}
}

func runCheckOnly(ctx context.Context, config *Config, spec AttemptSpec) {
	client, err := NewClient(config)
	if err != nil {
		log.Fatalf("Failed to build client: %v", err)
	}
	session, err := NewSessionState(config.Cookies, config.DefaultHeaders())
	if err != nil {
		log.Fatalf("Failed to seed session: %v", err)
	}

	outcome := NewOrchestrator(client, session, MockAdyenEncryptor{}).CheckOnly(ctx, spec.SKU, spec.Size)
	if outcome.Success {
		fmt.Printf("✓ %s\n", outcome.Message)
		return
	}
	fmt.Printf("✗ %s\n", outcome)
	os.Exit(1)
}

func waitForConfiguredDrop(config *Config) {
	drop, err := ParseDropTime(config.DropTime)
	if err != nil {
		log.Fatalf("Invalid drop time: %v", err)
	}

	startBefore := time.Duration(config.StartBeforeDropSeconds) * time.Second
	fmt.Printf("⏰ Waiting for drop at %s (starting %v early)\n", drop.Format(time.RFC3339), startBefore)

	timeSync := NewTimeSync(config.BaseURL, "https://www.google.com", "https://www.cloudflare.com")
	if err := WaitForDrop(timeSync, drop, startBefore); err != nil {
		log.Fatalf("Drop wait failed: %v", err)
	}
	fmt.Println("🚀 Drop window reached, starting attempts")
}
