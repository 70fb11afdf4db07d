package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Browser drives a real Chrome session so the operator can clear the
// retailer's bot check by hand; the resulting cookies and user agent
// are then harvested into the config for the API flow.
type Browser struct {
	config   *Config
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
}

func NewBrowser(config *Config) *Browser {
	return &Browser{config: config}
}

func (b *Browser) Close() {
	if b.page != nil {
		b.page.Close()
	}
	if b.browser != nil {
		b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
}

func (b *Browser) Launch() error {
	fmt.Println("Launching browser...")

	// Leakless deadlocks on Windows, see go-rod/rod#853.
	useLeakless := runtime.GOOS != "windows"

	b.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(false)

	// Prefer system Chrome: no download, and Kasada is far less
	// suspicious of a real install.
	if chromePath, exists := launcher.LookPath(); exists {
		b.launcher = b.launcher.Bin(chromePath)
		fmt.Println("Using system Chrome")
	}

	url, err := b.launcher.Launch()
	if err != nil {
		if strings.Contains(err.Error(), "ProcessSingleton") || strings.Contains(err.Error(), "SingletonLock") {
			return fmt.Errorf("chrome is already running, close all Chrome windows and try again")
		}
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	b.browser = rod.New().ControlURL(url)
	if err := b.browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	return nil
}

// CaptureSession opens the storefront, waits for the operator to
// confirm the page loads cleanly (no bot wall), and returns the
// session cookies plus the browser's real user agent.
func (b *Browser) CaptureSession() (map[string]string, string, error) {
	var err error
	b.page, err = stealth.Page(b.browser)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create stealth page: %w", err)
	}

	if err := b.page.Navigate(b.config.BaseURL); err != nil {
		return nil, "", fmt.Errorf("failed to navigate: %w", err)
	}
	if err := b.page.WaitLoad(); err != nil {
		return nil, "", fmt.Errorf("page failed to load: %w", err)
	}

	fmt.Println()
	fmt.Println("Browse the store until pages load normally (add something")
	fmt.Println("to the cart to be sure), then press Enter to capture the")
	fmt.Println("session. Press Ctrl+C to abort.")
	fmt.Print("> ")

	reader := bufio.NewReader(os.Stdin)
	if _, err := reader.ReadString('\n'); err != nil {
		return nil, "", fmt.Errorf("failed to read input: %w", err)
	}

	cookies, err := b.page.Cookies([]string{b.config.BaseURL})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read cookies: %w", err)
	}

	captured := make(map[string]string, len(cookies))
	for _, cookie := range cookies {
		captured[cookie.Name] = cookie.Value
	}

	userAgent := ""
	if obj, err := b.page.Eval("() => navigator.userAgent"); err == nil {
		userAgent = obj.Value.Str()
	}

	return captured, userAgent, nil
}

// CaptureIntoConfig merges a captured browser session into the config.
func (b *Browser) CaptureIntoConfig() error {
	cookies, userAgent, err := b.CaptureSession()
	if err != nil {
		return err
	}
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies captured, is the page actually loaded?")
	}

	if b.config.Cookies == nil {
		b.config.Cookies = make(map[string]string)
	}
	for name, value := range cookies {
		b.config.Cookies[name] = value
	}
	if token, ok := cookies["ak_bmsc_fl_com"]; ok {
		b.config.KasadaToken = token
	}
	if userAgent != "" {
		b.config.UserAgent = userAgent
	}

	fmt.Printf("Captured %d cookies\n", len(cookies))
	return nil
}
