package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL string `yaml:"base_url"`
	APIBase string `yaml:"api_base"`

	UserAgent string `yaml:"user_agent"`

	// Cookies captured from a real browser session. These go stale;
	// refresh them with -browser-login or -import-curl when requests
	// start coming back 403.
	Cookies map[string]string `yaml:"cookies"`

	// Kasada clearance token, usually the ak_bmsc_fl_com cookie value.
	KasadaToken string `yaml:"kasada_token"`

	// Azure function key required by the address verification service.
	AddressVerificationKey string `yaml:"address_verification_key"`

	// Upstream paths drift between captures, so they live in config
	// rather than in code.
	Endpoints EndpointConfig `yaml:"endpoints"`

	Products map[string]ProductConfig `yaml:"products"`

	Contact  ContactInfo     `yaml:"contact"`
	Shipping ShippingAddress `yaml:"shipping"`
	Payment  PaymentInfo     `yaml:"payment"`

	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`

	// Extra attempts for the same stage when the network itself fails.
	// 1 means no retry.
	TransportAttempts int `yaml:"transport_attempts"`

	DropTime               string `yaml:"drop_time"`
	StartBeforeDropSeconds int    `yaml:"start_before_drop_seconds"`

	LogFile   string `yaml:"log_file"`
	DryRun    bool   `yaml:"dry_run"`
	DebugMode bool   `yaml:"debug_mode"`
}

type EndpointConfig struct {
	SessionRoot        string `yaml:"session_root"`
	ProductBySKU       string `yaml:"product_by_sku"`
	CartAdd            string `yaml:"cart_add"`
	CartRefresh        string `yaml:"cart_refresh"`
	GuestCheckout      string `yaml:"guest_checkout"`
	SubmitContact      string `yaml:"submit_contact"`
	VerifyAddress      string `yaml:"verify_address"`
	SetShippingAddress string `yaml:"set_shipping_address"`
	SubmitPayment      string `yaml:"submit_payment"`
	PlaceOrder         string `yaml:"place_order"`
}

type ProductConfig struct {
	SKU   string   `yaml:"sku"`
	Name  string   `yaml:"name"`
	Price string   `yaml:"price"`
	Sizes []string `yaml:"sizes"`
}

type ContactInfo struct {
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	PhoneCountry string `yaml:"phone_country"`
}

type ShippingAddress struct {
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	Line1       string `yaml:"line1"`
	Line2       string `yaml:"line2"`
	Town        string `yaml:"town"`
	RegionCode  string `yaml:"region_code"`
	PostalCode  string `yaml:"postal_code"`
	CountryCode string `yaml:"country_code"`
	CountryName string `yaml:"country_name"`
}

type PaymentInfo struct {
	CardNumber   string `yaml:"card_number"`
	ExpiryMonth  string `yaml:"expiry_month"`
	ExpiryYear   string `yaml:"expiry_year"`
	SecurityCode string `yaml:"security_code"`
	HolderName   string `yaml:"holder_name"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "https://www.footlocker.com",
		APIBase:   "https://www.footlocker.com/zgw",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
		Cookies:   map[string]string{},
		// Captured from the storefront's own checkout traffic.
		AddressVerificationKey: "m663XzcEgqHJqzbq4JH6FrDIStLZh4FMUMAzXct09W6HAzFuozxPuA==",
		Endpoints: EndpointConfig{
			SessionRoot:        "/",
			ProductBySKU:       "/product-core/v1/pdp/sku/%s",
			CartAdd:            "/carts-experience/carts-experience-service/site/fl/cart/add",
			CartRefresh:        "/carts-experience/carts-experience-service/site/fl/cart/getUpdatedCart",
			GuestCheckout:      "/carts-experience/carts-experience-service/site/fl/cart/getUpdatedCart",
			SubmitContact:      "/carts/co-cart-aggregation-service/site/fl/cart/userInfo",
			VerifyAddress:      "/address-verification/v0/address/verification",
			SetShippingAddress: "/carts/co-cart-aggregation-service/site/fl/cart/address",
			// Payment submission and order placement paths are taken
			// from incomplete captures; confirm against live traffic
			// before trusting them.
			SubmitPayment: "/payment/submit",
			PlaceOrder:    "/checkout/placeorder",
		},
		Products: map[string]ProductConfig{
			"jordan-1-low": {
				SKU:   "H7980100",
				Name:  "Air Jordan 1 Low",
				Price: "110.00",
				Sizes: []string{"04.0", "04.5", "05.0", "05.5", "06.0"},
			},
		},
		Contact: ContactInfo{
			PhoneCountry: "US",
		},
		Shipping: ShippingAddress{
			CountryCode: "US",
			CountryName: "United States",
		},
		RequestTimeoutSeconds:  30,
		TransportAttempts:      1,
		StartBeforeDropSeconds: 10,
		LogFile:                "checkout.log",
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields every run needs regardless of mode.
func (c *Config) Validate() error {
	if c.BaseURL == "" || c.APIBase == "" {
		return fmt.Errorf("base_url and api_base must be set")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent must be set (capture one with -browser-login)")
	}
	return nil
}

// DefaultHeaders builds the browser-like header set seeded into every
// session. Per-request tracking headers are layered on top of these.
func (c *Config) DefaultHeaders() map[string]string {
	headers := map[string]string{
		"user-agent":         c.UserAgent,
		"accept":             "application/json, text/plain, */*",
		"accept-language":    "en-US,en;q=0.9",
		"sec-ch-ua":          `"Not)A;Brand";v="8", "Chromium";v="138", "Google Chrome";v="138"`,
		"sec-ch-ua-mobile":   "?0",
		"sec-ch-ua-platform": `"Windows"`,
		"sec-fetch-dest":     "empty",
		"sec-fetch-mode":     "cors",
		"sec-fetch-site":     "same-origin",
		"origin":             c.BaseURL,
		"referer":            c.BaseURL + "/",
	}
	if c.KasadaToken != "" {
		headers["x-kpsdk-ct"] = c.KasadaToken
	}
	return headers
}

// Product resolves a catalog entry by config key or by raw SKU.
func (c *Config) Product(key string) (ProductConfig, bool) {
	if p, ok := c.Products[key]; ok {
		return p, true
	}
	for _, p := range c.Products {
		if p.SKU == key {
			return p, true
		}
	}
	return ProductConfig{}, false
}
