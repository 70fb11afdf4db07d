package main

import (
	"fmt"
	"regexp"
	"strings"
)

// Cookie argument shapes produced by "Copy as cURL" in Chrome and
// Firefox: a -b/--cookie flag or a cookie header, single or double
// quoted.
var cookieArgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'`),
	regexp.MustCompile(`(?:-b|--cookie)\s+"([^"]+)"`),
	regexp.MustCompile(`(?i)-H\s+'cookie:\s*([^']+)'`),
	regexp.MustCompile(`(?i)-H\s+"cookie:\s*([^"]+)"`),
}

// The important session cookies; a capture missing these will almost
// certainly 403 at the first API call.
var requiredCookies = []string{
	"ZGWID",
	"JSESSIONID",
	"ak_bmsc_fl_com",
}

// ExtractCookiesFromCurl parses the cookie argument out of a cURL
// command copied from the browser's network tab.
func ExtractCookiesFromCurl(command string) map[string]string {
	cookies := make(map[string]string)

	var cookieString string
	for _, pattern := range cookieArgPatterns {
		if m := pattern.FindStringSubmatch(command); len(m) == 2 {
			cookieString = m[1]
			break
		}
	}
	if cookieString == "" {
		return cookies
	}

	for _, pair := range strings.Split(cookieString, ";") {
		pair = strings.TrimSpace(pair)
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		cookies[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return cookies
}

// ImportCurlIntoConfig merges cookies from a cURL command into the
// config, reporting how many were imported and which required ones are
// still missing.
func ImportCurlIntoConfig(config *Config, command string) (int, []string, error) {
	if !strings.HasPrefix(strings.TrimSpace(command), "curl") {
		return 0, nil, fmt.Errorf("input does not look like a cURL command")
	}

	cookies := ExtractCookiesFromCurl(command)
	if len(cookies) == 0 {
		return 0, nil, fmt.Errorf("no cookies found in the cURL command")
	}

	if config.Cookies == nil {
		config.Cookies = make(map[string]string)
	}
	for name, value := range cookies {
		config.Cookies[name] = value
	}

	// The Kasada clearance token travels as a cookie but is sent back
	// as a header.
	if token, ok := cookies["ak_bmsc_fl_com"]; ok {
		config.KasadaToken = token
	}

	var missing []string
	for _, name := range requiredCookies {
		if _, ok := config.Cookies[name]; !ok {
			missing = append(missing, name)
		}
	}

	return len(cookies), missing, nil
}
