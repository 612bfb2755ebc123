// SPDX-License-Identifier: Apache-2.0

// Package domain normalizes URLs to their registrable domain (eTLD+1).
// The credential-save flow uses it to compute the canonical host stored
// with a new credential, and the credential-select flow uses it to decide
// which stored credentials belong to the page asking for autofill.
package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrInvalidDomain is returned for hosts without a registrable domain:
// localhost, IP literals, and TLDs absent from the public suffix list.
var ErrInvalidDomain = errors.New("invalid domain")

// Registrable extracts the registrable domain (eTLD+1) of raw. raw may be a
// full URL or a bare host; a missing scheme is tolerated the way browser
// address bars tolerate it.
func Registrable(raw string) (string, error) {
	host := hostOf(raw)
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
	}
	if net.ParseIP(host) != nil {
		return "", fmt.Errorf("%w: ip literal %q", ErrInvalidDomain, host)
	}

	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann {
		// Hosts like "localhost" or a made-up TLD have no listed public
		// suffix, so no registrable domain exists for them.
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, host)
	}
	if host == suffix {
		return "", fmt.Errorf("%w: bare public suffix %q", ErrInvalidDomain, host)
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}

	return registrable, nil
}

// Match reports whether two hosts share a registrable domain. A candidate
// whose own host fails to parse never matches, it does not error: stored
// credentials with odd hosts are skipped during selection, not fatal.
func Match(queryDomain, candidateHost string) bool {
	candidate, err := Registrable(candidateHost)
	if err != nil {
		return false
	}
	return candidate == queryDomain
}

func hostOf(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	// url.Parse treats "accounts.example.com/login" as a relative path;
	// prepend a scheme so the host parses the way a browser would read it.
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}

	return strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
}
