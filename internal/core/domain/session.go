package domain

import (
	"fmt"
	"strings"
)

// Domain identifies which deployment of the judging platform a session talks to.
type Domain string

const (
	// DomainPrimary is the main platform endpoint used for authenticated operations.
	DomainPrimary Domain = "leetcode.com"
	// DomainSecondary is the regional variant consulted read-only for localized content.
	DomainSecondary Domain = "leetcode.cn"
)

// ParseDomain normalizes user supplied domain values. An empty value maps to the primary domain.
func ParseDomain(value string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "com", string(DomainPrimary):
		return DomainPrimary, nil
	case "cn", string(DomainSecondary):
		return DomainSecondary, nil
	default:
		return "", fmt.Errorf("unsupported domain %q", value)
	}
}

// BaseURL returns the HTTPS origin for the domain.
func (d Domain) BaseURL() string {
	if d == DomainSecondary {
		return "https://leetcode.cn"
	}
	return "https://leetcode.com"
}

// IsPrimary reports whether the domain is the main platform endpoint.
func (d Domain) IsPrimary() bool {
	return d != DomainSecondary
}

// SessionRecord is the server-side state backing one browser session.
// It is created on successful cookie validation, mutated on each profile
// refresh and destroyed on logout or store eviction.
type SessionRecord struct {
	Domain         Domain
	RawCookie      string
	CSRFToken      string
	LangPreference string
	User           *UserProfile
}

// UserProfile is the normalized view of the upstream user status. Field
// availability differs between domain variants: ID and ActiveSessionID are
// populated only by the primary domain, Slug and RealName only by the
// secondary one.
type UserProfile struct {
	ID              string
	ActiveSessionID string
	Username        string
	Slug            string
	RealName        string
	Avatar          string
	IsSignedIn      bool
	IsPremium       bool
	// IsVerified is nil when the upstream does not report verification
	// status. Unknown must never be collapsed to false.
	IsVerified *bool
}

// EmailNotVerified reports whether the upstream definitely flagged the
// account's email as unverified. Unknown status yields false.
func (p *UserProfile) EmailNotVerified() bool {
	if p == nil || p.IsVerified == nil {
		return false
	}
	return !*p.IsVerified
}
