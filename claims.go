package voteclient

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nyaruka/phonenumbers"
)

// Claim names the vote-system tokens carry. Identity claims use the
// WS-identity URN style; contact claims are flat.
const (
	ClaimNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	ClaimRole           = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	ClaimName           = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
	ClaimPhoneNumber    = "PhoneNumber"
	ClaimEmail          = "Email"
)

// Claims is the decoded, UNVERIFIED payload of a vote-system JWT. The
// signature is never checked client-side; trust derives from TLS and server
// issuance. Treat every field as untrusted input until Validate passes.
type Claims struct {
	jwt.RegisteredClaims
	NameID      string `json:"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier,omitempty"`
	RoleClaim   string `json:"http://schemas.microsoft.com/ws/2008/06/identity/claims/role,omitempty"`
	DisplayName string `json:"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name,omitempty"`
	PhoneNumber string `json:"PhoneNumber,omitempty"`
	Email       string `json:"Email,omitempty"`
}

// UserID returns the subject identifier, falling back to the registered
// subject claim.
func (c *Claims) UserID() string {
	if c.NameID != "" {
		return c.NameID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the raw role claim. Callers normalize before comparison.
func (c *Claims) Role() string {
	return c.RoleClaim
}

// Expires returns the expiration time, zero when the claim is absent.
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Expired reports whether the token expiry has passed at the given instant.
// The service does not reject expired tokens locally; the server's 401 is
// authoritative. This helper exists for UIs that want proactive display.
func (c *Claims) Expired(now time.Time) bool {
	exp := c.Expires()
	return !exp.IsZero() && now.After(exp)
}

// Validate checks that every claim a User is built from is present. Partial
// claim sets must never silently produce a User with empty fields.
func (c Claims) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.NameID, validation.Required),
		validation.Field(&c.RoleClaim, validation.Required),
		validation.Field(&c.DisplayName, validation.Required),
		validation.Field(&c.PhoneNumber, validation.Required),
		validation.Field(&c.Email, validation.Required),
	)
}

// NormalizedPhone returns the phone claim in E.164 form when it parses as a
// phone number, otherwise the claim verbatim. Best effort only; a claim that
// fails to parse is not a decode failure.
func (c *Claims) NormalizedPhone(defaultRegion string) string {
	if c.PhoneNumber == "" {
		return ""
	}
	num, err := phonenumbers.Parse(c.PhoneNumber, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return c.PhoneNumber
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
