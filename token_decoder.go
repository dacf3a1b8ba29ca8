package voteclient

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// ClaimsDecoder structurally decodes vote-system JWTs. It performs NO
// signature verification; the server owns that trust boundary. Decoding
// fails fast on malformed tokens, and a separate validation step rejects
// structurally sound tokens that lack required identity claims.
type ClaimsDecoder struct {
	parser *jwt.Parser
	logger Logger
}

// NewClaimsDecoder returns a decoder with the default parser.
func NewClaimsDecoder() *ClaimsDecoder {
	return &ClaimsDecoder{
		parser: jwt.NewParser(),
		logger: defLogger{},
	}
}

func (d *ClaimsDecoder) WithLogger(logger Logger) *ClaimsDecoder {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// Decode parses the three base64url segments of token into Claims without
// verifying the signature. Structural failures map to ErrTokenMalformed.
func (d *ClaimsDecoder) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := d.parser.ParseUnverified(token, claims); err != nil {
		d.logger.Debug("claims decoder parse failure: %v", err)
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}
	return claims, nil
}

// DecodeAndValidate decodes token and checks the required claim set. Missing
// claims produce ErrMissingClaims naming each absent claim, so "couldn't
// parse" stays distinguishable from "incomplete payload".
func (d *ClaimsDecoder) DecodeAndValidate(token string) (*Claims, error) {
	claims, err := d.Decode(token)
	if err != nil {
		return nil, err
	}

	if err := claims.Validate(); err != nil {
		missing := missingClaimNames(err)
		d.logger.Debug("claims decoder missing claims: %v", missing)
		return nil, ErrMissingClaims.WithMetadata(map[string]any{
			"missing": missing,
		})
	}

	return claims, nil
}

// missingClaimNames maps ozzo field errors back to the wire-level claim
// names for debuggability.
func missingClaimNames(err error) []string {
	fieldToClaim := map[string]string{
		"NameID":      ClaimNameIdentifier,
		"RoleClaim":   ClaimRole,
		"DisplayName": ClaimName,
		"PhoneNumber": ClaimPhoneNumber,
		"Email":       ClaimEmail,
	}

	verrs, ok := err.(validation.Errors)
	if !ok {
		return nil
	}

	missing := make([]string, 0, len(verrs))
	for field := range verrs {
		if claim, found := fieldToClaim[field]; found {
			missing = append(missing, claim)
		} else {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing
}
