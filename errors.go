package voteclient

import "github.com/goliatone/go-errors"

const (
	TextCodeUnauthorized   = "vote_client_unauthorized"
	TextCodeAPIError       = "vote_api_error"
	TextCodeTokenMalformed = "auth_token_malformed"
	TextCodeMissingClaims  = "auth_token_missing_claims"
	TextCodeNoRefreshToken = "auth_no_refresh_token"
)

// ErrUnauthorized is returned when the API answers 401. The client clears the
// token store and notifies unauthorized handlers before returning it.
var ErrUnauthorized = errors.New("unauthorized", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token is not structurally decodable as
// three base64url segments.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryBadInput).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeBadRequest)

// ErrMissingClaims is returned when a structurally valid token lacks one or
// more required identity claims.
var ErrMissingClaims = errors.New("token missing required claims", errors.CategoryValidation).
	WithTextCode(TextCodeMissingClaims).
	WithCode(errors.CodeBadRequest)

// ErrNoRefreshToken is returned by Refresh when no refresh token is stored.
var ErrNoRefreshToken = errors.New("no refresh token available", errors.CategoryAuth).
	WithTextCode(TextCodeNoRefreshToken).
	WithCode(errors.CodeUnauthorized)

// IsUnauthorizedError reports whether err is the 401 side-channel failure.
func IsUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnauthorized)
}

// IsTokenDecodeError reports whether err came out of the claims decoder,
// either a structural parse failure or a missing-claims validation failure.
func IsTokenDecodeError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) || errors.Is(err, ErrMissingClaims)
}

// IsAPIError reports whether err is a normalized non-2xx API response.
func IsAPIError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeAPIError
}

// APIErrorStatus returns the HTTP status recorded on a normalized API error,
// or 0 when err is not one.
func APIErrorStatus(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return 0
	}
	if richErr.TextCode != TextCodeAPIError {
		return 0
	}
	if status, ok := richErr.Metadata["status"].(int); ok {
		return status
	}
	return 0
}
