package voteclient

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-errors"
)

// APIError is the structured error element the API emits, either inside the
// envelope's errors array or as topError.
type APIError struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Type        int    `json:"type,omitempty"`
}

// Message resolves the displayable message, preferring description over code.
func (e APIError) Message() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

// Envelope is the API's uniform response wrapper. isSuccess=true implies
// Value is present and authoritative; callers decode it with DecodeValue.
type Envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	IsError   bool            `json:"isError"`
	Errors    []APIError      `json:"errors"`
	Value     json.RawMessage `json:"value"`
	TopError  *APIError       `json:"topError,omitempty"`
}

// DecodeValue unmarshals the envelope value into v.
func (e *Envelope) DecodeValue(v any) error {
	if len(e.Value) == 0 {
		return errors.New("envelope has no value", errors.CategoryBadInput).
			WithTextCode(TextCodeAPIError)
	}
	if err := json.Unmarshal(e.Value, v); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "unable to decode envelope value").
			WithTextCode(TextCodeAPIError)
	}
	return nil
}

// ErrorMessage picks the envelope's structured error message with the same
// priority the client uses for non-2xx bodies: first errors-array element's
// description, then its code, then topError. Returns fallback when the
// envelope carries no structured error.
func (e *Envelope) ErrorMessage(fallback string) string {
	if len(e.Errors) > 0 {
		if msg := e.Errors[0].Message(); msg != "" {
			return msg
		}
	}
	if e.TopError != nil {
		if msg := e.TopError.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}

// EnvelopeValue decodes the envelope value into T.
func EnvelopeValue[T any](env *Envelope) (T, error) {
	var out T
	if err := env.DecodeValue(&out); err != nil {
		return out, err
	}
	return out, nil
}

// statusMessages are the fallback texts keyed by HTTP status, used when a
// non-2xx body carries no structured error.
var statusMessages = map[int]string{
	400: "Bad Request - Invalid input data",
	401: "Unauthorized - Invalid credentials",
	403: "Forbidden - Access denied",
	404: "Not Found - Resource not found",
	500: "Internal Server Error - Server error occurred",
}

// errorBody is the tolerant shape for non-2xx bodies: either a bare array of
// APIError objects or an envelope-like object with errors/topError.
type errorBody struct {
	Errors   []APIError
	TopError *APIError
}

func parseErrorBody(raw []byte) errorBody {
	if len(raw) == 0 {
		return errorBody{}
	}

	var arr []APIError
	if err := json.Unmarshal(raw, &arr); err == nil {
		return errorBody{Errors: arr}
	}

	var obj struct {
		Errors   []APIError `json:"errors"`
		TopError *APIError  `json:"topError"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return errorBody{Errors: obj.Errors, TopError: obj.TopError}
	}

	// A parse failure substitutes an empty body; the status fallback applies.
	return errorBody{}
}

// apiErrorMessage resolves the message for a non-2xx response by priority:
// errors[0].description, errors[0].code, topError.description, the static
// status text, then "HTTP <status>".
func apiErrorMessage(status int, body errorBody) string {
	if len(body.Errors) > 0 {
		if msg := body.Errors[0].Message(); msg != "" {
			return msg
		}
	}
	if body.TopError != nil && body.TopError.Description != "" {
		return body.TopError.Description
	}
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("HTTP %d", status)
}

func newAPIError(status int, raw []byte) *errors.Error {
	body := parseErrorBody(raw)

	category := errors.CategoryOperation
	switch {
	case status == 404:
		category = errors.CategoryNotFound
	case status == 403:
		category = errors.CategoryAuthz
	case status >= 400 && status < 500:
		category = errors.CategoryBadInput
	}

	metadata := map[string]any{"status": status}
	if len(body.Errors) > 0 && body.Errors[0].Code != "" {
		metadata["code"] = body.Errors[0].Code
	}

	return errors.New(apiErrorMessage(status, body), category).
		WithTextCode(TextCodeAPIError).
		WithMetadata(metadata)
}
