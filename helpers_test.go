package voteclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	voteclient "github.com/votesystem/go-voteclient"
)

const testSigningKey = "test-signing-key"

// claimSet builds the claim payload the API issues for voter logins.
// Override or delete entries to exercise the missing-claims paths.
func claimSet(overrides map[string]any) jwt.MapClaims {
	claims := jwt.MapClaims{
		voteclient.ClaimNameIdentifier: "42",
		voteclient.ClaimRole:           "User",
		voteclient.ClaimName:           "Dilnoza Karimova",
		voteclient.ClaimPhoneNumber:    "+998901234567",
		voteclient.ClaimEmail:          "dilnoza@example.com",
		"exp":                          time.Now().Add(time.Hour).Unix(),
		"iss":                          "vote-api",
	}
	for name, value := range overrides {
		if value == nil {
			delete(claims, name)
			continue
		}
		claims[name] = value
	}
	return claims
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return token
}

func successEnvelope(t *testing.T, value any) []byte {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"isSuccess": true,
		"isError":   false,
		"errors":    []any{},
		"value":     json.RawMessage(raw),
	})
	require.NoError(t, err)
	return body
}

func failureEnvelope(t *testing.T, errs []map[string]any, topError map[string]any) []byte {
	t.Helper()
	payload := map[string]any{
		"isSuccess": false,
		"isError":   true,
	}
	if errs != nil {
		payload["errors"] = errs
	}
	if topError != nil {
		payload["topError"] = topError
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body []byte) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(body)
	require.NoError(t, err)
}

// failingStore errors on every operation, for exercising store failure paths.
type failingStore struct {
	err error
}

func (s failingStore) Get() (string, error) { return "", s.err }
func (s failingStore) Set(string) error     { return s.err }
func (s failingStore) Clear() error         { return s.err }

// recordingSink collects activity events in order.
type recordingSink struct {
	mu     sync.Mutex
	events []voteclient.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event voteclient.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []voteclient.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]voteclient.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}
