package voteclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	voteclient "github.com/votesystem/go-voteclient"
)

func newAuthService(t *testing.T, handler http.Handler) (*voteclient.Service, *voteclient.MemoryTokenStore, *recordingSink) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := voteclient.NewMemoryTokenStore()
	sink := &recordingSink{}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	service := voteclient.NewService(voteclient.NewClient(server.URL, store)).
		WithActivitySink(sink).
		WithClock(func() time.Time { return now })

	return service, store, sink
}

func TestAdminLogin(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Auth/admin-login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req["userName"] == "rami" && req["password"] == "123" {
			writeJSON(t, w, http.StatusOK, successEnvelope(t, map[string]any{
				"token":       "t1",
				"userName":    "rami",
				"role":        "Admin",
				"fullName":    "Rami Admin",
				"phoneNumber": "+998900000001",
			}))
			return
		}
		writeJSON(t, w, http.StatusOK, failureEnvelope(t, nil, map[string]any{
			"description": "Invalid credentials",
		}))
	})

	t.Run("valid credentials", func(t *testing.T) {
		service, store, sink := newAuthService(t, handler)

		result, err := service.AdminLogin(context.Background(), voteclient.AdminLoginRequest{
			UserName: "rami",
			Password: "123",
		})
		require.NoError(t, err)

		assert.Equal(t, "t1", result.Token)
		assert.Equal(t, voteclient.RoleAdmin, result.User.Role)
		assert.True(t, result.User.IsAdmin())
		assert.Equal(t, "Rami Admin", result.User.FullName)
		assert.NotEmpty(t, result.User.ID)

		token, err := store.Get()
		require.NoError(t, err)
		assert.Equal(t, "t1", token)

		assert.Contains(t, sink.types(), voteclient.ActivityEventLoginSuccess)
	})

	t.Run("same user always maps to the same id", func(t *testing.T) {
		service, _, _ := newAuthService(t, handler)

		first, err := service.AdminLogin(context.Background(), voteclient.AdminLoginRequest{UserName: "rami", Password: "123"})
		require.NoError(t, err)
		second, err := service.AdminLogin(context.Background(), voteclient.AdminLoginRequest{UserName: "rami", Password: "123"})
		require.NoError(t, err)

		assert.Equal(t, first.User.ID, second.User.ID)
	})

	t.Run("rejected credentials surface the envelope message", func(t *testing.T) {
		service, store, sink := newAuthService(t, handler)

		_, err := service.AdminLogin(context.Background(), voteclient.AdminLoginRequest{
			UserName: "rami",
			Password: "wrong",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid credentials")

		token, storeErr := store.Get()
		require.NoError(t, storeErr)
		assert.Empty(t, token)

		assert.Contains(t, sink.types(), voteclient.ActivityEventLoginFailure)
	})

	t.Run("missing fields fail before the network", func(t *testing.T) {
		service, _, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		}))

		_, err := service.AdminLogin(context.Background(), voteclient.AdminLoginRequest{UserName: "rami"})
		require.Error(t, err)
	})
}

func TestRequestEmailOTP(t *testing.T) {
	t.Run("success produces no session state", func(t *testing.T) {
		service, store, sink := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/Auth/request-email-otp", r.URL.Path)
			writeJSON(t, w, http.StatusOK, successEnvelope(t, true))
		}))

		err := service.RequestEmailOTP(context.Background(), "dilnoza@example.com")
		require.NoError(t, err)

		token, storeErr := store.Get()
		require.NoError(t, storeErr)
		assert.Empty(t, token)
		assert.Contains(t, sink.types(), voteclient.ActivityEventOTPRequested)
	})

	t.Run("invalid email fails before the network", func(t *testing.T) {
		service, _, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		}))

		require.Error(t, service.RequestEmailOTP(context.Background(), "not-an-email"))
	})
}

func TestLoginWithEmail(t *testing.T) {
	t.Run("raw jwt response builds the user", func(t *testing.T) {
		var token string
		service, store, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/Auth/user-login-Email", r.URL.Path)
			writeJSON(t, w, http.StatusOK, successEnvelope(t, token))
		}))
		token = signedToken(t, claimSet(nil))

		result, err := service.LoginWithEmail(context.Background(), "dilnoza@example.com", "123456")
		require.NoError(t, err)

		assert.Equal(t, "42", result.User.ID)
		assert.Equal(t, voteclient.RoleUser, result.User.Role, "role claim is lower-cased")
		assert.Equal(t, "Dilnoza Karimova", result.User.FullName)
		assert.Equal(t, "dilnoza@example.com", result.User.Email)
		assert.True(t, result.User.IsActive)

		stored, storeErr := store.Get()
		require.NoError(t, storeErr)
		assert.Equal(t, token, stored)
	})

	t.Run("token missing claims is a decode error", func(t *testing.T) {
		var token string
		service, store, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, successEnvelope(t, token))
		}))
		token = signedToken(t, claimSet(map[string]any{
			voteclient.ClaimEmail: nil,
		}))

		_, err := service.LoginWithEmail(context.Background(), "dilnoza@example.com", "123456")
		require.Error(t, err)
		assert.ErrorIs(t, err, voteclient.ErrMissingClaims)
		assert.Contains(t, err.Error(), "Token decode error")

		stored, storeErr := store.Get()
		require.NoError(t, storeErr)
		assert.Empty(t, stored, "rejected token must not be persisted")
	})

	t.Run("garbage token is a decode error", func(t *testing.T) {
		service, _, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, successEnvelope(t, "not-a-jwt"))
		}))

		_, err := service.LoginWithEmail(context.Background(), "dilnoza@example.com", "123456")
		require.Error(t, err)
		assert.True(t, voteclient.IsTokenDecodeError(err))
	})

	t.Run("wrong otp surfaces the envelope message", func(t *testing.T) {
		service, _, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, failureEnvelope(t, []map[string]any{
				{"description": "Invalid or expired OTP"},
			}, nil))
		}))

		_, err := service.LoginWithEmail(context.Background(), "dilnoza@example.com", "000000")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid or expired OTP")
	})
}

func TestVerifyMagicLink(t *testing.T) {
	var token string
	service, _, sink := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Auth/user-login-magic-link", r.URL.Path)
		writeJSON(t, w, http.StatusOK, successEnvelope(t, token))
	}))
	token = signedToken(t, claimSet(nil))

	result, err := service.VerifyMagicLink(context.Background(), "link-token-abc")
	require.NoError(t, err)
	assert.Equal(t, "42", result.User.ID)
	assert.Contains(t, sink.types(), voteclient.ActivityEventMagicLinkVerified)
}

func TestCurrentUser(t *testing.T) {
	service, store, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		require.Equal(t, "Bearer stored-token", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, successEnvelope(t, map[string]any{
			"id":          7,
			"fullName":    "Dilnoza Karimova",
			"email":       "dilnoza@example.com",
			"phoneNumber": "+998901234567",
			"role":        "User",
			"isActive":    true,
			"createdAt":   "2026-01-15T09:30:00Z",
		}))
	}))
	require.NoError(t, store.Set("stored-token"))

	user, err := service.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", user.ID)
	assert.Equal(t, voteclient.RoleUser, user.Role)
	assert.Equal(t, 2026, user.CreatedAt.Year())
}

func TestLogout(t *testing.T) {
	t.Run("clears the store even when the server fails", func(t *testing.T) {
		service, store, sink := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError, []byte(`{}`))
		}))
		require.NoError(t, store.Set("t1"))

		require.NoError(t, service.Logout(context.Background()))

		token, err := store.Get()
		require.NoError(t, err)
		assert.Empty(t, token)
		assert.Contains(t, sink.types(), voteclient.ActivityEventLogout)
	})

	t.Run("clears the store when the server is unreachable", func(t *testing.T) {
		store := voteclient.NewMemoryTokenStore()
		require.NoError(t, store.Set("t1"))

		service := voteclient.NewService(voteclient.NewClient("http://127.0.0.1:1", store))
		require.NoError(t, service.Logout(context.Background()))

		token, err := store.Get()
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}

func TestIsAuthenticated(t *testing.T) {
	store := voteclient.NewMemoryTokenStore()
	service := voteclient.NewService(voteclient.NewClient("http://example.invalid", store))

	assert.False(t, service.IsAuthenticated())

	require.NoError(t, store.Set("t1"))
	assert.True(t, service.IsAuthenticated())

	require.NoError(t, store.Clear())
	assert.False(t, service.IsAuthenticated())
}

func TestRefresh(t *testing.T) {
	t.Run("no refresh token", func(t *testing.T) {
		service, _, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		}))

		_, err := service.Refresh(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, voteclient.ErrNoRefreshToken)
	})

	t.Run("exchanges refresh token for a new session", func(t *testing.T) {
		service, store, _ := newAuthService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/refresh", r.URL.Path)

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "r1", req["refreshToken"])

			writeJSON(t, w, http.StatusOK, successEnvelope(t, map[string]any{
				"token":    "t2",
				"userName": "dilnoza@example.com",
				"fullName": "Dilnoza Karimova",
			}))
		}))
		require.NoError(t, store.SetRefresh("r1"))

		result, err := service.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "t2", result.Token)
		assert.Equal(t, voteclient.RoleUser, result.User.Role)
		assert.Equal(t, "dilnoza@example.com", result.User.Email)

		token, storeErr := store.Get()
		require.NoError(t, storeErr)
		assert.Equal(t, "t2", token)
	})
}
