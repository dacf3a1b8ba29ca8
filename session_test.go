package voteclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	voteclient "github.com/votesystem/go-voteclient"
)

func newCoordinator(t *testing.T, handler http.Handler) (*voteclient.Coordinator, *voteclient.Service, *voteclient.MemoryTokenStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := voteclient.NewMemoryTokenStore()
	service := voteclient.NewService(voteclient.NewClient(server.URL, store))

	return voteclient.NewCoordinator(service), service, store
}

func TestCoordinatorStart(t *testing.T) {
	t.Run("no stored token rests signed out", func(t *testing.T) {
		coordinator, _, _ := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected without a token")
		}))

		coordinator.Start(context.Background())

		state := coordinator.Current()
		assert.False(t, state.IsLoading)
		assert.False(t, state.IsAuthenticated)
		assert.Nil(t, state.User)
		assert.Empty(t, state.Error)
	})

	t.Run("valid stored token restores the session", func(t *testing.T) {
		coordinator, _, store := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/me", r.URL.Path)
			writeJSON(t, w, http.StatusOK, successEnvelope(t, map[string]any{
				"id":       7,
				"fullName": "Dilnoza Karimova",
				"role":     "User",
				"isActive": true,
			}))
		}))
		require.NoError(t, store.Set("stored-token"))

		coordinator.Start(context.Background())

		state := coordinator.Current()
		assert.True(t, state.IsAuthenticated)
		require.NotNil(t, state.User)
		assert.Equal(t, "7", state.User.ID)
		assert.False(t, state.IsLoading)
	})

	t.Run("rejected stored token clears and reports expiry", func(t *testing.T) {
		coordinator, _, store := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusUnauthorized, failureEnvelope(t, nil, nil))
		}))
		require.NoError(t, store.Set("stale-token"))

		coordinator.Start(context.Background())

		state := coordinator.Current()
		assert.False(t, state.IsAuthenticated)
		assert.False(t, state.IsLoading)

		token, err := store.Get()
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("server error on bootstrap keeps the stored token", func(t *testing.T) {
		coordinator, _, store := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError, []byte(`{}`))
		}))
		require.NoError(t, store.Set("stored-token"))

		coordinator.Start(context.Background())

		state := coordinator.Current()
		assert.False(t, state.IsAuthenticated)
		assert.Equal(t, "Session expired", state.Error)

		// Only a 401 revokes credentials; a transient failure leaves them
		// in place for the next bootstrap.
		token, err := store.Get()
		require.NoError(t, err)
		assert.Equal(t, "stored-token", token)
	})
}

func TestCoordinatorAdminLogin(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, successEnvelope(t, map[string]any{
			"token":    "t1",
			"userName": "rami",
			"role":     "Admin",
			"fullName": "Rami Admin",
		}))
	})

	coordinator, _, _ := newCoordinator(t, handler)

	var transitions []voteclient.State
	unsubscribe := coordinator.Subscribe(func(s voteclient.State) {
		transitions = append(transitions, s)
	})
	defer unsubscribe()

	err := coordinator.AdminLogin(context.Background(), voteclient.AdminLoginRequest{
		UserName: "rami",
		Password: "123",
	})
	require.NoError(t, err)

	state := coordinator.Current()
	assert.True(t, state.IsAuthenticated)
	assert.True(t, state.User.IsAdmin())
	assert.Empty(t, state.Error)

	require.Len(t, transitions, 2)
	assert.True(t, transitions[0].IsLoading, "first transition is the loading state")
	assert.True(t, transitions[1].IsAuthenticated, "second transition is the result")
}

func TestCoordinatorLoginFailure(t *testing.T) {
	coordinator, _, _ := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, failureEnvelope(t, nil, map[string]any{
			"description": "Invalid credentials",
		}))
	}))

	err := coordinator.AdminLogin(context.Background(), voteclient.AdminLoginRequest{
		UserName: "rami",
		Password: "wrong",
	})
	require.Error(t, err)

	state := coordinator.Current()
	assert.False(t, state.IsAuthenticated)
	assert.Equal(t, "Invalid credentials", state.Error)

	coordinator.ClearError()
	assert.Empty(t, coordinator.Current().Error)
}

func TestCoordinatorRequestEmailOTPRestsSignedOut(t *testing.T) {
	coordinator, _, _ := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, successEnvelope(t, true))
	}))

	require.NoError(t, coordinator.RequestEmailOTP(context.Background(), "dilnoza@example.com"))

	state := coordinator.Current()
	assert.False(t, state.IsAuthenticated, "requesting a code is not authentication")
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.Error)
}

func TestCoordinatorLoginWithEmail(t *testing.T) {
	var token string
	coordinator, _, store := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, successEnvelope(t, token))
	}))
	token = signedToken(t, claimSet(nil))

	require.NoError(t, coordinator.LoginWithEmail(context.Background(), "dilnoza@example.com", "123456"))

	state := coordinator.Current()
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, voteclient.RoleUser, state.User.Role)

	stored, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestCoordinatorUnauthorizedForcesLogout(t *testing.T) {
	// Two-phase server: /auth/me succeeds during bootstrap, then every
	// authenticated call gets a 401 as if the token were revoked.
	revoked := false
	coordinator, service, store := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if revoked {
			writeJSON(t, w, http.StatusUnauthorized, failureEnvelope(t, nil, nil))
			return
		}
		writeJSON(t, w, http.StatusOK, successEnvelope(t, map[string]any{
			"id": 7, "fullName": "Dilnoza Karimova", "role": "User", "isActive": true,
		}))
	}))
	require.NoError(t, store.Set("soon-revoked"))

	coordinator.Start(context.Background())
	require.True(t, coordinator.Current().IsAuthenticated)

	revoked = true

	// Any service call through the shared client now trips the forced logout.
	votes := voteclient.NewVoteService(service.Client())
	_, err := votes.VoteSessions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, voteclient.ErrUnauthorized)

	state := coordinator.Current()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)

	token, storeErr := store.Get()
	require.NoError(t, storeErr)
	assert.Empty(t, token)
}

func TestCoordinatorLogout(t *testing.T) {
	coordinator, _, store := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, successEnvelope(t, map[string]any{
			"id": 7, "fullName": "Dilnoza Karimova", "role": "User", "isActive": true,
		}))
	}))
	require.NoError(t, store.Set("stored-token"))

	coordinator.Start(context.Background())
	require.True(t, coordinator.Current().IsAuthenticated)

	coordinator.Logout(context.Background())

	state := coordinator.Current()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.Empty(t, state.Error)

	token, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestCoordinatorUnsubscribe(t *testing.T) {
	coordinator, _, _ := newCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, successEnvelope(t, true))
	}))

	calls := 0
	unsubscribe := coordinator.Subscribe(func(voteclient.State) { calls++ })

	coordinator.ClearError()
	assert.Equal(t, 1, calls)

	unsubscribe()
	coordinator.ClearError()
	assert.Equal(t, 1, calls, "unsubscribed listener no longer fires")
}
