package voteclient

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// Auth endpoints. Path casing follows the server contract verbatim.
const (
	pathAdminLogin      = "/Auth/admin-login"
	pathRequestEmailOTP = "/Auth/request-email-otp"
	pathUserLoginEmail  = "/Auth/user-login-Email"
	pathMagicLink       = "/Auth/user-login-magic-link"
	pathCurrentUser     = "/auth/me"
	pathLogout          = "/auth/logout"
	pathRefresh         = "/auth/refresh"
)

// AdminLoginRequest carries the admin password login credentials.
type AdminLoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r AdminLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// EmailOTPRequest asks the server to mail a one-time code.
type EmailOTPRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r EmailOTPRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// EmailLoginRequest exchanges an email plus OTP for a token.
type EmailLoginRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Validate will run validation rules
func (r EmailLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.OTP, validation.Required, is.Digit),
	)
}

// MagicLinkRequest exchanges an email-delivered link token for a session.
type MagicLinkRequest struct {
	Token string `json:"token"`
}

// Validate will run validation rules
func (r MagicLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

// Service orchestrates the login modalities against the API client, maps
// responses into Users, and manages the stored token. It never swallows an
// error except in Logout, where local cleanup must always win.
type Service struct {
	client       *Client
	decoder      *ClaimsDecoder
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
	phoneRegion  string
}

// NewService returns a Service around an explicitly constructed client.
func NewService(client *Client) *Service {
	return &Service{
		client:       client,
		decoder:      NewClaimsDecoder(),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (s *Service) WithLogger(logger Logger) *Service {
	if logger != nil {
		s.logger = logger
		s.decoder = s.decoder.WithLogger(logger)
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Service) WithActivitySink(sink ActivitySink) *Service {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.now = clock
	}
	return s
}

// WithPhoneRegion sets the default region used when normalizing phone claims
// that lack a country prefix.
func (s *Service) WithPhoneRegion(region string) *Service {
	s.phoneRegion = region
	return s
}

// Client exposes the underlying API client so resource services can share
// its token store and unauthorized signal.
func (s *Service) Client() *Client {
	return s.client
}

// AdminLogin posts password credentials and maps the envelope's flat fields
// into a User. The response's role field is authoritative; it defaults to
// admin because only admins use this endpoint.
func (s *Service) AdminLogin(ctx context.Context, req AdminLoginRequest) (*LoginResult, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid login credentials")
	}

	env, err := s.client.Post(ctx, pathAdminLogin, req)
	if err != nil {
		s.emitEvent(ctx, ActivityEventLoginFailure, "", "admin", map[string]any{"error": err.Error()})
		return nil, err
	}

	if !env.IsSuccess {
		err := s.envelopeError(env, "Login failed")
		s.emitEvent(ctx, ActivityEventLoginFailure, "", "admin", map[string]any{"error": err.Message})
		return nil, err
	}

	resp := AuthResponse{}
	if err := env.DecodeValue(&resp); err != nil {
		return nil, err
	}

	role := NormalizeRole(resp.Role)
	if role == "" {
		role = RoleAdmin
	}

	email := ""
	if strings.Contains(resp.UserName, "@") {
		email = resp.UserName
	}

	user := &User{
		ID:          deterministicUserID(resp.UserName),
		FullName:    resp.FullName,
		PhoneNumber: resp.PhoneNumber,
		Email:       email,
		Role:        role,
		IsActive:    true,
		CreatedAt:   s.now(),
	}

	if err := s.client.Store().Set(resp.Token); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to persist token")
	}

	s.emitEvent(ctx, ActivityEventLoginSuccess, user.ID, "admin", nil)

	return &LoginResult{User: user, Token: resp.Token}, nil
}

// RequestEmailOTP asks the server to mail a one-time code. Fire and forget:
// success produces no session state.
func (s *Service) RequestEmailOTP(ctx context.Context, email string) error {
	req := EmailOTPRequest{Email: email}
	if err := req.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid email")
	}

	env, err := s.client.Post(ctx, pathRequestEmailOTP, req)
	if err != nil {
		return err
	}

	if !env.IsSuccess {
		return s.envelopeError(env, "Failed to request email OTP")
	}

	s.emitEvent(ctx, ActivityEventOTPRequested, "", "email", map[string]any{"email": email})

	return nil
}

// LoginWithEmail exchanges an email and OTP for a session. The endpoint
// answers a RAW JWT string rather than a structured user, so the claims
// decoder builds the User; its role claim is lower-cased.
func (s *Service) LoginWithEmail(ctx context.Context, email, otp string) (*LoginResult, error) {
	req := EmailLoginRequest{Email: email, OTP: otp}
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid email login")
	}

	result, err := s.loginFromTokenResponse(ctx, pathUserLoginEmail, req, "Failed to login user", "email")
	if err != nil {
		return nil, err
	}
	return result, nil
}

// VerifyMagicLink exchanges an email-delivered link token for a session,
// symmetric to the email-OTP login.
func (s *Service) VerifyMagicLink(ctx context.Context, token string) (*LoginResult, error) {
	req := MagicLinkRequest{Token: token}
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid magic link token")
	}

	result, err := s.loginFromTokenResponse(ctx, pathMagicLink, req, "Magic link verification failed", "magic_link")
	if err != nil {
		return nil, err
	}

	s.emitEvent(ctx, ActivityEventMagicLinkVerified, result.User.ID, "magic_link", nil)

	return result, nil
}

// loginFromTokenResponse handles the endpoints whose success value is a bare
// JWT: decode, validate the claim set, map to a User, persist the token.
func (s *Service) loginFromTokenResponse(ctx context.Context, path string, req any, fallback, method string) (*LoginResult, error) {
	env, err := s.client.Post(ctx, path, req)
	if err != nil {
		s.emitEvent(ctx, ActivityEventLoginFailure, "", method, map[string]any{"error": err.Error()})
		return nil, err
	}

	if !env.IsSuccess {
		envErr := s.envelopeError(env, fallback)
		s.emitEvent(ctx, ActivityEventLoginFailure, "", method, map[string]any{"error": envErr.Message})
		return nil, envErr
	}

	var token string
	if err := env.DecodeValue(&token); err != nil {
		return nil, err
	}

	claims, err := s.decoder.DecodeAndValidate(token)
	if err != nil {
		s.logger.Error("login token decode failed: %v", err)
		s.emitEvent(ctx, ActivityEventLoginFailure, "", method, map[string]any{"error": err.Error()})
		// Re-raised with a distinguishable message, never swallowed.
		return nil, errors.Wrap(err, errors.CategoryAuth, "Token decode error")
	}

	user := s.userFromClaims(claims)

	if err := s.client.Store().Set(token); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to persist token")
	}

	s.emitEvent(ctx, ActivityEventLoginSuccess, user.ID, method, nil)

	return &LoginResult{User: user, Token: token}, nil
}

// meResponse is the wire shape of /auth/me. IDs come back numeric.
type meResponse struct {
	ID               json.Number `json:"id"`
	FullName         string      `json:"fullName"`
	PhoneNumber      string      `json:"phoneNumber"`
	Email            string      `json:"email"`
	Role             string      `json:"role"`
	IsActive         bool        `json:"isActive"`
	CreatedAt        string      `json:"createdAt"`
	CreatedByAdminID json.Number `json:"createdByAdminId"`
}

// CurrentUser fetches the authenticated profile. Used at startup to validate
// an existing stored token.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	env, err := s.client.Get(ctx, pathCurrentUser)
	if err != nil {
		return nil, err
	}

	if !env.IsSuccess {
		return nil, s.envelopeError(env, "Failed to get user profile")
	}

	me := meResponse{}
	if err := env.DecodeValue(&me); err != nil {
		return nil, err
	}

	createdAt := s.now()
	if me.CreatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, me.CreatedAt); err == nil {
			createdAt = parsed
		}
	}

	return &User{
		ID:               me.ID.String(),
		FullName:         me.FullName,
		PhoneNumber:      me.PhoneNumber,
		Email:            me.Email,
		Role:             NormalizeRole(me.Role),
		IsActive:         me.IsActive,
		CreatedAt:        createdAt,
		CreatedByAdminID: me.CreatedByAdminID.String(),
	}, nil
}

// Refresh exchanges the stored refresh token for a new session. The endpoint
// is legacy and not consistently implemented server-side; callers should
// treat failures as a normal re-login prompt.
func (s *Service) Refresh(ctx context.Context) (*LoginResult, error) {
	refreshStore, ok := s.client.Store().(RefreshTokenStore)
	if !ok {
		return nil, ErrNoRefreshToken
	}

	refresh, err := refreshStore.GetRefresh()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to read refresh token")
	}
	if refresh == "" {
		return nil, ErrNoRefreshToken
	}

	env, err := s.client.Post(ctx, pathRefresh, map[string]string{"refreshToken": refresh})
	if err != nil {
		return nil, err
	}

	if !env.IsSuccess {
		return nil, s.envelopeError(env, "Token refresh failed")
	}

	resp := AuthResponse{}
	if err := env.DecodeValue(&resp); err != nil {
		return nil, err
	}

	role := NormalizeRole(resp.Role)
	if role == "" {
		role = RoleUser
	}

	email := ""
	if strings.Contains(resp.UserName, "@") {
		email = resp.UserName
	}

	user := &User{
		ID:          deterministicUserID(resp.UserName),
		FullName:    resp.FullName,
		PhoneNumber: resp.PhoneNumber,
		Email:       email,
		Role:        role,
		IsActive:    true,
		CreatedAt:   s.now(),
	}

	if err := s.client.Store().Set(resp.Token); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to persist token")
	}

	return &LoginResult{User: user, Token: resp.Token}, nil
}

// Logout notifies the server best-effort, then clears local credentials.
// It never fails from the caller's point of view: server-side errors are
// logged and discarded because local cleanup must always succeed.
func (s *Service) Logout(ctx context.Context) error {
	if _, err := s.client.Post(ctx, pathLogout, nil); err != nil {
		s.logger.Warn("server logout failed: %v", err)
	}

	if err := s.client.Store().Clear(); err != nil {
		s.logger.Error("unable to clear token store on logout: %v", err)
	}

	s.emitEvent(ctx, ActivityEventLogout, "", "", nil)

	return nil
}

// IsAuthenticated reports whether a token is stored. A pure presence check:
// no network call, no expiry inspection.
func (s *Service) IsAuthenticated() bool {
	token, err := s.client.Store().Get()
	if err != nil {
		s.logger.Error("unable to read token store: %v", err)
		return false
	}
	return token != ""
}

func (s *Service) userFromClaims(claims *Claims) *User {
	return &User{
		ID:          claims.UserID(),
		FullName:    claims.DisplayName,
		PhoneNumber: claims.NormalizedPhone(s.phoneRegion),
		Email:       claims.Email,
		Role:        NormalizeRole(claims.Role()),
		IsActive:    true,
		CreatedAt:   s.now(),
	}
}

// envelopeError prefers the envelope's structured error over any generic
// message; raw HTTP status text never reaches the UI from here.
func (s *Service) envelopeError(env *Envelope, fallback string) *errors.Error {
	return errors.New(env.ErrorMessage(fallback), errors.CategoryAuth).
		WithTextCode(TextCodeAPIError).
		WithCode(errors.CodeUnauthorized)
}

func (s *Service) emitEvent(ctx context.Context, eventType ActivityEventType, userID, method string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Method:     method,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := normalizeActivitySink(s.activitySink).Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

// deterministicUserID derives a stable identifier from a login identifier.
// The admin login response carries no id field, so the same userName must
// always map to the same User.ID.
func deterministicUserID(identifier string) string {
	if id, err := hashid.NewUUID(identifier); err == nil {
		return id.String()
	}
	return identifier
}
