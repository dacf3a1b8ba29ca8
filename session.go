package voteclient

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
)

// Listener observes session state changes. Listeners run synchronously after
// each transition, outside the coordinator's lock; they must not block.
type Listener func(State)

// Coordinator owns the session State and funnels every change through the
// reducer. Auth flows run through the Service; each flow carries a
// generation stamp so a slow response can never clobber the state of a
// newer attempt.
type Coordinator struct {
	mu         sync.Mutex
	state      State
	generation uint64
	listeners  map[int]Listener
	nextID     int

	service *Service
	logger  Logger
}

// NewCoordinator wires a Coordinator to a Service. It subscribes to the
// client's unauthorized signal so any 401 anywhere forces a logout
// transition.
func NewCoordinator(service *Service, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		state:     InitialState(),
		listeners: map[int]Listener{},
		service:   service,
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	service.client.OnUnauthorized(func(ctx context.Context) {
		c.service.emitEvent(ctx, ActivityEventSessionExpired, "", "", nil)
		c.dispatch(Action{Type: ActionAuthLogout})
	})

	return c
}

// CoordinatorOption customizes coordinator construction.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger overrides the logger used for listener bookkeeping.
func WithCoordinatorLogger(logger Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Current returns a snapshot of the session state.
func (c *Coordinator) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a listener and returns its unsubscribe function.
func (c *Coordinator) Subscribe(l Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Start bootstraps the session from storage: a stored token is validated
// against the server before anyone is treated as signed in. With no token
// the session rests signed out immediately, no network call.
func (c *Coordinator) Start(ctx context.Context) {
	gen := c.begin()

	if !c.service.IsAuthenticated() {
		c.finish(gen, Action{Type: ActionAuthLogout})
		return
	}

	user, err := c.service.CurrentUser(ctx)
	if err != nil {
		// The stored token survives: a 401 already cleared it through the
		// client, and anything else may be transient. The next Start gets
		// another chance with the same credentials.
		c.logger.Debug("session bootstrap failed: %v", err)
		c.finish(gen, Action{Type: ActionAuthFailure, Error: "Session expired"})
		return
	}

	c.finish(gen, Action{Type: ActionAuthSuccess, User: user})
}

// AdminLogin runs the password flow and lands the session in the
// authenticated or failed state.
func (c *Coordinator) AdminLogin(ctx context.Context, req AdminLoginRequest) error {
	gen := c.begin()

	result, err := c.service.AdminLogin(ctx, req)
	if err != nil {
		c.finish(gen, Action{Type: ActionAuthFailure, Error: displayMessage(err)})
		return err
	}

	c.finish(gen, Action{Type: ActionAuthSuccess, User: result.User})
	return nil
}

// RequestEmailOTP asks for a code and rests the session signed out: having
// requested a code is not an authenticated condition.
func (c *Coordinator) RequestEmailOTP(ctx context.Context, email string) error {
	gen := c.begin()

	if err := c.service.RequestEmailOTP(ctx, email); err != nil {
		c.finish(gen, Action{Type: ActionAuthFailure, Error: displayMessage(err)})
		return err
	}

	c.finish(gen, Action{Type: ActionAuthLogout})
	return nil
}

// LoginWithEmail runs the email plus OTP flow.
func (c *Coordinator) LoginWithEmail(ctx context.Context, email, otp string) error {
	gen := c.begin()

	result, err := c.service.LoginWithEmail(ctx, email, otp)
	if err != nil {
		c.finish(gen, Action{Type: ActionAuthFailure, Error: displayMessage(err)})
		return err
	}

	c.finish(gen, Action{Type: ActionAuthSuccess, User: result.User})
	return nil
}

// VerifyMagicLink runs the magic-link flow.
func (c *Coordinator) VerifyMagicLink(ctx context.Context, token string) error {
	gen := c.begin()

	result, err := c.service.VerifyMagicLink(ctx, token)
	if err != nil {
		c.finish(gen, Action{Type: ActionAuthFailure, Error: displayMessage(err)})
		return err
	}

	c.finish(gen, Action{Type: ActionAuthSuccess, User: result.User})
	return nil
}

// Logout signs the session out. It always lands in the signed-out state
// regardless of how the server call went.
func (c *Coordinator) Logout(ctx context.Context) {
	gen := c.begin()

	if err := c.service.Logout(ctx); err != nil {
		c.logger.Warn("logout error: %v", err)
	}

	c.finish(gen, Action{Type: ActionAuthLogout})
}

// ClearError drops the current error message without touching anything else.
func (c *Coordinator) ClearError() {
	c.dispatch(Action{Type: ActionClearError})
}

// begin stamps a new attempt generation and dispatches the loading state.
func (c *Coordinator) begin() uint64 {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	next := Reduce(c.state, Action{Type: ActionAuthStart})
	c.state = next
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return gen
}

// finish dispatches the attempt's terminal action unless a newer attempt
// has started since, in which case the result is stale and dropped.
func (c *Coordinator) finish(gen uint64, action Action) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("dropping superseded session transition: %s", action.Type)
		return
	}
	next := Reduce(c.state, action)
	c.state = next
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
}

func (c *Coordinator) dispatch(action Action) {
	c.mu.Lock()
	next := Reduce(c.state, action)
	c.state = next
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
}

func (c *Coordinator) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		out = append(out, l)
	}
	return out
}

// displayMessage extracts a user-facing message from an error. Structured
// errors carry their curated message; anything else falls back to Error().
func displayMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *errors.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
