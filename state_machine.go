package voteclient

// ActionType identifies a session state transition request.
type ActionType string

const (
	// ActionAuthStart marks the beginning of any auth attempt or bootstrap.
	ActionAuthStart ActionType = "AUTH_START"
	// ActionAuthSuccess installs an authenticated user.
	ActionAuthSuccess ActionType = "AUTH_SUCCESS"
	// ActionAuthFailure records a failed attempt with a displayable message.
	ActionAuthFailure ActionType = "AUTH_FAILURE"
	// ActionAuthLogout resets to the signed-out resting state.
	ActionAuthLogout ActionType = "AUTH_LOGOUT"
	// ActionClearError drops the error message, touching nothing else.
	ActionClearError ActionType = "CLEAR_ERROR"
)

// Action is a state transition request. Payload carries the user on success
// and the error message on failure; it is ignored otherwise.
type Action struct {
	Type  ActionType
	User  *User
	Error string
}

// State is the session snapshot consumers render from. IsAuthenticated is
// true exactly when User is non-nil; both are maintained together so neither
// can be observed stale.
type State struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// InitialState is the pre-bootstrap snapshot: loading, until the stored
// token has been checked against the server.
func InitialState() State {
	return State{IsLoading: true}
}

// Reduce computes the next state from the current one and an action. It is
// pure: no I/O, no mutation of the input, same output for same input.
// Unknown action types return the state unchanged.
func Reduce(state State, action Action) State {
	switch action.Type {
	case ActionAuthStart:
		return State{IsLoading: true}
	case ActionAuthSuccess:
		return State{
			User:            action.User,
			IsAuthenticated: action.User != nil,
			IsLoading:       false,
			Error:           "",
		}
	case ActionAuthFailure:
		return State{
			User:            nil,
			IsAuthenticated: false,
			IsLoading:       false,
			Error:           action.Error,
		}
	case ActionAuthLogout:
		return State{}
	case ActionClearError:
		state.Error = ""
		return state
	}
	return state
}
