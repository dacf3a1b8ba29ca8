package voteclient

import (
	"strings"
	"time"
)

// UserRole is the user's role as reported by the API or the token claims
type UserRole = string

const (
	// RoleAdmin renders the administrative surface
	RoleAdmin UserRole = "admin"
	// RoleUser renders the voter ballot surface
	RoleUser UserRole = "user"
)

// NormalizeRole lower-cases a role claim. Roles are always normalized before
// comparison or storage; the server emits them with arbitrary casing.
func NormalizeRole(role string) UserRole {
	return UserRole(strings.ToLower(strings.TrimSpace(role)))
}

// User is the authenticated identity as the dashboard sees it. It is built
// fresh on every successful login or claims decode and replaced wholesale on
// each auth transition, never partially mutated.
type User struct {
	ID               string    `json:"id,omitempty"`
	FullName         string    `json:"fullName,omitempty"`
	PhoneNumber      string    `json:"phoneNumber,omitempty"`
	Email            string    `json:"email,omitempty"`
	Role             UserRole  `json:"role,omitempty"`
	IsActive         bool      `json:"isActive,omitempty"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
	CreatedByAdminID string    `json:"createdByAdminId,omitempty"`
}

// IsAdmin reports whether the user sees the admin surface.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasRole checks the user's normalized role.
func (u *User) HasRole(role string) bool {
	return u != nil && u.Role == NormalizeRole(role)
}

// AuthResponse is the flat success payload of the admin login endpoint. The
// role field is authoritative when present.
type AuthResponse struct {
	Token       string `json:"token"`
	UserName    string `json:"userName"`
	Role        string `json:"role"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

// LoginResult pairs the mapped user with the bearer token that was persisted
// for it.
type LoginResult struct {
	User  *User
	Token string
}

// VoteSession is a voting session as returned by /VoteSession.
type VoteSession struct {
	ID                int    `json:"id"`
	TopicTitle        string `json:"topicTitle"`
	Description       string `json:"description"`
	StartedAt         string `json:"startedAt"`
	EndedAt           string `json:"endedAt"`
	VoteSessionStatus int    `json:"voteSessionStatus"`
}

// VoteSessionParams is the create/update payload for a vote session.
type VoteSessionParams struct {
	TopicTitle  string `json:"topicTitle"`
	Description string `json:"description"`
	StartedAt   string `json:"startedAt"`
	EndedAt     string `json:"endedAt"`
}

// AdminUser is the admin-screen projection of a user record. It is a plain
// API shape, distinct from the session User.
type AdminUser struct {
	ID               int    `json:"id"`
	FullName         string `json:"fullName"`
	PhoneNumber      string `json:"phoneNumber"`
	Email            string `json:"email"`
	Role             string `json:"role,omitempty"`
	IsActive         bool   `json:"isActive"`
	CreatedAt        string `json:"createdAt,omitempty"`
	CreatedByAdminID int    `json:"createdByAdminId,omitempty"`
}

// AdminUserParams is the create/update payload for an admin-managed user.
type AdminUserParams struct {
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

// AttendanceRecord links a user to a vote session.
type AttendanceRecord struct {
	ID               int  `json:"id"`
	UserID           int  `json:"userId"`
	VoteSessionID    int  `json:"voteSessionId"`
	OTPCodeID        *int `json:"otpCodeID"`
	CreatedByAdminID int  `json:"createdByAdminId,omitempty"`
}

// AttendanceParams is the create payload for an attendance record.
type AttendanceParams struct {
	VoteSessionID int `json:"voteSessionId"`
	UserID        int `json:"userId"`
}

// VoteQuestionOption is a selectable answer on a vote question.
type VoteQuestionOption struct {
	ID    int    `json:"id,omitempty"`
	Title string `json:"title"`
}

// VoteQuestion belongs to a vote session and carries its options.
type VoteQuestion struct {
	ID            int                  `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	StartedAt     string               `json:"startedAt"`
	EndedAt       string               `json:"endedAt"`
	VoteSessionID int                  `json:"voteSessionId"`
	Options       []VoteQuestionOption `json:"options"`
}

// VoteQuestionParams is the create/update payload for a vote question.
type VoteQuestionParams struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	StartedAt     string               `json:"startedAt"`
	EndedAt       string               `json:"endedAt"`
	VoteSessionID int                  `json:"voteSessionId"`
	Options       []VoteQuestionOption `json:"options"`
}

// Vote is a cast vote as returned by /Vote/get-all-vote.
type Vote struct {
	ID                   int    `json:"id"`
	VotedAt              string `json:"votedAt"`
	UserID               int    `json:"userId"`
	VoteQuestionOptionID int    `json:"voteQuestionOptionId"`
}

// VoteWithDetails is a vote joined with display fields for the admin list.
type VoteWithDetails struct {
	Vote
	UserName      string `json:"userName,omitempty"`
	UserEmail     string `json:"userEmail,omitempty"`
	QuestionTitle string `json:"questionTitle,omitempty"`
	OptionTitle   string `json:"optionTitle,omitempty"`
	SessionTitle  string `json:"sessionTitle,omitempty"`
}
