package voteclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goliatone/go-errors"
)

// Voting resource endpoints.
const (
	pathVoteSessions    = "/VoteSession"
	pathUsers           = "/User"
	pathAttendance      = "/Attendance"
	pathVoteQuestions   = "/VoteQuestion"
	pathVotes           = "/Vote/get-all-vote"
	pathVotesForSession = "/Vote/get-all-votes-for-session"
)

// VoteService is the CRUD surface for the admin dashboard: sessions, users,
// attendance, questions, and cast votes. Every failure carries the
// envelope's own error description when the server provided one.
type VoteService struct {
	client *Client
	logger Logger
}

// NewVoteService returns a VoteService on an existing client.
func NewVoteService(client *Client) *VoteService {
	return &VoteService{client: client, logger: defLogger{}}
}

func (s *VoteService) WithLogger(logger Logger) *VoteService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// VoteSessions lists all voting sessions.
func (s *VoteService) VoteSessions(ctx context.Context) ([]VoteSession, error) {
	env, err := s.client.Get(ctx, pathVoteSessions)
	if err != nil {
		return nil, err
	}
	return decodeList[VoteSession](env, "Failed to fetch vote sessions")
}

// CreateVoteSession creates a session and returns the server's record.
func (s *VoteService) CreateVoteSession(ctx context.Context, params VoteSessionParams) (*VoteSession, error) {
	env, err := s.client.Post(ctx, pathVoteSessions, params)
	if err != nil {
		return nil, err
	}
	return decodeRecord[VoteSession](env, "Failed to create vote session")
}

// UpdateVoteSession updates a session. The id travels in the body, not the
// path: PUT /VoteSession with {id, ...fields}.
func (s *VoteService) UpdateVoteSession(ctx context.Context, id int, params VoteSessionParams) (*VoteSession, error) {
	body := struct {
		ID int `json:"id"`
		VoteSessionParams
	}{ID: id, VoteSessionParams: params}

	env, err := s.client.Put(ctx, pathVoteSessions, body)
	if err != nil {
		return nil, err
	}
	return decodeRecord[VoteSession](env, "Failed to update vote session")
}

// DeleteVoteSession deletes a session by path id.
func (s *VoteService) DeleteVoteSession(ctx context.Context, id int) error {
	env, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d", pathVoteSessions, id))
	if err != nil {
		return err
	}
	return requireSuccess(env, "Failed to delete vote session")
}

// Users lists all registered voters.
func (s *VoteService) Users(ctx context.Context) ([]AdminUser, error) {
	env, err := s.client.Get(ctx, pathUsers)
	if err != nil {
		return nil, err
	}
	return decodeList[AdminUser](env, "Failed to fetch users")
}

// CreateUser registers a voter.
func (s *VoteService) CreateUser(ctx context.Context, params AdminUserParams) (*AdminUser, error) {
	env, err := s.client.Post(ctx, pathUsers, params)
	if err != nil {
		return nil, err
	}
	return decodeRecord[AdminUser](env, "Failed to create user")
}

// UpdateUser updates a voter record; id in the body like sessions.
func (s *VoteService) UpdateUser(ctx context.Context, id int, params AdminUserParams) (*AdminUser, error) {
	body := struct {
		ID int `json:"id"`
		AdminUserParams
	}{ID: id, AdminUserParams: params}

	env, err := s.client.Put(ctx, pathUsers, body)
	if err != nil {
		return nil, err
	}
	return decodeRecord[AdminUser](env, "Failed to update user")
}

// DeleteUser removes a voter by path id.
func (s *VoteService) DeleteUser(ctx context.Context, id int) error {
	env, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d", pathUsers, id))
	if err != nil {
		return err
	}
	return requireSuccess(env, "Failed to delete user")
}

// Attendance lists all attendance records.
func (s *VoteService) Attendance(ctx context.Context) ([]AttendanceRecord, error) {
	env, err := s.client.Get(ctx, pathAttendance)
	if err != nil {
		return nil, err
	}
	return decodeList[AttendanceRecord](env, "Failed to fetch attendance records")
}

// CreateAttendance admits a user into a session.
func (s *VoteService) CreateAttendance(ctx context.Context, params AttendanceParams) (*AttendanceRecord, error) {
	env, err := s.client.Post(ctx, pathAttendance, params)
	if err != nil {
		return nil, err
	}
	return decodeRecord[AttendanceRecord](env, "Failed to create attendance record")
}

// UpdateAttendance replaces an attendance record; the full record travels
// in the body.
func (s *VoteService) UpdateAttendance(ctx context.Context, record AttendanceRecord) (*AttendanceRecord, error) {
	env, err := s.client.Put(ctx, pathAttendance, record)
	if err != nil {
		return nil, err
	}
	return decodeRecord[AttendanceRecord](env, "Failed to update attendance record")
}

// DeleteAttendance removes an attendance record by path id.
func (s *VoteService) DeleteAttendance(ctx context.Context, id int) error {
	env, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d", pathAttendance, id))
	if err != nil {
		return err
	}
	return requireSuccess(env, "Failed to delete attendance record")
}

// VoteQuestions lists all questions across sessions.
func (s *VoteService) VoteQuestions(ctx context.Context) ([]VoteQuestion, error) {
	env, err := s.client.Get(ctx, pathVoteQuestions)
	if err != nil {
		return nil, err
	}
	return decodeList[VoteQuestion](env, "Failed to fetch vote questions")
}

// CreateVoteQuestion creates a question with its options.
func (s *VoteService) CreateVoteQuestion(ctx context.Context, params VoteQuestionParams) (*VoteQuestion, error) {
	env, err := s.client.Post(ctx, pathVoteQuestions, params)
	if err != nil {
		return nil, err
	}
	return decodeRecord[VoteQuestion](env, "Failed to create vote question")
}

// UpdateVoteQuestion replaces a question; the full record travels in the body.
func (s *VoteService) UpdateVoteQuestion(ctx context.Context, question VoteQuestion) (*VoteQuestion, error) {
	env, err := s.client.Put(ctx, pathVoteQuestions, question)
	if err != nil {
		return nil, err
	}
	return decodeRecord[VoteQuestion](env, "Failed to update vote question")
}

// DeleteVoteQuestion removes a question by path id. Deleting a question the
// server still holds votes for surfaces the server's conflict description.
func (s *VoteService) DeleteVoteQuestion(ctx context.Context, id int) error {
	env, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d", pathVoteQuestions, id))
	if err != nil {
		s.logger.Debug("delete vote question %d: %v", id, err)
		return err
	}
	return requireSuccess(env, "Failed to delete vote question")
}

// Votes lists every cast vote.
func (s *VoteService) Votes(ctx context.Context) ([]Vote, error) {
	env, err := s.client.Get(ctx, pathVotes)
	if err != nil {
		return nil, err
	}
	return decodeList[Vote](env, "Failed to fetch votes")
}

// VotesBySession lists the votes cast within one session.
func (s *VoteService) VotesBySession(ctx context.Context, sessionID int) ([]Vote, error) {
	query := url.Values{"sessionId": {fmt.Sprintf("%d", sessionID)}}
	env, err := s.client.Get(ctx, pathVotesForSession+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	return decodeList[Vote](env, "Failed to fetch votes by session")
}

// decodeList unwraps a successful envelope into a slice, or surfaces the
// envelope's error with the given fallback.
func decodeList[T any](env *Envelope, fallback string) ([]T, error) {
	if !env.IsSuccess || len(env.Value) == 0 {
		return nil, resourceError(env, fallback)
	}
	out, err := EnvelopeValue[[]T](env)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decodeRecord unwraps a successful envelope into a single record.
func decodeRecord[T any](env *Envelope, fallback string) (*T, error) {
	if !env.IsSuccess || len(env.Value) == 0 {
		return nil, resourceError(env, fallback)
	}
	out, err := EnvelopeValue[T](env)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// requireSuccess is decodeRecord for operations with no response value.
func requireSuccess(env *Envelope, fallback string) error {
	if !env.IsSuccess {
		return resourceError(env, fallback)
	}
	return nil
}

func resourceError(env *Envelope, fallback string) *errors.Error {
	return errors.New(env.ErrorMessage(fallback), errors.CategoryOperation).
		WithTextCode(TextCodeAPIError)
}
