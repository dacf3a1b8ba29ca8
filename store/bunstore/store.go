// Package bunstore persists client credentials in SQLite through Bun, for
// long-lived installs that outlast a single process.
package bunstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	nameAuthToken    = "authToken"
	nameRefreshToken = "refreshToken"

	defaultTimeout = 5 * time.Second
)

// Credential is the Bun model for a stored credential. Name is the
// identifier key so upserts by name replace in place.
type Credential struct {
	bun.BaseModel `bun:"table:credentials"`

	ID        uuid.UUID `bun:"id,pk,nullzero,type:uuid"`
	Name      string    `bun:"name,notnull,unique"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,default:current_timestamp"`
}

// NewCredentialsRepository builds the generic repository for credentials.
func NewCredentialsRepository(db *bun.DB) repository.Repository[*Credential] {
	handlers := repository.ModelHandlers[*Credential]{
		NewRecord: func() *Credential {
			return &Credential{}
		},
		GetID: func(record *Credential) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Credential, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
	}
	return repository.NewRepository(db, handlers)
}

// OpenSQLite opens a Bun handle over SQLite. Use ":memory:" or
// "file:tokens.db" style DSNs.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to open sqlite database")
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Store is a SQLite-backed token store. The token store interface carries
// no context, so every query runs under an internal timeout.
type Store struct {
	db      *bun.DB
	creds   repository.Repository[*Credential]
	timeout time.Duration
}

// Option customizes store construction.
type Option func(*Store)

// WithTimeout bounds each query.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// New creates a SQLite-backed token store over an existing Bun handle.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:      db,
		creds:   NewCredentialsRepository(db),
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Init creates the credentials table when missing.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Credential)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to create credentials table")
	}
	return nil
}

// Get returns the stored auth token, empty when absent.
func (s *Store) Get() (string, error) {
	return s.get(nameAuthToken)
}

// Set stores the auth token.
func (s *Store) Set(token string) error {
	return s.set(nameAuthToken, token)
}

// GetRefresh returns the stored refresh token, empty when absent.
func (s *Store) GetRefresh() (string, error) {
	return s.get(nameRefreshToken)
}

// SetRefresh stores the refresh token.
func (s *Store) SetRefresh(token string) error {
	return s.set(nameRefreshToken, token)
}

// Clear removes both tokens.
func (s *Store) Clear() error {
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.db.NewDelete().
		Model((*Credential)(nil)).
		Where("name IN (?, ?)", nameAuthToken, nameRefreshToken).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "unable to clear credentials")
	}
	return nil
}

func (s *Store) get(name string) (string, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	record, err := s.creds.GetByIdentifier(ctx, name)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", nil
		}
		return "", errors.Wrap(err, errors.CategoryOperation, "unable to read credential")
	}
	return record.Value, nil
}

func (s *Store) set(name, token string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	if token == "" {
		_, err := s.db.NewDelete().
			Model((*Credential)(nil)).
			Where("name = ?", name).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "unable to delete credential")
		}
		return nil
	}

	record := &Credential{
		Name:      name,
		Value:     token,
		UpdatedAt: time.Now(),
	}
	if id, err := hashid.NewUUID(name); err == nil {
		record.ID = id
	}

	if _, err := s.creds.Upsert(ctx, record); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "unable to store credential")
	}
	return nil
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
