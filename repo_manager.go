package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all stores the auth flows depend on
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	PasswordResets() PasswordResets
	LoginLogs() LoginRecorder
	Blacklist() TokenBlacklist
}

type mngr struct {
	db             *bun.DB
	users          Users
	passwordResets PasswordResets
	loginLogs      LoginRecorder
	blacklist      TokenBlacklist
}

type RepositoryManagerOption func(*mngr)

func NewRepositoryManager(db *bun.DB, cfg Config, opts ...RepositoryManagerOption) RepositoryManager {
	m := &mngr{
		db:             db,
		users:          NewUsersRepository(db),
		passwordResets: NewPasswordResets(db, cfg),
		loginLogs:      NewLoginRecorder(db),
		blacklist:      NewTokenBlacklist(db),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// WithUsersStore overrides the default users repository.
func WithUsersStore(users Users) RepositoryManagerOption {
	return func(m *mngr) {
		m.users = users
	}
}

// WithPasswordResetsStore overrides the default reset token store.
func WithPasswordResetsStore(resets PasswordResets) RepositoryManagerOption {
	return func(m *mngr) {
		m.passwordResets = resets
	}
}

// WithLoginLogsStore overrides the default login audit recorder.
func WithLoginLogsStore(logs LoginRecorder) RepositoryManagerOption {
	return func(m *mngr) {
		m.loginLogs = logs
	}
}

// WithBlacklistStore overrides the default token blacklist.
func WithBlacklistStore(blacklist TokenBlacklist) RepositoryManagerOption {
	return func(m *mngr) {
		m.blacklist = blacklist
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.passwordResets == nil {
		return errors.New("repository passwordResets should be initialized")
	}

	if m.loginLogs == nil {
		return errors.New("repository loginLogs should be initialized")
	}

	if m.blacklist == nil {
		return errors.New("repository blacklist should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) PasswordResets() PasswordResets {
	return m.passwordResets
}

func (m mngr) LoginLogs() LoginRecorder {
	return m.loginLogs
}

func (m mngr) Blacklist() TokenBlacklist {
	return m.blacklist
}
