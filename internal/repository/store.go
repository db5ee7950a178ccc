package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so the same repository code runs
// inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles one repository per entity.
type Repositories struct {
	Tickets      TicketRepository
	Lookups      LookupRepository
	SlaPolicies  SlaPolicyRepository
	Users        UserRepository
	Departments  DepartmentRepository
	Messages     TicketMessageRepository
	Attachments  AttachmentRepository
	ActivityLogs ActivityLogRepository
}

// TxRunner executes a function with a repository set bound to a single
// transaction, committing on nil error.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

// Store is the Postgres-backed repository set plus its TxRunner.
type Store struct {
	Repositories
	pool *pgxpool.Pool
}

// NewStore builds repositories over the shared pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Repositories: newRepositories(pool),
		pool:         pool,
	}
}

func newRepositories(q Querier) Repositories {
	return Repositories{
		Tickets:      NewTicketRepository(q),
		Lookups:      NewLookupRepository(q),
		SlaPolicies:  NewSlaPolicyRepository(q),
		Users:        NewUserRepository(q),
		Departments:  NewDepartmentRepository(q),
		Messages:     NewTicketMessageRepository(q),
		Attachments:  NewAttachmentRepository(q),
		ActivityLogs: NewActivityLogRepository(q),
	}
}

// WithinTx runs fn with repositories bound to one transaction. Ticket
// mutations and their audit-log rows go through here so a failure rolls
// both back together.
func (s *Store) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
