package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/tutor_market/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Пространства имён advisory-блокировок
const (
	lockNamespacePost int32 = 1
	lockNamespaceUser int32 = 2
)

type repos struct {
	posts    PostRepository
	bookings BookingRepository
	reviews  ReviewRepository
	users    UserRepository
}

func newRepos(db base.DBTX) repos {
	return repos{
		posts:    NewPostRepository(db),
		bookings: NewBookingRepository(db),
		reviews:  NewReviewRepository(db),
		users:    NewUserRepository(db),
	}
}

func (r repos) Posts() PostRepository       { return r.posts }
func (r repos) Bookings() BookingRepository { return r.bookings }
func (r repos) Reviews() ReviewRepository   { return r.reviews }
func (r repos) Users() UserRepository       { return r.users }

// PgStore хранилище на PostgreSQL
type PgStore struct {
	repos
	pool *pgxpool.Pool
}

// NewPgStore создаёт хранилище поверх пула соединений
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{repos: newRepos(pool), pool: pool}
}

// Pool возвращает пул соединений
func (s *PgStore) Pool() *pgxpool.Pool {
	return s.pool
}

// InTx выполняет fn в транзакции READ COMMITTED.
// Согласованность обеспечивают advisory-блокировки LockPost/LockUser.
func (s *PgStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	// Начинаем транзакцию
	pgxTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer pgxTx.Rollback(ctx)

	if err := fn(&pgTx{repos: newRepos(pgxTx), tx: pgxTx}); err != nil {
		return err
	}

	// Коммитим транзакцию
	if err := pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	repos
	tx pgx.Tx
}

func (t *pgTx) LockPost(ctx context.Context, postID uuid.UUID) error {
	return t.advisoryLock(ctx, lockNamespacePost, postID.String())
}

func (t *pgTx) LockUser(ctx context.Context, userID int64) error {
	return t.advisoryLock(ctx, lockNamespaceUser, strconv.FormatInt(userID, 10))
}

func (t *pgTx) advisoryLock(ctx context.Context, namespace int32, key string) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, namespace, key)
	if err != nil {
		return fmt.Errorf("advisory lock %d/%s: %w", namespace, key, err)
	}
	return nil
}
