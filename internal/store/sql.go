package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todoapp/internal/models"
)

type dialect string

const (
	dialectSQLite dialect = "sqlite"
	dialectMySQL  dialect = "mysql"
)

// SQLStore implements Store on top of database/sql. The same queries serve
// SQLite and MySQL; only the schema and row locking differ.
type SQLStore struct {
	db        *sql.DB
	dialect   dialect
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
	readRetry RetryPolicy
	connect   connectRetry
}

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithLogger sets the logger used for migration and retry messages.
func WithLogger(logger *zap.Logger) Option {
	return func(s *SQLStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *SQLStore) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithReadRetry overrides the retry policy applied to ListAll.
func WithReadRetry(policy RetryPolicy) Option {
	return func(s *SQLStore) {
		s.readRetry = policy
	}
}

// WithConnectRetry makes opening the store wait for the database to accept
// connections, pinging up to maxAttempts times, interval apart, before any
// migration runs. ctx aborts the wait.
func WithConnectRetry(ctx context.Context, maxAttempts int, interval time.Duration) Option {
	return func(s *SQLStore) {
		if ctx != nil {
			s.connect.ctx = ctx
		}
		if maxAttempts > 0 {
			s.connect.maxAttempts = maxAttempts
		}
		s.connect.interval = interval
	}
}

func newSQLStore(db *sql.DB, d dialect, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{
		db:        db,
		dialect:   d,
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
		readRetry: DefaultReadRetry,
		connect:   connectRetry{ctx: context.Background(), maxAttempts: 1},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := waitForDatabase(s.connect, db.PingContext, s.logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db, d, s.logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// timestamp returns the current time in the precision both engines keep.
func (s *SQLStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

const selectTodoColumns = `SELECT id, title, completed, created_at, updated_at FROM todos`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	todo := &models.Todo{}
	if err := row.Scan(
		&todo.ID,
		&todo.Title,
		&todo.Completed,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	return todo, nil
}

// Insert creates a new todo.
func (s *SQLStore) Insert(ctx context.Context, title string) (*models.Todo, error) {
	if err := models.ValidateTitle(title); err != nil {
		return nil, err
	}

	now := s.timestamp()
	todo := &models.Todo{
		ID:        s.newID(),
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, title, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, todo.ID, todo.Title, todo.Completed, todo.CreatedAt, todo.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return todo, nil
}

// ListAll retrieves all todos ordered by created_at, newest first.
// Transient driver errors are retried.
func (s *SQLStore) ListAll(ctx context.Context) ([]models.Todo, error) {
	var todos []models.Todo
	attempt := 0
	err := doWithRetry(ctx, s.readRetry, func() error {
		attempt++
		if attempt > 1 {
			s.logger.Warn("retrying todo list", zap.Int("attempt", attempt))
		}
		var err error
		todos, err = s.listAll(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

func (s *SQLStore) listAll(ctx context.Context) ([]models.Todo, error) {
	rows, err := s.db.QueryContext(ctx, selectTodoColumns+` ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]models.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, *todo)
	}

	return todos, rows.Err()
}

// UpdateByID applies patch to the todo with the given id and returns the result.
func (s *SQLStore) UpdateByID(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := selectTodoColumns + ` WHERE id = ?`
	if s.dialect == dialectMySQL {
		query += ` FOR UPDATE`
	}

	todo, err := scanTodo(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	patch.Apply(todo)

	// updated_at must move forward even when the clock has not.
	updatedAt := s.timestamp()
	if !updatedAt.After(todo.UpdatedAt) {
		updatedAt = todo.UpdatedAt.Add(time.Microsecond)
	}
	todo.UpdatedAt = updatedAt

	if _, err := tx.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, completed = ?, updated_at = ?
		WHERE id = ?
	`, todo.Title, todo.Completed, todo.UpdatedAt, todo.ID); err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit todo update: %w", err)
	}

	return todo, nil
}

// DeleteByID deletes a todo by id.
func (s *SQLStore) DeleteByID(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
