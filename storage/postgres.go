package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"coup/domain"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{Username: username}

	row := r.pool.QueryRow(ctx, "SELECT id, password_hash, created_at FROM users WHERE username = $1", username)
	err := row.Scan(&user.Id, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, domain.ErrUserNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.User{}, err
		default:
			return domain.User{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}

	return user, nil
}

func (r *PostgresRepo) GetUserById(ctx context.Context, id string) (domain.User, error) {
	user := domain.User{Id: id}

	row := r.pool.QueryRow(ctx, "SELECT username, password_hash, created_at FROM users WHERE id = $1", id)
	err := row.Scan(&user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, domain.ErrUserNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.User{}, err
		default:
			return domain.User{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}

	return user, nil
}

func (r *PostgresRepo) CreateUser(ctx context.Context, username string, passwordHash string) (string, error) {
	row := r.pool.QueryRow(ctx, "INSERT INTO users(username, password_hash) VALUES($1, $2) RETURNING id", username, passwordHash)

	var id string
	err := row.Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// "23505" is the PostgreSQL error code for unique_violation
			if pgErr.Code == "23505" {
				return "", domain.ErrDuplicateUsername
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return id, nil
}

// SaveResult implements game.ResultSaver.
func (r *PostgresRepo) SaveResult(ctx context.Context, res domain.GameResult) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO game_results(room_id, user_id, won, finished_at) VALUES($1, $2, $3, $4)",
		res.RoomId, res.UserId, res.Won, res.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return nil
}

// GetHistory returns a player's finished games, most recent first.
func (r *PostgresRepo) GetHistory(ctx context.Context, userId string, limit int) ([]domain.GameHistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT room_id, won, finished_at FROM game_results WHERE user_id = $1 ORDER BY finished_at DESC LIMIT $2",
		userId, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	defer rows.Close()

	entries := []domain.GameHistoryEntry{}
	for rows.Next() {
		var e domain.GameHistoryEntry
		if err := rows.Scan(&e.RoomId, &e.Won, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return entries, nil
}
