package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const recordColumns = `id, email, password_hash, display_name, is_admin, xp, level,
	login_streak, last_login, category_xp, lessons, achievements, created_at`

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *Record) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	categoryXP, lessons, achievements, err := marshalRecordJSON(rec)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, display_name, is_admin, xp, level,
		   login_streak, last_login, category_xp, lessons, achievements, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID,
		rec.Email,
		rec.PasswordHash,
		rec.DisplayName,
		rec.IsAdmin,
		rec.XP,
		rec.Level,
		rec.LoginStreak,
		rec.LastLogin,
		categoryXP,
		lessons,
		achievements,
		rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.getByQuery(ctx,
		`SELECT `+recordColumns+` FROM users WHERE id = $1 LIMIT 1`,
		userID,
	)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.getByQuery(ctx,
		`SELECT `+recordColumns+` FROM users WHERE email = $1 LIMIT 1`,
		email,
	)
}

func (s *PostgresStore) Update(ctx context.Context, rec *Record) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	categoryXP, lessons, achievements, err := marshalRecordJSON(rec)
	if err != nil {
		return err
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET display_name = $2, xp = $3, level = $4, login_streak = $5, last_login = $6,
		     category_xp = $7, lessons = $8, achievements = $9
		 WHERE id = $1`,
		rec.ID,
		rec.DisplayName,
		rec.XP,
		rec.Level,
		rec.LoginStreak,
		rec.LastLogin,
		categoryXP,
		lessons,
		achievements,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.listByQuery(ctx,
		`SELECT `+recordColumns+` FROM users ORDER BY last_login DESC`,
	)
}

func (s *PostgresStore) Top(ctx context.Context, limit int) ([]*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.listByQuery(ctx,
		`SELECT `+recordColumns+` FROM users ORDER BY xp DESC LIMIT $1`,
		limit,
	)
}

func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) getByQuery(ctx context.Context, query string, args ...any) (*Record, error) {
	row := s.pool.QueryRow(ctx, query, args...)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) listByQuery(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func scanRecord(scan func(dest ...any) error) (*Record, error) {
	rec := &Record{}
	var categoryXP, lessons, achievements []byte

	if err := scan(
		&rec.ID,
		&rec.Email,
		&rec.PasswordHash,
		&rec.DisplayName,
		&rec.IsAdmin,
		&rec.XP,
		&rec.Level,
		&rec.LoginStreak,
		&rec.LastLogin,
		&categoryXP,
		&lessons,
		&achievements,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	if len(categoryXP) > 0 {
		if err := json.Unmarshal(categoryXP, &rec.CategoryXP); err != nil {
			return nil, fmt.Errorf("decode category_xp: %w", err)
		}
	}
	if rec.CategoryXP == nil {
		rec.CategoryXP = map[string]int{}
	}
	if len(lessons) > 0 {
		if err := json.Unmarshal(lessons, &rec.Lessons); err != nil {
			return nil, fmt.Errorf("decode lessons: %w", err)
		}
	}
	if len(achievements) > 0 {
		if err := json.Unmarshal(achievements, &rec.Achievements); err != nil {
			return nil, fmt.Errorf("decode achievements: %w", err)
		}
	}
	return rec, nil
}

func marshalRecordJSON(rec *Record) (categoryXP, lessons, achievements []byte, err error) {
	categoryXP, err = json.Marshal(rec.CategoryXP)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode category_xp: %w", err)
	}
	lessons, err = json.Marshal(rec.Lessons)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode lessons: %w", err)
	}
	achievements, err = json.Marshal(rec.Achievements)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode achievements: %w", err)
	}
	return categoryXP, lessons, achievements, nil
}
