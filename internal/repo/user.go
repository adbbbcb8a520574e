package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"ledger/internal/model"
)

// UserRepository is the user directory: profile records plus the paired
// account created alongside each user.
type UserRepository interface {
	Create(ctx context.Context, in model.SignupInput, passwordHash string, seedBalance int64) (int64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	Update(ctx context.Context, userID int64, upd model.UserUpdate) error
	Search(ctx context.Context, filter string) ([]model.User, error)
}

type PostgresUserRepo struct {
	db *sql.DB
}

func NewPostgresUserRepo(db *sql.DB) UserRepository {
	return &PostgresUserRepo{db: db}
}

const uniqueViolation = "23505"

// Create inserts the user row and its account in one transaction so a user
// can never exist without exactly one paired account.
func (r *PostgresUserRepo) Create(ctx context.Context, in model.SignupInput, passwordHash string, seedBalance int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var userID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, first_name, last_name)
         VALUES ($1, $2, $3, $4)
         RETURNING id`,
		in.Username, passwordHash, in.FirstName, in.LastName,
	).Scan(&userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, model.ErrUserExists
		}
		return 0, storeErr(err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (user_id, balance) VALUES ($1, $2)`,
		userID, seedBalance,
	)
	if err != nil {
		return 0, storeErr(err)
	}

	if err = tx.Commit(); err != nil {
		return 0, storeErr(err)
	}
	return userID, nil
}

func (r *PostgresUserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, first_name, last_name
         FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, storeErr(err)
	}
	return u, nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, userID int64, upd model.UserUpdate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
         SET password_hash = COALESCE($2, password_hash),
             first_name    = COALESCE($3, first_name),
             last_name     = COALESCE($4, last_name)
         WHERE id = $1`,
		userID, nullable(upd.PasswordHash), nullable(upd.FirstName), nullable(upd.LastName),
	)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// Search matches the filter as a case-insensitive substring of either name.
func (r *PostgresUserRepo) Search(ctx context.Context, filter string) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, first_name, last_name
         FROM users
         WHERE first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%'`,
		filter,
	)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName); err != nil {
			return nil, storeErr(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return users, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
