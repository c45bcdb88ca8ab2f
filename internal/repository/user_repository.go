package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/thinknows/x-server/internal/model"
)

// UserRepo persists user records in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and fills in its ID.  Duplicate username/email is
// checked up front so the caller gets a specific sentinel; the 1062 fallback
// covers the window between check and insert.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if taken, err := r.ExistsByUsername(ctx, u.Username); err != nil {
		return err
	} else if taken {
		return ErrUsernameExists
	}
	if taken, err := r.ExistsByEmail(ctx, u.Email); err != nil {
		return err
	} else if taken {
		return ErrEmailExists
	}

	providers, err := marshalProviders(u.SocialProviders)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users
		 (username, password_hash, email, phone, is_active, two_factor_enabled, two_factor_secret, social_providers)
		 VALUES (?,?,?,?,?,?,?,?)`,
		u.Username, u.PasswordHash, u.Email, u.Phone, u.IsActive, u.TwoFactorEnabled, u.TwoFactorSecret, providers)
	if err != nil {
		low := strings.ToLower(err.Error())
		if strings.Contains(low, "1062") {
			if strings.Contains(low, "email") {
				return ErrEmailExists
			}
			return ErrUsernameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// ExistsByUsername reports whether a user with the given username exists.
// BINARY in the predicate forces a byte-wise comparison, so matching stays
// exact and case-sensitive whatever collation the column carries.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE username = BINARY ? LIMIT 1", username).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// ExistsByEmail reports whether a user with the given email exists.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email = BINARY ? LIMIT 1", email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// FindByUsername fetches a user by username. Returns ErrNotFound when absent.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		selectUser+" WHERE username = BINARY ? LIMIT 1", username))
}

// FindByID fetches a user by id. Returns ErrNotFound when absent.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		selectUser+" WHERE id=? LIMIT 1", id))
}

// ListAll returns every user record, newest first.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, selectUser+" ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

const selectUser = `SELECT id, username, password_hash, email, phone,
	is_active, two_factor_enabled, two_factor_secret, social_providers,
	created_at, updated_at FROM users`

type rowScanner interface{ Scan(dest ...any) error }

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return u, err
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u         model.User
		secret    sql.NullString
		providers sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Phone,
		&u.IsActive, &u.TwoFactorEnabled, &secret, &providers,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.TwoFactorSecret = secret.String
	if providers.Valid && providers.String != "" {
		if err := json.Unmarshal([]byte(providers.String), &u.SocialProviders); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

func marshalProviders(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
