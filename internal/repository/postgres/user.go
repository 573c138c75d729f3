package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/otptasks-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, nickname, email, otp_code, otp_expires_at`

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return model.User{}, wrapUserErr(err, "failed to get user by email")
	}

	return user, nil
}

func (r *UserRepository) GetByEmailForUpdate(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 FOR UPDATE`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return model.User{}, wrapUserErr(err, "failed to lock user by email")
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return model.User{}, wrapUserErr(err, "failed to get user by id")
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	// DO NOTHING keeps the surrounding transaction usable when the email or
	// nickname is already taken.
	query := `INSERT INTO users (nickname, email, otp_code, otp_expires_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT DO NOTHING
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.Nickname, user.Email, user.OTPCode, user.OTPExpiresAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrConflict
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) SetOTP(ctx context.Context, userID int64, code string, expiresAt time.Time) error {
	query := `UPDATE users SET otp_code = $2, otp_expires_at = $3 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, userID, code, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to set otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *UserRepository) ConsumeOTP(ctx context.Context, userID int64, code string) error {
	query := `UPDATE users SET otp_code = NULL, otp_expires_at = NULL
			  WHERE id = $1 AND otp_code = $2`

	tag, err := r.db.Exec(ctx, query, userID, code)
	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInvalidState
	}

	return nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	if err := row.Scan(
		&user.ID, &user.Nickname, &user.Email, &user.OTPCode, &user.OTPExpiresAt,
	); err != nil {
		return model.User{}, err
	}

	if user.OTPExpiresAt != nil {
		utc := user.OTPExpiresAt.UTC()
		user.OTPExpiresAt = &utc
	}

	return user, nil
}

func wrapUserErr(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
