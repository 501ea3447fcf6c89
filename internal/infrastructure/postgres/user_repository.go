package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/user"
)

type userRow struct {
	ID                     string     `db:"id"`
	Username               string     `db:"username"`
	CreditCardToken        *string    `db:"credit_card_token"`
	CreditCardRegisteredAt *time.Time `db:"credit_card_registered_at"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

func (r *userRow) toEntity() *user.User {
	u := &user.User{
		ID: r.ID, Username: r.Username,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if r.CreditCardToken != nil && r.CreditCardRegisteredAt != nil {
		u.CreditCard = &user.CreditCard{
			Token:        *r.CreditCardToken,
			RegisteredAt: *r.CreditCardRegisteredAt,
		}
	}
	return u
}

type UserRepository struct{ db *sqlx.DB }

func NewUserRepository(db *sqlx.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT id, username, credit_card_token, credit_card_registered_at, created_at, updated_at FROM users WHERE id = $1`
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

var _ user.Repository = (*UserRepository)(nil)
