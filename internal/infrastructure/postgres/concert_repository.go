package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/concert"
)

type concertRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type ConcertRepository struct{ db *sqlx.DB }

func NewConcertRepository(db *sqlx.DB) *ConcertRepository {
	return &ConcertRepository{db: db}
}

func (r *ConcertRepository) Create(ctx context.Context, c *concert.Concert) error {
	query := `INSERT INTO concerts (title, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, c.Title, c.CreatedAt, c.UpdatedAt).Scan(&c.ID); err != nil {
		return fmt.Errorf("コンサート作成に失敗: %w", err)
	}
	for _, d := range c.Dates {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO concert_dates (concert_id, concert_date) VALUES ($1, $2) ON CONFLICT DO NOTHING`, c.ID, d); err != nil {
			return fmt.Errorf("公演日程作成に失敗: %w", err)
		}
	}
	return nil
}

func (r *ConcertRepository) GetByID(ctx context.Context, id string) (*concert.Concert, error) {
	var row concertRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, title, created_at, updated_at FROM concerts WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, concert.ErrConcertNotFound
		}
		return nil, fmt.Errorf("コンサート取得に失敗: %w", err)
	}
	dates, err := r.getDates(ctx, id)
	if err != nil {
		return nil, err
	}
	return toConcert(&row, dates), nil
}

func (r *ConcertRepository) List(ctx context.Context, limit, offset int) ([]*concert.Concert, error) {
	var rows []concertRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, title, created_at, updated_at FROM concerts ORDER BY title LIMIT $1 OFFSET $2`, limit, offset); err != nil {
		return nil, fmt.Errorf("コンサート一覧取得に失敗: %w", err)
	}
	concerts := make([]*concert.Concert, len(rows))
	for i := range rows {
		dates, err := r.getDates(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		concerts[i] = toConcert(&rows[i], dates)
	}
	return concerts, nil
}

func (r *ConcertRepository) getDates(ctx context.Context, concertID string) ([]time.Time, error) {
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, `SELECT concert_date FROM concert_dates WHERE concert_id = $1 ORDER BY concert_date`, concertID); err != nil {
		return nil, fmt.Errorf("公演日程取得に失敗: %w", err)
	}
	return dates, nil
}

func toConcert(row *concertRow, dates []time.Time) *concert.Concert {
	return &concert.Concert{
		ID: row.ID, Title: row.Title, Dates: dates,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

var _ concert.Repository = (*ConcertRepository)(nil)
