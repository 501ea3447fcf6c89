package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/reservation"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/transaction"
)

type reservationRow struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	ConcertID   string     `db:"concert_id"`
	ConcertDate time.Time  `db:"concert_date"`
	PriceBand   string     `db:"price_band"`
	SeatCount   int        `db:"seat_count"`
	Status      string     `db:"status"`
	ExpiresAt   time.Time  `db:"expires_at"`
	ConfirmedAt *time.Time `db:"confirmed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const reservationColumns = `id, user_id, concert_id, concert_date, price_band, seat_count, status, expires_at, confirmed_at, created_at, updated_at`

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	query := `INSERT INTO reservations (id, user_id, concert_id, concert_date, price_band, seat_count, status, expires_at, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	sqlxTx := UnwrapTx(tx)
	if _, err := sqlxTx.ExecContext(ctx, query, res.ID, res.UserID, res.ConcertID, res.ConcertDate, string(res.PriceBand), res.SeatCount, string(res.Status), res.ExpiresAt, res.CreatedAt, res.UpdatedAt); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	for _, seatID := range res.SeatIDs {
		if _, err := sqlxTx.ExecContext(ctx, `INSERT INTO reservation_seats (reservation_id, seat_id) VALUES ($1, $2)`, res.ID, seatID); err != nil {
			return fmt.Errorf("予約座席関連付けに失敗: %w", err)
		}
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	seatIDs, err := r.getSeatIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.toEntity(&row, seatIDs), nil
}

// GetByIDForUpdate は予約を行ロック付きで取得する
// 同一予約に対する確定と失効スイープはこのロックで直列化される
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	if err := UnwrapTx(tx).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	seatIDs, err := r.getSeatIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.toEntity(&row, seatIDs), nil
}

func (r *ReservationRepository) GetConfirmedByUser(ctx context.Context, userID string) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 AND status = 'confirmed' ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	return r.toEntities(ctx, rows)
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	query := `UPDATE reservations SET status = $1, confirmed_at = $2, updated_at = $3 WHERE id = $4`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, string(res.Status), res.ConfirmedAt, res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) GetExpiredForUpdate(ctx context.Context, tx transaction.Tx, concertID string, date time.Time, asOf time.Time) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE concert_id = $1 AND concert_date = $2 AND status = 'reserved' AND expires_at < $3 FOR UPDATE`
	if err := UnwrapTx(tx).SelectContext(ctx, &rows, query, concertID, date, asOf); err != nil {
		return nil, fmt.Errorf("期限切れ予約取得に失敗: %w", err)
	}
	return r.toEntities(ctx, rows)
}

func (r *ReservationRepository) GetAllExpiredForUpdate(ctx context.Context, tx transaction.Tx, asOf time.Time, limit int) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = 'reserved' AND expires_at < $1 ORDER BY expires_at LIMIT $2 FOR UPDATE SKIP LOCKED`
	if err := UnwrapTx(tx).SelectContext(ctx, &rows, query, asOf, limit); err != nil {
		return nil, fmt.Errorf("期限切れ予約取得に失敗: %w", err)
	}
	return r.toEntities(ctx, rows)
}

func (r *ReservationRepository) getSeatIDs(ctx context.Context, reservationID string) ([]string, error) {
	// 座席集合は予約作成後に変化しないため、トランザクション外で読んでよい
	var seatIDs []string
	if err := r.db.SelectContext(ctx, &seatIDs, `SELECT seat_id FROM reservation_seats WHERE reservation_id = $1`, reservationID); err != nil {
		return nil, fmt.Errorf("座席ID取得に失敗: %w", err)
	}
	return seatIDs, nil
}

func (r *ReservationRepository) toEntities(ctx context.Context, rows []reservationRow) ([]*reservation.Reservation, error) {
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		seatIDs, err := r.getSeatIDs(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		result[i] = r.toEntity(&rows[i], seatIDs)
	}
	return result, nil
}

func (r *ReservationRepository) toEntity(row *reservationRow, seatIDs []string) *reservation.Reservation {
	return &reservation.Reservation{
		ID: row.ID, UserID: row.UserID, ConcertID: row.ConcertID,
		ConcertDate: row.ConcertDate, PriceBand: seat.PriceBand(row.PriceBand),
		SeatCount: row.SeatCount, SeatIDs: seatIDs,
		Status: reservation.Status(row.Status), ExpiresAt: row.ExpiresAt,
		ConfirmedAt: row.ConfirmedAt, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

var _ reservation.Repository = (*ReservationRepository)(nil)
