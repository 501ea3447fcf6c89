package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/transaction"
)

type seatRow struct {
	ID          string     `db:"id"`
	ConcertID   string     `db:"concert_id"`
	ConcertDate time.Time  `db:"concert_date"`
	SeatRow     string     `db:"seat_row"`
	SeatNumber  int        `db:"seat_number"`
	PriceBand   string     `db:"price_band"`
	Status      string     `db:"status"`
	ReservedBy  *string    `db:"reserved_by"`
	ReservedAt  *time.Time `db:"reserved_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	Version     int        `db:"version"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, ConcertID: r.ConcertID, ConcertDate: r.ConcertDate,
		Row: r.SeatRow, Number: r.SeatNumber,
		PriceBand: seat.PriceBand(r.PriceBand), Status: seat.Status(r.Status),
		ReservedBy: r.ReservedBy, ReservedAt: r.ReservedAt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version,
	}
}

const seatColumns = `id, concert_id, concert_date, seat_row, seat_number, price_band, status, reserved_by, reserved_at, created_at, updated_at, version`

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

// CreateBulk は座席をバッチ単位のマルチバリューINSERTで一括作成する
// (concert_id, concert_date, seat_row, seat_number) の一意制約と
// ON CONFLICT DO NOTHING により、並行初期化でも重複座席は生じない
func (r *SeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	const batchSize = 500
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SeatRepository) createBulkBatch(ctx context.Context, seats []*seat.Seat) error {
	query := `INSERT INTO seats (concert_id, concert_date, seat_row, seat_number, price_band, status, created_at, updated_at, version) VALUES `
	args := make([]interface{}, 0, len(seats)*9)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * 9
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args, s.ConcertID, s.ConcertDate, s.Row, s.Number, string(s.PriceBand), string(s.Status), s.CreatedAt, s.UpdatedAt, s.Version)
	}

	query += strings.Join(placeholders, ", ")
	query += ` ON CONFLICT (concert_id, concert_date, seat_row, seat_number) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`
	var row seatRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seat.ErrSeatNotFound
		}
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *SeatRepository) GetByConcertDate(ctx context.Context, concertID string, date time.Time) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE concert_id = $1 AND concert_date = $2 ORDER BY seat_row, seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, concertID, date); err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", err)
	}
	return toEntities(rows), nil
}

func (r *SeatRepository) GetAvailable(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE concert_id = $1 AND concert_date = $2 AND price_band = $3 AND status = 'available' ORDER BY seat_row, seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, concertID, date, string(band)); err != nil {
		return nil, fmt.Errorf("空席一覧取得に失敗: %w", err)
	}
	return toEntities(rows), nil
}

func (r *SeatRepository) CountByConcertDate(ctx context.Context, concertID string, date time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE concert_id = $1 AND concert_date = $2`, concertID, date)
	return count, err
}

func (r *SeatRepository) CountAvailable(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE concert_id = $1 AND concert_date = $2 AND price_band = $3 AND status = 'available'`, concertID, date, string(band))
	return count, err
}

// ReserveSeats は読み取り時のバージョンを条件に座席を予約状態へ更新する
// 1席でも条件を満たさなければ ErrVersionConflict を返す
// 呼び出し側はトランザクションをロールバックするため、部分確保が外部に見えることはない
func (r *SeatRepository) ReserveSeats(ctx context.Context, tx transaction.Tx, claims []seat.Claim, reservationID string) error {
	if len(claims) == 0 {
		return nil
	}
	ids := make([]string, len(claims))
	versions := make([]int64, len(claims))
	for i, c := range claims {
		ids[i] = c.ID
		versions[i] = int64(c.Version)
	}
	query := `
		UPDATE seats s
		SET status = 'reserved', reserved_by = $1, reserved_at = NOW(), updated_at = NOW(), version = s.version + 1
		FROM (SELECT unnest($2::uuid[]) AS id, unnest($3::int[]) AS version) c
		WHERE s.id = c.id AND s.version = c.version AND s.status = 'available'`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, reservationID, pq.Array(ids), pq.Array(versions))
	if err != nil {
		return fmt.Errorf("座席確保に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(claims) {
		return seat.ErrVersionConflict
	}
	return nil
}

func (r *SeatRepository) ConfirmSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = 'confirmed', updated_at = NOW(), version = version + 1 WHERE id = ANY($1) AND status = 'reserved'`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, pq.Array(seatIDs))
	if err != nil {
		return fmt.Errorf("座席確定に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(seatIDs) {
		return seat.ErrSeatNotReserved
	}
	return nil
}

func (r *SeatRepository) ReleaseSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = 'available', reserved_by = NULL, reserved_at = NULL, updated_at = NOW(), version = version + 1 WHERE id = ANY($1)`
	if _, err := UnwrapTx(tx).ExecContext(ctx, query, pq.Array(seatIDs)); err != nil {
		return fmt.Errorf("座席解放に失敗: %w", err)
	}
	return nil
}

func toEntities(rows []seatRow) []*seat.Seat {
	seats := make([]*seat.Seat, len(rows))
	for i := range rows {
		seats[i] = rows[i].toEntity()
	}
	return seats
}

var _ seat.Repository = (*SeatRepository)(nil)
