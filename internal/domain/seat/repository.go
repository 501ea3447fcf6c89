package seat

import (
	"context"
	"time"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/transaction"
)

// Claim は楽観的ロック付きの座席確保要求を表す
// Version は候補読み取り時点の値で、書き込み時に一致しなければ確保は失敗する
type Claim struct {
	ID      string
	Version int
}

// ClaimsOf は座席一覧から Claim 一覧を作る
func ClaimsOf(seats []*Seat) []Claim {
	claims := make([]Claim, len(seats))
	for i, s := range seats {
		claims[i] = Claim{ID: s.ID, Version: s.Version}
	}
	return claims
}

// IDsOf は座席一覧からID一覧を作る
func IDsOf(seats []*Seat) []string {
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}
	return ids
}

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数の座席を一括作成する
	// 既に存在する座席（同一コンサート・日時・列・番号）は無視される（冪等）
	CreateBulk(ctx context.Context, seats []*Seat) error

	// GetByID はIDから座席を取得する
	GetByID(ctx context.Context, id string) (*Seat, error)

	// GetByConcertDate はコンサート公演の全座席を取得する
	GetByConcertDate(ctx context.Context, concertID string, date time.Time) ([]*Seat, error)

	// GetAvailable はコンサート公演・価格帯の空席一覧を取得する
	// 結果はスナップショットであり、並行する更新によって直ちに古くなりうる
	GetAvailable(ctx context.Context, concertID string, date time.Time, band PriceBand) ([]*Seat, error)

	// CountByConcertDate はコンサート公演の座席総数を取得する
	CountByConcertDate(ctx context.Context, concertID string, date time.Time) (int, error)

	// CountAvailable はコンサート公演・価格帯の空席数を取得する
	CountAvailable(ctx context.Context, concertID string, date time.Time, band PriceBand) (int, error)

	// ReserveSeats は座席を予約状態に更新する（バージョン条件付き、トランザクション必須）
	// いずれかの座席のバージョンが一致しない場合は ErrVersionConflict を返し、1席も更新しない
	ReserveSeats(ctx context.Context, tx transaction.Tx, claims []Claim, reservationID string) error

	// ConfirmSeats は座席を確定状態に更新する（トランザクション必須）
	ConfirmSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error

	// ReleaseSeats は座席を解放する（トランザクション必須）
	ReleaseSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error
}
