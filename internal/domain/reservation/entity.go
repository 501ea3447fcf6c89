package reservation

import (
	"time"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
)

// Status は予約の状態を表す
type Status string

const (
	StatusReserved  Status = "reserved"
	StatusConfirmed Status = "confirmed"
	StatusExpired   Status = "expired"
)

// Reservation は予約エンティティを表す
// 座席集合は作成時に固定され、以後変更されない
// 確定済み予約は予約履歴（ブッキング）として保持され、削除されない
type Reservation struct {
	ID          string
	UserID      string
	ConcertID   string
	ConcertDate time.Time
	PriceBand   seat.PriceBand
	SeatCount   int
	SeatIDs     []string
	Status      Status
	ExpiresAt   time.Time
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewReservation は新しい予約を作成する
// 有効期限は作成時刻から expiryWindow 後に固定される（操作による延長はない）
func NewReservation(userID, concertID string, concertDate time.Time, band seat.PriceBand, seatIDs []string, expiryWindow time.Duration) *Reservation {
	now := time.Now()
	ids := make([]string, len(seatIDs))
	copy(ids, seatIDs)
	return &Reservation{
		UserID:      userID,
		ConcertID:   concertID,
		ConcertDate: concertDate.UTC(),
		PriceBand:   band,
		SeatCount:   len(ids),
		SeatIDs:     ids,
		Status:      StatusReserved,
		ExpiresAt:   now.Add(expiryWindow),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsExpired は asOf 時点で有効期限を過ぎているかを返す
func (r *Reservation) IsExpired(asOf time.Time) bool {
	return asOf.After(r.ExpiresAt)
}

// Apply は状態遷移表に従ってイベントを適用し、座席への副作用を返す
// 副作用の実行（座席の確定・解放）は呼び出し側がトランザクション内で行う
func (r *Reservation) Apply(ev Event, asOf time.Time) (SeatEffect, error) {
	next, effect, err := Transition(r.Status, ev)
	if err != nil {
		return SeatEffectNone, err
	}
	if next == r.Status && effect == SeatEffectNone {
		return SeatEffectNone, nil
	}
	r.Status = next
	r.UpdatedAt = asOf
	if ev == EventConfirm && next == StatusConfirmed {
		confirmedAt := asOf
		r.ConfirmedAt = &confirmedAt
	}
	return effect, nil
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if r.ConcertID == "" {
		return ErrConcertIDRequired
	}
	if r.ConcertDate.IsZero() {
		return ErrConcertDateRequired
	}
	if !seat.IsValidBand(r.PriceBand) {
		return ErrInvalidPriceBand
	}
	if len(r.SeatIDs) == 0 {
		return ErrSeatIDsRequired
	}
	if r.SeatCount != len(r.SeatIDs) {
		return ErrSeatCountMismatch
	}
	return nil
}
