package seat

import (
	"fmt"
	"time"
)

// Status は座席の状態を表す
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusConfirmed Status = "confirmed"
)

// PriceBand は座席の価格帯を表す
type PriceBand string

const (
	PriceBandA PriceBand = "A"
	PriceBandB PriceBand = "B"
	PriceBandC PriceBand = "C"
)

// Bands は全価格帯を返す
func Bands() []PriceBand {
	return []PriceBand{PriceBandA, PriceBandB, PriceBandC}
}

// IsValidBand は価格帯が有効かを返す
func IsValidBand(band PriceBand) bool {
	switch band {
	case PriceBandA, PriceBandB, PriceBandC:
		return true
	}
	return false
}

// Seat は座席エンティティを表す
// (コンサートID, 公演日時, 列, 番号) で一意に識別される
type Seat struct {
	ID          string
	ConcertID   string
	ConcertDate time.Time
	Row         string
	Number      int
	PriceBand   PriceBand
	Status      Status
	ReservedBy  *string // reservation_id
	ReservedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int // 楽観的ロック用
}

// NewSeat は新しい座席を作成する（初期状態は available）
func NewSeat(concertID string, concertDate time.Time, row string, number int, band PriceBand) *Seat {
	now := time.Now()
	return &Seat{
		ConcertID:   concertID,
		ConcertDate: concertDate.UTC(),
		Row:         row,
		Number:      number,
		PriceBand:   band,
		Status:      StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     0,
	}
}

// Label は "列-番号" 形式の座席ラベルを返す
func (s *Seat) Label() string {
	return fmt.Sprintf("%s-%d", s.Row, s.Number)
}

// IsAvailable は座席が予約可能かを返す
func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// Reserve は座席を予約状態にする
func (s *Seat) Reserve(reservationID string) error {
	if s.Status != StatusAvailable {
		return ErrSeatNotAvailable
	}
	now := time.Now()
	s.Status = StatusReserved
	s.ReservedBy = &reservationID
	s.ReservedAt = &now
	s.UpdatedAt = now
	s.Version++
	return nil
}

// Confirm は座席を確定状態にする
func (s *Seat) Confirm() error {
	if s.Status != StatusReserved {
		return ErrSeatNotReserved
	}
	s.Status = StatusConfirmed
	s.UpdatedAt = time.Now()
	s.Version++
	return nil
}

// Release は座席を解放して再び予約可能にする
func (s *Seat) Release() {
	s.Status = StatusAvailable
	s.ReservedBy = nil
	s.ReservedAt = nil
	s.UpdatedAt = time.Now()
	s.Version++
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.ConcertID == "" {
		return ErrConcertIDRequired
	}
	if s.ConcertDate.IsZero() {
		return ErrConcertDateRequired
	}
	if s.Row == "" {
		return ErrRowRequired
	}
	if s.Number <= 0 {
		return ErrInvalidSeatNumber
	}
	if !IsValidBand(s.PriceBand) {
		return ErrInvalidPriceBand
	}
	return nil
}
