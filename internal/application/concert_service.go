package application

import (
	"context"
	"time"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/concert"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
)

// ConcertService はコンサートの読み取りモデルを提供する
// カタログの編集は本システムの範囲外
type ConcertService struct {
	concertRepo concert.Repository
	inventory   *InventoryService
}

func NewConcertService(cr concert.Repository, inventory *InventoryService) *ConcertService {
	return &ConcertService{concertRepo: cr, inventory: inventory}
}

func (s *ConcertService) ListConcerts(ctx context.Context, limit, offset int) ([]*concert.Concert, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.concertRepo.List(ctx, limit, offset)
}

func (s *ConcertService) GetConcert(ctx context.Context, id string) (*concert.Concert, error) {
	return s.concertRepo.GetByID(ctx, id)
}

// GetAvailability はコンサート公演・価格帯の空席数を返す
func (s *ConcertService) GetAvailability(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) (int, error) {
	c, err := s.concertRepo.GetByID(ctx, concertID)
	if err != nil {
		return 0, err
	}
	if !c.HasDate(date) {
		return 0, concert.ErrDateNotScheduled
	}
	if !seat.IsValidBand(band) {
		return 0, seat.ErrInvalidPriceBand
	}
	return s.inventory.AvailabilityFor(ctx, concertID, date, band)
}
