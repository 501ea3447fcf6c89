package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/venue"
	redisinfra "github.com/maddiebeagley/Concert-Booking-System/internal/infrastructure/redis"
	"github.com/maddiebeagley/Concert-Booking-System/internal/pkg/logger"
)

const availabilityCacheTTL = 30 * time.Second

// InventoryService はコンサート公演ごとの座席在庫を管理する
type InventoryService struct {
	seatRepo seat.Repository
	layout   *venue.Layout
	cache    *redisinfra.AvailabilityCache
}

func NewInventoryService(sr seat.Repository, layout *venue.Layout, cache *redisinfra.AvailabilityCache) *InventoryService {
	return &InventoryService{seatRepo: sr, layout: layout, cache: cache}
}

// EnsureSeats はコンサート公演の座席を遅延初期化する
// 既に座席が存在する場合は何もしない（冪等）
// 並行呼び出しによる重複はDBの一意制約と ON CONFLICT DO NOTHING で防がれる
func (s *InventoryService) EnsureSeats(ctx context.Context, concertID string, date time.Time) error {
	count, err := s.seatRepo.CountByConcertDate(ctx, concertID, date)
	if err != nil {
		return fmt.Errorf("座席数取得に失敗: %w", err)
	}
	if count > 0 {
		return nil
	}

	seats := make([]*seat.Seat, 0, s.layout.TotalSeats())
	for _, band := range seat.Bands() {
		for _, row := range s.layout.Rows(band) {
			for num := 1; num <= row.Seats; num++ {
				seats = append(seats, seat.NewSeat(concertID, date, row.Row, num, band))
			}
		}
	}
	if err := s.seatRepo.CreateBulk(ctx, seats); err != nil {
		return fmt.Errorf("座席初期化に失敗: %w", err)
	}

	logger.Info("座席を初期化",
		zap.String("concert_id", concertID),
		zap.Time("concert_date", date),
		zap.Int("seats", len(seats)),
	)
	return nil
}

// GetSeats はコンサート公演の全座席を取得する
func (s *InventoryService) GetSeats(ctx context.Context, concertID string, date time.Time) ([]*seat.Seat, error) {
	return s.seatRepo.GetByConcertDate(ctx, concertID, date)
}

// GetAvailableSeats はコンサート公演・価格帯の空席一覧のスナップショットを取得する
func (s *InventoryService) GetAvailableSeats(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) ([]*seat.Seat, error) {
	return s.seatRepo.GetAvailable(ctx, concertID, date, band)
}

// CountAvailableSeats はコンサート公演・価格帯の空席数を取得する
func (s *InventoryService) CountAvailableSeats(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) (int, error) {
	// キャッシュから取得を試みる
	if s.cache != nil {
		count, err := s.cache.GetCount(ctx, concertID, date, band)
		if err == nil {
			logger.Debug("キャッシュヒット",
				zap.String("concert_id", concertID),
				zap.String("band", string(band)),
				zap.Int("count", count),
			)
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	// DBから取得
	count, err := s.seatRepo.CountAvailable(ctx, concertID, date, band)
	if err != nil {
		return 0, err
	}

	// キャッシュに保存
	if s.cache != nil {
		if cacheErr := s.cache.SetCount(ctx, concertID, date, band, count, availabilityCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return count, nil
}

// AvailabilityFor はコンサート公演・価格帯の空席数を返す
// 座席が未初期化の公演ではレイアウト上の座席数をそのまま返す
func (s *InventoryService) AvailabilityFor(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) (int, error) {
	total, err := s.seatRepo.CountByConcertDate(ctx, concertID, date)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return s.layout.SeatsForBand(band), nil
	}
	return s.CountAvailableSeats(ctx, concertID, date, band)
}

// InvalidateAvailability はコンサート公演の空席数キャッシュを無効化する
func (s *InventoryService) InvalidateAvailability(ctx context.Context, concertID string, date time.Time) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, concertID, date); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
}
