package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCache はコンサート公演・価格帯ごとの空席数キャッシュを管理する
// 座席の状態が変わる操作（確保・確定・解放）の後は必ず無効化すること
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetCount は空席数をキャッシュから取得する
func (c *AvailabilityCache) GetCount(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) (int, error) {
	val, err := c.client.Get(ctx, c.countKey(concertID, date, band)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetCount は空席数をキャッシュに保存する
func (c *AvailabilityCache) SetCount(ctx context.Context, concertID string, date time.Time, band seat.PriceBand, count int, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.countKey(concertID, date, band), count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はコンサート公演の全価格帯のキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, concertID string, date time.Time) error {
	keys := make([]string, 0, len(seat.Bands()))
	for _, band := range seat.Bands() {
		keys = append(keys, c.countKey(concertID, date, band))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) countKey(concertID string, date time.Time, band seat.PriceBand) string {
	return fmt.Sprintf("seats:available:%s:%d:%s", concertID, date.Unix(), band)
}
