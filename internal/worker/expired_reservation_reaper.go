package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/maddiebeagley/Concert-Booking-System/internal/pkg/logger"
)

// ReservationExpirer は期限切れ予約を失効させるインターフェース
type ReservationExpirer interface {
	ExpireOverdueReservations(ctx context.Context) (int, error)
}

// ExpiredReservationReaper は期限切れの仮押さえを定期的に解放するワーカー
// 予約時の同期スイープを補完し、リクエストが来ない公演の座席も解放する
type ExpiredReservationReaper struct {
	service  ReservationExpirer
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewExpiredReservationReaper は新しいリーパーを作成
func NewExpiredReservationReaper(service ReservationExpirer, interval time.Duration) *ExpiredReservationReaper {
	return &ExpiredReservationReaper{
		service:  service,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はリーパーを開始
func (r *ExpiredReservationReaper) Start(ctx context.Context) {
	logger.Info("期限切れ予約リーパー開始", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れ予約リーパー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("期限切れ予約リーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// Stop はリーパーを停止し、終了を待つ
func (r *ExpiredReservationReaper) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// sweep は期限切れ予約を1バッチ失効させる
func (r *ExpiredReservationReaper) sweep(ctx context.Context) {
	count, err := r.service.ExpireOverdueReservations(ctx)
	if err != nil {
		logger.Error("期限切れ予約の解放に失敗", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("期限切れ予約を解放", zap.Int("count", count))
	} else {
		logger.Debug("期限切れ予約なし")
	}
}
