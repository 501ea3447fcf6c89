package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/concert"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/reservation"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/transaction"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/user"
	"github.com/maddiebeagley/Concert-Booking-System/internal/infrastructure/rabbitmq"
	"github.com/maddiebeagley/Concert-Booking-System/internal/pkg/logger"
	"github.com/maddiebeagley/Concert-Booking-System/internal/pkg/metrics"
)

// SeatInventory は予約サービスが依存する座席在庫の操作
type SeatInventory interface {
	EnsureSeats(ctx context.Context, concertID string, date time.Time) error
	InvalidateAvailability(ctx context.Context, concertID string, date time.Time)
}

// EventPublisher は予約確定イベントの発行先
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev rabbitmq.BookingConfirmedEvent) error
}

// ReservationEngineConfig は予約エンジンの動作設定
type ReservationEngineConfig struct {
	// ExpiryWindow は予約作成から失効までの時間
	ExpiryWindow time.Duration
	// MaxAllocationAttempts は楽観的な座席確保のリトライ上限
	MaxAllocationAttempts int
	// RetryBackoff はリトライ間の待機時間
	RetryBackoff time.Duration
}

// ReservationService は座席の確保・確定・失効を司る
type ReservationService struct {
	txm             transaction.Manager
	reservationRepo reservation.Repository
	seatRepo        seat.Repository
	concertRepo     concert.Repository
	userRepo        user.Repository
	inventory       SeatInventory
	publisher       EventPublisher
	cfg             ReservationEngineConfig
}

func NewReservationService(
	txm transaction.Manager,
	rr reservation.Repository,
	sr seat.Repository,
	cr concert.Repository,
	ur user.Repository,
	inventory SeatInventory,
	publisher EventPublisher,
	cfg ReservationEngineConfig,
) *ReservationService {
	if cfg.MaxAllocationAttempts <= 0 {
		cfg.MaxAllocationAttempts = 5
	}
	return &ReservationService{
		txm:             txm,
		reservationRepo: rr,
		seatRepo:        sr,
		concertRepo:     cr,
		userRepo:        ur,
		inventory:       inventory,
		publisher:       publisher,
		cfg:             cfg,
	}
}

// ReserveInput は座席予約の入力
type ReserveInput struct {
	UserID        string
	ConcertID     string
	ConcertDate   time.Time
	PriceBand     seat.PriceBand
	NumberOfSeats int
}

// Reserve は同一価格帯の座席を NumberOfSeats 席まとめて仮押さえする
//
// 手順: 公演の検証 → 座席の遅延初期化 → 期限切れ予約のスイープ →
// 空席スナップショットの読み取り → 座席選択 → バージョン条件付きの一括確保。
// 確保が競合で失敗した場合は読み取りからやり直す。リトライは上限と
// バックオフ付きで、1回でも空席数が不足していれば即座に失敗を返す
func (s *ReservationService) Reserve(ctx context.Context, input ReserveInput) (*reservation.Reservation, error) {
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	c, err := s.concertRepo.GetByID(ctx, input.ConcertID)
	if err != nil {
		return nil, err
	}
	if !c.HasDate(input.ConcertDate) {
		return nil, concert.ErrDateNotScheduled
	}
	if !seat.IsValidBand(input.PriceBand) {
		return nil, seat.ErrInvalidPriceBand
	}

	if err := s.inventory.EnsureSeats(ctx, input.ConcertID, input.ConcertDate); err != nil {
		return nil, err
	}

	// 新しい確保を試みる前に、失効した仮押さえの座席を解放する
	if _, err := s.SweepExpired(ctx, input.ConcertID, input.ConcertDate); err != nil {
		return nil, fmt.Errorf("失効スイープに失敗: %w", err)
	}

	for attempt := 1; attempt <= s.cfg.MaxAllocationAttempts; attempt++ {
		res, err := s.tryAllocate(ctx, input)
		if err == nil {
			s.inventory.InvalidateAvailability(ctx, input.ConcertID, input.ConcertDate)
			s.recordReservation(metrics.ReservationOutcomeSuccess, attempt)
			logger.Info("座席を仮押さえ",
				zap.String("reservation_id", res.ID),
				zap.String("concert_id", input.ConcertID),
				zap.String("band", string(input.PriceBand)),
				zap.Int("seats", res.SeatCount),
				zap.Int("attempt", attempt),
			)
			return res, nil
		}
		if errors.Is(err, seat.ErrSeatsUnavailable) {
			s.recordReservation(metrics.ReservationOutcomeUnavailable, attempt)
			return nil, seat.ErrSeatsUnavailable
		}
		if !errors.Is(err, seat.ErrVersionConflict) {
			s.recordReservation(metrics.ReservationOutcomeError, attempt)
			return nil, err
		}

		// 楽観的ロックの競合。確保は丸ごと破棄されているので最初からやり直す
		if m := metrics.Get(); m != nil {
			m.ReservationsTotal.WithLabelValues(metrics.ReservationOutcomeConflict).Inc()
		}
		logger.Debug("座席確保が競合、リトライ",
			zap.String("concert_id", input.ConcertID),
			zap.Int("attempt", attempt),
		)
		if s.cfg.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.RetryBackoff):
			}
		}
	}

	// リトライ上限に到達。ライブロックを避けるためこれ以上は粘らない
	s.recordReservation(metrics.ReservationOutcomeUnavailable, s.cfg.MaxAllocationAttempts)
	return nil, seat.ErrSeatsUnavailable
}

// tryAllocate は 読み取り→選択→条件付き書き込み を1回だけ試みる
func (s *ReservationService) tryAllocate(ctx context.Context, input ReserveInput) (*reservation.Reservation, error) {
	candidates, err := s.seatRepo.GetAvailable(ctx, input.ConcertID, input.ConcertDate, input.PriceBand)
	if err != nil {
		return nil, fmt.Errorf("空席取得に失敗: %w", err)
	}
	if len(candidates) < input.NumberOfSeats {
		return nil, seat.ErrSeatsUnavailable
	}

	chosen := seat.Choose(candidates, input.NumberOfSeats)
	if len(chosen) == 0 {
		return nil, seat.ErrSeatsUnavailable
	}

	res := reservation.NewReservation(input.UserID, input.ConcertID, input.ConcertDate, input.PriceBand, seat.IDsOf(chosen), s.cfg.ExpiryWindow)
	res.ID = uuid.NewString()
	if err := res.Validate(); err != nil {
		return nil, err
	}

	// 座席の確保と予約の作成は同一トランザクション
	// いずれかの座席で楽観的ロックが競合したら全体をロールバックする
	err = transaction.RunInTx(ctx, s.txm, func(tx transaction.Tx) error {
		if err := s.seatRepo.ReserveSeats(ctx, tx, seat.ClaimsOf(chosen), res.ID); err != nil {
			return err
		}
		return s.reservationRepo.Create(ctx, tx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Confirm は仮押さえ中の予約を確定する
// 期限判定と状態遷移は行ロック下の同一トランザクションで評価されるため、
// 失効スイープと競合しても座席が confirmed/available に割れることはない
func (s *ReservationService) Confirm(ctx context.Context, reservationID, userID string) (*reservation.Reservation, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.HasPaymentMethod() {
		return nil, user.ErrNoPaymentMethod
	}

	var res *reservation.Reservation
	var expired bool
	err = transaction.RunInTx(ctx, s.txm, func(tx transaction.Tx) error {
		r, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if r.UserID != userID {
			return reservation.ErrReservationNotFound
		}

		now := time.Now()
		ev := reservation.EventConfirm
		if r.Status == reservation.StatusReserved && r.IsExpired(now) {
			ev = reservation.EventExpire
			expired = true
		}

		effect, err := r.Apply(ev, now)
		if err != nil {
			// 既に失効済みの場合など。副作用なしで打ち切る
			return err
		}
		if err := s.applySeatEffect(ctx, tx, effect, r.SeatIDs); err != nil {
			return err
		}
		if err := s.reservationRepo.Update(ctx, tx, r); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if expired {
		// 期限超過の確定要求。予約は失効し座席は解放済み
		s.inventory.InvalidateAvailability(ctx, res.ConcertID, res.ConcertDate)
		if m := metrics.Get(); m != nil {
			m.ExpiredReservationsTotal.Inc()
		}
		logger.Info("期限切れ予約の確定要求を失効",
			zap.String("reservation_id", res.ID),
			zap.Int("released_seats", res.SeatCount),
		)
		return nil, reservation.ErrReservationExpired
	}

	s.publishConfirmed(ctx, res)
	logger.Info("予約を確定",
		zap.String("reservation_id", res.ID),
		zap.String("user_id", res.UserID),
		zap.Int("seats", res.SeatCount),
	)
	return res, nil
}

// ListBookings はユーザーの確定済み予約（ブッキング）一覧を返す
func (s *ReservationService) ListBookings(ctx context.Context, userID string) ([]*reservation.Reservation, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.reservationRepo.GetConfirmedByUser(ctx, userID)
}

// GetReservation はIDから予約を取得する
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// SweepExpired はコンサート公演の期限切れ仮押さえを失効させ、座席を解放する
// 2回連続で実行しても2回目は何も変更しない（冪等）
func (s *ReservationService) SweepExpired(ctx context.Context, concertID string, date time.Time) (int, error) {
	var released int
	err := transaction.RunInTx(ctx, s.txm, func(tx transaction.Tx) error {
		overdue, err := s.reservationRepo.GetExpiredForUpdate(ctx, tx, concertID, date, time.Now())
		if err != nil {
			return err
		}
		for _, r := range overdue {
			if err := s.expireOne(ctx, tx, r); err != nil {
				return err
			}
		}
		released = len(overdue)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if released > 0 {
		s.inventory.InvalidateAvailability(ctx, concertID, date)
		if m := metrics.Get(); m != nil {
			m.ExpiredReservationsTotal.Add(float64(released))
		}
		logger.Info("期限切れ予約を失効",
			zap.String("concert_id", concertID),
			zap.Time("concert_date", date),
			zap.Int("count", released),
		)
	}
	return released, nil
}

// ExpireOverdueReservations は全コンサート横断で期限切れ仮押さえを失効させる
// バックグラウンドワーカーから定期的に呼ばれる
func (s *ReservationService) ExpireOverdueReservations(ctx context.Context) (int, error) {
	const batchLimit = 100

	var expired []*reservation.Reservation
	err := transaction.RunInTx(ctx, s.txm, func(tx transaction.Tx) error {
		overdue, err := s.reservationRepo.GetAllExpiredForUpdate(ctx, tx, time.Now(), batchLimit)
		if err != nil {
			return err
		}
		for _, r := range overdue {
			if err := s.expireOne(ctx, tx, r); err != nil {
				return err
			}
		}
		expired = overdue
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(expired) > 0 {
		for _, r := range expired {
			s.inventory.InvalidateAvailability(ctx, r.ConcertID, r.ConcertDate)
		}
		if m := metrics.Get(); m != nil {
			m.ExpiredReservationsTotal.Add(float64(len(expired)))
		}
	}
	return len(expired), nil
}

// expireOne は予約1件を失効させ、座席の副作用を同一トランザクション内で実行する
func (s *ReservationService) expireOne(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	effect, err := r.Apply(reservation.EventExpire, time.Now())
	if err != nil {
		return err
	}
	if err := s.applySeatEffect(ctx, tx, effect, r.SeatIDs); err != nil {
		return err
	}
	return s.reservationRepo.Update(ctx, tx, r)
}

func (s *ReservationService) applySeatEffect(ctx context.Context, tx transaction.Tx, effect reservation.SeatEffect, seatIDs []string) error {
	switch effect {
	case reservation.SeatEffectConfirm:
		return s.seatRepo.ConfirmSeats(ctx, tx, seatIDs)
	case reservation.SeatEffectRelease:
		return s.seatRepo.ReleaseSeats(ctx, tx, seatIDs)
	}
	return nil
}

func (s *ReservationService) publishConfirmed(ctx context.Context, r *reservation.Reservation) {
	if s.publisher == nil || r.ConfirmedAt == nil {
		return
	}
	ev := rabbitmq.BookingConfirmedEvent{
		ReservationID: r.ID,
		UserID:        r.UserID,
		ConcertID:     r.ConcertID,
		ConcertDate:   r.ConcertDate,
		PriceBand:     string(r.PriceBand),
		SeatCount:     r.SeatCount,
		ConfirmedAt:   *r.ConfirmedAt,
	}
	if err := s.publisher.PublishBookingConfirmed(ctx, ev); err != nil {
		logger.Warn("予約確定イベントの発行に失敗", zap.Error(err))
	}
}

func (s *ReservationService) recordReservation(outcome string, attempts int) {
	m := metrics.Get()
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(outcome).Inc()
	if outcome == metrics.ReservationOutcomeSuccess {
		m.SeatAllocationAttempts.Observe(float64(attempts))
	}
}
