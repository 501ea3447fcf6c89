package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/concert"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/reservation"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/transaction"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/user"
	"github.com/maddiebeagley/Concert-Booking-System/internal/infrastructure/rabbitmq"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetConfirmedByUser(ctx context.Context, userID string) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) Update(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetExpiredForUpdate(ctx context.Context, tx transaction.Tx, concertID string, date time.Time, asOf time.Time) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, tx, concertID, date, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetAllExpiredForUpdate(ctx context.Context, tx transaction.Tx, asOf time.Time, limit int) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, tx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

// MockSeatRepository implements seat.Repository
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	args := m.Called(ctx, seats)
	return args.Error(0)
}

func (m *MockSeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) GetByConcertDate(ctx context.Context, concertID string, date time.Time) ([]*seat.Seat, error) {
	args := m.Called(ctx, concertID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) GetAvailable(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) ([]*seat.Seat, error) {
	args := m.Called(ctx, concertID, date, band)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) CountByConcertDate(ctx context.Context, concertID string, date time.Time) (int, error) {
	args := m.Called(ctx, concertID, date)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatRepository) CountAvailable(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) (int, error) {
	args := m.Called(ctx, concertID, date, band)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatRepository) ReserveSeats(ctx context.Context, tx transaction.Tx, claims []seat.Claim, reservationID string) error {
	args := m.Called(ctx, tx, claims, reservationID)
	return args.Error(0)
}

func (m *MockSeatRepository) ConfirmSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error {
	args := m.Called(ctx, tx, seatIDs)
	return args.Error(0)
}

func (m *MockSeatRepository) ReleaseSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error {
	args := m.Called(ctx, tx, seatIDs)
	return args.Error(0)
}

// MockConcertRepository implements concert.Repository
type MockConcertRepository struct {
	mock.Mock
}

func (m *MockConcertRepository) Create(ctx context.Context, c *concert.Concert) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockConcertRepository) GetByID(ctx context.Context, id string) (*concert.Concert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*concert.Concert), args.Error(1)
}

func (m *MockConcertRepository) List(ctx context.Context, limit, offset int) ([]*concert.Concert, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*concert.Concert), args.Error(1)
}

// MockUserRepository implements user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

// MockInventory implements SeatInventory
type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) EnsureSeats(ctx context.Context, concertID string, date time.Time) error {
	args := m.Called(ctx, concertID, date)
	return args.Error(0)
}

func (m *MockInventory) InvalidateAvailability(ctx context.Context, concertID string, date time.Time) {
	m.Called(ctx, concertID, date)
}

// MockPublisher implements EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingConfirmed(ctx context.Context, ev rabbitmq.BookingConfirmedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// === Test fixtures ===

type serviceMocks struct {
	txm             *MockTxManager
	tx              *MockTx
	reservationRepo *MockReservationRepository
	seatRepo        *MockSeatRepository
	concertRepo     *MockConcertRepository
	userRepo        *MockUserRepository
	inventory       *MockInventory
}

var (
	testDate    = time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC)
	testConcert = &concert.Concert{ID: "concert-1", Title: "Live 2026", Dates: []time.Time{testDate}}
	testUser    = &user.User{ID: "user-1", Username: "alice", CreditCard: &user.CreditCard{Token: "tok-1"}}
)

func newServiceWithMocks(cfg ReservationEngineConfig) (*ReservationService, *serviceMocks) {
	m := &serviceMocks{
		txm:             new(MockTxManager),
		tx:              new(MockTx),
		reservationRepo: new(MockReservationRepository),
		seatRepo:        new(MockSeatRepository),
		concertRepo:     new(MockConcertRepository),
		userRepo:        new(MockUserRepository),
		inventory:       new(MockInventory),
	}
	svc := NewReservationService(
		m.txm, m.reservationRepo, m.seatRepo, m.concertRepo, m.userRepo,
		m.inventory, nil, cfg,
	)
	return svc, m
}

func availableSeats(n int) []*seat.Seat {
	seats := make([]*seat.Seat, n)
	for i := 0; i < n; i++ {
		s := seat.NewSeat("concert-1", testDate, "M", i+1, seat.PriceBandC)
		s.ID = s.Label()
		seats[i] = s
	}
	return seats
}

func (m *serviceMocks) expectHappyPathPrelude() {
	m.userRepo.On("GetByID", mock.Anything, "user-1").Return(testUser, nil)
	m.concertRepo.On("GetByID", mock.Anything, "concert-1").Return(testConcert, nil)
	m.inventory.On("EnsureSeats", mock.Anything, "concert-1", testDate).Return(nil)
	m.txm.On("Begin", mock.Anything).Return(m.tx, nil)
	m.tx.On("Commit").Return(nil).Maybe()
	m.tx.On("Rollback").Return(nil).Maybe()
	// 予約前の失効スイープ（期限切れなし）
	m.reservationRepo.On("GetExpiredForUpdate", mock.Anything, m.tx, "concert-1", testDate, mock.Anything).
		Return([]*reservation.Reservation{}, nil)
}

func reserveInput(count int) ReserveInput {
	return ReserveInput{
		UserID:        "user-1",
		ConcertID:     "concert-1",
		ConcertDate:   testDate,
		PriceBand:     seat.PriceBandC,
		NumberOfSeats: count,
	}
}

// === Reserve ===

func TestReservationService_Reserve(t *testing.T) {
	ctx := context.Background()
	cfg := ReservationEngineConfig{ExpiryWindow: 5 * time.Minute, MaxAllocationAttempts: 3}

	t.Run("正常に座席を仮押さえできる", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.expectHappyPathPrelude()
		m.seatRepo.On("GetAvailable", mock.Anything, "concert-1", testDate, seat.PriceBandC).
			Return(availableSeats(5), nil)
		m.seatRepo.On("ReserveSeats", mock.Anything, m.tx, mock.Anything, mock.Anything).Return(nil)
		m.reservationRepo.On("Create", mock.Anything, m.tx, mock.Anything).Return(nil)
		m.inventory.On("InvalidateAvailability", mock.Anything, "concert-1", testDate).Return()

		res, err := svc.Reserve(ctx, reserveInput(2))

		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, reservation.StatusReserved, res.Status)
		assert.Equal(t, 2, res.SeatCount)
		assert.Len(t, res.SeatIDs, 2)
		assert.WithinDuration(t, time.Now().Add(5*time.Minute), res.ExpiresAt, time.Second)
		m.seatRepo.AssertExpectations(t)
		m.reservationRepo.AssertExpectations(t)
	})

	t.Run("確保された座席数はバージョン付きで要求される", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.expectHappyPathPrelude()
		m.seatRepo.On("GetAvailable", mock.Anything, "concert-1", testDate, seat.PriceBandC).
			Return(availableSeats(5), nil)
		var captured []seat.Claim
		m.seatRepo.On("ReserveSeats", mock.Anything, m.tx, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = args.Get(2).([]seat.Claim)
			}).Return(nil)
		m.reservationRepo.On("Create", mock.Anything, m.tx, mock.Anything).Return(nil)
		m.inventory.On("InvalidateAvailability", mock.Anything, "concert-1", testDate).Return()

		_, err := svc.Reserve(ctx, reserveInput(3))

		require.NoError(t, err)
		require.Len(t, captured, 3)
		seen := make(map[string]bool)
		for _, c := range captured {
			assert.Equal(t, 0, c.Version)
			assert.False(t, seen[c.ID])
			seen[c.ID] = true
		}
	})

	t.Run("存在しないユーザーはエラー", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(nil, user.ErrUserNotFound)

		_, err := svc.Reserve(ctx, reserveInput(2))

		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("存在しないコンサートはエラー", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(testUser, nil)
		m.concertRepo.On("GetByID", mock.Anything, "concert-1").Return(nil, concert.ErrConcertNotFound)

		_, err := svc.Reserve(ctx, reserveInput(2))

		assert.ErrorIs(t, err, concert.ErrConcertNotFound)
	})

	t.Run("日程にない公演日時はエラー", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(testUser, nil)
		m.concertRepo.On("GetByID", mock.Anything, "concert-1").Return(testConcert, nil)

		input := reserveInput(2)
		input.ConcertDate = testDate.AddDate(0, 0, 1)
		_, err := svc.Reserve(ctx, input)

		assert.ErrorIs(t, err, concert.ErrDateNotScheduled)
	})

	t.Run("不正な価格帯はエラー", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(testUser, nil)
		m.concertRepo.On("GetByID", mock.Anything, "concert-1").Return(testConcert, nil)

		input := reserveInput(2)
		input.PriceBand = "X"
		_, err := svc.Reserve(ctx, input)

		assert.ErrorIs(t, err, seat.ErrInvalidPriceBand)
	})

	t.Run("空席不足の場合はリトライせず即座に失敗する", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.expectHappyPathPrelude()
		m.seatRepo.On("GetAvailable", mock.Anything, "concert-1", testDate, seat.PriceBandC).
			Return(availableSeats(1), nil).Once()

		_, err := svc.Reserve(ctx, reserveInput(2))

		assert.ErrorIs(t, err, seat.ErrSeatsUnavailable)
		// GetAvailable は1回のみ（リトライなし）
		m.seatRepo.AssertNumberOfCalls(t, "GetAvailable", 1)
	})

	t.Run("楽観的ロック競合後のリトライで成功する", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.expectHappyPathPrelude()
		m.seatRepo.On("GetAvailable", mock.Anything, "concert-1", testDate, seat.PriceBandC).
			Return(availableSeats(5), nil)
		// 1回目は競合、2回目で成功
		m.seatRepo.On("ReserveSeats", mock.Anything, m.tx, mock.Anything, mock.Anything).
			Return(seat.ErrVersionConflict).Once()
		m.seatRepo.On("ReserveSeats", mock.Anything, m.tx, mock.Anything, mock.Anything).
			Return(nil).Once()
		m.reservationRepo.On("Create", mock.Anything, m.tx, mock.Anything).Return(nil)
		m.inventory.On("InvalidateAvailability", mock.Anything, "concert-1", testDate).Return()

		res, err := svc.Reserve(ctx, reserveInput(2))

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusReserved, res.Status)
		m.seatRepo.AssertNumberOfCalls(t, "GetAvailable", 2)
	})

	t.Run("競合が続く場合はリトライ上限で失敗する", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.expectHappyPathPrelude()
		m.seatRepo.On("GetAvailable", mock.Anything, "concert-1", testDate, seat.PriceBandC).
			Return(availableSeats(5), nil)
		m.seatRepo.On("ReserveSeats", mock.Anything, m.tx, mock.Anything, mock.Anything).
			Return(seat.ErrVersionConflict)

		_, err := svc.Reserve(ctx, reserveInput(2))

		assert.ErrorIs(t, err, seat.ErrSeatsUnavailable)
		m.seatRepo.AssertNumberOfCalls(t, "ReserveSeats", cfg.MaxAllocationAttempts)
	})
}

// === Confirm ===

func TestReservationService_Confirm(t *testing.T) {
	ctx := context.Background()
	cfg := ReservationEngineConfig{ExpiryWindow: 5 * time.Minute}

	newReserved := func(window time.Duration) *reservation.Reservation {
		r := reservation.NewReservation("user-1", "concert-1", testDate, seat.PriceBandC, []string{"M-1", "M-2"}, window)
		r.ID = "res-1"
		return r
	}

	t.Run("期限内の予約を確定できる", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		r := newReserved(5 * time.Minute)
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(testUser, nil)
		m.txm.On("Begin", mock.Anything).Return(m.tx, nil)
		m.tx.On("Commit").Return(nil)
		m.reservationRepo.On("GetByIDForUpdate", mock.Anything, m.tx, "res-1").Return(r, nil)
		m.seatRepo.On("ConfirmSeats", mock.Anything, m.tx, []string{"M-1", "M-2"}).Return(nil)
		m.reservationRepo.On("Update", mock.Anything, m.tx, r).Return(nil)

		confirmed, err := svc.Confirm(ctx, "res-1", "user-1")

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusConfirmed, confirmed.Status)
		assert.NotNil(t, confirmed.ConfirmedAt)
		m.seatRepo.AssertExpectations(t)
	})

	t.Run("期限切れの予約は失効し座席が解放される", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		r := newReserved(-time.Minute) // 既に期限切れ
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(testUser, nil)
		m.txm.On("Begin", mock.Anything).Return(m.tx, nil)
		m.tx.On("Commit").Return(nil)
		m.reservationRepo.On("GetByIDForUpdate", mock.Anything, m.tx, "res-1").Return(r, nil)
		m.seatRepo.On("ReleaseSeats", mock.Anything, m.tx, []string{"M-1", "M-2"}).Return(nil)
		m.reservationRepo.On("Update", mock.Anything, m.tx, r).Return(nil)
		m.inventory.On("InvalidateAvailability", mock.Anything, "concert-1", testDate).Return()

		_, err := svc.Confirm(ctx, "res-1", "user-1")

		assert.ErrorIs(t, err, reservation.ErrReservationExpired)
		assert.Equal(t, reservation.StatusExpired, r.Status)
		m.seatRepo.AssertExpectations(t)
	})

	t.Run("支払い方法が未登録の場合は確定できない", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		noCard := &user.User{ID: "user-1", Username: "alice"}
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(noCard, nil)

		_, err := svc.Confirm(ctx, "res-1", "user-1")

		assert.ErrorIs(t, err, user.ErrNoPaymentMethod)
		m.reservationRepo.AssertNotCalled(t, "GetByIDForUpdate")
	})

	t.Run("他ユーザーの予約は確定できない", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		r := newReserved(5 * time.Minute)
		other := &user.User{ID: "user-2", Username: "bob", CreditCard: &user.CreditCard{Token: "tok-2"}}
		m.userRepo.On("GetByID", mock.Anything, "user-2").Return(other, nil)
		m.txm.On("Begin", mock.Anything).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.reservationRepo.On("GetByIDForUpdate", mock.Anything, m.tx, "res-1").Return(r, nil)

		_, err := svc.Confirm(ctx, "res-1", "user-2")

		assert.ErrorIs(t, err, reservation.ErrReservationNotFound)
		assert.Equal(t, reservation.StatusReserved, r.Status)
	})

	t.Run("確定済み予約の再確定はエラー", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		r := newReserved(5 * time.Minute)
		_, err := r.Apply(reservation.EventConfirm, time.Now())
		require.NoError(t, err)
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(testUser, nil)
		m.txm.On("Begin", mock.Anything).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.reservationRepo.On("GetByIDForUpdate", mock.Anything, m.tx, "res-1").Return(r, nil)

		_, err = svc.Confirm(ctx, "res-1", "user-1")

		assert.ErrorIs(t, err, reservation.ErrReservationAlreadyConfirmed)
		m.seatRepo.AssertNotCalled(t, "ConfirmSeats")
	})

	t.Run("存在しない予約はエラー", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(testUser, nil)
		m.txm.On("Begin", mock.Anything).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.reservationRepo.On("GetByIDForUpdate", mock.Anything, m.tx, "missing").
			Return(nil, reservation.ErrReservationNotFound)

		_, err := svc.Confirm(ctx, "missing", "user-1")

		assert.ErrorIs(t, err, reservation.ErrReservationNotFound)
	})
}

// === SweepExpired ===

func TestReservationService_SweepExpired(t *testing.T) {
	ctx := context.Background()
	cfg := ReservationEngineConfig{ExpiryWindow: 5 * time.Minute}

	t.Run("期限切れ予約を失効させ座席を解放する", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		r1 := reservation.NewReservation("user-1", "concert-1", testDate, seat.PriceBandC, []string{"M-1"}, -time.Minute)
		r2 := reservation.NewReservation("user-2", "concert-1", testDate, seat.PriceBandC, []string{"M-2", "M-3"}, -time.Minute)
		m.txm.On("Begin", mock.Anything).Return(m.tx, nil)
		m.tx.On("Commit").Return(nil)
		m.reservationRepo.On("GetExpiredForUpdate", mock.Anything, m.tx, "concert-1", testDate, mock.Anything).
			Return([]*reservation.Reservation{r1, r2}, nil)
		m.seatRepo.On("ReleaseSeats", mock.Anything, m.tx, []string{"M-1"}).Return(nil)
		m.seatRepo.On("ReleaseSeats", mock.Anything, m.tx, []string{"M-2", "M-3"}).Return(nil)
		m.reservationRepo.On("Update", mock.Anything, m.tx, mock.Anything).Return(nil).Times(2)
		m.inventory.On("InvalidateAvailability", mock.Anything, "concert-1", testDate).Return()

		count, err := svc.SweepExpired(ctx, "concert-1", testDate)

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, reservation.StatusExpired, r1.Status)
		assert.Equal(t, reservation.StatusExpired, r2.Status)
		m.seatRepo.AssertExpectations(t)
	})

	t.Run("期限切れ予約がなければ何もしない", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.txm.On("Begin", mock.Anything).Return(m.tx, nil)
		m.tx.On("Commit").Return(nil)
		m.reservationRepo.On("GetExpiredForUpdate", mock.Anything, m.tx, "concert-1", testDate, mock.Anything).
			Return([]*reservation.Reservation{}, nil)

		count, err := svc.SweepExpired(ctx, "concert-1", testDate)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		m.seatRepo.AssertNotCalled(t, "ReleaseSeats")
		m.inventory.AssertNotCalled(t, "InvalidateAvailability")
	})
}

// === ListBookings ===

func TestReservationService_ListBookings(t *testing.T) {
	ctx := context.Background()
	cfg := ReservationEngineConfig{ExpiryWindow: 5 * time.Minute}

	t.Run("確定済み予約のみが返る", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		confirmed := reservation.NewReservation("user-1", "concert-1", testDate, seat.PriceBandC, []string{"M-1"}, 5*time.Minute)
		_, err := confirmed.Apply(reservation.EventConfirm, time.Now())
		require.NoError(t, err)
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(testUser, nil)
		m.reservationRepo.On("GetConfirmedByUser", mock.Anything, "user-1").
			Return([]*reservation.Reservation{confirmed}, nil)

		bookings, err := svc.ListBookings(ctx, "user-1")

		require.NoError(t, err)
		require.Len(t, bookings, 1)
		assert.Equal(t, reservation.StatusConfirmed, bookings[0].Status)
	})

	t.Run("存在しないユーザーはエラー", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		m.userRepo.On("GetByID", mock.Anything, "user-1").Return(nil, user.ErrUserNotFound)

		_, err := svc.ListBookings(ctx, "user-1")

		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

// === ExpireOverdueReservations ===

func TestReservationService_ExpireOverdueReservations(t *testing.T) {
	ctx := context.Background()
	cfg := ReservationEngineConfig{ExpiryWindow: 5 * time.Minute}

	t.Run("全コンサート横断で期限切れ予約を失効させる", func(t *testing.T) {
		svc, m := newServiceWithMocks(cfg)
		r := reservation.NewReservation("user-1", "concert-1", testDate, seat.PriceBandC, []string{"M-1"}, -time.Minute)
		m.txm.On("Begin", mock.Anything).Return(m.tx, nil)
		m.tx.On("Commit").Return(nil)
		m.reservationRepo.On("GetAllExpiredForUpdate", mock.Anything, m.tx, mock.Anything, 100).
			Return([]*reservation.Reservation{r}, nil)
		m.seatRepo.On("ReleaseSeats", mock.Anything, m.tx, []string{"M-1"}).Return(nil)
		m.reservationRepo.On("Update", mock.Anything, m.tx, r).Return(nil)
		m.inventory.On("InvalidateAvailability", mock.Anything, "concert-1", testDate).Return()

		count, err := svc.ExpireOverdueReservations(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, reservation.StatusExpired, r.Status)
	})
}
