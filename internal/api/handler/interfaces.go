package handler

import (
	"context"
	"time"

	"github.com/maddiebeagley/Concert-Booking-System/internal/application"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/concert"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/reservation"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	Reserve(ctx context.Context, input application.ReserveInput) (*reservation.Reservation, error)
	Confirm(ctx context.Context, reservationID, userID string) (*reservation.Reservation, error)
	ListBookings(ctx context.Context, userID string) ([]*reservation.Reservation, error)
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
}

// ConcertServiceInterface はコンサートサービスのインターフェース
type ConcertServiceInterface interface {
	ListConcerts(ctx context.Context, limit, offset int) ([]*concert.Concert, error)
	GetConcert(ctx context.Context, id string) (*concert.Concert, error)
	GetAvailability(ctx context.Context, concertID string, date time.Time, band seat.PriceBand) (int, error)
}
