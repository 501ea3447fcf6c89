package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/maddiebeagley/Concert-Booking-System/internal/api/middleware"
	"github.com/maddiebeagley/Concert-Booking-System/internal/application"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/concert"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/reservation"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/user"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type ReserveRequest struct {
	ConcertID     string    `json:"concert_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	ConcertDate   time.Time `json:"concert_date" validate:"required" example:"2026-09-01T20:00:00Z"`
	PriceBand     string    `json:"price_band" validate:"required,oneof=A B C" example:"C"`
	NumberOfSeats int       `json:"number_of_seats" validate:"required,min=1" example:"2"`
}

type ReservationResponse struct {
	ID          string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ConcertID   string     `json:"concert_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ConcertDate time.Time  `json:"concert_date"`
	UserID      string     `json:"user_id" example:"user-123"`
	PriceBand   string     `json:"price_band" example:"C"`
	SeatIDs     []string   `json:"seat_ids"`
	SeatCount   int        `json:"seat_count" example:"2"`
	Status      string     `json:"status" example:"reserved"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, ConcertID: r.ConcertID, ConcertDate: r.ConcertDate,
		UserID: r.UserID, PriceBand: string(r.PriceBand),
		SeatIDs: r.SeatIDs, SeatCount: r.SeatCount, Status: string(r.Status),
		ExpiresAt: r.ExpiresAt, ConfirmedAt: r.ConfirmedAt, CreatedAt: r.CreatedAt,
	}
}

// Reserve godoc
// @Summary 座席を仮押さえ
// @Description 同一価格帯の座席をまとめて仮押さえします。期限内に確定しないと失効します
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body ReserveRequest true "予約リクエスト"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string "コンサートが存在しない"
// @Failure 409 {object} map[string]string "空席が不足"
// @Security BearerAuth
// @Router /reservations [post]
func (h *ReservationHandler) Reserve(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}
	var req ReserveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.Reserve(c.Request().Context(), application.ReserveInput{
		UserID:        userID,
		ConcertID:     req.ConcertID,
		ConcertDate:   req.ConcertDate,
		PriceBand:     seat.PriceBand(req.PriceBand),
		NumberOfSeats: req.NumberOfSeats,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, concert.ErrConcertNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, concert.ErrDateNotScheduled),
			errors.Is(err, seat.ErrInvalidPriceBand):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, seat.ErrSeatsUnavailable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// Confirm godoc
// @Summary 予約を確定
// @Description 仮押さえ中の予約を確定します。期限切れの場合は座席が解放されます
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 401 {object} map[string]string
// @Failure 402 {object} map[string]string "支払い方法が未登録"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "既に確定済み"
// @Failure 410 {object} map[string]string "予約が失効"
// @Security BearerAuth
// @Router /reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}
	id := c.Param("id")
	r, err := h.service.Confirm(c.Request().Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, user.ErrNoPaymentMethod):
			return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())
		case errors.Is(err, reservation.ErrReservationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, reservation.ErrReservationAlreadyConfirmed):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, reservation.ErrReservationExpired):
			return echo.NewHTTPError(http.StatusGone, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// ListBookings godoc
// @Summary 確定済み予約の一覧を取得
// @Description ログインユーザーの確定済み予約（ブッキング）の一覧を取得します
// @Tags reservations
// @Produce json
// @Success 200 {array} ReservationResponse
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /bookings [get]
func (h *ReservationHandler) ListBookings(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}
	bookings, err := h.service.ListBookings(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]ReservationResponse, len(bookings))
	for i, r := range bookings {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// 他ユーザーの予約は存在を伏せる
	if r.UserID != userID {
		return echo.NewHTTPError(http.StatusNotFound, reservation.ErrReservationNotFound.Error())
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}
