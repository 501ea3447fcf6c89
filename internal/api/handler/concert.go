package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/concert"
	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"
)

type ConcertHandler struct {
	service ConcertServiceInterface
}

func NewConcertHandler(s ConcertServiceInterface) *ConcertHandler {
	return &ConcertHandler{service: s}
}

type ConcertResponse struct {
	ID    string      `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title string      `json:"title" example:"Symphony Under the Stars"`
	Dates []time.Time `json:"dates"`
}

func toConcertResponse(c *concert.Concert) ConcertResponse {
	return ConcertResponse{ID: c.ID, Title: c.Title, Dates: c.Dates}
}

type AvailabilityResponse struct {
	ConcertID      string    `json:"concert_id"`
	ConcertDate    time.Time `json:"concert_date"`
	PriceBand      string    `json:"price_band" example:"C"`
	AvailableSeats int       `json:"available_seats" example:"64"`
}

// List godoc
// @Summary コンサート一覧を取得
// @Tags concerts
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ConcertResponse
// @Router /concerts [get]
func (h *ConcertHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	concerts, err := h.service.ListConcerts(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]ConcertResponse, len(concerts))
	for i, con := range concerts {
		resp[i] = toConcertResponse(con)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary コンサートを取得
// @Tags concerts
// @Produce json
// @Param id path string true "コンサートID"
// @Success 200 {object} ConcertResponse
// @Failure 404 {object} map[string]string
// @Router /concerts/{id} [get]
func (h *ConcertHandler) GetByID(c echo.Context) error {
	con, err := h.service.GetConcert(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, concert.ErrConcertNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toConcertResponse(con))
}

// GetAvailability godoc
// @Summary 空席数を取得
// @Description コンサート公演・価格帯の空席数を取得します
// @Tags concerts
// @Produce json
// @Param id path string true "コンサートID"
// @Param date query string true "公演日時 (RFC3339)"
// @Param price_band query string true "価格帯 (A/B/C)"
// @Success 200 {object} AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /concerts/{id}/availability [get]
func (h *ConcertHandler) GetAvailability(c echo.Context) error {
	id := c.Param("id")
	date, err := time.Parse(time.RFC3339, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "公演日時はRFC3339形式で指定してください")
	}
	band := seat.PriceBand(c.QueryParam("price_band"))

	count, err := h.service.GetAvailability(c.Request().Context(), id, date, band)
	if err != nil {
		switch {
		case errors.Is(err, concert.ErrConcertNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, concert.ErrDateNotScheduled),
			errors.Is(err, seat.ErrInvalidPriceBand):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{
		ConcertID:      id,
		ConcertDate:    date,
		PriceBand:      string(band),
		AvailableSeats: count,
	})
}
