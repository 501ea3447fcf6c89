// Package venue は会場の座席レイアウト（価格帯ごとの列と席数）を提供する
package venue

import "github.com/maddiebeagley/Concert-Booking-System/internal/domain/seat"

// RowSpec は1列分の座席定義を表す
type RowSpec struct {
	Row   string
	Seats int
}

// Layout は会場の座席レイアウトを表す
// 価格帯ごとに、どの列に何席あるかを定義する
type Layout struct {
	bands map[seat.PriceBand][]RowSpec
}

// NewLayout は価格帯ごとの列定義からレイアウトを作成する
func NewLayout(bands map[seat.PriceBand][]RowSpec) *Layout {
	copied := make(map[seat.PriceBand][]RowSpec, len(bands))
	for band, rows := range bands {
		copied[band] = append([]RowSpec(nil), rows...)
	}
	return &Layout{bands: copied}
}

// DefaultTheatre は標準的な劇場レイアウトを返す
// 前方A帯・中央B帯・後方C帯の3価格帯構成
func DefaultTheatre() *Layout {
	return NewLayout(map[seat.PriceBand][]RowSpec{
		seat.PriceBandA: {
			{Row: "A", Seats: 20}, {Row: "B", Seats: 20}, {Row: "C", Seats: 20},
			{Row: "D", Seats: 20}, {Row: "E", Seats: 20},
		},
		seat.PriceBandB: {
			{Row: "F", Seats: 18}, {Row: "G", Seats: 18}, {Row: "H", Seats: 18},
			{Row: "J", Seats: 18}, {Row: "K", Seats: 18}, {Row: "L", Seats: 18},
		},
		seat.PriceBandC: {
			{Row: "M", Seats: 16}, {Row: "N", Seats: 16}, {Row: "O", Seats: 16},
			{Row: "P", Seats: 16},
		},
	})
}

// Rows は価格帯の列定義を返す
func (l *Layout) Rows(band seat.PriceBand) []RowSpec {
	return l.bands[band]
}

// SeatsForBand は価格帯の座席数を返す
func (l *Layout) SeatsForBand(band seat.PriceBand) int {
	total := 0
	for _, row := range l.bands[band] {
		total += row.Seats
	}
	return total
}

// TotalSeats は全価格帯の座席総数を返す
func (l *Layout) TotalSeats() int {
	total := 0
	for _, band := range seat.Bands() {
		total += l.SeatsForBand(band)
	}
	return total
}
