// Package rabbitmq は確定済み予約のイベントを booking.confirmed キューへ発行する
// 通知の配信自体は外部のコンシューマーの責務とする
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const bookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent は予約確定イベントのペイロード
type BookingConfirmedEvent struct {
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	ConcertID     string    `json:"concert_id"`
	ConcertDate   time.Time `json:"concert_date"`
	PriceBand     string    `json:"price_band"`
	SeatCount     int       `json:"seat_count"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// Publisher はRabbitMQへのイベント発行を管理する
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher はブローカーへ接続し、耐久キューを宣言する
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャネル作成に失敗しました: %w", err)
	}
	if _, err := ch.QueueDeclare(bookingConfirmedQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("キュー宣言に失敗しました: %w", err)
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

// PublishBookingConfirmed は予約確定イベントを発行する
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", bookingConfirmedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}
	return nil
}

// Close はチャネルと接続を閉じる
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
