package reservation

import (
	"context"
	"time"

	"github.com/maddiebeagley/Concert-Booking-System/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// 座席の確保と同一トランザクション内で呼び出すこと
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByIDForUpdate はIDから予約を行ロック付きで取得する（トランザクション必須）
	// 確定と失効スイープの競合を直列化するために使用する
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Reservation, error)

	// GetConfirmedByUser はユーザーの確定済み予約（ブッキング）一覧を取得する
	GetConfirmedByUser(ctx context.Context, userID string) ([]*Reservation, error)

	// Update は予約の状態を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetExpiredForUpdate はコンサート公演の期限切れ未確定予約を行ロック付きで取得する
	GetExpiredForUpdate(ctx context.Context, tx transaction.Tx, concertID string, date time.Time, asOf time.Time) ([]*Reservation, error)

	// GetAllExpiredForUpdate は全コンサートの期限切れ未確定予約を行ロック付きで取得する
	// バックグラウンドの失効ワーカーが使用する
	GetAllExpiredForUpdate(ctx context.Context, tx transaction.Tx, asOf time.Time, limit int) ([]*Reservation, error)
}
