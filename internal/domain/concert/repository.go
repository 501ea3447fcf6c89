package concert

import "context"

// Repository はコンサートリポジトリのインターフェース
// カタログのCRUDは本システムの範囲外のため、読み取りと初期投入のみを提供する
type Repository interface {
	// Create は新しいコンサートを作成する（シード用）
	Create(ctx context.Context, concert *Concert) error

	// GetByID はIDからコンサートを取得する（公演日程を含む）
	GetByID(ctx context.Context, id string) (*Concert, error)

	// List はコンサート一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Concert, error)
}
