package user

import "context"

// Repository はユーザーリポジトリのインターフェース
// トークンの発行・失効は認証基盤の責務のため、ここでは参照のみを提供する
type Repository interface {
	// GetByID はIDからユーザーを取得する
	GetByID(ctx context.Context, id string) (*User, error)
}
