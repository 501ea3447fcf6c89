package user

import "errors"

// User ドメインのエラー定義
var (
	ErrUserNotFound    = errors.New("ユーザーが見つかりません")
	ErrNoPaymentMethod = errors.New("支払い手段が登録されていません")
)
