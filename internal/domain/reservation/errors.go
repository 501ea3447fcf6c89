package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound         = errors.New("予約が見つかりません")
	ErrReservationExpired          = errors.New("予約の有効期限が切れています")
	ErrReservationAlreadyConfirmed = errors.New("予約は既に確定されています")
	ErrInvalidTransition           = errors.New("不正な状態遷移です")
	ErrUserIDRequired              = errors.New("ユーザーIDは必須です")
	ErrConcertIDRequired           = errors.New("コンサートIDは必須です")
	ErrConcertDateRequired         = errors.New("公演日時は必須です")
	ErrInvalidPriceBand            = errors.New("価格帯が不正です")
	ErrSeatIDsRequired             = errors.New("座席IDは必須です")
	ErrSeatCountMismatch           = errors.New("座席数と座席ID数が一致しません")
)
