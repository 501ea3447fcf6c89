package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound        = errors.New("座席が見つかりません")
	ErrSeatNotAvailable    = errors.New("座席は予約できません")
	ErrSeatNotReserved     = errors.New("座席は予約されていません")
	ErrSeatsUnavailable    = errors.New("要求された数の空席がありません")
	ErrVersionConflict     = errors.New("座席の楽観的ロックが競合しました")
	ErrConcertIDRequired   = errors.New("コンサートIDは必須です")
	ErrConcertDateRequired = errors.New("公演日時は必須です")
	ErrRowRequired         = errors.New("座席の列は必須です")
	ErrInvalidSeatNumber   = errors.New("座席番号は1以上である必要があります")
	ErrInvalidPriceBand    = errors.New("価格帯が不正です")
)
