package concert

import "errors"

// Concert ドメインのエラー定義
var (
	ErrConcertNotFound  = errors.New("コンサートが見つかりません")
	ErrDateNotScheduled = errors.New("指定日時に公演はありません")
	ErrTitleRequired    = errors.New("タイトルは必須です")
	ErrDatesRequired    = errors.New("公演日程は必須です")
)
