package reservation

// Event は予約の状態遷移イベントを表す
type Event string

const (
	// EventConfirm は期限内の確定操作
	EventConfirm Event = "confirm"
	// EventExpire は期限切れによる失効（スイープまたは確定時の期限判定）
	EventExpire Event = "expire"
)

// SeatEffect は状態遷移に伴う座席への副作用を表す
// 副作用はデータとして返し、台帳（サービス層）が同一トランザクション内で実行する
type SeatEffect string

const (
	SeatEffectNone    SeatEffect = "none"
	SeatEffectConfirm SeatEffect = "confirm"
	SeatEffectRelease SeatEffect = "release"
)

// Transition は予約の状態遷移表
// reserved からは confirmed / expired のどちらかへ一方向に進み、両者は終端状態
// 終端状態への同一イベントの再適用は冪等（副作用なし）
func Transition(current Status, ev Event) (Status, SeatEffect, error) {
	switch current {
	case StatusReserved:
		switch ev {
		case EventConfirm:
			return StatusConfirmed, SeatEffectConfirm, nil
		case EventExpire:
			return StatusExpired, SeatEffectRelease, nil
		}
	case StatusConfirmed:
		switch ev {
		case EventConfirm:
			return StatusConfirmed, SeatEffectNone, ErrReservationAlreadyConfirmed
		case EventExpire:
			// 確定済み予約は失効しない
			return StatusConfirmed, SeatEffectNone, nil
		}
	case StatusExpired:
		switch ev {
		case EventConfirm:
			// 失効済み予約の確定は副作用なしで再度失効を報告する
			return StatusExpired, SeatEffectNone, ErrReservationExpired
		case EventExpire:
			return StatusExpired, SeatEffectNone, nil
		}
	}
	return current, SeatEffectNone, ErrInvalidTransition
}
