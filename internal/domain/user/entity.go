package user

import "time"

// CreditCard は登録済みの支払い手段を表す
// カード番号等の保管は外部の決済基盤に委ねるため、参照トークンのみを持つ
type CreditCard struct {
	Token        string
	RegisteredAt time.Time
}

// User はユーザーエンティティを表す
type User struct {
	ID         string
	Username   string
	CreditCard *CreditCard
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasPaymentMethod は支払い手段が登録済みかを返す
func (u *User) HasPaymentMethod() bool {
	return u.CreditCard != nil
}
