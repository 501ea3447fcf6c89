package concert

import "time"

// Concert はコンサートエンティティを表す
// 公演日時の集合を持ち、予約は必ずそのいずれかの日時に対して行われる
type Concert struct {
	ID        string
	Title     string
	Dates     []time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConcert は新しいコンサートを作成する
func NewConcert(title string, dates []time.Time) *Concert {
	now := time.Now()
	normalized := make([]time.Time, len(dates))
	for i, d := range dates {
		normalized[i] = d.UTC()
	}
	return &Concert{
		Title:     title,
		Dates:     normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasDate は指定日時が公演日程に含まれるかを返す
func (c *Concert) HasDate(date time.Time) bool {
	for _, d := range c.Dates {
		if d.Equal(date) {
			return true
		}
	}
	return false
}

// Validate はコンサートの検証を行う
func (c *Concert) Validate() error {
	if c.Title == "" {
		return ErrTitleRequired
	}
	if len(c.Dates) == 0 {
		return ErrDatesRequired
	}
	return nil
}
