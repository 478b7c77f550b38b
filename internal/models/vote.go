package models

import (
	"time"
)

// Choice is the side a visitor took. Only ChoiceAgree and ChoiceOppose are valid.
type Choice string

const (
	ChoiceAgree  Choice = "agree"
	ChoiceOppose Choice = "oppose"
)

// ParseChoice accepts exactly "agree" or "oppose".
func ParseChoice(s string) (Choice, bool) {
	switch Choice(s) {
	case ChoiceAgree, ChoiceOppose:
		return Choice(s), true
	}
	return "", false
}

func (c Choice) Valid() bool {
	_, ok := ParseChoice(string(c))
	return ok
}

// Vote is one visitor's answer. IP is the dedup key: the unique index makes a
// second insert for the same address a no-op.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IP        string    `gorm:"not null;uniqueIndex:idx_votes_ip" json:"ip"`
	Choice    Choice    `gorm:"type:text;not null;check:chk_votes_choice,choice IN ('agree','oppose')" json:"choice"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Vote) TableName() string {
	return "votes"
}
