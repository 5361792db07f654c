package models

import (
	"time"
)

// Vote 多态投票：一个用户对同一个 (votable_type, votable_id) 只能有一票
type Vote struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:unique_user_vote" json:"user_id"`
	VotableType Kind      `gorm:"size:20;not null;uniqueIndex:unique_user_vote;index:idx_votable" json:"votable_type"`
	VotableID   uint      `gorm:"not null;uniqueIndex:unique_user_vote;index:idx_votable" json:"votable_id"`
	VoteType    bool      `gorm:"not null" json:"vote_type"` // true 赞, false 踩
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (v *Vote) Ref() Ref {
	return Ref{Kind: v.VotableType, ID: v.VotableID}
}
