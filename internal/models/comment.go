package models

import (
	"time"
)

// DeletedCommentContent replaces the text of a soft-deleted comment.
const DeletedCommentContent = "[deleted]"

type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	User            User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CommentableType Kind      `gorm:"size:20;not null;index:idx_commentable" json:"commentable_type"`
	CommentableID   uint      `gorm:"not null;index:idx_commentable" json:"commentable_id"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	ParentID        *uint     `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent          *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	IsDeleted       bool      `gorm:"default:false;not null" json:"is_deleted"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *Comment) Ref() Ref {
	return Ref{Kind: c.CommentableType, ID: c.CommentableID}
}
