package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parsgolf/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Thread 一条顶层评论及其回复（只有两层）
type Thread struct {
	models.Comment
	Replies []models.Comment
}

type CommentService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCommentService(db *gorm.DB, log *zap.Logger) *CommentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentService{db: db, log: log}
}

// AddComment 发表评论或回复。回复只能挂在同一条目的未删除顶层评论下
func (s *CommentService) AddComment(ctx context.Context, userID uint, ref models.Ref, content string, parentID *uint) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireApproved(tx, ref); err != nil {
			return err
		}

		if parentID != nil {
			var parent models.Comment
			if err := tx.First(&parent, *parentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: parent %d does not exist", ErrInvalidParent, *parentID)
				}
				return fmt.Errorf("failed to load parent comment: %w", err)
			}
			if parent.Ref() != ref {
				return fmt.Errorf("%w: parent %d belongs to %s", ErrInvalidParent, parent.ID, parent.Ref())
			}
			if parent.ParentID != nil {
				return fmt.Errorf("%w: parent %d is a reply", ErrInvalidParent, parent.ID)
			}
			if parent.IsDeleted {
				return fmt.Errorf("%w: parent %d is deleted", ErrInvalidParent, parent.ID)
			}
		}

		comment = models.Comment{
			UserID:          userID,
			CommentableType: ref.Kind,
			CommentableID:   ref.ID,
			Content:         content,
			ParentID:        parentID,
		}
		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return tx.Preload("User").First(&comment, comment.ID).Error
	})
	if err != nil {
		logFailure(s.log, "Failed to add comment", err, userID, ref)
		return nil, err
	}
	return &comment, nil
}

// UpdateComment 作者或审核员可以修改，已删除的评论不可再改
func (s *CommentService) UpdateComment(ctx context.Context, commentID uint, user *models.User, content string) (*models.Comment, error) {
	if user == nil {
		return nil, ErrForbidden
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadEditable(tx, commentID, user, &comment); err != nil {
			return err
		}
		if comment.IsDeleted {
			return fmt.Errorf("%w: comment %d is deleted", ErrNotFound, commentID)
		}
		if err := tx.Model(&comment).Update("content", content).Error; err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}
		return tx.Preload("User").First(&comment, comment.ID).Error
	})
	if err != nil {
		logFailure(s.log, "Failed to update comment", err, user.ID, comment.Ref())
		return nil, err
	}
	return &comment, nil
}

// DeleteComment 软删除：打标记并替换内容，行和作者保留。重复删除直接返回成功
func (s *CommentService) DeleteComment(ctx context.Context, commentID uint, user *models.User) error {
	if user == nil {
		return ErrForbidden
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadEditable(tx, commentID, user, &comment); err != nil {
			return err
		}
		if comment.IsDeleted {
			return nil
		}
		err := tx.Model(&comment).Updates(map[string]interface{}{
			"is_deleted": true,
			"content":    models.DeletedCommentContent,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure(s.log, "Failed to delete comment", err, user.ID, comment.Ref())
		return err
	}
	return nil
}

func (s *CommentService) loadEditable(tx *gorm.DB, commentID uint, user *models.User, comment *models.Comment) error {
	if err := tx.First(comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
		}
		return fmt.Errorf("failed to load comment: %w", err)
	}
	if comment.UserID != user.ID && !user.IsModerator() {
		return fmt.Errorf("%w: comment %d belongs to another user", ErrForbidden, commentID)
	}
	return nil
}

// ListComments 顶层评论按时间倒序，回复按时间正序。
// 已删除的回复不返回；已删除的顶层评论只在还有回复时以占位内容保留
func (s *CommentService) ListComments(ctx context.Context, ref models.Ref) ([]Thread, error) {
	if !ref.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, ref.Kind)
	}

	var all []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("commentable_type = ? AND commentable_id = ?", ref.Kind, ref.ID).
		Order("created_at ASC, id ASC").
		Find(&all).Error
	if err != nil {
		logFailure(s.log, "Failed to list comments", err, 0, ref)
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	replies := make(map[uint][]models.Comment)
	var roots []models.Comment
	for _, c := range all {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if !c.IsDeleted {
			replies[*c.ParentID] = append(replies[*c.ParentID], c)
		}
	}

	threads := make([]Thread, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		root := roots[i]
		rs := replies[root.ID]
		if root.IsDeleted && len(rs) == 0 {
			continue
		}
		if rs == nil {
			rs = []models.Comment{}
		}
		threads = append(threads, Thread{Comment: root, Replies: rs})
	}
	return threads, nil
}

// purgeComments 条目删除时物理删除其全部评论，先删回复再删顶层
func purgeComments(tx *gorm.DB, ref models.Ref) error {
	where := tx.Where("commentable_type = ? AND commentable_id = ?", ref.Kind, ref.ID)
	if err := where.Session(&gorm.Session{}).Where("parent_id IS NOT NULL").Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("failed to purge replies for %s: %w", ref, err)
	}
	if err := where.Session(&gorm.Session{}).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("failed to purge comments for %s: %w", ref, err)
	}
	return nil
}
