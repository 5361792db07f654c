package services

import (
	"context"
	"fmt"

	"parsgolf/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ModerationService 审核流程：Pending -> Approved，单向。驳回即删除
type ModerationService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewModerationService(db *gorm.DB, log *zap.Logger) *ModerationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModerationService{db: db, log: log}
}

// Submit 保存新提交的条目。审核员提交的直接通过，approved_by 为本人
func (s *ModerationService) Submit(ctx context.Context, e models.Entity, submitter *models.User) error {
	if submitter == nil {
		return ErrForbidden
	}

	a := e.Moderation()
	a.SubmittedBy = &submitter.ID
	a.IsApproved = false
	a.ApprovedBy = nil
	if submitter.IsModerator() {
		a.Approve(submitter.ID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateEntity(tx, e); err != nil {
			return err
		}
		if err := tx.Omit("Brand", "ClubType", "Submitter").Create(e).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", e.Ref().Kind, err)
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.log.Error("Failed to submit entity", zap.Error(err), zap.Uint("user_id", submitter.ID))
		}
		return err
	}

	ref := e.Ref()
	s.log.Info("Entity submitted",
		zap.String("kind", ref.Kind.String()),
		zap.Uint("id", ref.ID),
		zap.Uint("user_id", submitter.ID),
		zap.Bool("auto_approved", a.IsApproved))
	return nil
}

// Approve 审核通过，已通过的返回 ErrAlreadyApproved
func (s *ModerationService) Approve(ctx context.Context, ref models.Ref, moderator *models.User) (models.Entity, error) {
	if !moderator.IsModerator() {
		return nil, ErrForbidden
	}

	var e models.Entity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, err := loadEntity(tx, ref)
		if err != nil {
			return err
		}
		e = loaded
		return approveEntity(tx, e, moderator.ID)
	})
	if err != nil {
		logFailure(s.log, "Failed to approve entity", err, moderator.ID, ref)
		return nil, err
	}

	s.log.Info("Entity approved",
		zap.String("kind", ref.Kind.String()),
		zap.Uint("id", ref.ID),
		zap.Uint("user_id", moderator.ID))
	return e, nil
}

// Queue 待审核队列，按提交时间倒序
func (s *ModerationService) Queue(ctx context.Context, kind models.Kind, page, perPage int, moderator *models.User) (*ListResult, error) {
	if !moderator.IsModerator() {
		return nil, ErrForbidden
	}
	res, err := listEntities(s.db.WithContext(ctx), ListQuery{
		Kind:    kind,
		Page:    page,
		PerPage: perPage,
		Sort:    SortNewest,
		Pending: true,
	})
	if err != nil {
		logFailure(s.log, "Failed to load approval queue", err, moderator.ID, models.Ref{Kind: kind})
		return nil, err
	}
	return res, nil
}

// approveEntity 条件更新 is_approved = false 的行，并发审核只有一个成功
func approveEntity(tx *gorm.DB, e models.Entity, moderatorID uint) error {
	ref := e.Ref()
	if e.Moderation().IsApproved {
		return fmt.Errorf("%w: %s", ErrAlreadyApproved, ref)
	}

	res := tx.Table(ref.Kind.TableName()).
		Where("id = ? AND is_approved = ?", ref.ID, false).
		Updates(map[string]interface{}{
			"is_approved": true,
			"approved_by": moderatorID,
			"updated_at":  tx.NowFunc(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to approve %s: %w", ref, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyApproved, ref)
	}
	e.Moderation().Approve(moderatorID)
	return nil
}

// Delete 删除条目及其投票、评论和子记录，在同一事务内完成
func (s *ModerationService) Delete(ctx context.Context, ref models.Ref, moderator *models.User) error {
	if !moderator.IsModerator() {
		return ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := loadEntity(tx, ref)
		if err != nil {
			return err
		}
		if err := purgeVotes(tx, ref); err != nil {
			return err
		}
		if err := purgeComments(tx, ref); err != nil {
			return err
		}
		if err := purgeChildren(tx, ref); err != nil {
			return err
		}
		if err := tx.Delete(e).Error; err != nil {
			return fmt.Errorf("failed to delete %s: %w", ref, err)
		}
		return nil
	})
	if err != nil {
		logFailure(s.log, "Failed to delete entity", err, moderator.ID, ref)
		return err
	}

	s.log.Info("Entity deleted",
		zap.String("kind", ref.Kind.String()),
		zap.Uint("id", ref.ID),
		zap.Uint("user_id", moderator.ID))
	return nil
}

func purgeChildren(tx *gorm.DB, ref models.Ref) error {
	var err error
	switch ref.Kind {
	case models.KindPlayer:
		err = tx.Where("player_id = ?", ref.ID).Delete(&models.PlayerAchievement{}).Error
	case models.KindCourse:
		err = tx.Where("course_id = ?", ref.ID).Delete(&models.CourseHole{}).Error
	}
	if err != nil {
		return fmt.Errorf("failed to purge children of %s: %w", ref, err)
	}
	return nil
}
