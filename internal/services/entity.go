package services

import (
	"errors"
	"fmt"
	"strings"

	"parsgolf/internal/models"

	"gorm.io/gorm"
)

func loadEntity(tx *gorm.DB, ref models.Ref) (models.Entity, error) {
	e, err := models.NewEntity(ref.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, ref.Kind)
	}
	if err := tx.First(e, ref.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to load %s: %w", ref, err)
	}
	return e, nil
}

// requireApproved 投票和评论前检查目标存在且已审核
// 不存在时错误同时满足 ErrNotFound 和 ErrNotFoundOrUnapproved
func requireApproved(tx *gorm.DB, ref models.Ref) error {
	if !ref.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, ref.Kind)
	}

	var flags []bool
	err := tx.Table(ref.Kind.TableName()).
		Where("id = ?", ref.ID).
		Limit(1).
		Pluck("is_approved", &flags).Error
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", ref, err)
	}
	if len(flags) == 0 {
		return fmt.Errorf("%w: %w: %s", ErrNotFoundOrUnapproved, ErrNotFound, ref)
	}
	if !flags[0] {
		return fmt.Errorf("%w: cannot use unapproved %s", ErrNotFoundOrUnapproved, ref)
	}
	return nil
}

// validateEntity 提交和编辑时的字段校验
func validateEntity(tx *gorm.DB, e models.Entity) error {
	switch v := e.(type) {
	case *models.Club:
		v.Name = strings.TrimSpace(v.Name)
		if v.Name == "" {
			return fmt.Errorf("%w: club name is required", ErrInvalidInput)
		}
		if v.BrandID != nil {
			if err := exists(tx, &models.ClubBrand{}, *v.BrandID); err != nil {
				return fmt.Errorf("%w: invalid brand ID", err)
			}
		}
		if v.ClubTypeID != nil {
			if err := exists(tx, &models.ClubType{}, *v.ClubTypeID); err != nil {
				return fmt.Errorf("%w: invalid club type ID", err)
			}
		}
	case *models.Player:
		v.Name = strings.TrimSpace(v.Name)
		if v.Name == "" {
			return fmt.Errorf("%w: player name is required", ErrInvalidInput)
		}
	case *models.Course:
		v.Name = strings.TrimSpace(v.Name)
		if v.Name == "" {
			return fmt.Errorf("%w: course name is required", ErrInvalidInput)
		}
		if v.NumHoles == 0 {
			v.NumHoles = 18
		}
		seen := make(map[int]bool, len(v.Holes))
		for _, h := range v.Holes {
			if h.HoleNumber < 1 || h.HoleNumber > v.NumHoles || seen[h.HoleNumber] {
				return fmt.Errorf("%w: invalid hole number %d", ErrInvalidInput, h.HoleNumber)
			}
			seen[h.HoleNumber] = true
		}
	default:
		return fmt.Errorf("%w: %T", ErrInvalidKind, e)
	}
	return nil
}

func exists(tx *gorm.DB, model interface{}, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrInvalidInput
	}
	return nil
}
