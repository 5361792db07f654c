package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"parsgolf/internal/models"
	"parsgolf/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SortOrder string

const (
	SortVotes  SortOrder = "votes"
	SortNewest SortOrder = "newest"
	SortName   SortOrder = "name"
	SortRank   SortOrder = "rank" // 仅球员，按世界排名
)

// ParseSort 未知值回落到按票数排序；rank 只对球员有效
func ParseSort(kind models.Kind, s string) SortOrder {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortNewest, SortName:
		return o
	case SortRank:
		if kind == models.KindPlayer {
			return o
		}
	}
	return SortVotes
}

const (
	cacheKeyBrands    = "club:brands"
	cacheKeyClubTypes = "club:types"
	referenceCacheTTL = 10 * time.Minute
)

type ListQuery struct {
	Kind       models.Kind
	Page       int
	PerPage    int
	Sort       SortOrder
	BrandID    *uint // 仅 club
	ClubTypeID *uint // 仅 club
	Pending    bool  // true 时列出待审核条目
}

type Item struct {
	Entity models.Entity
	Tally  Tally
}

type ListResult struct {
	Items   []Item
	Page    int
	PerPage int
	Total   int64
	Pages   int
}

type Detail struct {
	Entity   models.Entity
	Tally    Tally
	UserVote Direction
}

// ClubPatch 编辑球杆，nil 字段保持不变
type ClubPatch struct {
	Name          *string
	Description   *string
	PurchaseLink  *string
	ImageURL      *string
	ReleaseYear   *int
	Price         *float64
	BrandID       *uint
	ClearBrand    bool
	ClubTypeID    *uint
	ClearClubType bool
	IsApproved    *bool
}

type CatalogService struct {
	db    *gorm.DB
	log   *zap.Logger
	cache *utils.GlobalCache
}

func NewCatalogService(db *gorm.DB, log *zap.Logger, cache *utils.GlobalCache) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	if cache == nil {
		cache = utils.GetCache()
	}
	return &CatalogService{db: db, log: log, cache: cache}
}

// List 分页列出条目并附带得分
func (s *CatalogService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	tx := s.db.WithContext(ctx)
	res, err := listEntities(tx, q)
	if err != nil {
		logFailure(s.log, "Failed to list entities", err, 0, models.Ref{Kind: q.Kind})
		return nil, err
	}
	return res, nil
}

func listEntities(tx *gorm.DB, q ListQuery) (*ListResult, error) {
	model, err := models.NewEntity(q.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, q.Kind)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	if q.Sort == "" {
		q.Sort = SortVotes
	}
	table := q.Kind.TableName()

	base := tx.Model(model).Where(table+".is_approved = ?", !q.Pending)
	if q.Kind == models.KindClub {
		if q.BrandID != nil {
			base = base.Where(table+".brand_id = ?", *q.BrandID)
		}
		if q.ClubTypeID != nil {
			base = base.Where(table+".club_type_id = ?", *q.ClubTypeID)
		}
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", table, err)
	}

	page := base.Select(table + ".*")
	switch q.Sort {
	case SortNewest:
		page = page.Order(table + ".created_at DESC").Order(table + ".id DESC")
	case SortName:
		page = page.Order(table + ".name ASC").Order(table + ".id ASC")
	case SortRank:
		page = page.Order(table + ".world_ranking IS NULL").Order(table + ".world_ranking ASC").Order(table + ".id ASC")
	default:
		scores := tx.Model(&models.Vote{}).
			Select("votable_id, SUM(CASE WHEN vote_type THEN 1 ELSE -1 END) AS score").
			Where("votable_type = ?", q.Kind).
			Group("votable_id")
		page = page.Joins("LEFT JOIN (?) AS vs ON vs.votable_id = "+table+".id", scores).
			Order("COALESCE(vs.score, 0) DESC").
			Order(table + ".id ASC")
	}
	page = page.Offset((q.Page - 1) * q.PerPage).Limit(q.PerPage)

	var entities []models.Entity
	switch q.Kind {
	case models.KindClub:
		entities, err = findAll[models.Club](page.Preload("Brand").Preload("ClubType").Preload("Submitter"))
	case models.KindPlayer:
		entities, err = findAll[models.Player](page.Preload("Submitter"))
	case models.KindCourse:
		entities, err = findAll[models.Course](page.Preload("Submitter"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}

	ids := make([]uint, len(entities))
	for i, e := range entities {
		ids[i] = e.Ref().ID
	}
	tallies, err := countVotesBatch(tx, q.Kind, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(entities))
	for i, e := range entities {
		items[i] = Item{Entity: e, Tally: tallies[e.Ref().ID]}
	}
	return &ListResult{
		Items:   items,
		Page:    q.Page,
		PerPage: q.PerPage,
		Total:   total,
		Pages:   int((total + int64(q.PerPage) - 1) / int64(q.PerPage)),
	}, nil
}

func findAll[T any, PT interface {
	*T
	models.Entity
}](q *gorm.DB) ([]models.Entity, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Entity, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, nil
}

// Detail 条目详情，含得分和当前用户的投票。待审核条目只对审核员可见
func (s *CatalogService) Detail(ctx context.Context, ref models.Ref, viewer *models.User) (*Detail, error) {
	tx := s.db.WithContext(ctx)

	e, err := models.NewEntity(ref.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, ref.Kind)
	}
	q := tx.Preload("Submitter")
	switch ref.Kind {
	case models.KindClub:
		q = q.Preload("Brand").Preload("ClubType")
	case models.KindPlayer:
		q = q.Preload("Achievements", func(db *gorm.DB) *gorm.DB {
			return db.Order("year DESC, id ASC")
		})
	case models.KindCourse:
		q = q.Preload("Holes", func(db *gorm.DB) *gorm.DB {
			return db.Order("hole_number ASC")
		})
	}
	if err := q.First(e, ref.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		logFailure(s.log, "Failed to load entity", err, 0, ref)
		return nil, fmt.Errorf("failed to load %s: %w", ref, err)
	}
	if e.Moderation().Pending() && !viewer.IsModerator() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	tally, err := countVotes(tx, ref)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Entity: e, Tally: tally}

	if viewer != nil {
		var vote models.Vote
		err := tx.Where("user_id = ? AND votable_type = ? AND votable_id = ?", viewer.ID, ref.Kind, ref.ID).
			Limit(1).Find(&vote).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load vote: %w", err)
		}
		if vote.ID != 0 {
			detail.UserVote = DirectionDown
			if vote.VoteType {
				detail.UserVote = DirectionUp
			}
		}
	}
	return detail, nil
}

// UpdateClub 审核员编辑球杆；is_approved=true 走审核流程，不支持撤销审核
func (s *CatalogService) UpdateClub(ctx context.Context, id uint, patch ClubPatch, moderator *models.User) (*models.Club, error) {
	if !moderator.IsModerator() {
		return nil, ErrForbidden
	}
	ref := models.Ref{Kind: models.KindClub, ID: id}

	var club models.Club
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&club, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, ref)
			}
			return fmt.Errorf("failed to load %s: %w", ref, err)
		}

		if patch.Name != nil {
			club.Name = *patch.Name
		}
		if patch.Description != nil {
			club.Description = *patch.Description
		}
		if patch.PurchaseLink != nil {
			club.PurchaseLink = *patch.PurchaseLink
		}
		if patch.ImageURL != nil {
			club.ImageURL = *patch.ImageURL
		}
		if patch.ReleaseYear != nil {
			club.ReleaseYear = patch.ReleaseYear
		}
		if patch.Price != nil {
			club.Price = patch.Price
		}
		switch {
		case patch.ClearBrand:
			club.BrandID = nil
		case patch.BrandID != nil:
			club.BrandID = patch.BrandID
		}
		switch {
		case patch.ClearClubType:
			club.ClubTypeID = nil
		case patch.ClubTypeID != nil:
			club.ClubTypeID = patch.ClubTypeID
		}

		if err := validateEntity(tx, &club); err != nil {
			return err
		}

		wasApproved := club.IsApproved
		if err := tx.Omit(clause.Associations, "is_approved", "approved_by", "submitted_by").Save(&club).Error; err != nil {
			return fmt.Errorf("failed to update %s: %w", ref, err)
		}

		if patch.IsApproved != nil {
			switch {
			case *patch.IsApproved && !wasApproved:
				return approveEntity(tx, &club, moderator.ID)
			case !*patch.IsApproved && wasApproved:
				return fmt.Errorf("%w: approval cannot be revoked, delete the club instead", ErrInvalidInput)
			}
		}
		return nil
	})
	if err != nil {
		logFailure(s.log, "Failed to update club", err, moderator.ID, ref)
		return nil, err
	}
	return &club, nil
}

// Brands 品牌列表，带本地缓存
func (s *CatalogService) Brands(ctx context.Context) ([]models.ClubBrand, error) {
	if cached, ok := s.cache.Get(cacheKeyBrands).([]models.ClubBrand); ok {
		return slices.Clone(cached), nil
	}
	var brands []models.ClubBrand
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	s.cache.Set(cacheKeyBrands, slices.Clone(brands), referenceCacheTTL)
	return brands, nil
}

// ClubTypes 球杆类型列表，带本地缓存
func (s *CatalogService) ClubTypes(ctx context.Context) ([]models.ClubType, error) {
	if cached, ok := s.cache.Get(cacheKeyClubTypes).([]models.ClubType); ok {
		return slices.Clone(cached), nil
	}
	var types []models.ClubType
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to list club types: %w", err)
	}
	s.cache.Set(cacheKeyClubTypes, slices.Clone(types), referenceCacheTTL)
	return types, nil
}

func (s *CatalogService) CreateBrand(ctx context.Context, brand *models.ClubBrand, moderator *models.User) error {
	if !moderator.IsModerator() {
		return ErrForbidden
	}
	brand.Name = strings.TrimSpace(brand.Name)
	if brand.Name == "" {
		return fmt.Errorf("%w: brand name is required", ErrInvalidInput)
	}
	if err := s.createUnique(ctx, &models.ClubBrand{}, brand.Name, brand); err != nil {
		return err
	}
	s.cache.Delete(cacheKeyBrands)
	return nil
}

func (s *CatalogService) CreateClubType(ctx context.Context, t *models.ClubType, moderator *models.User) error {
	if !moderator.IsModerator() {
		return ErrForbidden
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("%w: club type name is required", ErrInvalidInput)
	}
	if err := s.createUnique(ctx, &models.ClubType{}, t.Name, t); err != nil {
		return err
	}
	s.cache.Delete(cacheKeyClubTypes)
	return nil
}

func (s *CatalogService) createUnique(ctx context.Context, model interface{}, name string, record interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(model).Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check name: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create %q: %w", name, err)
		}
		return nil
	})
}
