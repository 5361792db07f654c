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

// Direction 投票方向，None 表示撤销
type Direction int8

const (
	DirectionNone Direction = iota
	DirectionUp
	DirectionDown
)

// ParseDirection 解析 vote_type："up" / "down" / null
func ParseDirection(s *string) (Direction, error) {
	if s == nil {
		return DirectionNone, nil
	}
	switch strings.ToLower(strings.TrimSpace(*s)) {
	case "up":
		return DirectionUp, nil
	case "down":
		return DirectionDown, nil
	}
	return DirectionNone, fmt.Errorf("%w: %q", ErrInvalidVoteDirection, *s)
}

func (d Direction) Valid() bool {
	return d >= DirectionNone && d <= DirectionDown
}

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	}
	return ""
}

// Ptr 返回 JSON 用的 "up"/"down"，None 为 nil
func (d Direction) Ptr() *string {
	if d == DirectionNone {
		return nil
	}
	s := d.String()
	return &s
}

// Tally 分数实时统计，不落库
type Tally struct {
	Score     int64 `json:"vote_score"`
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

func newTally(up, down int64) Tally {
	return Tally{Score: up - down, Upvotes: up, Downvotes: down}
}

type VoteService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewVoteService(db *gorm.DB, log *zap.Logger) *VoteService {
	if log == nil {
		log = zap.NewNop()
	}
	return &VoteService{db: db, log: log}
}

// CastVote 投票 / 改票 / 撤票，返回重新统计后的分数
func (s *VoteService) CastVote(ctx context.Context, userID uint, ref models.Ref, dir Direction) (Tally, error) {
	if !ref.Kind.Valid() {
		return Tally{}, fmt.Errorf("%w: %q", ErrInvalidKind, ref.Kind)
	}
	if !dir.Valid() {
		return Tally{}, ErrInvalidVoteDirection
	}

	var tally Tally
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireApproved(tx, ref); err != nil {
			return err
		}

		if dir == DirectionNone {
			// 没有投过票时删除 0 行，同样视为成功
			err := tx.Where("user_id = ? AND votable_type = ? AND votable_id = ?", userID, ref.Kind, ref.ID).
				Delete(&models.Vote{}).Error
			if err != nil {
				return fmt.Errorf("failed to remove vote: %w", err)
			}
		} else {
			vote := models.Vote{
				UserID:      userID,
				VotableType: ref.Kind,
				VotableID:   ref.ID,
				VoteType:    dir == DirectionUp,
			}
			// 并发的首次投票由唯一索引收敛为一行
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "user_id"}, {Name: "votable_type"}, {Name: "votable_id"},
				},
				DoUpdates: clause.AssignmentColumns([]string{"vote_type", "updated_at"}),
			}).Create(&vote).Error
			if err != nil {
				return fmt.Errorf("failed to save vote: %w", err)
			}
		}

		t, err := countVotes(tx, ref)
		if err != nil {
			return err
		}
		tally = t
		return nil
	})
	if err != nil {
		logFailure(s.log, "Failed to cast vote", err, userID, ref)
		return Tally{}, err
	}
	return tally, nil
}

// Tally 统计单个条目的得分
func (s *VoteService) Tally(ctx context.Context, ref models.Ref) (Tally, error) {
	return countVotes(s.db.WithContext(ctx), ref)
}

// UserVote 当前用户对条目的投票方向，没投过返回 DirectionNone
func (s *VoteService) UserVote(ctx context.Context, userID uint, ref models.Ref) (Direction, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND votable_type = ? AND votable_id = ?", userID, ref.Kind, ref.ID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DirectionNone, nil
	}
	if err != nil {
		return DirectionNone, fmt.Errorf("failed to load vote: %w", err)
	}
	if vote.VoteType {
		return DirectionUp, nil
	}
	return DirectionDown, nil
}

// Tallies 批量统计同一类型多个条目的得分，用一次分组查询
func (s *VoteService) Tallies(ctx context.Context, kind models.Kind, ids []uint) (map[uint]Tally, error) {
	return countVotesBatch(s.db.WithContext(ctx), kind, ids)
}

func countVotes(tx *gorm.DB, ref models.Ref) (Tally, error) {
	var up, down int64
	base := tx.Model(&models.Vote{}).Where("votable_type = ? AND votable_id = ?", ref.Kind, ref.ID)
	if err := base.Session(&gorm.Session{}).Where("vote_type = ?", true).Count(&up).Error; err != nil {
		return Tally{}, fmt.Errorf("failed to count upvotes: %w", err)
	}
	if err := base.Session(&gorm.Session{}).Where("vote_type = ?", false).Count(&down).Error; err != nil {
		return Tally{}, fmt.Errorf("failed to count downvotes: %w", err)
	}
	return newTally(up, down), nil
}

func countVotesBatch(tx *gorm.DB, kind models.Kind, ids []uint) (map[uint]Tally, error) {
	result := make(map[uint]Tally, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	type row struct {
		VotableID uint
		Up        int64
		Down      int64
	}
	var rows []row
	err := tx.Model(&models.Vote{}).
		Select("votable_id, SUM(CASE WHEN vote_type THEN 1 ELSE 0 END) AS up, SUM(CASE WHEN vote_type THEN 0 ELSE 1 END) AS down").
		Where("votable_type = ? AND votable_id IN ?", kind, ids).
		Group("votable_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	for _, id := range ids {
		result[id] = Tally{}
	}
	for _, r := range rows {
		result[r.VotableID] = newTally(r.Up, r.Down)
	}
	return result, nil
}

// purgeVotes 删除条目的全部投票，条目被删除时调用
func purgeVotes(tx *gorm.DB, ref models.Ref) error {
	err := tx.Where("votable_type = ? AND votable_id = ?", ref.Kind, ref.ID).Delete(&models.Vote{}).Error
	if err != nil {
		return fmt.Errorf("failed to purge votes for %s: %w", ref, err)
	}
	return nil
}
