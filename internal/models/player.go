package models

import (
	"time"
)

type Player struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:128;index;not null" json:"name"`
	ProfilePicture  string     `gorm:"size:255" json:"profile_picture"`
	Country         string     `gorm:"size:64" json:"country"`
	Birthdate       *time.Time `json:"birthdate"`
	TurnedPro       *int       `json:"turned_pro"` // 转职业年份
	Bio             string     `gorm:"type:text" json:"bio"`
	Website         string     `gorm:"size:255" json:"website"`
	TwitterHandle   string     `gorm:"size:64" json:"twitter_handle"`
	InstagramHandle string     `gorm:"size:64" json:"instagram_handle"`
	WorldRanking    *int       `gorm:"index" json:"world_ranking"`
	UserAccountID   *uint      `gorm:"index" json:"user_account_id"` // 球员本人的账号（如有）
	Approval        `gorm:"embedded"`
	Submitter       *User               `gorm:"foreignKey:SubmittedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Achievements    []PlayerAchievement `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"achievements,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (p *Player) Ref() Ref              { return Ref{Kind: KindPlayer, ID: p.ID} }
func (p *Player) Moderation() *Approval { return &p.Approval }

// Age returns the player's age on the given day, or nil without a birthdate.
func (p *Player) Age(now time.Time) *int {
	if p.Birthdate == nil {
		return nil
	}
	b := *p.Birthdate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return &age
}

// PlayerAchievement 球员成就（赛事冠军、奖项等）
type PlayerAchievement struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PlayerID    uint   `gorm:"not null;index" json:"player_id"`
	Title       string `gorm:"size:128;not null" json:"title"`
	Year        int    `json:"year"`
	Description string `gorm:"type:text" json:"description"`
}
