package models

import (
	"time"
)

// ClubType 球杆类型 (Driver, Putter, Iron ...)
type ClubType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

// ClubBrand 球杆品牌
type ClubBrand struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	LogoURL string `gorm:"size:255" json:"logo_url"`
	Website string `gorm:"size:255" json:"website"`
}

type Club struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:128;index;not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	PurchaseLink string     `gorm:"size:255" json:"purchase_link"`
	ImageURL     string     `gorm:"size:255" json:"image_url"`
	ReleaseYear  *int       `json:"release_year"`
	Price        *float64   `json:"price"`
	BrandID      *uint      `gorm:"index" json:"brand_id"`
	Brand        *ClubBrand `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"brand,omitempty"`
	ClubTypeID   *uint      `gorm:"index" json:"club_type_id"`
	ClubType     *ClubType  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"type,omitempty"`
	Approval     `gorm:"embedded"`
	Submitter    *User     `gorm:"foreignKey:SubmittedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Club) Ref() Ref              { return Ref{Kind: KindClub, ID: c.ID} }
func (c *Club) Moderation() *Approval { return &c.Approval }

// DefaultClubTypes 初始球杆类型，init-db 时写入
var DefaultClubTypes = []ClubType{
	{Name: "Driver", Description: "Used for long-distance tee shots"},
	{Name: "Fairway Wood", Description: "Used for long shots from the fairway"},
	{Name: "Hybrid", Description: "Combines features of woods and irons"},
	{Name: "Iron", Description: "Used for approaching the green"},
	{Name: "Wedge", Description: "Used for short shots near the green"},
	{Name: "Putter", Description: "Used on the green to roll the ball into the hole"},
}
