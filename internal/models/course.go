package models

import (
	"strings"
	"time"
)

type Course struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:128;index;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Address     string `gorm:"size:255" json:"address"`
	City        string `gorm:"size:64" json:"city"`
	State       string `gorm:"size:64" json:"state"`
	Country     string `gorm:"size:64" json:"country"`
	PostalCode  string `gorm:"size:20" json:"postal_code"`
	Website     string `gorm:"size:255" json:"website"`
	Phone       string `gorm:"size:20" json:"phone"`
	Email       string `gorm:"size:128" json:"email"`

	YearBuilt   *int   `json:"year_built"`
	Architect   string `gorm:"size:128" json:"architect"`
	CourseType  string `gorm:"size:64" json:"course_type"` // Public, Private, Resort ...
	NumHoles    int    `gorm:"default:18" json:"num_holes"`
	Par         *int   `json:"par"`
	LengthYards *int   `json:"length_yards"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	ImageURL  string   `gorm:"size:255" json:"image_url"`
	LogoURL   string   `gorm:"size:255" json:"logo_url"`

	Approval  `gorm:"embedded"`
	Submitter *User        `gorm:"foreignKey:SubmittedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Holes     []CourseHole `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"holes,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (c *Course) Ref() Ref              { return Ref{Kind: KindCourse, ID: c.ID} }
func (c *Course) Moderation() *Approval { return &c.Approval }

// FullAddress 拼接非空的地址字段
func (c *Course) FullAddress() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{c.Address, c.City, c.State, c.PostalCode, c.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Location is the short form used in list views.
func (c *Course) Location() string {
	if c.City != "" && c.State != "" {
		return c.City + ", " + c.State
	}
	return c.Country
}

type CourseHole struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	CourseID    uint   `gorm:"not null;index" json:"-"`
	HoleNumber  int    `gorm:"not null" json:"hole_number"`
	Par         int    `json:"par"`
	Yards       *int   `json:"yards"`
	Handicap    *int   `json:"handicap"` // 难度排名
	Description string `gorm:"type:text" json:"description"`
	ImageURL    string `gorm:"size:255" json:"image_url"`
}
