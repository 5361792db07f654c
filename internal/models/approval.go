package models

// Approval 审核状态，嵌入到 Club / Player / Course
type Approval struct {
	IsApproved  bool  `gorm:"default:false;index" json:"is_approved"`
	SubmittedBy *uint `gorm:"index" json:"submitted_by"`
	ApprovedBy  *uint `json:"approved_by"`
}

// Approve moves the item from Pending to Approved. There is no way back.
func (a *Approval) Approve(moderatorID uint) {
	a.IsApproved = true
	a.ApprovedBy = &moderatorID
}

func (a *Approval) Pending() bool {
	return !a.IsApproved
}

// Entity is implemented by every votable/commentable model.
type Entity interface {
	Ref() Ref
	Moderation() *Approval
}

// NewEntity 根据类型返回一个空实体，用于按 Ref 加载
func NewEntity(kind Kind) (Entity, error) {
	switch kind {
	case KindClub:
		return &Club{}, nil
	case KindPlayer:
		return &Player{}, nil
	case KindCourse:
		return &Course{}, nil
	}
	return nil, ErrUnknownKind
}

// TableName returns the entity table a kind's ids point into.
func (k Kind) TableName() string {
	switch k {
	case KindClub:
		return "clubs"
	case KindPlayer:
		return "players"
	case KindCourse:
		return "courses"
	}
	return ""
}
