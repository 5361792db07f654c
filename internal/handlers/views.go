package handlers

import (
	"time"

	"parsgolf/internal/models"
	"parsgolf/internal/services"
	"parsgolf/internal/utils"

	"github.com/gin-gonic/gin"
)

type userBrief struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

func newUserBrief(u *models.User) userBrief {
	return userBrief{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

type commentView struct {
	ID          uint      `json:"id"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html"`
	IsDeleted   bool      `json:"is_deleted"`
	ParentID    *uint     `json:"parent_id"`
	User        userBrief `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type threadView struct {
	commentView
	Replies []commentView `json:"replies"`
}

func newCommentView(c *models.Comment) commentView {
	v := commentView{
		ID:        c.ID,
		Content:   c.Content,
		IsDeleted: c.IsDeleted,
		ParentID:  c.ParentID,
		User:      newUserBrief(&c.User),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if !c.IsDeleted {
		v.ContentHTML = utils.RenderMarkdown(c.Content)
	}
	return v
}

func newThreadView(t *services.Thread) threadView {
	replies := make([]commentView, len(t.Replies))
	for i := range t.Replies {
		replies[i] = newCommentView(&t.Replies[i])
	}
	return threadView{commentView: newCommentView(&t.Comment), Replies: replies}
}

func submitterName(u *models.User) *string {
	if u == nil {
		return nil
	}
	return &u.Username
}

func withTally(h gin.H, t services.Tally) gin.H {
	h["vote_score"] = t.Score
	h["upvotes"] = t.Upvotes
	h["downvotes"] = t.Downvotes
	return h
}

// summaryView 列表中的一行
func summaryView(e models.Entity, t services.Tally) gin.H {
	var h gin.H
	switch v := e.(type) {
	case *models.Club:
		h = gin.H{
			"id":            v.ID,
			"name":          v.Name,
			"description":   v.Description,
			"image_url":     v.ImageURL,
			"purchase_link": v.PurchaseLink,
			"release_year":  v.ReleaseYear,
			"price":         v.Price,
			"brand":         nil,
			"type":          nil,
		}
		if v.Brand != nil {
			h["brand"] = v.Brand.Name
		}
		if v.ClubType != nil {
			h["type"] = v.ClubType.Name
		}
	case *models.Player:
		h = gin.H{
			"id":              v.ID,
			"name":            v.Name,
			"profile_picture": v.ProfilePicture,
			"country":         v.Country,
			"world_ranking":   v.WorldRanking,
		}
	case *models.Course:
		h = gin.H{
			"id":           v.ID,
			"name":         v.Name,
			"location":     v.Location(),
			"image_url":    v.ImageURL,
			"par":          v.Par,
			"length_yards": v.LengthYards,
			"course_type":  v.CourseType,
		}
	default:
		h = gin.H{"id": e.Ref().ID}
	}
	return withTally(h, t)
}

// queueView 审核队列中的一行
func queueView(e models.Entity) gin.H {
	h := summaryView(e, services.Tally{})
	delete(h, "vote_score")
	delete(h, "upvotes")
	delete(h, "downvotes")
	switch v := e.(type) {
	case *models.Club:
		h["submitted_by"] = submitterName(v.Submitter)
		h["created_at"] = v.CreatedAt
	case *models.Player:
		h["submitted_by"] = submitterName(v.Submitter)
		h["created_at"] = v.CreatedAt
	case *models.Course:
		h["submitted_by"] = submitterName(v.Submitter)
		h["created_at"] = v.CreatedAt
	}
	return h
}

// detailView 详情页
func detailView(d *services.Detail, now time.Time) gin.H {
	var h gin.H
	switch v := d.Entity.(type) {
	case *models.Club:
		h = gin.H{
			"id":            v.ID,
			"name":          v.Name,
			"description":   v.Description,
			"image_url":     v.ImageURL,
			"purchase_link": v.PurchaseLink,
			"release_year":  v.ReleaseYear,
			"price":         v.Price,
			"brand":         v.Brand,
			"type":          v.ClubType,
			"created_at":    v.CreatedAt,
			"updated_at":    v.UpdatedAt,
			"is_approved":   v.IsApproved,
			"submitted_by":  submitterName(v.Submitter),
		}
	case *models.Player:
		var birthdate *string
		if v.Birthdate != nil {
			s := v.Birthdate.Format("2006-01-02")
			birthdate = &s
		}
		achievements := v.Achievements
		if achievements == nil {
			achievements = []models.PlayerAchievement{}
		}
		h = gin.H{
			"id":               v.ID,
			"name":             v.Name,
			"profile_picture":  v.ProfilePicture,
			"country":          v.Country,
			"birthdate":        birthdate,
			"age":              v.Age(now),
			"turned_pro":       v.TurnedPro,
			"bio":              v.Bio,
			"website":          v.Website,
			"twitter_handle":   v.TwitterHandle,
			"instagram_handle": v.InstagramHandle,
			"world_ranking":    v.WorldRanking,
			"achievements":     achievements,
			"created_at":       v.CreatedAt,
			"updated_at":       v.UpdatedAt,
			"is_approved":      v.IsApproved,
			"submitted_by":     submitterName(v.Submitter),
		}
	case *models.Course:
		holes := v.Holes
		if holes == nil {
			holes = []models.CourseHole{}
		}
		h = gin.H{
			"id":           v.ID,
			"name":         v.Name,
			"description":  v.Description,
			"address":      v.Address,
			"city":         v.City,
			"state":        v.State,
			"country":      v.Country,
			"postal_code":  v.PostalCode,
			"full_address": v.FullAddress(),
			"website":      v.Website,
			"phone":        v.Phone,
			"email":        v.Email,
			"year_built":   v.YearBuilt,
			"architect":    v.Architect,
			"course_type":  v.CourseType,
			"num_holes":    v.NumHoles,
			"par":          v.Par,
			"length_yards": v.LengthYards,
			"latitude":     v.Latitude,
			"longitude":    v.Longitude,
			"image_url":    v.ImageURL,
			"logo_url":     v.LogoURL,
			"holes":        holes,
			"created_at":   v.CreatedAt,
			"updated_at":   v.UpdatedAt,
			"is_approved":  v.IsApproved,
			"submitted_by": submitterName(v.Submitter),
		}
	default:
		h = gin.H{"id": d.Entity.Ref().ID}
	}
	h["user_vote"] = d.UserVote.Ptr()
	return withTally(h, d.Tally)
}
