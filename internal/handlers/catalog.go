package handlers

import (
	"net/http"
	"time"

	"parsgolf/internal/middleware"
	"parsgolf/internal/models"
	"parsgolf/internal/services"
	"parsgolf/internal/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler 一个实体类型的列表、详情、提交和审核接口
type CatalogHandler struct {
	kind       models.Kind
	listKey    string
	catalog    *services.CatalogService
	moderation *services.ModerationService
	perPage    int
}

func NewCatalogHandler(kind models.Kind, catalog *services.CatalogService, moderation *services.ModerationService, perPage int) *CatalogHandler {
	return &CatalogHandler{
		kind:       kind,
		listKey:    kind.TableName(),
		catalog:    catalog,
		moderation: moderation,
		perPage:    perPage,
	}
}

// List GET /api/{kind}?page=&sort_by=
func (h *CatalogHandler) List(c *gin.Context) {
	q := services.ListQuery{
		Kind:    h.kind,
		Page:    utils.ParsePage(c.Query("page")),
		PerPage: h.perPage,
		Sort:    services.ParseSort(h.kind, c.DefaultQuery("sort_by", "votes")),
	}
	if h.kind == models.KindClub {
		if id, ok := utils.ParseID(c.Query("brand_id")); ok {
			q.BrandID = &id
		}
		if id, ok := utils.ParseID(c.Query("club_type_id")); ok {
			q.ClubTypeID = &id
		}
	}

	res, err := h.catalog.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]gin.H, len(res.Items))
	for i, item := range res.Items {
		items[i] = summaryView(item.Entity, item.Tally)
	}
	c.JSON(http.StatusOK, pageBody(h.listKey, items, res))
}

// Detail GET /api/{kind}/:id
func (h *CatalogHandler) Detail(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	d, err := h.catalog.Detail(c.Request.Context(), models.Ref{Kind: h.kind, ID: id}, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detailView(d, time.Now()))
}

// Create POST /api/{kind}
func (h *CatalogHandler) Create(c *gin.Context) {
	var e models.Entity
	var err error
	switch h.kind {
	case models.KindClub:
		var req clubRequest
		err = c.ShouldBindJSON(&req)
		e = req.toModel()
	case models.KindPlayer:
		var req playerRequest
		err = c.ShouldBindJSON(&req)
		e = req.toModel()
	case models.KindCourse:
		var req courseRequest
		err = c.ShouldBindJSON(&req)
		e = req.toModel()
	}
	if err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.moderation.Submit(c.Request.Context(), e, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "Created successfully",
		"id":          e.Ref().ID,
		"is_approved": e.Moderation().IsApproved,
	})
}

// Delete DELETE /api/{kind}/:id，驳回即删除
func (h *CatalogHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ref := models.Ref{Kind: h.kind, ID: id}
	if err := h.moderation.Delete(c.Request.Context(), ref, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted successfully"})
}

// Approve POST /api/{kind}/:id/approve
func (h *CatalogHandler) Approve(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ref := models.Ref{Kind: h.kind, ID: id}
	if _, err := h.moderation.Approve(c.Request.Context(), ref, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Approved successfully"})
}

// Queue GET /api/{kind}/approval-queue?page=
func (h *CatalogHandler) Queue(c *gin.Context) {
	page := utils.ParsePage(c.Query("page"))
	res, err := h.moderation.Queue(c.Request.Context(), h.kind, page, h.perPage, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]gin.H, len(res.Items))
	for i, item := range res.Items {
		items[i] = queueView(item.Entity)
	}
	c.JSON(http.StatusOK, pageBody(h.listKey, items, res))
}

func pageBody(key string, items []gin.H, res *services.ListResult) gin.H {
	return gin.H{
		key:        items,
		"page":     res.Page,
		"per_page": res.PerPage,
		"total":    res.Total,
		"pages":    res.Pages,
	}
}

type clubRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	PurchaseLink string   `json:"purchase_link"`
	ImageURL     string   `json:"image_url"`
	ReleaseYear  *int     `json:"release_year"`
	Price        *float64 `json:"price"`
	BrandID      *uint    `json:"brand_id"`
	ClubTypeID   *uint    `json:"club_type_id"`
}

func (r clubRequest) toModel() models.Entity {
	return &models.Club{
		Name:         r.Name,
		Description:  r.Description,
		PurchaseLink: r.PurchaseLink,
		ImageURL:     r.ImageURL,
		ReleaseYear:  r.ReleaseYear,
		Price:        r.Price,
		BrandID:      r.BrandID,
		ClubTypeID:   r.ClubTypeID,
	}
}

type achievementRequest struct {
	Title       string `json:"title"`
	Year        int    `json:"year"`
	Description string `json:"description"`
}

type playerRequest struct {
	Name            string               `json:"name"`
	ProfilePicture  string               `json:"profile_picture"`
	Country         string               `json:"country"`
	Birthdate       string               `json:"birthdate"` // YYYY-MM-DD
	TurnedPro       *int                 `json:"turned_pro"`
	Bio             string               `json:"bio"`
	Website         string               `json:"website"`
	TwitterHandle   string               `json:"twitter_handle"`
	InstagramHandle string               `json:"instagram_handle"`
	WorldRanking    *int                 `json:"world_ranking"`
	Achievements    []achievementRequest `json:"achievements"`
}

func (r playerRequest) toModel() models.Entity {
	p := &models.Player{
		Name:            r.Name,
		ProfilePicture:  r.ProfilePicture,
		Country:         r.Country,
		TurnedPro:       r.TurnedPro,
		Bio:             r.Bio,
		Website:         r.Website,
		TwitterHandle:   r.TwitterHandle,
		InstagramHandle: r.InstagramHandle,
		WorldRanking:    r.WorldRanking,
	}
	if t, err := time.Parse("2006-01-02", r.Birthdate); err == nil {
		p.Birthdate = &t
	}
	for _, a := range r.Achievements {
		p.Achievements = append(p.Achievements, models.PlayerAchievement{
			Title:       a.Title,
			Year:        a.Year,
			Description: a.Description,
		})
	}
	return p
}

type holeRequest struct {
	HoleNumber  int    `json:"hole_number"`
	Par         int    `json:"par"`
	Yards       *int   `json:"yards"`
	Handicap    *int   `json:"handicap"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type courseRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Address     string        `json:"address"`
	City        string        `json:"city"`
	State       string        `json:"state"`
	Country     string        `json:"country"`
	PostalCode  string        `json:"postal_code"`
	Website     string        `json:"website"`
	Phone       string        `json:"phone"`
	Email       string        `json:"email"`
	YearBuilt   *int          `json:"year_built"`
	Architect   string        `json:"architect"`
	CourseType  string        `json:"course_type"`
	NumHoles    int           `json:"num_holes"`
	Par         *int          `json:"par"`
	LengthYards *int          `json:"length_yards"`
	Latitude    *float64      `json:"latitude"`
	Longitude   *float64      `json:"longitude"`
	ImageURL    string        `json:"image_url"`
	LogoURL     string        `json:"logo_url"`
	Holes       []holeRequest `json:"holes"`
}

func (r courseRequest) toModel() models.Entity {
	c := &models.Course{
		Name:        r.Name,
		Description: r.Description,
		Address:     r.Address,
		City:        r.City,
		State:       r.State,
		Country:     r.Country,
		PostalCode:  r.PostalCode,
		Website:     r.Website,
		Phone:       r.Phone,
		Email:       r.Email,
		YearBuilt:   r.YearBuilt,
		Architect:   r.Architect,
		CourseType:  r.CourseType,
		NumHoles:    r.NumHoles,
		Par:         r.Par,
		LengthYards: r.LengthYards,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ImageURL:    r.ImageURL,
		LogoURL:     r.LogoURL,
	}
	for _, h := range r.Holes {
		c.Holes = append(c.Holes, models.CourseHole{
			HoleNumber:  h.HoleNumber,
			Par:         h.Par,
			Yards:       h.Yards,
			Handicap:    h.Handicap,
			Description: h.Description,
			ImageURL:    h.ImageURL,
		})
	}
	return c
}
