package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"parsgolf/internal/middleware"
	"parsgolf/internal/models"
	"parsgolf/internal/services"

	"github.com/gin-gonic/gin"
)

// ClubHandler 球杆专有接口：编辑、品牌、类型
type ClubHandler struct {
	catalog *services.CatalogService
}

func NewClubHandler(catalog *services.CatalogService) *ClubHandler {
	return &ClubHandler{catalog: catalog}
}

// Update PUT /api/clubs/:id
func (h *ClubHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	patch, err := decodeClubPatch(raw)
	if err != nil {
		badRequest(c, msg(err))
		return
	}

	club, err := h.catalog.UpdateClub(c.Request.Context(), id, patch, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Club updated successfully",
		"id":      club.ID,
	})
}

// decodeClubPatch 区分字段缺省和显式 null：brand_id / club_type_id 为 null 时清空
func decodeClubPatch(raw map[string]json.RawMessage) (services.ClubPatch, error) {
	var p services.ClubPatch
	fields := []struct {
		key string
		dst interface{}
	}{
		{"name", &p.Name},
		{"description", &p.Description},
		{"purchase_link", &p.PurchaseLink},
		{"image_url", &p.ImageURL},
		{"release_year", &p.ReleaseYear},
		{"price", &p.Price},
		{"brand_id", &p.BrandID},
		{"club_type_id", &p.ClubTypeID},
		{"is_approved", &p.IsApproved},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return p, fmt.Errorf("invalid %s", f.key)
		}
	}
	if v, ok := raw["brand_id"]; ok && string(v) == "null" {
		p.ClearBrand = true
	}
	if v, ok := raw["club_type_id"]; ok && string(v) == "null" {
		p.ClearClubType = true
	}
	return p, nil
}

// Brands GET /api/clubs/brands
func (h *ClubHandler) Brands(c *gin.Context) {
	brands, err := h.catalog.Brands(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// CreateBrand POST /api/clubs/brands
func (h *ClubHandler) CreateBrand(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		LogoURL string `json:"logo_url"`
		Website string `json:"website"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Brand name is required")
		return
	}

	brand := models.ClubBrand{Name: req.Name, LogoURL: req.LogoURL, Website: req.Website}
	if err := h.catalog.CreateBrand(c.Request.Context(), &brand, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Brand created successfully",
		"id":      brand.ID,
	})
}

// Types GET /api/clubs/types
func (h *ClubHandler) Types(c *gin.Context) {
	types, err := h.catalog.ClubTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"club_types": types})
}

// CreateType POST /api/clubs/types
func (h *ClubHandler) CreateType(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Club type name is required")
		return
	}

	t := models.ClubType{Name: req.Name, Description: req.Description}
	if err := h.catalog.CreateClubType(c.Request.Context(), &t, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Club type created successfully",
		"id":      t.ID,
	})
}
