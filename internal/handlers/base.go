package handlers

import (
	"errors"
	"net/http"
	"strings"

	"parsgolf/internal/models"
	"parsgolf/internal/services"
	"parsgolf/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondError 把 service 错误映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFoundOrUnapproved),
		errors.Is(err, services.ErrInvalidKind),
		errors.Is(err, services.ErrInvalidVoteDirection),
		errors.Is(err, services.ErrInvalidParent),
		errors.Is(err, services.ErrAlreadyApproved),
		errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrDuplicateName),
		errors.Is(err, services.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	message := msg(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		message = "Internal server error"
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

func msg(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// idParam 解析路由中的 :id
func idParam(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid id")
	}
	return id, ok
}

// parseRef 解析 votable_type / commentable_type + id
func parseRef(kind string, id uint) (models.Ref, error) {
	k, err := models.ParseKind(kind)
	if err != nil {
		return models.Ref{}, err
	}
	return models.Ref{Kind: k, ID: id}, nil
}
