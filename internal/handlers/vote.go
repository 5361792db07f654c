package handlers

import (
	"net/http"

	"parsgolf/internal/middleware"
	"parsgolf/internal/models"
	"parsgolf/internal/services"
	"parsgolf/internal/utils"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes    *services.VoteService
	comments *services.CommentService
}

func NewVoteHandler(votes *services.VoteService, comments *services.CommentService) *VoteHandler {
	return &VoteHandler{votes: votes, comments: comments}
}

type voteRequest struct {
	VotableType string  `json:"votable_type" binding:"required"`
	VotableID   uint    `json:"votable_id" binding:"required"`
	VoteType    *string `json:"vote_type"` // "up" / "down" / null 撤销
}

// Vote POST /api/votes
func (h *VoteHandler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "votable_type and votable_id are required")
		return
	}
	ref, err := parseRef(req.VotableType, req.VotableID)
	if err != nil {
		badRequest(c, `Invalid votable_type. Must be "club", "player", or "course"`)
		return
	}
	h.cast(c, ref, req.VoteType)
}

// VoteFor POST /api/{kind}/:id/vote
func (h *VoteHandler) VoteFor(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req struct {
			VoteType *string `json:"vote_type"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
		h.cast(c, models.Ref{Kind: kind, ID: id}, req.VoteType)
	}
}

func (h *VoteHandler) cast(c *gin.Context, ref models.Ref, voteType *string) {
	dir, err := services.ParseDirection(voteType)
	if err != nil {
		respondError(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	tally, err := h.votes.CastVote(c.Request.Context(), user.ID, ref, dir)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Vote removed"
	if dir != services.DirectionNone {
		message = "Vote " + dir.String() + " recorded"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    message,
		"vote_score": tally.Score,
		"upvotes":    tally.Upvotes,
		"downvotes":  tally.Downvotes,
	})
}

type addCommentRequest struct {
	CommentableType string `json:"commentable_type" binding:"required"`
	CommentableID   uint   `json:"commentable_id" binding:"required"`
	Content         string `json:"content" binding:"required"`
	ParentID        *uint  `json:"parent_id"`
}

// AddComment POST /api/votes/comments
func (h *VoteHandler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "commentable_type, commentable_id, and content are required")
		return
	}
	ref, err := parseRef(req.CommentableType, req.CommentableID)
	if err != nil {
		badRequest(c, `Invalid commentable_type. Must be "club", "player", or "course"`)
		return
	}

	user := middleware.CurrentUser(c)
	comment, err := h.comments.AddComment(c.Request.Context(), user.ID, ref, req.Content, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Comment added",
		"comment": gin.H{
			"id":         comment.ID,
			"content":    comment.Content,
			"user":       newUserBrief(&comment.User),
			"created_at": comment.CreatedAt,
			"parent_id":  comment.ParentID,
		},
	})
}

// ListComments GET /api/votes/comments?commentable_type=&commentable_id=
func (h *VoteHandler) ListComments(c *gin.Context) {
	kind := c.Query("commentable_type")
	id, ok := utils.ParseID(c.Query("commentable_id"))
	if kind == "" || !ok {
		badRequest(c, "commentable_type and commentable_id are required")
		return
	}
	ref, err := parseRef(kind, id)
	if err != nil {
		badRequest(c, `Invalid commentable_type. Must be "club", "player", or "course"`)
		return
	}

	threads, err := h.comments.ListComments(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]threadView, len(threads))
	for i := range threads {
		out[i] = newThreadView(&threads[i])
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
}

// UpdateComment PUT /api/votes/comments/:id
func (h *VoteHandler) UpdateComment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Content is required")
		return
	}

	comment, err := h.comments.UpdateComment(c.Request.Context(), id, middleware.CurrentUser(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comment updated",
		"comment": gin.H{
			"id":         comment.ID,
			"content":    comment.Content,
			"updated_at": comment.UpdatedAt,
		},
	})
}

// DeleteComment DELETE /api/votes/comments/:id
func (h *VoteHandler) DeleteComment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(c.Request.Context(), id, middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment deleted"})
}
