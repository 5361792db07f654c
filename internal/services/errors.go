package services

import (
	"errors"

	"parsgolf/internal/models"

	"go.uber.org/zap"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrNotFoundOrUnapproved = errors.New("item not found or not approved")
	ErrInvalidKind          = models.ErrUnknownKind
	ErrInvalidVoteDirection = errors.New(`invalid vote_type, must be "up", "down", or null to remove vote`)
	ErrInvalidParent        = errors.New("invalid parent comment")
	ErrForbidden            = errors.New("forbidden")
	ErrAlreadyApproved      = errors.New("already approved")

	ErrEmptyContent       = errors.New("content is required")
	ErrDuplicateName      = errors.New("name already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// isDomainError 业务错误不需要记录 error 日志
func isDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrNotFoundOrUnapproved, ErrInvalidKind, ErrInvalidVoteDirection,
		ErrInvalidParent, ErrForbidden, ErrAlreadyApproved, ErrEmptyContent,
		ErrDuplicateName, ErrInvalidInput, ErrInvalidCredentials,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func logFailure(log *zap.Logger, msg string, err error, userID uint, ref models.Ref) {
	if isDomainError(err) {
		return
	}
	log.Error(msg,
		zap.Error(err),
		zap.Uint("user_id", userID),
		zap.String("kind", ref.Kind.String()),
		zap.Uint("id", ref.ID))
}
