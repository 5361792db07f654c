package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"parsgolf/internal/models"
	"parsgolf/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{db: db, log: log}
}

// Register 注册本地账号，用户名或邮箱重复返回 ErrDuplicateName
func (s *UserService) Register(ctx context.Context, username, email, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if role == "" {
		role = models.RoleUser
	}

	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	case !validEmail(email):
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	case len(password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	case !models.ValidRole(role):
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{Username: username, Email: email, Password: hash, Role: role}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: email already registered", ErrDuplicateName)
		}
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: username already taken", ErrDuplicateName)
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if !isDomainError(err) {
			s.log.Error("Failed to register user", zap.Error(err), zap.String("username", username))
		}
		return nil, err
	}

	s.log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("role", role))
	return &user, nil
}

// Authenticate 邮箱 + 密码登录，成功后更新 last_login
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	s.touchLogin(ctx, &user)
	return &user, nil
}

func (s *UserService) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// OAuthProfile 第三方登录返回的用户信息
type OAuthProfile struct {
	Provider string
	ID       string
	Email    string
	Picture  string
}

// LoginOAuth 先按 provider+id 查找，再按邮箱关联已有账号，都没有则新建。
// 新账号用户名取邮箱前缀，冲突时追加数字
func (s *UserService) LoginOAuth(ctx context.Context, p OAuthProfile) (*models.User, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Provider == "" || p.ID == "" || !validEmail(p.Email) {
		return nil, fmt.Errorf("%w: incomplete oauth profile", ErrInvalidInput)
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("oauth_provider = ? AND oauth_id = ?", p.Provider, p.ID).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("email = ?", p.Email).First(&user).Error
		if err == nil {
			user.OAuthProvider = p.Provider
			user.OAuthID = p.ID
			return tx.Model(&user).Updates(map[string]interface{}{
				"oauth_provider": p.Provider,
				"oauth_id":       p.ID,
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		username, err := uniqueUsername(tx, strings.SplitN(p.Email, "@", 2)[0])
		if err != nil {
			return err
		}
		user = models.User{
			Username:       username,
			Email:          p.Email,
			ProfilePicture: p.Picture,
			Role:           models.RoleUser,
			OAuthProvider:  p.Provider,
			OAuthID:        p.ID,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if !isDomainError(err) {
			s.log.Error("Failed to login with oauth", zap.Error(err), zap.String("provider", p.Provider))
		}
		return nil, err
	}

	s.touchLogin(ctx, &user)
	return &user, nil
}

func uniqueUsername(tx *gorm.DB, base string) (string, error) {
	if base == "" {
		base = "golfer"
	}
	name := base
	for i := 1; ; i++ {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", name).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return name, nil
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
}

func (s *UserService) touchLogin(ctx context.Context, user *models.User) {
	now := time.Now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("last_login", now).Error; err != nil {
		s.log.Warn("Failed to update last login", zap.Error(err), zap.Uint("user_id", user.ID))
	}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
