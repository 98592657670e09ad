// Package application 实现用户注册、登录与 token 轮换的应用服务
package application

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/auth"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"gorm.io/gorm"
)

// 应用层错误，HTTP 层据此映射状态码
var (
	ErrEmailTaken          = errors.New("user already exists with this email")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrGoogleAccount       = errors.New("this account is registered with Google")
	ErrInvalidRefreshToken = errors.New("refresh token is expired or used")
	ErrMissingFields       = errors.New("required fields are missing")
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// GoogleIdentity 从 Google ID token 中提取的身份信息
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleTokenVerifier 校验 Google ID token
type GoogleTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// TokenPair 一次签发的 access/refresh token 对
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService 用户应用服务
type UserService struct {
	repo   domain.UserRepository
	tokens *auth.Manager
	google GoogleTokenVerifier
}

// NewUserService 创建用户应用服务
func NewUserService(repo domain.UserRepository, tokens *auth.Manager, google GoogleTokenVerifier) *UserService {
	return &UserService{repo: repo, tokens: tokens, google: google}
}

// RegisterCommand 注册命令
type RegisterCommand struct {
	Name      string
	Email     string
	Password  string
	PhoneNo   string
	Addresses []domain.Address
}

// Register 注册新用户
func (s *UserService) Register(ctx context.Context, cmd RegisterCommand) (*domain.User, error) {
	if strings.TrimSpace(cmd.Name) == "" || strings.TrimSpace(cmd.Email) == "" || cmd.Password == "" {
		return nil, ErrMissingFields
	}
	if !emailPattern.MatchString(cmd.Email) {
		return nil, ErrInvalidEmail
	}
	if len(cmd.Password) < 6 {
		return nil, ErrWeakPassword
	}

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	}

	for i := range cmd.Addresses {
		if err := cmd.Addresses[i].Validate(); err != nil {
			return nil, err
		}
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(cmd.Name),
		Email:     email,
		PhoneNo:   cmd.PhoneNo,
		Addresses: cmd.Addresses,
		Role:      domain.RoleUser,
	}
	if err := user.SetPassword(cmd.Password); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// 预检之后仍可能与并发注册撞唯一键，同样按邮箱占用处理
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.Info(ctx, "User registered", "user_id", user.ID)
	return user, nil
}

// Login 密码登录，签发并持久化 token 对
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	if email == "" || password == "" {
		return nil, nil, ErrMissingFields
	}

	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	if user.IsGoogleUser && user.PasswordHash == "" {
		return nil, nil, ErrGoogleAccount
	}
	if !user.CheckPassword(password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// GoogleLogin 联合登录：校验 ID token 并按主体或邮箱 upsert 用户
func (s *UserService) GoogleLogin(ctx context.Context, idToken string) (*domain.User, *TokenPair, error) {
	if idToken == "" {
		return nil, nil, ErrMissingFields
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	email := strings.ToLower(identity.Email)
	user, err := s.repo.GetByGoogleIDOrEmail(ctx, identity.Subject, email)
	switch {
	case err == nil:
		if user.GoogleID == nil {
			// 已有邮箱账号首次用 Google 登录，补关联
			user.LinkGoogle(identity.Subject)
			if err := s.repo.Save(ctx, user); err != nil {
				return nil, nil, err
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		name := identity.Name
		if name == "" {
			name = email
		}
		user = &domain.User{
			ID:           uuid.New().String(),
			Name:         name,
			Email:        email,
			Role:         domain.RoleUser,
			IsGoogleUser: true,
		}
		user.LinkGoogle(identity.Subject)
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "User created via Google login", "user_id", user.ID)
	default:
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout 清除持久化的 refresh token
func (s *UserService) Logout(ctx context.Context, userID string) error {
	return s.repo.SaveRefreshToken(ctx, userID, "")
}

// Refresh 校验 refresh token 的签名与存储一致性，轮换 token 对
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, ErrInvalidRefreshToken
	}

	userID, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	// 单一有效 refresh token：与存储值不一致即判定已被轮换或窃用
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, nil, ErrInvalidRefreshToken
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// ChangePassword 修改密码，Google 账号拒绝
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if user.IsGoogleUser {
		return ErrGoogleAccount
	}
	if !user.CheckPassword(oldPassword) {
		return ErrInvalidCredentials
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, user.PasswordHash)
}

// UpdateAccountCommand 资料更新命令，零值字段不更新
type UpdateAccountCommand struct {
	Name      string
	Email     string
	PhoneNo   string
	Addresses []domain.Address
}

// UpdateAccount 局部更新用户资料
func (s *UserService) UpdateAccount(ctx context.Context, userID string, cmd UpdateAccountCommand) (*domain.User, error) {
	if strings.TrimSpace(cmd.Name) == "" && strings.TrimSpace(cmd.Email) == "" &&
		cmd.PhoneNo == "" && len(cmd.Addresses) == 0 {
		return nil, ErrMissingFields
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if name := strings.TrimSpace(cmd.Name); name != "" {
		user.Name = name
	}
	if email := strings.TrimSpace(cmd.Email); email != "" {
		if !emailPattern.MatchString(email) {
			return nil, ErrInvalidEmail
		}
		user.Email = strings.ToLower(email)
	}
	if cmd.PhoneNo != "" {
		user.PhoneNo = cmd.PhoneNo
	}
	if len(cmd.Addresses) > 0 {
		for i := range cmd.Addresses {
			if err := cmd.Addresses[i].Validate(); err != nil {
				return nil, err
			}
			cmd.Addresses[i].UserID = userID
		}
		user.Addresses = cmd.Addresses
	}

	if err := s.repo.Save(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// GetByID 获取用户
func (s *UserService) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// LoadUser 实现认证中间件的 UserLoader
func (s *UserService) LoadUser(ctx context.Context, userID string) (*middleware.CurrentUser, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &middleware.CurrentUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}, nil
}

func (s *UserService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, err
	}
	user.RefreshToken = refreshToken

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
