// Package service 实现业务逻辑层, 组合仓储和外部客户端完成各项用例。
package service

import (
	"errors"

	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"
	"doc-chat-go/pkg/hash"
	"doc-chat-go/pkg/log"
	"doc-chat-go/pkg/token"

	"gorm.io/gorm"
)

var (
	// ErrUserExists 表示该用户名已被注册。
	ErrUserExists = errors.New("用户名已存在")
	// ErrInvalidCredentials 表示用户名或密码错误。
	ErrInvalidCredentials = errors.New("用户名或密码错误")
)

// TokenPair 是一次登录或刷新返回的令牌对。
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService 定义用户相关的业务操作。
type UserService interface {
	Register(username, password string) (*model.User, error)
	Login(username, password string) (*TokenPair, *model.User, error)
	GetProfile(userID uint) (*model.User, error)
	RefreshToken(refreshToken string) (*TokenPair, error)
}

type userService struct {
	userRepo repository.UserRepository
	jwt      *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwt *token.JWTManager) UserService {
	return &userService{userRepo: userRepo, jwt: jwt}
}

// Register 注册新用户, 密码使用 bcrypt 加密存储。
func (s *userService) Register(username, password string) (*model.User, error) {
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: username, Password: hashed}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	log.Infof("用户注册成功, UserID: %d, Username: %s", user.ID, user.Username)
	return user, nil
}

// Login 校验用户名和密码, 成功后签发访问令牌和刷新令牌。
func (s *userService) Login(username, password string) (*TokenPair, *model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// GetProfile 查询当前用户信息。
func (s *userService) GetProfile(userID uint) (*model.User, error) {
	return s.userRepo.FindByID(userID)
}

// RefreshToken 校验刷新令牌并签发新的令牌对。
func (s *userService) RefreshToken(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.VerifyToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

func (s *userService) issueTokens(user *model.User) (*TokenPair, error) {
	access, err := s.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
