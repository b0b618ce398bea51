package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/config"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthorized 认证失败
var ErrUnauthorized = errors.New("unauthorized")

const refreshKeyPrefix = "token:refresh:"

// RefreshStore 保存未使用的 refresh token（jti → userID）
type RefreshStore interface {
	Save(ctx context.Context, jti, userID string, ttl time.Duration) error
	// Take 取出并删除，每个 refresh token 只能使用一次
	Take(ctx context.Context, jti string) (string, error)
}

// NewRefreshStore rdb 为 nil 时退化为进程内存储（单实例/测试）
func NewRefreshStore(rdb *redis.Client) RefreshStore {
	if rdb == nil {
		return NewMemoryRefreshStore()
	}
	return &redisRefreshStore{rdb: rdb}
}

type redisRefreshStore struct {
	rdb *redis.Client
}

func (s *redisRefreshStore) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, refreshKeyPrefix+jti, userID, ttl).Err()
}

func (s *redisRefreshStore) Take(ctx context.Context, jti string) (string, error) {
	userID, err := s.rdb.GetDel(ctx, refreshKeyPrefix+jti).Result()
	if err == redis.Nil {
		return "", ErrUnauthorized
	}
	return userID, err
}

// MemoryRefreshStore 进程内 refresh token 存储
type MemoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
}

type memoryToken struct {
	userID  string
	expires time.Time
}

// NewMemoryRefreshStore 创建进程内存储
func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{tokens: make(map[string]memoryToken)}
}

func (s *MemoryRefreshStore) Save(_ context.Context, jti, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[jti] = memoryToken{userID: userID, expires: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryRefreshStore) Take(_ context.Context, jti string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[jti]
	delete(s.tokens, jti)
	if !ok || time.Now().After(t.expires) {
		return "", ErrUnauthorized
	}
	return t.userID, nil
}

// AuthService 认证服务
type AuthService struct {
	userRepo *repository.UserRepository
	store    RefreshStore
	cfg      config.JWTConfig
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo *repository.UserRepository, store RefreshStore, cfg config.JWTConfig) *AuthService {
	return &AuthService{userRepo: userRepo, store: store, cfg: cfg}
}

// TokenPair Token对
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *entity.User `json:"user,omitempty"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 用户名密码登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenPair, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("用户名或密码错误: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, fmt.Errorf("用户名或密码错误: %w", ErrUnauthorized)
	}
	if user.Status != "active" {
		return nil, fmt.Errorf("用户已停用: %w", ErrUnauthorized)
	}
	_ = s.userRepo.UpdateLastLogin(ctx, user.ID)

	pair, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	pair.User = user
	return pair, nil
}

// generateTokenPair 生成Token对
func (s *AuthService) generateTokenPair(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()
	jti := uuid.New().String()

	// Access Token
	accessClaims := jwt.MapClaims{
		"sub":   user.ID,
		"uid":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"roles": user.RoleCodes,
		"perms": user.PermissionCodes,
		"iss":   s.cfg.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.AccessTokenExpire).Unix(),
		"jti":   jti,
	}
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	// Refresh Token
	refreshJti := uuid.New().String()
	refreshClaims := jwt.MapClaims{
		"sub":  user.ID,
		"type": "refresh",
		"iss":  s.cfg.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.RefreshTokenExpire).Unix(),
		"jti":  refreshJti,
	}
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.store.Save(ctx, refreshJti, user.ID, s.cfg.RefreshTokenExpire); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresIn:    int64(s.cfg.AccessTokenExpire.Seconds()),
	}, nil
}

func (s *AuthService) parseRefresh(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims: %w", ErrUnauthorized)
	}
	if claims["type"] != "refresh" {
		return "", fmt.Errorf("invalid token type: %w", ErrUnauthorized)
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return "", fmt.Errorf("missing jti: %w", ErrUnauthorized)
	}
	return jti, nil
}

// RefreshToken 刷新Token，旧 refresh token 作废
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	jti, err := s.parseRefresh(refreshTokenString)
	if err != nil {
		return nil, err
	}
	userID, err := s.store.Take(ctx, jti)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, fmt.Errorf("refresh token expired or invalid: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("take refresh token: %w", err)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", ErrUnauthorized)
	}
	if user.Status != "active" {
		return nil, fmt.Errorf("用户已停用: %w", ErrUnauthorized)
	}
	return s.generateTokenPair(ctx, user)
}

// Logout 作废 refresh token
func (s *AuthService) Logout(ctx context.Context, refreshTokenString string) error {
	if refreshTokenString == "" {
		return nil
	}
	jti, err := s.parseRefresh(refreshTokenString)
	if err != nil {
		return err
	}
	if _, err := s.store.Take(ctx, jti); err != nil && !errors.Is(err, ErrUnauthorized) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// GetCurrentUser 获取当前用户
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

// HashPassword bcrypt 哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
