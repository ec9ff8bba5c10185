package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/config"
	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// AuthService verifies credentials and issues signed token pairs.
type AuthService struct {
	userRepo *repository.UserRepository
	roleRepo *repository.RoleRepository
	rdb      *redis.Client
	cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		rdb:      rdb,
		cfg:      cfg,
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type ConnectRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	RoleID   string `json:"role_id"`
}

// Connect verifies a username (or email) and password. Every failure mode,
// unknown user or wrong password alike, returns the same ErrInvalidCredentials
// so the response never tells the caller which part was wrong.
func (s *AuthService) Connect(ctx context.Context, req *ConnectRequest) (*entity.User, *TokenPair, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.userRepo.FindByEmail(ctx, req.Username)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Register creates a user with the requested role, defaulting to Employee.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*entity.User, *TokenPair, error) {
	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, err
	}
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, err
	}

	roleID := req.RoleID
	if roleID == "" {
		role, err := s.roleRepo.FindByName(ctx, entity.RoleEmployee)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve default role: %w", err)
		}
		roleID = role.ID
	} else if _, err := s.roleRepo.FindByID(ctx, roleID); err != nil {
		return nil, nil, fmt.Errorf("resolve role: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		RoleID:       roleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	user, err = s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a token pair. The presented refresh token must match the
// hash stored on the user row; on success both tokens are replaced and the
// new hash persisted, so each refresh token is single-use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != "refresh" {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, sub)
	if err != nil {
		return nil, ErrInvalidToken
	}

	presented := hashToken(refreshToken)
	if user.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshTokenHash)) != 1 {
		return nil, ErrInvalidToken
	}

	if s.rdb != nil {
		if jti, _ := claims["jti"].(string); jti != "" {
			s.rdb.Del(ctx, "token:refresh:"+jti)
		}
	}

	return s.issueTokenPair(ctx, user)
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	accessClaims := jwt.MapClaims{
		"sub":     user.ID,
		"uid":     user.ID,
		"email":   user.Email,
		"role":    roleName,
		"role_id": user.RoleID,
		"iss":     s.cfg.JWT.Issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.JWT.AccessTokenExpire).Unix(),
		"jti":     uuid.New().String(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshJti := uuid.New().String()
	refreshClaims := jwt.MapClaims{
		"sub":  user.ID,
		"type": "refresh",
		"iss":  s.cfg.JWT.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.JWT.RefreshTokenExpire).Unix(),
		"jti":  refreshJti,
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.userRepo.UpdateRefreshTokenHash(ctx, user.ID, hashToken(refreshToken)); err != nil {
		return nil, fmt.Errorf("persist refresh token hash: %w", err)
	}
	if s.rdb != nil {
		s.rdb.Set(ctx, "token:refresh:"+refreshJti, user.ID, s.cfg.JWT.RefreshTokenExpire)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWT.AccessTokenExpire.Seconds()),
	}, nil
}

// GetCurrentUser returns the authenticated user's profile.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
