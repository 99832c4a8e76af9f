package service

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// tokenIssuer identifies tokens minted by this service.
const tokenIssuer = "strength-academy"

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidRole          = errors.New("role must be coach or athlete")
	ErrInvalidToken         = errors.New("invalid or expired token")
)

// Claims is the JWT payload.
type Claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	ParseToken(token string) (*Claims, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration, logger *zap.Logger) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		logger:        logger,
		now:           time.Now,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, errors.New("name, email, and password cannot be empty")
	}
	if role != domain.RoleCoach && role != domain.RoleAthlete {
		return nil, ErrInvalidRole
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// Lost a race with a concurrent registration; the unique index caught it.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID
	user.PasswordHash = ""

	s.logger.Info("user registered", zap.String("user_id", userID.Hex()), zap.String("role", string(role)))
	return user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		err = errors.New("email and password cannot be empty")
		return
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed
		}
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err = s.generateJWT(user)
	if err != nil {
		s.logger.Error("failed to sign token", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// GetUser loads the user a token was issued to.
func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// --- JWT Helpers ---

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates signature, expiry and issuer and returns the claims.
func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyIssuer(tokenIssuer, true) || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
