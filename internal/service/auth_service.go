package service

import (
	"context"
	"crypto/rand"
	"datalingua/internal/config"
	"datalingua/internal/logger"
	"datalingua/internal/model"
	"datalingua/internal/repository"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailNotVerified   = errors.New("email address is not verified")
	ErrAccountPending     = errors.New("account is awaiting approval")
	ErrAccountBanned      = errors.New("account is banned")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrEmailTaken         = errors.New("email is already registered")
)

const (
	adminAccountID   = "admin"
	codeValidity     = 15 * time.Minute
	minPasswordChars = 8
)

// AuthService handles admin and researcher authentication
type AuthService struct {
	adminUsername string
	adminPassword string
	jwtSecret     []byte
	tokenTTL      time.Duration
	userRepo      repository.UserRepo
	mailer        Mailer
	now           func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig, userRepo repository.UserRepo, mailer Mailer) *AuthService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &AuthService{
		adminUsername: cfg.AdminUsername,
		adminPassword: cfg.AdminPassword,
		jwtSecret:     []byte(cfg.JWTSecret),
		tokenTTL:      cfg.TTL(),
		userRepo:      userRepo,
		mailer:        mailer,
		now:           time.Now,
	}
}

// Login validates the configured admin credentials
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.adminUsername || password != s.adminPassword {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issue(adminAccountID, "", model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, AccountID: adminAccountID, Role: model.RoleAdmin}, nil
}

func (s *AuthService) issue(accountID, email string, role model.Role) (string, error) {
	now := s.now()
	claims := &model.Claims{
		AccountID: accountID,
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// Register creates an unverified researcher account and sends its code
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(req.Password) < minPasswordChars {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordChars)
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	code, err := verificationCode()
	if err != nil {
		return nil, err
	}
	until := s.now().Add(codeValidity)

	user := &model.User{
		Email:                  email,
		PasswordHash:           string(hash),
		FirstName:              strings.TrimSpace(req.FirstName),
		LastName:               strings.TrimSpace(req.LastName),
		Organization:           req.Organization,
		ResearchArea:           req.ResearchArea,
		Purpose:                req.Purpose,
		EmailVerificationCode:  code,
		EmailVerificationUntil: &until,
		IsActive:               true,
	}
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		logger.WithError(err).Warnf("failed to send verification code to %s", email)
	}
	return user, nil
}

func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// VerifyEmail confirms the researcher's address with the emailed code
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCode
	}
	if user.IsEmailVerified {
		return user, nil
	}
	if user.EmailVerificationCode == "" || user.EmailVerificationCode != strings.TrimSpace(code) ||
		user.EmailVerificationUntil == nil || s.now().After(*user.EmailVerificationUntil) {
		return nil, ErrInvalidCode
	}

	user.IsEmailVerified = true
	user.EmailVerificationCode = ""
	user.EmailVerificationUntil = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UserLogin authenticates a researcher. The account must be verified,
// approved and not under an active ban; an expired ban is lifted here.
func (s *AuthService) UserLogin(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.allowed(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issue(user.ID, user.Email, model.RoleResearcher)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, AccountID: user.ID, Role: model.RoleResearcher, User: user}, nil
}

func (s *AuthService) allowed(ctx context.Context, user *model.User) error {
	if !user.IsEmailVerified {
		return ErrEmailNotVerified
	}
	if user.IsBanned {
		if user.BanActive(s.now()) {
			return ErrAccountBanned
		}
		liftBan(user)
		if err := s.userRepo.Update(ctx, user); err != nil {
			logger.WithError(err).Warnf("failed to lift expired ban of %s", user.ID)
		}
	}
	if !user.IsApproved || !user.IsActive {
		return ErrAccountPending
	}
	return nil
}

// ValidateToken parses a JWT. Researcher tokens are also checked against the
// account so bans and revoked approvals apply immediately.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*model.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	switch claims.Role {
	case model.RoleAdmin:
		return claims, nil
	case model.RoleResearcher:
		user, err := s.userRepo.GetByID(ctx, claims.AccountID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrInvalidToken
		}
		if err := s.allowed(ctx, user); err != nil {
			return nil, err
		}
		return claims, nil
	default:
		return nil, ErrInvalidToken
	}
}

// Me returns the account behind the claims; admins have no stored user
func (s *AuthService) Me(ctx context.Context, claims *model.Claims) (*model.LoginResponse, error) {
	me := &model.LoginResponse{AccountID: claims.AccountID, Role: claims.Role}
	if claims.Role != model.RoleResearcher {
		return me, nil
	}
	user, err := s.userRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	me.User = user
	return me, nil
}
