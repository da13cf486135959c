package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"salonhub/internal/caching"
	"salonhub/internal/middleware"
	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles signup, password login and token rotation.
type AuthService interface {
	Signup(ctx context.Context, req *SignupRequest) (*AuthResult, error)
	Login(ctx context.Context, req *LoginRequest, clientIP string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, tenantID, userID uuid.UUID) (*MeResponse, error)
}

type SignupRequest struct {
	BusinessName string `json:"business_name" validate:"required,min=2,max=120"`
	Slug         string `json:"slug" validate:"omitempty,min=2,max=60"`
	Timezone     string `json:"timezone"`
	Currency     string `json:"currency" validate:"omitempty,len=3"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	FirstName    string `json:"first_name" validate:"required,max=80"`
	LastName     string `json:"last_name" validate:"max=80"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Tokens   *models.TokenResponse `json:"tokens"`
	User     *models.User          `json:"user"`
	Business *models.Tenant        `json:"business"`
}

type MeResponse struct {
	User     *models.User   `json:"user"`
	Business *models.Tenant `json:"business"`
}

// AuthConfig carries token lifetimes and login throttling settings.
type AuthConfig struct {
	JWTSecret       string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	LoginAttempts   int
	LoginRateWindow time.Duration
}

type authService struct {
	tx         repositories.Transactor
	tenantRepo repositories.TenantRepository
	userRepo   repositories.UserRepository
	cacheSvc   caching.CacheService
	clock      clock.Clock
	cfg        AuthConfig
}

func NewAuthService(tx repositories.Transactor, tenantRepo repositories.TenantRepository, userRepo repositories.UserRepository,
	cacheSvc caching.CacheService, clk clock.Clock, cfg AuthConfig) AuthService {
	return &authService{
		tx:         tx,
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		cacheSvc:   cacheSvc,
		clock:      clk,
		cfg:        cfg,
	}
}

var errInvalidCredentials = errors.Unauthorizedf("invalid email or password")

func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*AuthResult, error) {
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, errors.NotValidf("timezone %q", tz)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	slug, err := s.pickSlug(ctx, req.Slug, req.BusinessName)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Annotate(err, "hash password")
	}

	now := s.clock.Now().UTC()
	tenant := &models.Tenant{
		ID:                   uuid.New(),
		Name:                 strings.TrimSpace(req.BusinessName),
		Slug:                 slug,
		Timezone:             tz,
		Currency:             currency,
		TaxRate:              decimal.Zero,
		SlotIntervalMinutes:  15,
		DepositPercent:       decimal.Zero,
		DepositDeadlineHours: 24,
		Status:               models.TenantStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         models.RoleOwner,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.tenantRepo.Create(ctx, tenant); err != nil {
			return err
		}
		return s.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("tenant_id", tenant.ID.String()).Str("slug", slug).Msg("business signed up")
	return &AuthResult{Tokens: tokens, User: user, Business: tenant}, nil
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = strings.Trim(slug[:60], "-")
	}
	return slug
}

// pickSlug uses the requested slug verbatim, or derives one from the
// business name and suffixes it when taken.
func (s *authService) pickSlug(ctx context.Context, requested, name string) (string, error) {
	if requested != "" {
		slug := Slugify(requested)
		if slug != requested {
			return "", errors.NotValidf("slug %q (use lowercase letters, digits and dashes)", requested)
		}
		return slug, nil
	}

	slug := Slugify(name)
	if slug == "" {
		slug = "salon"
	}
	_, err := s.tenantRepo.GetBySlug(ctx, slug)
	switch {
	case errors.Is(err, errors.NotFound):
		return slug, nil
	case err != nil:
		return "", err
	}
	return slug + "-" + uuid.NewString()[:6], nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest, clientIP string) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	limitKey := "login:" + email + "|" + clientIP

	limited, err := s.cacheSvc.IsRateLimited(ctx, limitKey, s.cfg.LoginAttempts, s.cfg.LoginRateWindow)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("login rate limiter unavailable")
	}
	if limited {
		return nil, errors.QuotaLimitExceededf("too many login attempts, try again later")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, errors.NotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return nil, errors.Unauthorizedf("account disabled")
	}

	tenant, err := s.tenantRepo.GetByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, errors.Forbiddenf("business suspended")
	}

	if err := s.cacheSvc.ResetRateLimit(ctx, limitKey); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("reset login rate limit")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: tokens, User: user, Business: tenant}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if refreshToken == "" {
		return nil, errors.Unauthorizedf("missing refresh token")
	}
	session, err := s.cacheSvc.ConsumeRefreshSession(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.Unauthorizedf("invalid refresh token")
	}

	userID, err := uuid.Parse(session.UserID)
	if err != nil {
		return nil, errors.Unauthorizedf("invalid refresh token")
	}
	tenantID, err := uuid.Parse(session.TenantID)
	if err != nil {
		return nil, errors.Unauthorizedf("invalid refresh token")
	}

	// Role and status may have changed since the session was issued.
	user, err := s.userRepo.GetByID(ctx, tenantID, userID)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.Unauthorizedf("invalid refresh token")
	}
	if err != nil {
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, errors.Unauthorizedf("account disabled")
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, errors.Forbiddenf("business suspended")
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.cacheSvc.DeleteRefreshSession(ctx, hashToken(refreshToken))
}

func (s *authService) Me(ctx context.Context, tenantID, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.userRepo.GetByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &MeResponse{User: user, Business: tenant}, nil
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	now := s.clock.Now()
	claims := middleware.NewAccessClaims(user.ID, user.TenantID, user.Role, now, s.cfg.AccessTTL)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, errors.Annotate(err, "sign access token")
	}

	refresh, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	session := &models.RefreshSession{
		UserID:   user.ID.String(),
		TenantID: user.TenantID.String(),
		Role:     user.Role,
		IssuedAt: now.UTC(),
	}
	if err := s.cacheSvc.SetRefreshSession(ctx, hashToken(refresh), session, s.cfg.RefreshTTL); err != nil {
		return nil, errors.Annotate(err, "store refresh token")
	}

	return &models.TokenResponse{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessTTL / time.Second),
		RefreshToken: refresh,
		UserID:       user.ID.String(),
		TenantID:     user.TenantID.String(),
		Role:         user.Role,
		IssuedAt:     now.UTC(),
	}, nil
}

// generateSecureToken returns 32 random bytes, URL-safe encoded.
func generateSecureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Annotate(err, "generate refresh token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashToken is the storage key for an opaque refresh token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
