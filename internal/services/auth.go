package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/normalization"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/ctxutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

// ResetCodeTTL is how long a password reset OTP stays valid.
const ResetCodeTTL = 15 * time.Minute

type RegisterInput struct {
	Username  string
	Email     string
	Phone     string
	Password  string
	FirstName string
	LastName  string
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserRole    string `json:"user_role"`
	UserName    string `json:"user_name"`
	ExpiresIn   int    `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	// Authenticate verifies a bearer token and resolves the caller once.
	Authenticate(ctx context.Context, token string) (user.Identity, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	CurrentUser(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, firstName, lastName string) (*types.User, error)
	ForgotPassword(ctx context.Context, identifier string) error
	ResetPassword(ctx context.Context, identifier, code, newPassword string) error
	GetAccessTTL() time.Duration
}

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	otp          OTPDispatcher
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	otp OTPDispatcher,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		otp:          otp,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalization.ParseInputString(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	switch {
	case in.Username == "":
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "username is required")
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "a valid email is required")
	case len(in.Password) < 6:
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "password must be at least 6 characters")
	}

	dbc := dbctx.Context{Ctx: ctx}
	field, err := as.userRepo.Exists(dbc, in.Email, in.Username, in.Phone)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if field != "" {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "%s is already registered", field)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := as.userRepo.Create(dbc, &types.User{
		Username:  in.Username,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  string(hash),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      user.RoleUser,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	as.log.Info("User registered", "user_id", u.ID)
	return u, nil
}

func (as *authService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	u, err := as.userRepo.GetByIdentifier(dbctx.Context{Ctx: ctx}, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.Wrap(apierr.ErrUnauthenticated, "login failed")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, apierr.Wrap(apierr.ErrUnauthenticated, "login failed")
	}
	tok, err := as.generateAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &LoginResult{
		AccessToken: tok,
		TokenType:   "bearer",
		UserRole:    u.Role,
		UserName:    u.FirstName,
		ExpiresIn:   int(as.accessTTL.Seconds()),
	}, nil
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) Authenticate(ctx context.Context, tokenString string) (user.Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if len(tokenString) > 7 && strings.EqualFold(tokenString[:7], "Bearer ") {
		tokenString = strings.TrimSpace(tokenString[7:])
	}
	if tokenString == "" {
		return user.Identity{}, apierr.Wrap(apierr.ErrUnauthenticated, "missing token")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return user.Identity{}, fmt.Errorf("%w: parse token: %v", apierr.ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return user.Identity{}, apierr.Wrap(apierr.ErrUnauthenticated, "invalid or expired token")
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return user.Identity{}, apierr.Wrap(apierr.ErrUnauthenticated, "invalid subject in token")
	}

	u, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.Identity{}, apierr.Wrap(apierr.ErrUnauthenticated, "user no longer exists")
		}
		return user.Identity{}, fmt.Errorf("load user: %w", err)
	}
	return user.Identity{UserID: u.ID, Role: u.Role, TenantID: u.TenantID}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	id, err := as.Authenticate(ctx, tokenString)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      id.UserID,
		Role:        id.Role,
		TenantID:    id.TenantID,
	}), nil
}

func (as *authService) CurrentUser(ctx context.Context) (*types.User, error) {
	id, err := IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	u, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, id.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.Wrap(apierr.ErrNotFound, "user not found")
		}
		return nil, err
	}
	return u, nil
}

func (as *authService) UpdateProfile(ctx context.Context, firstName, lastName string) (*types.User, error) {
	id, err := IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if v := strings.TrimSpace(firstName); v != "" {
		updates["first_name"] = v
	}
	if v := strings.TrimSpace(lastName); v != "" {
		updates["last_name"] = v
	}
	if err := as.userRepo.UpdateFields(dbctx.Context{Ctx: ctx}, id.UserID, updates); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return as.CurrentUser(ctx)
}

// ForgotPassword never reveals whether identifier matched a user.
func (as *authService) ForgotPassword(ctx context.Context, identifier string) error {
	dbc := dbctx.Context{Ctx: ctx}
	u, err := as.userRepo.GetByIdentifier(dbc, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	code, err := newOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expires := as.now().UTC().Add(ResetCodeTTL)
	if err := as.userRepo.UpdateFields(dbc, u.ID, map[string]any{
		"reset_code":            code,
		"reset_code_expires_at": expires,
	}); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}
	as.log.Info("Password reset requested", "user_id", u.ID)

	if as.otp != nil {
		target := OTPTarget{Email: u.Email, Phone: u.Phone, Name: u.FirstName}
		go as.otp.DispatchOTP(context.WithoutCancel(ctx), target, code)
	}
	return nil
}

func (as *authService) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	if len(newPassword) < 6 {
		return apierr.Wrap(apierr.ErrInvalidArgument, "password must be at least 6 characters")
	}
	dbc := dbctx.Context{Ctx: ctx}
	u, err := as.userRepo.GetByIdentifier(dbc, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.Wrap(apierr.ErrInvalidArgument, "invalid or expired code")
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	code = strings.TrimSpace(code)
	if u.ResetCode == "" || code == "" ||
		subtle.ConstantTimeCompare([]byte(u.ResetCode), []byte(code)) != 1 ||
		u.ResetCodeExpiresAt == nil || as.now().After(*u.ResetCodeExpiresAt) {
		return apierr.Wrap(apierr.ErrInvalidArgument, "invalid or expired code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := as.userRepo.UpdateFields(dbc, u.ID, map[string]any{
		"password":              string(hash),
		"reset_code":            "",
		"reset_code_expires_at": nil,
	}); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	as.log.Info("Password reset", "user_id", u.ID)
	return nil
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// IdentityFromContext returns the caller attached by the auth middleware.
func IdentityFromContext(ctx context.Context) (user.Identity, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == 0 {
		return user.Identity{}, apierr.Wrap(apierr.ErrUnauthenticated, "not signed in")
	}
	return user.Identity{UserID: rd.UserID, Role: rd.Role, TenantID: rd.TenantID}, nil
}

func requireAdmin(ctx context.Context) (user.Identity, error) {
	id, err := IdentityFromContext(ctx)
	if err != nil {
		return id, err
	}
	if !id.IsAdmin() {
		return id, apierr.Wrap(apierr.ErrForbidden, "admin only")
	}
	return id, nil
}
