package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gosbiromania/storefront-backend/internal/customers"
	pkgAuth "github.com/gosbiromania/storefront-backend/pkg/auth"
	"github.com/gosbiromania/storefront-backend/pkg/auth/session"
	"github.com/gosbiromania/storefront-backend/pkg/config"
	"github.com/gosbiromania/storefront-backend/pkg/db"
	"github.com/gosbiromania/storefront-backend/pkg/db/models"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	pkgerrors "github.com/gosbiromania/storefront-backend/pkg/errors"
	"github.com/gosbiromania/storefront-backend/pkg/security"
	"github.com/gosbiromania/storefront-backend/pkg/types"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req Credentials) (*LoginResponse, error)
	Login(ctx context.Context, req Credentials) (*LoginResponse, error)
	AdminLogin(ctx context.Context, req Credentials) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type customerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, customerID uuid.UUID, role enums.CustomerRole) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, session.Session, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Customers      customerRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Clock          func() time.Time
}

type service struct {
	customers   customerRepository
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		customers:   params.Customers,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         clock,
	}, nil
}

// Register creates a pending client account and signs it in. Prices stay
// hidden until an admin approves the account.
func (s *service) Register(ctx context.Context, req Credentials) (*LoginResponse, error) {
	phone := customers.NormalizePhone(req.Phone)
	if !customers.ValidPhone(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid phone number").
			WithDetails(map[string]string{"phone": "must be at least 9 characters"})
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password").
			WithDetails(map[string]string{"password": "must be at least 6 characters"})
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	customer := &models.Customer{
		Phone:        phone,
		PasswordHash: hash,
		Role:         enums.CustomerRoleClient,
		Status:       enums.CustomerStatusPending,
		Contact:      types.Contact{Completed: false},
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return s.issue(ctx, customer)
}

func (s *service) Login(ctx context.Context, req Credentials) (*LoginResponse, error) {
	customer, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, customer)
}

// AdminLogin only admits admins; everyone else gets the same response as a
// wrong password.
func (s *service) AdminLogin(ctx context.Context, req Credentials) (*LoginResponse, error) {
	customer, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if customer.Role != enums.CustomerRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return s.issue(ctx, customer)
}

// Refresh rotates the session bound to the (possibly expired) access token.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(req.AccessToken))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	accessID, sess, err := s.session.Rotate(ctx, claims.ID, strings.TrimSpace(req.RefreshToken))
	if errors.Is(err, session.ErrInvalidRefreshToken) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgAuth.AccessTokenPayload{
		CustomerID: sess.CustomerID,
		Role:       sess.Role,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{AccessToken: token, RefreshToken: sess.Token}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, req Credentials) (*models.Customer, error) {
	phone := customers.NormalizePhone(req.Phone)
	if phone == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	customer, err := s.customers.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}
	valid, err := security.VerifyPassword(req.Password, customer.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	s.upgradeHash(ctx, customer, req.Password)
	return customer, nil
}

// upgradeHash re-encodes the password when the argon costs changed. A failed
// write leaves the old hash in place for the next login to retry.
func (s *service) upgradeHash(ctx context.Context, customer *models.Customer, password string) {
	if !security.NeedsRehash(customer.PasswordHash, s.passwordCfg) {
		return
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return
	}
	if err := s.customers.UpdatePasswordHash(ctx, customer.ID, hash); err != nil {
		return
	}
	customer.PasswordHash = hash
}

func (s *service) issue(ctx context.Context, customer *models.Customer) (*LoginResponse, error) {
	now := s.now().UTC()
	if err := s.customers.TouchLastLogin(ctx, customer.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	customer.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		CustomerID: customer.ID,
		Role:       customer.Role,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID, customer.ID, customer.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &LoginResponse{
		TokenPair: TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
		Customer:  customers.FromModel(*customer),
	}, nil
}
