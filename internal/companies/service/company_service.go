package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/companies/domain"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	"github.com/corebuild/corebuild-backend/internal/users"
)

type Repository interface {
	Create(ctx context.Context, c *domain.Company, ownerUserID string) error
	ListForUser(ctx context.Context, userID string) ([]domain.Membership, error)
	Get(ctx context.Context, id string) (*domain.Company, error)
	Update(ctx context.Context, c *domain.Company) error
	ListMembers(ctx context.Context, companyID string) ([]domain.Member, error)
	AddMember(ctx context.Context, companyID, userID, role string) error
}

type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
}

// CompanyService handles tenant lifecycle and membership.
type CompanyService struct {
	repo  Repository
	users UserDirectory
}

func NewCompanyService(repo Repository, users UserDirectory) *CompanyService {
	return &CompanyService{repo: repo, users: users}
}

func (s *CompanyService) Create(ctx context.Context, ownerUserID string, req domain.CreateCompanyRequest) (*domain.Company, error) {
	c := &domain.Company{
		Name:              strings.TrimSpace(req.Name),
		Address:           strings.TrimSpace(req.Address),
		Phone:             strings.TrimSpace(req.Phone),
		Email:             strings.TrimSpace(req.Email),
		DefaultTaxRateBPS: req.DefaultTaxRateBPS,
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c, ownerUserID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CompanyService) ListForUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *CompanyService) Get(ctx context.Context, id string) (*domain.Company, error) {
	return s.repo.Get(ctx, id)
}

// DefaultTaxRate returns the rate new estimates and invoices start with.
func (s *CompanyService) DefaultTaxRate(ctx context.Context, id string) (int64, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.DefaultTaxRateBPS, nil
}

func (s *CompanyService) Update(ctx context.Context, id string, req domain.UpdateCompanyRequest) (*domain.Company, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		c.Address = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		c.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		c.Email = strings.TrimSpace(*req.Email)
	}
	if req.DefaultTaxRateBPS != nil {
		c.DefaultTaxRateBPS = *req.DefaultTaxRateBPS
	}

	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CompanyService) ListMembers(ctx context.Context, companyID string) ([]domain.Member, error) {
	return s.repo.ListMembers(ctx, companyID)
}

// AddMember grants an existing user access to the company. The user must have
// signed in at least once so a users row exists.
func (s *CompanyService) AddMember(ctx context.Context, companyID, email, role string) (*users.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("a valid email is required")
	}
	if role != auth.RoleAdmin && role != auth.RoleMember {
		return nil, apperr.Validation("role must be admin or member")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddMember(ctx, companyID, u.ID, role); err != nil {
		return nil, err
	}
	return u, nil
}

func validate(c *domain.Company) error {
	if c.Name == "" {
		return apperr.Validation("name is required")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return apperr.Validation("email is invalid")
		}
	}
	if c.DefaultTaxRateBPS < 0 || c.DefaultTaxRateBPS > platform.BasisPointsMax {
		return apperr.Validation("default_tax_rate_bps must be between 0 and %d", platform.BasisPointsMax)
	}
	return nil
}
