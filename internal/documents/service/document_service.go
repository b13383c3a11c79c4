package service

import (
	"context"
	"mime"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/documents/domain"
	"github.com/corebuild/corebuild-backend/internal/logging"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type Repository interface {
	Create(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, companyID, id string) (*domain.Document, error)
	ListByProject(ctx context.Context, companyID, projectID, category string) ([]domain.Document, error)
	Delete(ctx context.Context, companyID, id string) error
}

type ProjectLookup interface {
	Get(ctx context.Context, companyID, id string) (*projectdomain.Project, error)
}

// ObjectStore holds document bytes.
type ObjectStore interface {
	// PresignPut signs the content type and length, so the upload must match both.
	PresignPut(ctx context.Context, key, contentType string, size int64) (string, error)
	PresignGet(ctx context.Context, key, filename string) (string, error)
	Delete(ctx context.Context, key string) error
}

type DocumentService struct {
	repo     Repository
	projects ProjectLookup
	store    ObjectStore
}

func NewDocumentService(repo Repository, projects ProjectLookup, store ObjectStore) *DocumentService {
	return &DocumentService{repo: repo, projects: projects, store: store}
}

// Create records the metadata and returns a URL the client uploads the bytes to.
func (s *DocumentService) Create(ctx context.Context, companyID, projectID string, req domain.CreateDocumentRequest) (*domain.Document, string, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, "", err
	}

	d := &domain.Document{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		ProjectID:   projectID,
		Name:        strings.TrimSpace(req.Name),
		ContentType: strings.TrimSpace(req.ContentType),
		SizeBytes:   req.SizeBytes,
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
	}
	if d.Category == "" {
		d.Category = domain.CategoryOther
	}
	if d.ContentType == "" {
		d.ContentType = "application/octet-stream"
	}
	if req.UploadedBy != "" {
		d.UploadedBy = &req.UploadedBy
	}
	if err := validate(d); err != nil {
		return nil, "", err
	}
	d.StorageKey = domain.StorageKey(companyID, projectID, d.ID, d.Name)

	uploadURL, err := s.store.PresignPut(ctx, d.StorageKey, d.ContentType, d.SizeBytes)
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, "", err
	}
	return d, uploadURL, nil
}

func (s *DocumentService) ListByProject(ctx context.Context, companyID, projectID, category string) ([]domain.Document, error) {
	if category != "" && !domain.ValidCategory(category) {
		return nil, apperr.Validation("unknown category %q", category)
	}
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, companyID, projectID, category)
}

// Download returns the document with a short-lived download URL.
func (s *DocumentService) Download(ctx context.Context, companyID, id string) (*domain.Document, string, error) {
	d, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	u, err := s.store.PresignGet(ctx, d.StorageKey, d.Name)
	if err != nil {
		return nil, "", err
	}
	return d, u, nil
}

// Delete removes the object first so a failed delete leaves the row to retry from.
func (s *DocumentService) Delete(ctx context.Context, companyID, id string) error {
	d, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, d.StorageKey); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("document deleted",
		zap.String("company_id", companyID),
		zap.String("document_id", id),
	)
	return nil
}

func validate(d *domain.Document) error {
	if d.Name == "" {
		return apperr.Validation("name is required")
	}
	if !domain.ValidCategory(d.Category) {
		return apperr.Validation("unknown category %q", d.Category)
	}
	if _, _, err := mime.ParseMediaType(d.ContentType); err != nil {
		return apperr.Validation("invalid content_type %q", d.ContentType)
	}
	if d.SizeBytes < 1 || d.SizeBytes > domain.MaxSizeBytes {
		return apperr.Validation("size_bytes must be between 1 and %d", domain.MaxSizeBytes)
	}
	return nil
}
