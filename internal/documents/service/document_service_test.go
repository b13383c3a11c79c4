package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/internal/documents/domain"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type memRepo struct {
	docs map[string]*domain.Document
}

func (m *memRepo) Create(_ context.Context, d *domain.Document) error {
	cp := *d
	m.docs[d.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, companyID, id string) (*domain.Document, error) {
	d, ok := m.docs[id]
	if !ok || d.CompanyID != companyID {
		return nil, domain.ErrDocumentNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memRepo) ListByProject(context.Context, string, string, string) ([]domain.Document, error) {
	return nil, nil
}

func (m *memRepo) Delete(_ context.Context, _, id string) error {
	delete(m.docs, id)
	return nil
}

type fakeStore struct {
	deleted   []string
	deleteErr error
	putSizes  []int64
}

func (f *fakeStore) PresignPut(_ context.Context, key, _ string, size int64) (string, error) {
	f.putSizes = append(f.putSizes, size)
	return "https://s3.test/put/" + key, nil
}

func (f *fakeStore) PresignGet(_ context.Context, key, _ string) (string, error) {
	return "https://s3.test/get/" + key, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

type projects struct{}

func (projects) Get(_ context.Context, companyID, id string) (*projectdomain.Project, error) {
	if companyID == "co-1" && id == "p-1" {
		return &projectdomain.Project{ID: id, CompanyID: companyID}, nil
	}
	return nil, projectdomain.ErrProjectNotFound
}

func TestDocumentService_CreateAndDownload(t *testing.T) {
	repo := &memRepo{docs: map[string]*domain.Document{}}
	store := &fakeStore{}
	svc := NewDocumentService(repo, projects{}, store)
	ctx := context.Background()

	doc, uploadURL, err := svc.Create(ctx, "co-1", "p-1", domain.CreateDocumentRequest{
		Name:       "Site plan v2.pdf",
		SizeBytes:  2048,
		Category:   "Plan",
		UploadedBy: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "plan", doc.Category)
	assert.Equal(t, "application/octet-stream", doc.ContentType)
	assert.Equal(t, "companies/co-1/projects/p-1/"+doc.ID+"/Site_plan_v2.pdf", doc.StorageKey)
	assert.Equal(t, "https://s3.test/put/"+doc.StorageKey, uploadURL)
	assert.Equal(t, []int64{2048}, store.putSizes)
	require.NotNil(t, doc.UploadedBy)

	got, downloadURL, err := svc.Download(ctx, "co-1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.True(t, strings.HasPrefix(downloadURL, "https://s3.test/get/companies/co-1/"))

	_, _, err = svc.Download(ctx, "co-2", doc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDocumentService_CreateValidation(t *testing.T) {
	svc := NewDocumentService(&memRepo{docs: map[string]*domain.Document{}}, projects{}, &fakeStore{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.CreateDocumentRequest
	}{
		{"missing name", domain.CreateDocumentRequest{}},
		{"bad category", domain.CreateDocumentRequest{Name: "a.pdf", Category: "receipt"}},
		{"bad content type", domain.CreateDocumentRequest{Name: "a.pdf", ContentType: "pdf;;"}},
		{"too large", domain.CreateDocumentRequest{Name: "a.pdf", SizeBytes: domain.MaxSizeBytes + 1}},
		{"empty", domain.CreateDocumentRequest{Name: "a.pdf", SizeBytes: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Create(ctx, "co-1", "p-1", tt.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestDocumentService_DeleteKeepsRowWhenObjectDeleteFails(t *testing.T) {
	repo := &memRepo{docs: map[string]*domain.Document{}}
	store := &fakeStore{}
	svc := NewDocumentService(repo, projects{}, store)
	ctx := context.Background()

	doc, _, err := svc.Create(ctx, "co-1", "p-1", domain.CreateDocumentRequest{Name: "permit.pdf", Category: "permit", SizeBytes: 512})
	require.NoError(t, err)

	store.deleteErr = errors.New("s3 down")
	require.Error(t, svc.Delete(ctx, "co-1", doc.ID))
	assert.Contains(t, repo.docs, doc.ID)

	store.deleteErr = nil
	require.NoError(t, svc.Delete(ctx, "co-1", doc.ID))
	assert.NotContains(t, repo.docs, doc.ID)
	assert.Equal(t, []string{doc.StorageKey}, store.deleted)
}
