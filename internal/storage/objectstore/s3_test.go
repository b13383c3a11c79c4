package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/config"
)

func testStore(endpoint string) *S3Store {
	awsCfg := aws.Config{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDTEST", SecretAccessKey: "secret"}, nil
		}),
	}
	return NewS3StoreFromConfig(awsCfg, config.StorageConfig{
		Bucket:     "docs",
		Region:     "us-east-1",
		Endpoint:   endpoint,
		PresignTTL: 5 * time.Minute,
	})
}

func TestS3Store_PresignPut(t *testing.T) {
	store := testStore("http://localhost:9000")

	raw, err := store.PresignPut(context.Background(), "companies/c/projects/p/x/plan.pdf", "application/pdf", 2048)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/docs/companies/c/projects/p/x/plan.pdf", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	signed := strings.Split(u.Query().Get("X-Amz-SignedHeaders"), ";")
	assert.Contains(t, signed, "content-length")
	assert.Contains(t, signed, "content-type")
}

func TestS3Store_PresignGetSetsDisposition(t *testing.T) {
	store := testStore("http://localhost:9000")

	raw, err := store.PresignGet(context.Background(), "k/plan.pdf", "plan.pdf")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, `attachment; filename="plan.pdf"`, u.Query().Get("response-content-disposition"))
}

func TestS3Store_Delete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := testStore(srv.URL)
	require.NoError(t, store.Delete(context.Background(), "k/plan.pdf"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.True(t, strings.HasSuffix(gotPath, "/docs/k/plan.pdf"), gotPath)
}
