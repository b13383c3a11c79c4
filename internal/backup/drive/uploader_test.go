package drive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeDrive struct {
	mu       sync.Mutex
	folders  map[string]bool
	created  []string
	uploaded map[string]string
}

func newFakeDrive(t *testing.T) (*fakeDrive, *Uploader) {
	t.Helper()
	fd := &fakeDrive{folders: map[string]bool{"live": false, "binned": true}, uploaded: map[string]string{}}
	srv := httptest.NewServer(fd)
	t.Cleanup(srv.Close)

	u, err := NewUploader(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return fd, u
}

func (fd *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/files/"):
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		trashed, ok := fd.folders[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"File not found"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "trashed": trashed})

	case r.Method == http.MethodPost && r.URL.Query().Get("uploadType") != "":
		body, _ := io.ReadAll(r.Body)
		id := "file-" + string(rune('a'+len(fd.uploaded)))
		fd.uploaded[id] = string(body)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id})

	case r.Method == http.MethodPost:
		var f struct {
			Name     string `json:"name"`
			MimeType string `json:"mimeType"`
		}
		_ = json.NewDecoder(r.Body).Decode(&f)
		if f.MimeType != folderMimeType {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fd.created = append(fd.created, f.Name)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "folder-new"})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestEnsureFolder(t *testing.T) {
	tests := []struct {
		name        string
		folderID    string
		want        string
		wantCreated bool
	}{
		{"no folder yet", "", "folder-new", true},
		{"existing folder kept", "live", "live", false},
		{"trashed folder replaced", "binned", "folder-new", true},
		{"deleted folder replaced", "gone", "folder-new", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd, u := newFakeDrive(t)
			got, err := u.EnsureFolder(context.Background(), tt.folderID, "CoreBuild Backups")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.wantCreated {
				assert.Equal(t, []string{"CoreBuild Backups"}, fd.created)
			} else {
				assert.Empty(t, fd.created)
			}
		})
	}
}

func TestUpload(t *testing.T) {
	fd, u := newFakeDrive(t)

	id, err := u.Upload(context.Background(), "live", "corebuild-backup-co-1.dump", strings.NewReader("PGDMP-archive"))
	require.NoError(t, err)
	require.Contains(t, fd.uploaded, id)

	body := fd.uploaded[id]
	assert.Contains(t, body, "PGDMP-archive")
	assert.Contains(t, body, `"parents":["live"]`)
	assert.Contains(t, body, "corebuild-backup-co-1.dump")
}
