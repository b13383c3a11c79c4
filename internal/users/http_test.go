package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProfiles struct {
	users map[string]*User
}

func (m *memProfiles) Get(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *memProfiles) UpdateProfile(_ context.Context, id, displayName, photoURL string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	if photoURL != "" {
		u.PhotoURL = photoURL
	}
	return u, nil
}

func newProfileRouter(userID string) (*gin.Engine, *memProfiles) {
	gin.SetMode(gin.TestMode)
	store := &memProfiles{users: map[string]*User{"u-1": {ID: "u-1", Email: "sam@example.com", DisplayName: "Sam"}}}
	r := gin.New()
	NewHandler(store, func(*gin.Context) string { return userID }).Register(r.Group(""))
	return r, store
}

func TestProfile_Get(t *testing.T) {
	r, _ := newProfileRouter("u-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"sam@example.com"`)

	r, _ = newProfileRouter("u-404")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfile_Update(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"rename", `{"display_name":"  Sam Rivera "}`, http.StatusOK},
		{"photo", `{"photo_url":"https://cdn.example.com/a.png"}`, http.StatusOK},
		{"bad photo", `{"photo_url":"javascript:alert(1)"}`, http.StatusBadRequest},
		{"long name", `{"display_name":"` + strings.Repeat("x", 121) + `"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, store := newProfileRouter("u-1")
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPatch, "/me", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.name == "rename" {
				assert.Equal(t, "Sam Rivera", store.users["u-1"].DisplayName)
			}
		})
	}
}
