package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.NotFound("lead")))
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperr.Validation("bad")))
	assert.Equal(t, http.StatusConflict, StatusFor(apperr.Transition("lead", "won", "new")))
	assert.Equal(t, http.StatusConflict, StatusFor(fmt.Errorf("x: %w", apperr.Conflict("dup"))))
	assert.Equal(t, http.StatusForbidden, StatusFor(apperr.ErrForbidden))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestErrorHidesInternalMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { Error(c, errors.New("pq: password authentication failed")) })
	r.GET("/y", func(c *gin.Context) { Error(c, apperr.Validation("name is required")) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"ok":false,"error":"internal error"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/y", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"ok":false,"error":"name is required"}`, rr.Body.String())
}

func TestParsePage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := map[string]Page{
		"/":                      {Limit: DefaultLimit},
		"/?limit=10&offset=20":   {Limit: 10, Offset: 20},
		"/?limit=1000":           {Limit: MaxLimit},
		"/?limit=-1&offset=nope": {Limit: DefaultLimit},
	}
	for target, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		assert.Equal(t, want, ParsePage(c), target)
	}
}

func TestQueryDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Request = httptest.NewRequest(http.MethodGet, "/?from=2024-03-05", nil)
	d, err := QueryDate(c, "from")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 5, d.Day())

	c.Request = httptest.NewRequest(http.MethodGet, "/?from=05/03/2024", nil)
	_, err = QueryDate(c, "from")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	d, err = QueryDate(c, "from")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestParamID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := ParamID(c, "id")
		if !ok {
			return
		}
		c.String(http.StatusOK, id)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/6f1c0d3e-8a4b-4a51-9f0e-2b1c3d4e5f60", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
