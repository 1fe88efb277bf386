package search

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lnrelease/lnc/pkg/binder"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerTypeahead(t *testing.T) {
	db := testutils.NewDB(t)
	overlord := testutils.CreateSeries(t, db, "Overlord")
	for _, v := range []string{"1", "2", "3"} {
		testutils.CreateVolume(t, db, overlord, v)
	}

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	RegisterRoutesWithGroup(e.Group("/search"), db)

	t.Run("limits each list", func(t *testing.T) {
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/search?q=overlord&limit=2", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp GlobalSearchResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp.Series, 1)
		assert.Len(t, resp.Volumes, 2)
	})

	t.Run("rejects a missing query", func(t *testing.T) {
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/search", nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("rejects a large limit", func(t *testing.T) {
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/search?q=overlord&limit=50", nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}
