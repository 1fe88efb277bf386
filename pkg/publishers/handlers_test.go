package publishers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lnrelease/lnc/pkg/binder"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestEcho(t *testing.T, db *bun.DB) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	RegisterRoutesWithGroup(e.Group("/publishers"), db)
	RegisterMetaRoutes(e.Group("/meta"), db)
	return e
}

func TestHandlerList(t *testing.T) {
	db := testutils.NewDB(t)
	testutils.CreatePublisher(t, db, "Yen Press")
	testutils.CreatePublisher(t, db, "J-Novel Club")
	e := newTestEcho(t, db)

	req := httptest.NewRequest(http.MethodGet, "/publishers?limit=1", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Publishers []struct {
			Name string `json:"name"`
		} `json:"publishers"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Publishers, 1)
	assert.Equal(t, "J-Novel Club", body.Publishers[0].Name)
}

func TestHandlerMetaPublishers(t *testing.T) {
	db := testutils.NewDB(t)
	testutils.CreatePublisher(t, db, "Yen Press")
	testutils.CreatePublisher(t, db, "J-Novel Club")
	e := newTestEcho(t, db)

	req := httptest.NewRequest(http.MethodGet, "/meta/publishers", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body []struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "j-novel-club", body[0].Slug)
	assert.Equal(t, "yen-press", body[1].Slug)
}

func TestHandlerRetrieve(t *testing.T) {
	db := testutils.NewDB(t)
	testutils.CreatePublisher(t, db, "Yen Press")
	e := newTestEcho(t, db)

	req := httptest.NewRequest(http.MethodGet, "/publishers/yen-press", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"Yen Press"`)

	req = httptest.NewRequest(http.MethodGet, "/publishers/unknown", nil)
	rr = httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerUpdate(t *testing.T) {
	db := testutils.NewDB(t)
	yen := testutils.CreatePublisher(t, db, "Yen Press")
	e := newTestEcho(t, db)

	body := `{"icon_url": " https://yenpress.com/icon.png ", "website": "https://yenpress.com"}`
	req := httptest.NewRequest(http.MethodPatch, "/publishers/"+yen.ID.String(), strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		IconURL string `json:"icon_url"`
		Website string `json:"website"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "https://yenpress.com/icon.png", resp.IconURL)
	assert.Equal(t, "https://yenpress.com", resp.Website)

	req = httptest.NewRequest(http.MethodPatch, "/publishers/"+yen.ID.String(), strings.NewReader(`{"website": "not a url"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr = httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
