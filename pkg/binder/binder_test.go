package binder

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Hello string `json:"hello" mod:"trim" validate:"max=9"`
	Omit  string `json:"-"`
}

type queryParams struct {
	Start string   `query:"start" json:"start" validate:"omitempty,date"`
	ISBN  []string `query:"isbn" json:"isbn" validate:"dive,isbn"`
	Size  int      `query:"size" json:"size" default:"20" validate:"min=1,max=100"`
}

var (
	goodJSON             = `{"hello":" world "}`
	unknownFieldsErrJSON = `{"hello":"world","foo":"bar"}`
	typeErrJSON          = `{"hello":123}`
	validationErrJSON    = `{"hello":"0123456789"}`
)

func TestNew(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	assert.NotNil(t, b)

	t.Run("only allows application/json bodies", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"hello" should be of type string`)
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Hello)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})

	t.Run("rejects an empty POST body unless allowed", func(tt *testing.T) {
		c := newContext("", echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Request body can't be empty.")

		c = newContext("", echo.MIMEApplicationJSON)
		c.Set(DisallowEmptyBody, false)
		require.NoError(tt, b.Bind(&p, c))
	})

	t.Run("allows unknown fields when asked to", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		c.Set(DisallowUnknownFields, false)
		p := params{}
		require.NoError(tt, b.Bind(&p, c))
		assert.Equal(tt, "world", p.Hello)
	})
}

func TestBind_Query(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("decodes query params and applies defaults", func(tt *testing.T) {
		c := newQueryContext("start=2024-01-02&isbn=978-0-316-27224-7&isbn=0316272248")
		p := queryParams{}
		require.NoError(tt, b.Bind(&p, c))
		assert.Equal(tt, "2024-01-02", p.Start)
		assert.Equal(tt, []string{"978-0-316-27224-7", "0316272248"}, p.ISBN)
		assert.Equal(tt, 20, p.Size)
	})

	t.Run("rejects malformed dates", func(tt *testing.T) {
		c := newQueryContext("start=2024-13-02")
		p := queryParams{}
		err := b.Bind(&p, c)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), `"start" should be in the format of YYYY-MM-DD`)
	})

	t.Run("rejects malformed isbns", func(tt *testing.T) {
		c := newQueryContext("isbn=12345")
		p := queryParams{}
		err := b.Bind(&p, c)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), "is not a valid ISBN")
	})

	t.Run("rejects values of the wrong type", func(tt *testing.T) {
		c := newQueryContext("size=many")
		p := queryParams{}
		err := b.Bind(&p, c)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), `"size" should be of type int`)
	})

	t.Run("rejects unknown params", func(tt *testing.T) {
		c := newQueryContext("foo=bar")
		p := queryParams{}
		err := b.Bind(&p, c)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})
}

func newQueryContext(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.GET, "/?"+query, nil)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}

func newContext(payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, mime)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
