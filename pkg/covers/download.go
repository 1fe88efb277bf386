package covers

import (
	"context"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// Download is an in-flight image body plus whatever the server said about it.
type Download struct {
	Body     io.ReadCloser
	MimeType *string
	Length   *int64
	FileName *string
}

// Downloader fetches images and reads their dimensions.
type Downloader interface {
	Download(ctx context.Context, url string) (*Download, error)
	Measure(path string) (width, height int, err error)
}

type HTTPDownloader struct {
	httpClient *http.Client
}

func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{httpClient: &http.Client{Timeout: timeout}}
}

// Download issues the request. The caller owns Body.
func (d *HTTPDownloader) Download(ctx context.Context, url string) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	dl := &Download{Body: resp.Body}

	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mediaType != "application/octet-stream" {
		dl.MimeType = &mediaType
	}
	if resp.ContentLength >= 0 {
		length := resp.ContentLength
		dl.Length = &length
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name := params["filename"]
		dl.FileName = &name
	} else if name := path.Base(resp.Request.URL.Path); name != "/" && name != "." {
		dl.FileName = &name
	}

	return dl, nil
}

// Measure decodes only the image header at p.
func (d *HTTPDownloader) Measure(p string) (int, int, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, 0, errors.WithStack(err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.WithStack(err)
	}
	return cfg.Width, cfg.Height, nil
}

// detectMimeType sniffs the file contents when the server didn't say.
func detectMimeType(p string) (string, error) {
	mt, err := mimetype.DetectFile(p)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return mt.String(), nil
}
