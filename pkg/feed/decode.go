package feed

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const dateLayout = "2006-01-02"

// Series is one entry of the feed's series table.
type Series struct {
	Slug string
	Name string
}

// Novel is a data row with its series and publisher indices resolved. Format
// is still the upstream bitmask.
type Novel struct {
	Series        string
	SeriesSlug    string
	Publisher     string
	PublisherSlug string
	URL           string
	Title         string
	Volume        string
	Format        models.FormatFlags
	ISBN          *string
	ReleaseDate   time.Time
}

// row is a data row before index resolution.
type row struct {
	seriesIndex    int
	url            string
	publisherIndex int
	title          string
	volume         string
	format         models.FormatFlags
	isbn           *string
	date           string
}

type field struct {
	name   string
	decode func(raw json.RawMessage, r *row) error
}

// rowFields maps array positions of a data row to fields, in order.
var rowFields = [...]field{
	{"series", func(raw json.RawMessage, r *row) error { return json.Unmarshal(raw, &r.seriesIndex) }},
	{"url", func(raw json.RawMessage, r *row) error { return json.Unmarshal(raw, &r.url) }},
	{"publisher", func(raw json.RawMessage, r *row) error { return json.Unmarshal(raw, &r.publisherIndex) }},
	{"title", func(raw json.RawMessage, r *row) error { return json.Unmarshal(raw, &r.title) }},
	{"volume", func(raw json.RawMessage, r *row) error { return decodeText(raw, &r.volume) }},
	{"format", func(raw json.RawMessage, r *row) error { return json.Unmarshal(raw, &r.format) }},
	{"isbn", func(raw json.RawMessage, r *row) error { return json.Unmarshal(raw, &r.isbn) }},
	{"date", func(raw json.RawMessage, r *row) error { return json.Unmarshal(raw, &r.date) }},
}

const seriesArity = 2

// Document is a decoded feed whose series and publisher tables are resolved
// up front and whose data rows are decoded lazily.
type Document struct {
	Series     []Series
	Publishers []string

	rows []json.RawMessage
}

type rawDocument struct {
	Series     []json.RawMessage `json:"series"`
	Publishers []string          `json:"publishers"`
	Data       []json.RawMessage `json:"data"`
}

// Decode reads a whole feed document from r.
func Decode(r io.Reader) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return DecodeBytes(b)
}

func DecodeBytes(b []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &StructuralError{Section: "document", Row: -1, Reason: "root is not an object"}
	}

	raw := rawDocument{}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &StructuralError{Section: "document", Row: -1, Reason: err.Error()}
	}

	doc := &Document{
		Series:     make([]Series, len(raw.Series)),
		Publishers: raw.Publishers,
		rows:       raw.Data,
	}
	for i, entry := range raw.Series {
		var pair []string
		if err := json.Unmarshal(entry, &pair); err != nil {
			return nil, &StructuralError{Section: "series", Row: i, Reason: err.Error()}
		}
		if len(pair) != seriesArity {
			return nil, &StructuralError{Section: "series", Row: i, Reason: arityReason(seriesArity, len(pair))}
		}
		doc.Series[i] = Series{Slug: pair[0], Name: pair[1]}
	}

	return doc, nil
}

// Len is the number of data rows in the document.
func (d *Document) Len() int {
	return len(d.rows)
}

// Novels decodes data rows in order. The sequence stops after the first
// error, which is always a *StructuralError.
func (d *Document) Novels() iter.Seq2[*Novel, error] {
	return func(yield func(*Novel, error) bool) {
		for i := range d.rows {
			n, err := d.novel(i)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(n, nil) {
				return
			}
		}
	}
}

func (d *Document) novel(i int) (*Novel, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(d.rows[i], &fields); err != nil {
		return nil, &StructuralError{Section: "data", Row: i, Reason: "row is not an array"}
	}
	if len(fields) != len(rowFields) {
		return nil, &StructuralError{Section: "data", Row: i, Reason: arityReason(len(rowFields), len(fields))}
	}

	r := row{}
	for pos, f := range rowFields {
		if err := f.decode(fields[pos], &r); err != nil {
			return nil, &StructuralError{Section: "data", Row: i, Field: f.name, Reason: err.Error()}
		}
	}

	if r.seriesIndex < 0 || r.seriesIndex >= len(d.Series) {
		return nil, &StructuralError{Section: "data", Row: i, Field: "series", Reason: indexReason(r.seriesIndex, len(d.Series))}
	}
	if r.publisherIndex < 0 || r.publisherIndex >= len(d.Publishers) {
		return nil, &StructuralError{Section: "data", Row: i, Field: "publisher", Reason: indexReason(r.publisherIndex, len(d.Publishers))}
	}

	date, err := time.ParseInLocation(dateLayout, r.date, time.UTC)
	if err != nil {
		return nil, &StructuralError{Section: "data", Row: i, Field: "date", Reason: err.Error()}
	}

	series := d.Series[r.seriesIndex]
	publisher := d.Publishers[r.publisherIndex]
	var isbn *string
	if r.isbn != nil {
		isbn = models.NormalizeISBN(*r.isbn)
	}

	return &Novel{
		Series:        series.Name,
		SeriesSlug:    models.GenerateSlug(series.Slug),
		Publisher:     publisher,
		PublisherSlug: models.GenerateSlug(publisher),
		URL:           r.url,
		Title:         r.title,
		Volume:        r.volume,
		Format:        r.format,
		ISBN:          isbn,
		ReleaseDate:   date,
	}, nil
}

// decodeText accepts a JSON string or a bare number, since volume labels
// sometimes arrive unquoted.
func decodeText(raw json.RawMessage, dst *string) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return err
		}
		*dst = n.String()
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func arityReason(want, got int) string {
	return fmt.Sprintf("expected %d fields, got %d", want, got)
}

func indexReason(index, length int) string {
	return fmt.Sprintf("index %d out of range [0, %d)", index, length)
}
