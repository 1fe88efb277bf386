package calendar

import (
	"time"
)

const DefaultChunk = 7

// Date is a calendar day. It is always midnight UTC and encodes as
// YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	t = t.UTC()
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

func (d Date) AddMonths(n int) Date {
	return Date{d.AddDate(0, n, 0)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// Day is one calendar day and the ids released on it.
type Day[K comparable] struct {
	Date     Date `json:"date"`
	Entities []K  `json:"entities"`
}

type Chunk[K comparable] struct {
	Start   Date     `json:"start"`
	End     Date     `json:"end"`
	Entries []Day[K] `json:"entries"`
}

type Result[T any, K comparable] struct {
	Start    Date       `json:"start"`
	End      Date       `json:"end"`
	Chunk    int        `json:"chunk"`
	Entities map[K]T    `json:"entities"`
	Chunks   []Chunk[K] `json:"entries"`
}

// Calendarize buckets entities by release day and lays every day from start
// to end, inclusive, into chunks of chunk days. The last chunk is cut short
// at end when the range doesn't divide evenly. Days with nothing released
// carry an empty list.
func Calendarize[T any, K comparable](entities []T, idOf func(T) K, dateOf func(T) time.Time, chunk int, start, end Date) *Result[T, K] {
	if chunk < 1 {
		chunk = 1
	}

	result := &Result[T, K]{
		Start:    start,
		End:      end,
		Chunk:    chunk,
		Entities: make(map[K]T, len(entities)),
		Chunks:   []Chunk[K]{},
	}

	byDay := map[Date][]K{}
	for _, entity := range entities {
		id := idOf(entity)
		result.Entities[id] = entity
		day := NewDate(dateOf(entity))
		byDay[day] = append(byDay[day], id)
	}

	for chunkStart := start; !chunkStart.After(end.Time); chunkStart = chunkStart.AddDays(chunk) {
		chunkEnd := chunkStart.AddDays(chunk - 1)
		if chunkEnd.After(end.Time) {
			chunkEnd = end
		}

		c := Chunk[K]{
			Start:   chunkStart,
			End:     chunkEnd,
			Entries: make([]Day[K], 0, chunk),
		}
		for day := chunkStart; !day.After(chunkEnd.Time); day = day.AddDays(1) {
			ids := byDay[day]
			if ids == nil {
				ids = []K{}
			}
			c.Entries = append(c.Entries, Day[K]{Date: day, Entities: ids})
		}
		result.Chunks = append(result.Chunks, c)
	}

	return result
}

// StartOfWeek is the Sunday on or before d.
func StartOfWeek(d Date) Date {
	return d.AddDays(-int(d.Weekday()))
}

// EndOfWeek is the Saturday on or after d.
func EndOfWeek(d Date) Date {
	return StartOfWeek(d).AddDays(6)
}

func StartOfMonth(d Date) Date {
	return Date{time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

func EndOfMonth(d Date) Date {
	return StartOfMonth(d).AddMonths(1).AddDays(-1)
}
