// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"net/url"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the number of rows shown in paged lists.
const PageSize = 25

// Request is the paging state carried in the query string.
type Request struct {
	Before string
	After  string
	Start  int // 1-based index of the first row, for display only
}

// FromRequest reads before/after cursors and the start index.
func FromRequest(r *http.Request) Request {
	start, err := strconv.Atoi(query.Get(r, "start"))
	if err != nil || start < 1 {
		start = 1
	}
	return Request{
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
		Start:  start,
	}
}

// Backward reports whether the request pages towards the start of the list.
func (p Request) Backward() bool { return p.Before != "" }

// Keyset is the decoded cursor and sort order for one query.
type Keyset struct {
	SortOrder int // 1 ascending, -1 descending
	Cursor    *wafflemongo.Cursor
	backward  bool
}

// ConfigureKeyset decodes whichever cursor is set. Paging backwards sorts
// descending and the page is reversed afterwards by Finish.
func ConfigureKeyset(p Request) Keyset {
	ks := Keyset{SortOrder: 1}
	raw := p.After
	if p.Backward() {
		ks.SortOrder = -1
		ks.backward = true
		raw = p.Before
	}
	if raw != "" {
		if c, ok := wafflemongo.DecodeCursor(raw); ok {
			ks.Cursor = &c
		}
	}
	return ks
}

// Window returns the cursor condition to merge into the filter, or nil.
func (ks Keyset) Window(sortField string) bson.M {
	if ks.Cursor == nil {
		return nil
	}
	dir := "gt"
	if ks.backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, ks.Cursor.CI, ks.Cursor.ID)
}

// FindOptions sorts by sortField then _id and fetches one look-ahead row.
func (ks Keyset) FindOptions(sortField string) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: ks.SortOrder}, {Key: "_id", Value: ks.SortOrder}}).
		SetLimit(int64(PageSize + 1))
}

// Range is the 1-based display range of a page.
type Range struct {
	Start     int
	End       int
	PrevStart int
	NextStart int
}

// ComputeRange calculates the display range for shown rows starting at start.
func ComputeRange(start, shown int) Range {
	if shown == 0 {
		return Range{PrevStart: 1, NextStart: 1}
	}
	prev := start - PageSize
	if prev < 1 {
		prev = 1
	}
	return Range{Start: start, End: start + shown - 1, PrevStart: prev, NextStart: start + shown}
}

// Page is one trimmed page of rows with its navigation cursors.
type Page[T any] struct {
	Rows       []T
	HasPrev    bool
	HasNext    bool
	PrevCursor string
	NextCursor string
	Range      Range
}

// Finish restores display order, drops the look-ahead row and builds cursors.
// keyFn returns the folded sort key of a row.
func Finish[T any](rows []T, p Request, keyFn func(T) string, idFn func(T) primitive.ObjectID) Page[T] {
	var pg Page[T]
	if p.Backward() {
		reverse(rows)
		if len(rows) > PageSize {
			rows = rows[1:]
			pg.HasPrev = true
		}
		pg.HasNext = true
	} else {
		if len(rows) > PageSize {
			rows = rows[:PageSize]
			pg.HasNext = true
		}
		pg.HasPrev = p.After != ""
	}
	pg.Rows = rows
	if len(rows) > 0 {
		first, last := rows[0], rows[len(rows)-1]
		pg.PrevCursor = wafflemongo.EncodeCursor(keyFn(first), idFn(first))
		pg.NextCursor = wafflemongo.EncodeCursor(keyFn(last), idFn(last))
	}
	pg.Range = ComputeRange(p.Start, len(rows))
	return pg
}

// Nav is what the pager partial renders.
type Nav struct {
	Range   Range
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string
}

// Nav builds pager links that keep r's other query parameters.
func (pg Page[T]) Nav(r *http.Request) Nav {
	link := func(key, cursor string, start int) string {
		q := r.URL.Query()
		q.Del("before")
		q.Del("after")
		q.Set(key, cursor)
		q.Set("start", strconv.Itoa(start))
		return (&url.URL{Path: r.URL.Path, RawQuery: q.Encode()}).String()
	}
	n := Nav{Range: pg.Range, HasPrev: pg.HasPrev, HasNext: pg.HasNext}
	if pg.HasPrev {
		n.PrevURL = link("before", pg.PrevCursor, pg.Range.PrevStart)
	}
	if pg.HasNext {
		n.NextURL = link("after", pg.NextCursor, pg.Range.NextStart)
	}
	return n
}

func reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
