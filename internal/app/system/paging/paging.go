// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strings"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the number of rows returned per page by list endpoints.
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect a further page).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// Cursors reads the "before" and "after" keyset cursors from the query
// string. At most one is honoured; "before" wins.
func Cursors(r *http.Request) (before, after string) {
	before = strings.TrimSpace(query.Get(r, "before"))
	after = strings.TrimSpace(query.Get(r, "after"))
	if before != "" {
		after = ""
	}
	return before, after
}

// Result holds the output of TrimPage for keyset pagination.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims a slice fetched with LimitPlusOne in place.
//
// Going backwards (before != ""), rows arrive in descending order, so the
// surplus row is the last one; HasNext is always true. Going forwards, the surplus row is dropped
// from the end and HasPrev is true only if after != "".
func TrimPage[T any](rows *[]T, before, after string) Result {
	orig := len(*rows)
	var res Result

	if before != "" {
		if orig > PageSize {
			*rows = (*rows)[:PageSize]
			res.HasPrev = true
		}
		res.HasNext = true
		return res
	}

	if orig > PageSize {
		*rows = (*rows)[:PageSize]
		res.HasNext = true
	}
	res.HasPrev = after != ""
	return res
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // ascending, "gt" cursor
	Backward                  // descending, "lt" cursor
)

// KeysetConfig holds the result of configuring keyset pagination.
type KeysetConfig struct {
	Direction Direction
	SortOrder int // 1 for ascending, -1 for descending
	Cursor    *wafflemongo.Cursor
}

// ConfigureKeyset determines pagination direction and decodes the cursor.
func ConfigureKeyset(before, after string) KeysetConfig {
	cfg := KeysetConfig{Direction: Forward, SortOrder: 1}

	if before != "" {
		cfg.Direction = Backward
		cfg.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(before); ok {
			cfg.Cursor = &c
		}
	} else if after != "" {
		if c, ok := wafflemongo.DecodeCursor(after); ok {
			cfg.Cursor = &c
		}
	}
	return cfg
}

// FindOptions returns sort and limit options for keyset pagination on
// sortField with _id as the tiebreaker.
func (cfg KeysetConfig) FindOptions(sortField string) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{
			{Key: sortField, Value: cfg.SortOrder},
			{Key: "_id", Value: cfg.SortOrder},
		}).
		SetLimit(LimitPlusOne())
}

// Apply adds the cursor condition for sortField to filter. A nil cursor
// leaves filter unchanged.
func (cfg KeysetConfig) Apply(filter bson.M, sortField string) {
	if cfg.Cursor == nil {
		return
	}
	dir := "gt"
	if cfg.Direction == Backward {
		dir = "lt"
	}
	for k, v := range wafflemongo.KeysetWindow(sortField, dir, cfg.Cursor.CI, cfg.Cursor.ID) {
		filter[k] = v
	}
}

// Reverse reverses a slice in place. Use it after fetching backwards to
// restore display order.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// Page is the JSON envelope returned by list endpoints.
type Page[T any] struct {
	Items      []T    `json:"items"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	PrevCursor string `json:"prev_cursor,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// BuildPage finishes a fetched keyset window: it trims the look-ahead row,
// restores display order, and encodes the boundary cursors.
func BuildPage[T any](rows []T, before, after string, keyFn func(T) string, idFn func(T) primitive.ObjectID) Page[T] {
	res := TrimPage(&rows, before, after)
	if before != "" {
		Reverse(rows)
	}
	if rows == nil {
		rows = []T{}
	}

	p := Page[T]{Items: rows, HasPrev: res.HasPrev, HasNext: res.HasNext}
	if len(rows) > 0 {
		first, last := rows[0], rows[len(rows)-1]
		p.PrevCursor = wafflemongo.EncodeCursor(keyFn(first), idFn(first))
		p.NextCursor = wafflemongo.EncodeCursor(keyFn(last), idFn(last))
	}
	return p
}
