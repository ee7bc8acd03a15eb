// Package paging holds cursor-paginated collection state.
package paging

import (
	"context"
	"sync"

	"github.com/stanstork/people-api/internal/models"
)

const DefaultPageSize = 20

// FetchFunc loads one page. cursor is empty for the first page.
type FetchFunc[T any] func(ctx context.Context, cursor string, limit int) (models.Page[T], error)

// State is a copy of a cursor's observable fields.
type State[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	IsLoading  bool   `json:"is_loading"`
}

// Cursor is a page state machine over one remote collection.
//
// Items are append-only within an epoch; LoadFirstPage starts a new epoch and
// any page fetched for an older epoch is dropped. Item order is the backend's.
type Cursor[T any] struct {
	fetch     FetchFunc[T]
	pageSize  int
	serialize bool
	onChange  func()

	// refreshMu serializes LoadFirstPage when serialize is set.
	refreshMu sync.Mutex

	mu         sync.Mutex
	items      []T
	nextCursor string
	hasMore    bool
	loading    int
	epoch      uint64
}

type Option func(*options)

type options struct {
	pageSize  int
	serialize bool
	onChange  func()
}

// WithPageSize sets the page size for this cursor only.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithSerializedRefresh controls whether overlapping LoadFirstPage calls queue
// behind each other. When off, the last call to complete wins.
func WithSerializedRefresh(on bool) Option {
	return func(o *options) { o.serialize = on }
}

// WithOnChange registers a hook run after every state transition, outside the lock.
func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

func New[T any](fetch FetchFunc[T], opts ...Option) *Cursor[T] {
	o := options{pageSize: DefaultPageSize, serialize: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cursor[T]{
		fetch:     fetch,
		pageSize:  o.pageSize,
		serialize: o.serialize,
		onChange:  o.onChange,
	}
}

// FromList adapts a non-paginated list call into a single-page FetchFunc.
func FromList[T any](list func(ctx context.Context) ([]T, error)) FetchFunc[T] {
	return func(ctx context.Context, _ string, _ int) (models.Page[T], error) {
		items, err := list(ctx)
		if err != nil {
			return models.Page[T]{}, err
		}
		return models.Page[T]{Items: items}, nil
	}
}

func (c *Cursor[T]) PageSize() int { return c.pageSize }

// LoadFirstPage clears the collection and replaces it with the first page.
// On error the collection stays empty.
func (c *Cursor[T]) LoadFirstPage(ctx context.Context) error {
	if c.serialize {
		c.refreshMu.Lock()
		defer c.refreshMu.Unlock()
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.items = nil
	c.nextCursor = ""
	c.hasMore = false
	c.loading++
	c.mu.Unlock()
	c.changed()

	page, err := c.fetch(ctx, "", c.pageSize)

	c.mu.Lock()
	c.loading--
	// Unserialized first pages race: whichever completes last is kept.
	if err == nil && (epoch == c.epoch || !c.serialize) {
		c.items = append([]T(nil), page.Items...)
		c.nextCursor, c.hasMore = normalize(page)
	}
	c.mu.Unlock()
	c.changed()
	return err
}

// LoadNextPage appends the next page. It is a no-op while a load is in flight
// or when there is no next cursor.
func (c *Cursor[T]) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.loading > 0 || c.nextCursor == "" {
		c.mu.Unlock()
		return nil
	}
	epoch := c.epoch
	cursor := c.nextCursor
	c.loading++
	c.mu.Unlock()
	c.changed()

	page, err := c.fetch(ctx, cursor, c.pageSize)

	c.mu.Lock()
	c.loading--
	if err == nil && epoch == c.epoch {
		c.items = append(c.items, page.Items...)
		c.nextCursor, c.hasMore = normalize(page)
	}
	c.mu.Unlock()
	c.changed()
	return err
}

// Reset drops all items and starts a new epoch without fetching.
func (c *Cursor[T]) Reset() {
	c.mu.Lock()
	c.epoch++
	c.items = nil
	c.nextCursor = ""
	c.hasMore = false
	c.mu.Unlock()
	c.changed()
}

func (c *Cursor[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State[T]{
		Items:      append([]T(nil), c.items...),
		NextCursor: c.nextCursor,
		HasMore:    c.hasMore,
		IsLoading:  c.loading > 0,
	}
}

// Items returns a copy of the loaded items.
func (c *Cursor[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *Cursor[T]) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

func (c *Cursor[T]) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// normalize enforces HasMore => NextCursor present.
func normalize[T any](page models.Page[T]) (string, bool) {
	if !page.HasMore || page.NextCursor == "" {
		return "", false
	}
	return page.NextCursor, true
}
