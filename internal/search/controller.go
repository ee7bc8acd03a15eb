// Package search turns a stream of query edits into debounced, single-flight
// user searches.
package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stanstork/people-api/internal/models"
)

const (
	DefaultDelay     = 300 * time.Millisecond
	DefaultMinLength = 2
)

type SearchFunc func(ctx context.Context, query string) ([]models.PersonSearchResult, error)

type State struct {
	Query     string                      `json:"query"`
	Results   []models.PersonSearchResult `json:"results"`
	Searching bool                        `json:"searching"`
	Err       error                       `json:"-"`
}

// Controller runs at most one search at a time. Every SetQuery bumps a
// generation counter; a search whose generation is no longer current has its
// context canceled and its result discarded.
type Controller struct {
	search    SearchFunc
	delay     time.Duration
	minLength int
	logger    zerolog.Logger
	onChange  func()
	onError   func(error)

	mu         sync.Mutex
	query      string
	results    []models.PersonSearchResult
	searching  bool
	err        error
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	closed     bool
}

type Option func(*Controller)

func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.delay = d
		}
	}
}

func WithMinLength(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.minLength = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithOnError is called with every search failure that was not superseded.
func WithOnError(fn func(error)) Option {
	return func(c *Controller) { c.onError = fn }
}

func NewController(search SearchFunc, opts ...Option) *Controller {
	c := &Controller{
		search:    search,
		delay:     DefaultDelay,
		minLength: DefaultMinLength,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "search").Logger()
	return c
}

// SetQuery records text and schedules a search after the quiet period.
// Empty text clears results at once; text shorter than the minimum length
// cancels any pending search and does nothing else.
func (c *Controller) SetQuery(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.generation++
	c.stopLocked()
	c.query = text

	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		c.results = nil
		c.err = nil
	case utf8.RuneCountInString(trimmed) < c.minLength:
	default:
		gen := c.generation
		c.timer = time.AfterFunc(c.delay, func() {
			_ = c.run(context.Background(), gen)
		})
	}
	c.mu.Unlock()
	c.changed()
}

// SearchImmediately skips the quiet period and searches the current query now.
func (c *Controller) SearchImmediately(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	c.stopLocked()

	trimmed := strings.TrimSpace(c.query)
	if trimmed == "" {
		c.results = nil
		c.err = nil
		c.mu.Unlock()
		c.changed()
		return nil
	}
	if utf8.RuneCountInString(trimmed) < c.minLength {
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	c.mu.Unlock()
	return c.run(ctx, gen)
}

// Clear drops the query, results and any pending or running search.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.generation++
	c.stopLocked()
	c.query = ""
	c.results = nil
	c.err = nil
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
	c.stopLocked()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Query:     c.query,
		Results:   append([]models.PersonSearchResult(nil), c.results...),
		Searching: c.searching,
		Err:       c.err,
	}
}

// Pending reports whether a debounced search is waiting for its timer.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

func (c *Controller) IsSearching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searching
}

func (c *Controller) run(parent context.Context, gen uint64) error {
	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.timer = nil
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	c.searching = true
	query := strings.TrimSpace(c.query)
	c.mu.Unlock()
	c.changed()

	results, err := c.search(ctx, query)
	cancel()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug().Str("query", query).Msg("discarding superseded search result")
		return nil
	}
	c.searching = false
	c.cancel = nil
	if err != nil {
		c.err = err
	} else {
		c.results = results
		c.err = nil
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("search failed")
		if c.onError != nil {
			c.onError(err)
		}
	}
	return err
}

// stopLocked cancels the pending timer and the in-flight search.
func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.searching = false
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
