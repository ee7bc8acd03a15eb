// Package people owns the paginated invitation, friend and organization
// collections of one signed-in user, and the mutations that change them.
package people

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/models"
	"github.com/stanstork/people-api/internal/notification"
	"github.com/stanstork/people-api/internal/paging"
	"github.com/stanstork/people-api/internal/search"
)

// Kind names one collection owned by the Registry.
type Kind string

const (
	InvitationsSent        Kind = "invitations_sent"
	InvitationsReceived    Kind = "invitations_received"
	FriendRequestsSent     Kind = "friend_requests_sent"
	FriendRequestsReceived Kind = "friend_requests_received"
	FriendConnections      Kind = "friends"
	Organizations          Kind = "organizations"
)

var Kinds = []Kind{
	InvitationsSent,
	InvitationsReceived,
	FriendRequestsSent,
	FriendRequestsReceived,
	FriendConnections,
	Organizations,
}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

var ErrUnknownCollection = errors.New("unknown collection")

type Config struct {
	PageSize           int
	SearchDelay        time.Duration
	SearchMinLength    int
	SerializeRefreshes bool
}

func DefaultConfig() Config {
	return Config{
		PageSize:           paging.DefaultPageSize,
		SearchDelay:        search.DefaultDelay,
		SearchMinLength:    search.DefaultMinLength,
		SerializeRefreshes: true,
	}
}

// collection is the type-erased view of a cursor the registry fans out over.
type collection interface {
	LoadFirstPage(ctx context.Context) error
	LoadNextPage(ctx context.Context) error
	IsLoading() bool
}

// Registry holds every people collection for one viewer plus the user search.
//
// It keeps a single current error: the latest failure of any operation
// overwrites the previous one.
type Registry struct {
	viewerID string
	dir      directory.Directory
	logger   zerolog.Logger
	events   notification.Service
	now      func() time.Time

	invitationsSent        *paging.Cursor[models.Invitation]
	invitationsReceived    *paging.Cursor[models.Invitation]
	friendRequestsSent     *paging.Cursor[models.FriendRequest]
	friendRequestsReceived *paging.Cursor[models.FriendRequest]
	friends                *paging.Cursor[models.FriendConnection]
	organizations          *paging.Cursor[models.OrganizationSummary]
	search                 *search.Controller

	version    atomic.Uint64
	refreshing atomic.Int32

	mu  sync.Mutex
	err error
}

// NewRegistry wires the collections for viewerID. events may be nil.
func NewRegistry(viewerID string, dir directory.Directory, cfg Config, logger zerolog.Logger, events notification.Service) *Registry {
	r := &Registry{
		viewerID: viewerID,
		dir:      dir,
		logger:   logger.With().Str("component", "people_registry").Str("viewer_id", viewerID).Logger(),
		events:   events,
		now:      time.Now,
	}

	opts := []paging.Option{
		paging.WithPageSize(cfg.PageSize),
		paging.WithSerializedRefresh(cfg.SerializeRefreshes),
		paging.WithOnChange(r.collectionChanged),
	}
	r.invitationsSent = paging.New(dir.InvitationsSent, opts...)
	r.invitationsReceived = paging.New(dir.InvitationsReceived, opts...)
	r.friendRequestsSent = paging.New(dir.FriendRequestsSent, opts...)
	r.friendRequestsReceived = paging.New(dir.FriendRequestsReceived, opts...)
	r.friends = paging.New(paging.FromList(dir.FriendConnections), opts...)
	r.organizations = paging.New(paging.FromList(dir.Organizations), opts...)

	r.search = search.NewController(r.searchPeople,
		search.WithDelay(cfg.SearchDelay),
		search.WithMinLength(cfg.SearchMinLength),
		search.WithLogger(r.logger),
		search.WithOnChange(r.changed),
		search.WithOnError(func(err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.fail("search", err)
		}),
	)
	return r
}

func (r *Registry) ViewerID() string { return r.viewerID }

func (r *Registry) collection(kind Kind) (collection, error) {
	switch kind {
	case InvitationsSent:
		return r.invitationsSent, nil
	case InvitationsReceived:
		return r.invitationsReceived, nil
	case FriendRequestsSent:
		return r.friendRequestsSent, nil
	case FriendRequestsReceived:
		return r.friendRequestsReceived, nil
	case FriendConnections:
		return r.friends, nil
	case Organizations:
		return r.organizations, nil
	}
	return nil, errors.Wrapf(ErrUnknownCollection, "%q", kind)
}

// RefreshAll reloads the first page of every collection concurrently and waits
// for all of them. Collections that load successfully are updated even when
// another fails; the first failure becomes the current error.
//
// Loads run to completion even if ctx is canceled: a first-page load has
// already cleared its items, so aborting it would leave the collection empty.
// Per-collection changes are published once, when every load has finished.
func (r *Registry) RefreshAll(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	r.ClearError()
	r.refreshing.Add(1)
	r.changed()
	defer func() {
		r.refreshing.Add(-1)
		r.changed()
	}()

	var g errgroup.Group
	for _, kind := range Kinds {
		kind := kind
		c, _ := r.collection(kind)
		g.Go(func() error {
			if err := c.LoadFirstPage(ctx); err != nil {
				return errors.Wrapf(err, "load %s", kind)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.fail("refresh", err)
		return err
	}
	r.logger.Debug().Msg("refreshed all collections")
	return nil
}

// Refresh reloads one collection from its first page. Like RefreshAll it is
// not canceled by ctx.
func (r *Registry) Refresh(ctx context.Context, kind Kind) error {
	c, err := r.collection(kind)
	if err != nil {
		return err
	}
	if err := c.LoadFirstPage(context.WithoutCancel(ctx)); err != nil {
		err = errors.Wrapf(err, "load %s", kind)
		r.fail("refresh", err)
		return err
	}
	return nil
}

// LoadMore appends the next page of one collection, if there is one.
func (r *Registry) LoadMore(ctx context.Context, kind Kind) error {
	c, err := r.collection(kind)
	if err != nil {
		return err
	}
	if err := c.LoadNextPage(context.WithoutCancel(ctx)); err != nil {
		err = errors.Wrapf(err, "load more %s", kind)
		r.fail("load_more", err)
		return err
	}
	return nil
}

// SetSearchQuery feeds the debounced search.
func (r *Registry) SetSearchQuery(text string) {
	r.search.SetQuery(text)
}

func (r *Registry) SearchNow(ctx context.Context) error {
	return r.search.SearchImmediately(ctx)
}

func (r *Registry) ClearSearch() {
	r.search.Clear()
}

func (r *Registry) searchPeople(ctx context.Context, query string) ([]models.PersonSearchResult, error) {
	hits, err := r.dir.SearchUsers(ctx, query)
	if err != nil {
		if directory.Classify(err) == directory.KindUnknown {
			return nil, &directory.SearchError{Message: "could not search people", Err: err}
		}
		return nil, err
	}

	friends := make(map[string]struct{})
	for _, f := range r.friends.Items() {
		friends[f.ID] = struct{}{}
	}
	out := make([]models.PersonSearchResult, len(hits))
	for i, hit := range hits {
		_, already := friends[hit.ID]
		out[i] = models.PersonSearchResult{
			ID:             hit.ID,
			Username:       hit.Username,
			Email:          hit.Email,
			AlreadyFriends: already,
		}
	}
	return out, nil
}

// IsLoading is true while any collection load or search is in flight.
func (r *Registry) IsLoading() bool {
	if r.refreshing.Load() > 0 || r.search.IsSearching() {
		return true
	}
	for _, kind := range Kinds {
		c, _ := r.collection(kind)
		if c.IsLoading() {
			return true
		}
	}
	return false
}

func (r *Registry) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Registry) ClearError() {
	r.mu.Lock()
	cleared := r.err != nil
	r.err = nil
	r.mu.Unlock()
	if cleared {
		r.changed()
	}
}

// fail records err as the current error, overwriting any previous one.
func (r *Registry) fail(operation string, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()

	r.logger.Warn().Err(err).Str("operation", operation).Str("kind", string(directory.Classify(err))).Msg("people operation failed")
	if r.events != nil {
		if nerr := r.events.NotifyFailed(context.Background(), r.viewerID, operation, err); nerr != nil {
			r.logger.Debug().Err(nerr).Msg("failed to publish failure event")
		}
	}
	r.changed()
}

// InvitableOrganizations lists orgs where the viewer's role is exactly owner or admin.
func (r *Registry) InvitableOrganizations() []models.OrganizationSummary {
	return models.InvitableOrganizations(r.organizations.Items())
}

func (r *Registry) findInvitation(id string) (models.Invitation, bool) {
	for _, c := range []*paging.Cursor[models.Invitation]{r.invitationsSent, r.invitationsReceived} {
		for _, inv := range c.Items() {
			if inv.ID == id {
				return inv, true
			}
		}
	}
	return models.Invitation{}, false
}

func (r *Registry) findFriendRequest(id string) (models.FriendRequest, bool) {
	for _, c := range []*paging.Cursor[models.FriendRequest]{r.friendRequestsSent, r.friendRequestsReceived} {
		for _, req := range c.Items() {
			if req.ID == id {
				return req, true
			}
		}
	}
	return models.FriendRequest{}, false
}

// Close stops any pending search. The registry must not be used afterwards.
func (r *Registry) Close() {
	r.search.Close()
}

// collectionChanged publishes cursor transitions unless a RefreshAll is in
// flight; RefreshAll publishes once when it completes.
func (r *Registry) collectionChanged() {
	if r.refreshing.Load() > 0 {
		r.version.Add(1)
		return
	}
	r.changed()
}

func (r *Registry) changed() {
	r.version.Add(1)
	if r.events == nil {
		return
	}
	if err := r.events.NotifyChanged(context.Background(), r.viewerID, r.Snapshot()); err != nil {
		r.logger.Debug().Err(err).Msg("failed to publish change event")
	}
}
