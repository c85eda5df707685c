// Package store owns the process-wide games and turfs collections that every
// page of the front-end renders from.
//
// Think of a collection as a photograph of the remote API taken at one moment.
// The store never edits the photograph; it only ever swaps in a newer one, by
// reloading the whole list. That keeps the rule simple: whatever the API said
// last is what every viewer sees.
//
// Reads go through Ensure*, which reloads a snapshot once it is older than
// MaxAge, so changes made elsewhere (another server, the dev API, a direct
// API client) show up without anyone asking for ?refresh=1.
//
// Mutations follow the same four steps every time:
//
//  1. claim an in-flight key for the operation and its target, so a double
//     click is refused with ErrInFlight instead of being sent twice
//  2. reload the collection and check the precondition against that fresh
//     copy, so a stale snapshot never refuses a valid action
//  3. make exactly one API call; on failure return its error and leave the
//     snapshot untouched (nothing is retried)
//  4. reload again so the change the API just made is what viewers see
//
// Unrelated operations never wait on each other; the only shared lock guards
// the in-flight set itself.
package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ShyamLatake/playout-front/internal/apiclient"
	"github.com/ShyamLatake/playout-front/internal/broadcast"
	"github.com/ShyamLatake/playout-front/internal/models"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrTurfNotFound = errors.New("turf not found")
	ErrInFlight     = errors.New("this action is already in progress")
	ErrNotTurfOwner = errors.New("only the turf owner can do that")
)

// API is the part of the remote API the store uses. *apiclient.Client
// implements it.
type API interface {
	ListGames(ctx context.Context, filters apiclient.GameFilters) ([]models.Game, error)
	CreateGame(ctx context.Context, form models.CreateGameForm) (*models.Game, error)
	JoinGame(ctx context.Context, gameID string) error
	LeaveGame(ctx context.Context, gameID string) error
	RequestToJoin(ctx context.Context, gameID string, form models.RequestToJoinForm) error
	ResolveRequest(ctx context.Context, gameID string, form models.ResolveRequestForm) error

	ListTurfs(ctx context.Context, filters apiclient.TurfFilters) ([]models.Turf, error)
	CreateTurf(ctx context.Context, form models.CreateTurfForm) (*models.Turf, error)
	UpdateTurf(ctx context.Context, id string, form models.UpdateTurfForm) (*models.Turf, error)
	DeleteTurf(ctx context.Context, id string) error

	ListTurfBookings(ctx context.Context, turfID, date string) ([]models.Booking, error)
	CreateBooking(ctx context.Context, form models.CreateBookingForm) (*models.Booking, error)
	ListMyBookings(ctx context.Context) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, id string, form models.UpdateBookingForm) (*models.Booking, error)
}

// Notifier is told about every committed reload. *broadcast.Hub implements it.
type Notifier interface {
	Notify(topic string, generation uint64)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, uint64) {}

// collection is a snapshot plus the bookkeeping that keeps a slow reload from
// overwriting a newer one.
type collection[T any] struct {
	mu        sync.RWMutex
	items     []T
	loaded    bool
	loadedAt  time.Time     // zero after invalidate
	started   atomic.Uint64 // generation handed to the next reload
	committed uint64        // generation of items; guarded by mu
}

// begin returns the generation for a reload that is about to start.
func (c *collection[T]) begin() uint64 {
	return c.started.Add(1)
}

// commit installs items from reload gen unless a newer reload already
// committed. It reports whether items were installed and whether they differ
// from the previous snapshot.
func (c *collection[T]) commit(gen uint64, items []T, at time.Time) (installed, changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.committed {
		return false, false
	}
	changed = !c.loaded || !reflect.DeepEqual(c.items, items)
	c.items = items
	c.committed = gen
	c.loaded = true
	c.loadedAt = at
	return true, changed
}

// fresh reports whether the snapshot was loaded less than maxAge before now.
// A maxAge of zero never expires a loaded snapshot.
func (c *collection[T]) fresh(now time.Time, maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || c.loadedAt.IsZero() {
		return false
	}
	return maxAge <= 0 || now.Sub(c.loadedAt) < maxAge
}

// invalidate keeps the items but makes the next Ensure reload them.
func (c *collection[T]) invalidate() {
	c.mu.Lock()
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

func (c *collection[T]) snapshot() ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out, c.loaded
}

func (c *collection[T]) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.committed
}

// Store is constructed once at start-up and shared by every handler.
type Store struct {
	api    API
	notify Notifier
	log    zerolog.Logger

	games collection[models.Game]
	turfs collection[models.Turf]

	maxAge time.Duration
	now    func() time.Time

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// New returns an empty store. Collections load on first use or on Reload*.
// A nil notifier is allowed.
func New(api API, notify Notifier, log zerolog.Logger) *Store {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Store{
		api:      api,
		notify:   notify,
		log:      log.With().Str("component", "store").Logger(),
		inflight: make(map[string]struct{}),
		maxAge:   DefaultMaxAge,
		now:      time.Now,
	}
}

// DefaultMaxAge is how long a snapshot serves reads before Ensure reloads it.
const DefaultMaxAge = 30 * time.Second

// SetMaxAge changes how long a snapshot serves reads. Zero keeps a loaded
// snapshot until a mutation or an explicit reload replaces it. Call it before
// the store is shared.
func (s *Store) SetMaxAge(d time.Duration) {
	s.maxAge = d
}

// acquire claims key for the duration of an operation.
func (s *Store) acquire(key string) (release func(), err error) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, ErrInFlight
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.inflightMu.Lock()
		delete(s.inflight, key)
		s.inflightMu.Unlock()
	}, nil
}

// InFlight reports whether the operation key is running. Views use it to
// disable the control that started it.
func (s *Store) InFlight(key string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	_, busy := s.inflight[key]
	return busy
}

// mutate runs one mutation under key. check reloads what it needs and tests
// the precondition; call is the single API request; reload runs after call
// succeeds.
//
// A failed reload after a successful call doesn't fail the mutation: the API
// has already applied it, and reporting an error would invite a retry that the
// server then refuses. The snapshot is marked stale instead so the next read
// reloads it.
func (s *Store) mutate(ctx context.Context, key string, check func() error, call func() error, reload func(context.Context) error, stale func()) error {
	release, err := s.acquire(key)
	if err != nil {
		return err
	}
	defer release()

	if check != nil {
		if err := check(); err != nil {
			return err
		}
	}
	if err := call(); err != nil {
		s.log.Warn().Err(err).Str("op", key).Msg("mutation failed")
		return err
	}
	if err := reload(ctx); err != nil {
		s.log.Error().Err(err).Str("op", key).Msg("reload after mutation failed; snapshot marked stale")
		stale()
	}
	return nil
}

// --- operation keys ---

// Key builders for the in-flight set. They are exported so views can ask
// InFlight about the control they render.
func JoinKey(gameID, viewerID string) string    { return "join:" + gameID + ":" + viewerID }
func RequestKey(gameID, viewerID string) string { return "request:" + gameID + ":" + viewerID }
func LeaveKey(gameID, viewerID string) string   { return "leave:" + gameID + ":" + viewerID }
func ResolveKey(gameID, requestID string) string {
	return "resolve:" + gameID + ":" + requestID
}
func CreateGameKey(viewerID string) string { return "create-game:" + viewerID }
func TurfKey(turfID string) string         { return "turf:" + turfID }
func CreateTurfKey(viewerID string) string { return "create-turf:" + viewerID }
func BookKey(turfID, viewerID string) string {
	return "book:" + turfID + ":" + viewerID
}
func BookingKey(bookingID string) string { return "booking:" + bookingID }

var _ Notifier = (*broadcast.Hub)(nil)
