// internal/application/cartsync/synchronizer.go
package cartsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"brihaspati/internal/domain/auth"
	"brihaspati/internal/domain/cart"
)

var (
	ErrNoIdentity          = errors.New("cartsync: identity is required")
	ErrReconcileInProgress = errors.New("cartsync: reconciliation for another identity in progress")
)

// State of the binding between the in-memory cart and a remote record.
type State int

const (
	// StateAnonymous: no identity bound, the cart lives in the local mirror only.
	StateAnonymous State = iota
	// StateReconciling: the remote record of the bound identity is being read.
	StateReconciling
	// StateSynced: mutations are mirrored to the identity's remote record.
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateReconciling:
		return "reconciling"
	case StateSynced:
		return "synced"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ChangeListener receives a copy of the lines after every change.
type ChangeListener func(lines []cart.Line)

// Synchronizer owns one shopper's cart and keeps it consistent with the
// local mirror (always) and the per-identity remote record (when bound).
//
//   - every mutation rewrites the local mirror before returning
//   - remote writes are enqueued on the RemoteWriter only in StateSynced
//   - on login the remote record wins; with no record the current cart seeds it
//   - logout clears the cart locally and leaves the remote record alone
type Synchronizer struct {
	mu        sync.Mutex
	cart      *cart.Cart
	state     State
	uid       string
	rev       uint64
	listeners []ChangeListener

	local  cart.LocalMirror
	remote cart.RemoteRepository
	writer *RemoteWriter
	loads  singleflight.Group

	log *zap.Logger
}

// New builds a synchronizer with an empty cart. remote and writer may be nil
// (local-only storefront).
func New(local cart.LocalMirror, remote cart.RemoteRepository, writer *RemoteWriter, log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{
		cart:   cart.New(nil),
		state:  StateAnonymous,
		local:  local,
		remote: remote,
		writer: writer,
		log:    log.Named("cart_sync"),
	}
}

// OnChange registers a listener. Listeners run outside the lock, in
// registration order.
func (s *Synchronizer) OnChange(l ChangeListener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// ----------------------------
// Mutations
// ----------------------------

// AddLine increments productID's quantity, or appends it with quantity 1.
func (s *Synchronizer) AddLine(productID string, unitPrice float64, name, imageRef string) error {
	var addErr error
	err := s.mutate(func(c *cart.Cart) bool {
		addErr = c.Add(productID, unitPrice, name, imageRef)
		return addErr == nil
	})
	if addErr != nil {
		return addErr
	}
	return err
}

// RemoveLine drops productID's line. Unknown ids are a no-op.
func (s *Synchronizer) RemoveLine(productID string) error {
	return s.mutate(func(c *cart.Cart) bool {
		return c.Remove(productID)
	})
}

// ChangeQuantity adds delta to productID's quantity; <= 0 removes the line.
func (s *Synchronizer) ChangeQuantity(productID string, delta int) error {
	return s.mutate(func(c *cart.Cart) bool {
		return c.ChangeQuantity(productID, delta)
	})
}

// Replace swaps the whole cart content.
func (s *Synchronizer) Replace(lines []cart.Line) error {
	return s.mutate(func(c *cart.Cart) bool {
		c.Replace(lines)
		return true
	})
}

// Clear empties the cart (checkout success). A bound remote record is
// cleared too.
func (s *Synchronizer) Clear() error {
	return s.mutate(func(c *cart.Cart) bool {
		c.Clear()
		return true
	})
}

// mutate applies fn under the lock. When fn reports a change the local mirror
// is rewritten, a remote write is enqueued for a synced identity and
// listeners are notified.
func (s *Synchronizer) mutate(fn func(c *cart.Cart) bool) error {
	s.mu.Lock()
	if !fn(s.cart) {
		s.mu.Unlock()
		return nil
	}
	s.rev++
	lines := s.cart.Lines()
	localErr := s.saveLocalLocked(lines)

	uid := ""
	if s.state == StateSynced {
		uid = s.uid
	}
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if uid != "" {
		s.writer.Enqueue(uid, lines)
	}
	emit(listeners, lines)
	return localErr
}

// ----------------------------
// Identity transitions
// ----------------------------

// LoadForIdentity binds the cart to identity and reconciles it with the
// remote record:
//   - record exists: it replaces the in-memory cart and the local mirror
//   - no record: the current cart is pushed to create it
//   - read fails: the failure is logged and the local cart kept
//
// Concurrent calls for the same identity share one remote read.
func (s *Synchronizer) LoadForIdentity(ctx context.Context, identity *auth.Identity) error {
	if identity == nil || strings.TrimSpace(identity.UID) == "" {
		return ErrNoIdentity
	}
	uid := strings.TrimSpace(identity.UID)

	s.mu.Lock()
	if s.state == StateReconciling && s.uid != uid {
		other := s.uid
		s.mu.Unlock()
		s.log.Warn("load rejected", zap.String("uid", uid), zap.String("reconciling", other))
		return ErrReconcileInProgress
	}
	// A different identity never inherits the bound cart.
	var switched []ChangeListener
	var cleared []cart.Line
	var localErr error
	if prev := s.uid; prev != "" && prev != uid {
		s.cart.Clear()
		s.rev++
		cleared = s.cart.Lines()
		localErr = s.saveLocalLocked(cleared)
		switched = s.listenersLocked()
		s.log.Info("identity switched; cart cleared", zap.String("from", prev), zap.String("to", uid))
	}
	s.state = StateReconciling
	s.uid = uid
	s.mu.Unlock()

	if switched != nil {
		emit(switched, cleared)
	}
	if localErr != nil {
		s.log.Warn("local cart not cleared on identity switch", zap.Error(localErr))
	}

	if s.remote == nil {
		s.mu.Lock()
		if s.uid == uid && s.state == StateReconciling {
			s.state = StateSynced
		}
		s.mu.Unlock()
		return nil
	}

	_, err, shared := s.loads.Do(uid, func() (interface{}, error) {
		return nil, s.reconcile(ctx, uid)
	})
	if shared {
		s.log.Debug("load collapsed", zap.String("uid", uid))
	}
	return err
}

func (s *Synchronizer) reconcile(ctx context.Context, uid string) error {
	rec, err := s.remote.GetByUID(ctx, uid)
	if err != nil {
		s.log.Warn("failed to load user cart; keeping local cart", zap.String("uid", uid), zap.Error(err))
		s.mu.Lock()
		if s.uid == uid && s.state == StateReconciling {
			s.state = StateSynced
		}
		s.mu.Unlock()
		return nil
	}

	if rec != nil {
		return s.adoptRemote(uid, rec.Items)
	}
	return s.seedRemote(ctx, uid)
}

// adoptRemote replaces the cart with the remote items (remote wins).
func (s *Synchronizer) adoptRemote(uid string, items []cart.Line) error {
	s.mu.Lock()
	if s.uid != uid || s.state != StateReconciling {
		s.mu.Unlock()
		s.log.Debug("stale remote cart discarded", zap.String("uid", uid))
		return nil
	}
	s.cart.Replace(items)
	s.rev++
	lines := s.cart.Lines()
	localErr := s.saveLocalLocked(lines)
	s.state = StateSynced
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.log.Info("user cart loaded", zap.String("uid", uid), zap.Int("lines", len(lines)))
	emit(listeners, lines)
	return localErr
}

// seedRemote creates the remote record from the current cart. Mutations made
// while the seed write was in flight are pushed afterwards.
func (s *Synchronizer) seedRemote(ctx context.Context, uid string) error {
	s.mu.Lock()
	if s.uid != uid || s.state != StateReconciling {
		s.mu.Unlock()
		return nil
	}
	lines := s.cart.Lines()
	rev := s.rev
	s.mu.Unlock()

	if err := s.remote.SaveItems(ctx, uid, lines); err != nil {
		s.log.Warn("failed to create user cart", zap.String("uid", uid), zap.Error(err))
	} else {
		s.log.Info("user cart created", zap.String("uid", uid), zap.Int("lines", len(lines)))
	}

	s.mu.Lock()
	if s.uid != uid || s.state != StateReconciling {
		s.mu.Unlock()
		return nil
	}
	s.state = StateSynced
	var pending []cart.Line
	if s.rev != rev {
		pending = s.cart.Lines()
	}
	s.mu.Unlock()

	if pending != nil {
		s.writer.Enqueue(uid, pending)
	}
	return nil
}

// ClearOnLogout unbinds the identity and empties the cart locally. The
// remote record is left untouched so the next login restores it.
func (s *Synchronizer) ClearOnLogout() error {
	s.mu.Lock()
	prev := s.uid
	s.cart.Clear()
	s.rev++
	s.state = StateAnonymous
	s.uid = ""
	lines := s.cart.Lines()
	localErr := s.saveLocalLocked(lines)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.log.Debug("cart cleared on logout", zap.String("uid", prev))
	emit(listeners, lines)
	return localErr
}

// Restore loads the cart from the local mirror (page load). A missing or
// unreadable snapshot leaves an empty cart.
func (s *Synchronizer) Restore() error {
	if s.local == nil {
		return nil
	}
	lines, ok, err := s.local.LoadCart()

	s.mu.Lock()
	if err != nil || !ok {
		s.cart.Clear()
	} else {
		s.cart.Replace(lines)
	}
	s.rev++
	out := s.cart.Lines()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	emit(listeners, out)
	if err != nil {
		s.log.Warn("local cart unreadable; starting empty", zap.Error(err))
		return fmt.Errorf("cartsync: restore local cart: %w", err)
	}
	return nil
}

// ----------------------------
// Read side
// ----------------------------

func (s *Synchronizer) Lines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Synchronizer) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItemCount()
}

func (s *Synchronizer) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice()
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BoundUID is the uid the cart is bound to ("" when anonymous).
func (s *Synchronizer) BoundUID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

// Flush waits for enqueued remote writes to complete.
func (s *Synchronizer) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// ----------------------------
// helpers
// ----------------------------

func (s *Synchronizer) saveLocalLocked(lines []cart.Line) error {
	if s.local == nil {
		return nil
	}
	if err := s.local.SaveCart(lines); err != nil {
		s.log.Error("failed to write local cart", zap.Error(err))
		return fmt.Errorf("cartsync: save local cart: %w", err)
	}
	return nil
}

func (s *Synchronizer) listenersLocked() []ChangeListener {
	out := make([]ChangeListener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

func emit(listeners []ChangeListener, lines []cart.Line) {
	for _, l := range listeners {
		l(cart.Clone(lines))
	}
}
