// internal/application/cartsync/writer.go
package cartsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	gax "github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"

	"brihaspati/internal/domain/cart"
	common "brihaspati/internal/domain/common"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultMaxAttempts  = 4
)

// WriterStats counts remote write outcomes. Remote writes are best-effort,
// so these counters are the only place failures become observable.
type WriterStats struct {
	Enqueued  int64
	Coalesced int64
	Written   int64
	Retried   int64
	Failed    int64
}

// WriterOption configures a RemoteWriter.
type WriterOption func(*RemoteWriter)

// WithBackoff sets the retry backoff for transient (offline) failures.
func WithBackoff(b gax.Backoff) WriterOption {
	return func(w *RemoteWriter) { w.backoff = b }
}

// WithMaxAttempts bounds the attempts per write (>= 1).
func WithMaxAttempts(n int) WriterOption {
	return func(w *RemoteWriter) {
		if n >= 1 {
			w.maxAttempts = n
		}
	}
}

// WithWriteTimeout bounds a single remote call.
func WithWriteTimeout(d time.Duration) WriterOption {
	return func(w *RemoteWriter) {
		if d > 0 {
			w.timeout = d
		}
	}
}

type writeJob struct {
	uid   string
	items []cart.Line
}

// RemoteWriter pushes full cart replacements to the remote record in the
// background. One worker goroutine drains the queue, so writes issued by this
// process reach the store in order. Pending writes for the same uid are
// coalesced: only the latest snapshot is sent.
//
// Failures never reach the caller. Offline errors are retried with
// exponential backoff up to maxAttempts; permission errors are dropped at once.
type RemoteWriter struct {
	repo cart.RemoteRepository
	log  *zap.Logger

	backoff     gax.Backoff
	maxAttempts int
	timeout     time.Duration

	mu       sync.Mutex
	pending  map[string][]cart.Line
	order    []string
	inflight bool
	idle     chan struct{} // closed while there is no pending or in-flight work
	closed   bool

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}

	enqueued  atomic.Int64
	coalesced atomic.Int64
	written   atomic.Int64
	retried   atomic.Int64
	failed    atomic.Int64
}

// NewRemoteWriter starts the worker goroutine. Call Close to stop it.
func NewRemoteWriter(repo cart.RemoteRepository, log *zap.Logger, opts ...WriterOption) *RemoteWriter {
	if log == nil {
		log = zap.NewNop()
	}
	idle := make(chan struct{})
	close(idle)

	w := &RemoteWriter{
		repo: repo,
		log:  log.Named("cart_remote_writer"),
		backoff: gax.Backoff{
			Initial:    250 * time.Millisecond,
			Max:        5 * time.Second,
			Multiplier: 2,
		},
		maxAttempts: defaultMaxAttempts,
		timeout:     defaultWriteTimeout,
		pending:     map[string][]cart.Line{},
		idle:        idle,
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}

	go w.run()
	return w
}

// Enqueue schedules a full replacement of uid's remote items. It never blocks
// on the network.
func (w *RemoteWriter) Enqueue(uid string, items []cart.Line) {
	if w == nil || uid == "" {
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Warn("write dropped: writer closed", zap.String("uid", uid))
		return
	}
	if _, ok := w.pending[uid]; ok {
		w.coalesced.Add(1)
	} else {
		w.order = append(w.order, uid)
	}
	w.pending[uid] = cart.Clone(items)
	w.markBusyLocked()
	w.mu.Unlock()

	w.enqueued.Add(1)

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every write enqueued so far has completed (or failed).
func (w *RemoteWriter) Flush(ctx context.Context) error {
	if w == nil {
		return nil
	}
	for {
		w.mu.Lock()
		idle := w.idle
		w.mu.Unlock()

		select {
		case <-idle:
			w.mu.Lock()
			done := len(w.order) == 0 && !w.inflight
			w.mu.Unlock()
			if done {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting writes, drains the queue and stops the worker.
// Retries that are waiting on backoff give up.
func (w *RemoteWriter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.stopped
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.stopped
	return nil
}

func (w *RemoteWriter) Stats() WriterStats {
	return WriterStats{
		Enqueued:  w.enqueued.Load(),
		Coalesced: w.coalesced.Load(),
		Written:   w.written.Load(),
		Retried:   w.retried.Load(),
		Failed:    w.failed.Load(),
	}
}

func (w *RemoteWriter) run() {
	defer close(w.stopped)
	for {
		w.drain()

		select {
		case <-w.wake:
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *RemoteWriter) drain() {
	for {
		job, ok := w.next()
		if !ok {
			return
		}
		w.write(job)
		w.finish()
	}
}

func (w *RemoteWriter) next() (writeJob, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.order) == 0 {
		return writeJob{}, false
	}
	uid := w.order[0]
	w.order = w.order[1:]
	items := w.pending[uid]
	delete(w.pending, uid)
	w.inflight = true
	return writeJob{uid: uid, items: items}, true
}

func (w *RemoteWriter) finish() {
	w.mu.Lock()
	w.inflight = false
	if len(w.order) == 0 {
		w.markIdleLocked()
	}
	w.mu.Unlock()
}

func (w *RemoteWriter) write(job writeJob) {
	bo := w.backoff
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.repo.SaveItems(ctx, job.uid, job.items)
		cancel()

		if err == nil {
			w.written.Add(1)
			if attempt > 1 {
				w.log.Info("remote cart saved after retry", zap.String("uid", job.uid), zap.Int("attempt", attempt))
			}
			return
		}

		if errors.Is(err, common.ErrPermissionDenied) {
			w.failed.Add(1)
			w.log.Warn("cart write denied by store rules; continuing with local cart only",
				zap.String("uid", job.uid), zap.Error(err))
			return
		}

		if !common.IsTransient(err) || attempt >= w.maxAttempts {
			w.failed.Add(1)
			w.log.Warn("failed to save user cart",
				zap.String("uid", job.uid), zap.Int("attempts", attempt), zap.Error(err))
			return
		}

		w.retried.Add(1)
		pause := bo.Pause()
		w.log.Debug("remote cart save retry", zap.String("uid", job.uid), zap.Int("attempt", attempt), zap.Duration("pause", pause))

		t := time.NewTimer(pause)
		select {
		case <-t.C:
		case <-w.stop:
			t.Stop()
			w.failed.Add(1)
			w.log.Warn("remote cart save abandoned on shutdown", zap.String("uid", job.uid), zap.Error(err))
			return
		}
	}
}

func (w *RemoteWriter) markBusyLocked() {
	select {
	case <-w.idle:
		w.idle = make(chan struct{})
	default:
	}
}

func (w *RemoteWriter) markIdleLocked() {
	select {
	case <-w.idle:
	default:
		close(w.idle)
	}
}
