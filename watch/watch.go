// Package watch regenerates contracts when model files change.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/contractgen/errors"
	"github.com/teranos/contractgen/logger"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// RegenerateFunc is called after a burst of changes has settled.
type RegenerateFunc func(ctx context.Context) error

// Options configure a Watcher.
type Options struct {
	Debounce time.Duration

	// MaxPerMinute caps regenerations; 0 = unlimited
	MaxPerMinute int

	Logger *zap.SugaredLogger
}

// Watcher watches model files and calls a RegenerateFunc on change.
// Regenerations never overlap.
type Watcher struct {
	files      map[string]bool // cleaned absolute paths
	fs         *fsnotify.Watcher
	regenerate RegenerateFunc
	limiter    *rate.Limiter
	debounce   time.Duration
	log        *zap.SugaredLogger

	runMu sync.Mutex // serializes regenerations

	timerMu sync.Mutex
	timer   *time.Timer
	closed  bool

	inflight sync.WaitGroup
	done     chan struct{}
}

// New creates a watcher for the given files. Their directories are watched so
// that editors replacing a file by rename are noticed too.
func New(paths []string, regenerate RegenerateFunc, opts Options) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.NewInvalidRequestError("no files to watch")
	}
	if regenerate == nil {
		return nil, errors.NewInvalidRequestError("no regenerate function given")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		files:      make(map[string]bool, len(paths)),
		fs:         fsw,
		regenerate: regenerate,
		limiter:    newLimiter(opts.MaxPerMinute),
		debounce:   opts.Debounce,
		log:        opts.Logger,
		done:       make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = logger.ComponentLogger("watch")
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "failed to resolve %s", p)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	return w, nil
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
}

// Run processes file events until ctx is cancelled, then waits for a
// running regeneration to finish.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.close()
		w.fs.Close()
		w.inflight.Wait()
	}()

	w.log.Infow("watching model files", logger.FieldCount, len(w.files))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debugw("model file changed",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			w.schedule(ctx)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("file watcher error", logger.FieldError, err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// schedule debounces rapid changes into one regeneration
func (w *Watcher) schedule(ctx context.Context) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.timerMu.Lock()
		if w.closed {
			w.timerMu.Unlock()
			return
		}
		w.inflight.Add(1)
		w.timerMu.Unlock()

		defer w.inflight.Done()
		w.fire(ctx)
	})
}

// close stops pending timers; no regeneration starts afterwards
func (w *Watcher) close() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.done)
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	r := w.limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		w.log.Warnw("regeneration rate limit reached, delaying",
			"delay_ms", delay.Milliseconds())
		select {
		case <-ctx.Done():
			r.Cancel()
			return
		case <-w.done:
			r.Cancel()
			return
		case <-time.After(delay):
		}
	}

	w.runMu.Lock()
	defer w.runMu.Unlock()

	start := time.Now()
	if err := w.regenerate(ctx); err != nil {
		w.log.Errorw("regeneration failed",
			logger.FieldError, err,
			"hint", errors.FlattenHints(err))
		return
	}
	w.log.Infow("regenerated contracts",
		logger.FieldDurationMS, time.Since(start).Milliseconds())
}
