// Package canvas ties the engine together into a live canvas instance: one
// scene with its camera, undo history and interaction controller, plus the
// debounced autosave and the inertial pan loop.
//
// An Instance is safe for concurrent use. Input is applied in the order it is
// dispatched.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/canvas/camera"
	"github.com/starford/kenaz-canvas/internal/canvas/geom"
	"github.com/starford/kenaz-canvas/internal/canvas/history"
	"github.com/starford/kenaz-canvas/internal/canvas/interact"
	"github.com/starford/kenaz-canvas/internal/canvas/minimap"
	"github.com/starford/kenaz-canvas/internal/canvas/render"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
	"github.com/starford/kenaz-canvas/internal/metrics"
	"github.com/starford/kenaz-canvas/internal/storage"
)

// DefaultSaveDebounce is the quiet period after the last mutation before the
// scene is written.
const DefaultSaveDebounce = 400 * time.Millisecond

// Default viewport used until a client reports its size.
const (
	DefaultViewportWidth  = 1280.0
	DefaultViewportHeight = 800.0
)

// ErrClosed is returned by operations on a closed instance.
var ErrClosed = errors.New("canvas: instance closed")

// Key identifies the page a canvas belongs to.
type Key struct {
	Vault string `json:"vault"`
	Page  string `json:"page"`
}

func (k Key) String() string { return k.Vault + "/" + k.Page }

// SavedFunc is called after a scene has been written to the store.
type SavedFunc func(key Key, revision uint64)

// Option configures an Instance.
type Option func(*Instance)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Instance) { i.logger = l }
}

// WithPages sets the resolver used for note-link titles.
func WithPages(p render.PageResolver) Option {
	return func(i *Instance) { i.pages = p }
}

// WithSaveDebounce overrides DefaultSaveDebounce.
func WithSaveDebounce(d time.Duration) Option {
	return func(i *Instance) {
		if d > 0 {
			i.debounce = d
		}
	}
}

// WithUndoCapacity overrides history.DefaultCapacity.
func WithUndoCapacity(n int) Option {
	return func(i *Instance) { i.undoCap = n }
}

// WithSavedHook registers fn to run after every successful save.
func WithSavedHook(fn SavedFunc) Option {
	return func(i *Instance) { i.onSaved = fn }
}

// WithClock sets the clock used for event timestamps and card times.
func WithClock(now func() time.Time) Option {
	return func(i *Instance) { i.now = now }
}

// Instance is one open canvas.
type Instance struct {
	key      Key
	store    storage.SceneStore
	logger   *slog.Logger
	pages    render.PageResolver
	debounce time.Duration
	undoCap  int
	onSaved  SavedFunc
	now      func() time.Time

	mu       sync.Mutex
	scene    *scene.Scene
	cam      *camera.Camera
	hist     *history.Manager
	ctl      *interact.Controller
	unfolded map[string]bool
	vw, vh   float64
	closed   bool

	saveTimer *time.Timer
	saveGen   uint64
	dirty     bool

	glideStop chan struct{}
	glideDone chan struct{}

	// saveMu serializes store writes. It is always taken before mu.
	saveMu   sync.Mutex
	savedSum string
}

// Open loads the scene for key and returns a live instance. A missing or
// unreadable scene yields an empty canvas; load failures are logged, not
// returned.
func Open(ctx context.Context, key Key, store storage.SceneStore, opts ...Option) (*Instance, error) {
	if key.Vault == "" || key.Page == "" {
		return nil, fmt.Errorf("canvas: open %q: %w", key, apperr.ErrInvalidInput)
	}
	i := &Instance{
		key:      key,
		store:    store,
		logger:   slog.Default(),
		debounce: DefaultSaveDebounce,
		now:      time.Now,
		unfolded: map[string]bool{},
		vw:       DefaultViewportWidth,
		vh:       DefaultViewportHeight,
	}
	for _, o := range opts {
		o(i)
	}
	i.logger = i.logger.With(slog.String("vault", key.Vault), slog.String("page", key.Page))

	data, err := store.Load(ctx, key.Vault, key.Page)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		metrics.Loads.WithLabelValues(metrics.ResultEmpty).Inc()
	case err != nil:
		metrics.Loads.WithLabelValues(metrics.ResultError).Inc()
		i.logger.Warn("canvas: load failed, starting empty", slog.String("error", err.Error()))
		data = scene.Data{}
	default:
		metrics.Loads.WithLabelValues(metrics.ResultOK).Inc()
	}

	s, dropped := scene.FromData(data, scene.WithClock(i.now))
	if dropped > 0 {
		i.logger.Warn("canvas: dropped invalid records on load", slog.Int("dropped", dropped))
	}
	i.scene = s
	i.cam = camera.New()
	i.hist = history.New(s, i.undoCap)
	i.ctl = interact.New(s, i.hist, i.cam)
	if len(data.Cards) > 0 {
		i.cam.FitToContent(i.boxes(), i.vw, i.vh)
	}
	metrics.OpenCanvases.Inc()
	i.logger.Debug("canvas: opened", slog.Int("cards", len(s.Cards())), slog.Int("edges", len(s.Edges())))
	return i, nil
}

// Key returns the page key of the instance.
func (i *Instance) Key() Key { return i.key }

// Scene returns a deep copy of the current scene.
func (i *Instance) Scene() scene.Data {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.scene.Data()
}

// Camera returns the current transform.
func (i *Instance) Camera() camera.State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cam.State()
}

// Selection returns the selected card ids in z-order.
func (i *Instance) Selection() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ctl.Selection()
}

// State returns the gesture state of the interaction controller.
func (i *Instance) State() interact.State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ctl.State()
}

// History reports whether undo and redo are available.
func (i *Instance) History() (canUndo, canRedo bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.hist.CanUndo(), i.hist.CanRedo()
}

// SetViewport records the client viewport size used by Fit and the minimap.
func (i *Instance) SetViewport(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.vw, i.vh = w, h
}

// Dispatch applies input events in order. Every event is applied even when
// an earlier one fails; the failures are joined in the returned error.
func (i *Instance) Dispatch(events ...Event) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	rev := i.scene.Revision()
	var errs []error
	for _, ev := range events {
		if err := i.dispatch(ev); err != nil {
			errs = append(errs, err)
		}
	}
	i.afterInput(rev)
	return errors.Join(errs...)
}

func (i *Instance) dispatch(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	metrics.Events.WithLabelValues(string(ev.Type)).Inc()
	switch ev.Type {
	case EventPointerDown:
		i.ctl.PointerDown(i.stamp(*ev.Pointer))
	case EventPointerMove:
		i.ctl.PointerMove(i.stamp(*ev.Pointer))
	case EventPointerUp:
		return i.ctl.PointerUp(i.stamp(*ev.Pointer))
	case EventKey:
		return i.ctl.Key(*ev.Key)
	case EventWheel:
		i.ctl.Wheel(*ev.Wheel)
	case EventBlur:
		return i.ctl.Blur()
	case EventFocus:
		i.ctl.SetTextFocus(ev.Focus)
	case EventEdit:
		return i.ctl.EditText(ev.Edit.CardID, ev.Edit.Header, ev.Edit.Body)
	}
	return nil
}

func (i *Instance) stamp(p interact.Pointer) interact.Pointer {
	if p.Time.IsZero() {
		p.Time = i.now()
	}
	return p
}

// afterInput schedules a save when the scene changed since rev and starts
// the glide loop when a pan ended with momentum. Callers hold mu.
func (i *Instance) afterInput(rev uint64) {
	if i.scene.Revision() != rev {
		i.scheduleSave()
	}
	if i.cam.Inertial() && i.glideStop == nil {
		i.startGlide()
	}
}

// Mutate runs fn against the scene as one undoable action, as the REST and
// MCP surfaces do for direct edits.
func (i *Instance) Mutate(fn func(s *scene.Scene) error) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	rev := i.scene.Revision()
	err := i.ctl.Apply(fn)
	i.afterInput(rev)
	return err
}

// Undo reverts the last logical action.
func (i *Instance) Undo() (bool, error) {
	return i.step((*interact.Controller).Undo)
}

// Redo re-applies the last undone action.
func (i *Instance) Redo() (bool, error) {
	return i.step((*interact.Controller).Redo)
}

func (i *Instance) step(fn func(*interact.Controller) bool) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return false, ErrClosed
	}
	rev := i.scene.Revision()
	ok := fn(i.ctl)
	i.afterInput(rev)
	return ok, nil
}

// Select replaces the selection.
func (i *Instance) Select(ids ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ctl.Select(ids...)
}

// ToggleUnfold flips the unfolded render flag of a card. It reports the new
// state.
func (i *Instance) ToggleUnfold(id string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.scene.Card(id); !ok {
		return false, fmt.Errorf("canvas: unfold %s: %w", id, apperr.ErrNotFound)
	}
	if i.unfolded[id] {
		delete(i.unfolded, id)
		return false, nil
	}
	i.unfolded[id] = true
	return true, nil
}

// Frame renders the viewport of size w×h. Non-positive sizes reuse the last
// known viewport.
func (i *Instance) Frame(w, h float64) render.Frame {
	i.mu.Lock()
	defer i.mu.Unlock()
	if w > 0 && h > 0 {
		i.vw, i.vh = w, h
	}
	t := i.ctl.Transient()
	return render.Build(render.Input{
		Scene:    i.scene,
		Camera:   i.cam,
		Width:    i.vw,
		Height:   i.vh,
		Selected: i.ctl.SelectedSet(),
		Live:     t.Live,
		Guides:   t.Guides,
		Marquee:  t.Marquee,
		Draft:    t.Draft,
		Unfolded: i.unfolded,
		Pages:    i.pages,
	})
}

// Minimap projects the scene and the current viewport.
func (i *Instance) Minimap() minimap.Minimap {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.minimap()
}

func (i *Instance) minimap() minimap.Minimap {
	cards := i.scene.Cards()
	ids := make([]string, len(cards))
	boxes := make([]geom.Rect, len(cards))
	for n, c := range cards {
		ids[n], boxes[n] = c.ID, c.Box()
	}
	return minimap.Project(ids, boxes, i.cam.WorldRect(i.vw, i.vh))
}

// MinimapClick recentres the camera on the world point under a click on the
// minimap. Zoom is unchanged. Clicks outside the minimap are ignored.
func (i *Instance) MinimapClick(p geom.Point) camera.State {
	i.mu.Lock()
	defer i.mu.Unlock()
	m := i.minimap()
	if m.Contains(p) {
		i.cam.Stop()
		i.cam.CenterOn(m.ToWorld(p), i.vw, i.vh)
	}
	return i.cam.State()
}

// Fit frames all cards in the viewport.
func (i *Instance) Fit() camera.State {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cam.FitToContent(i.boxes(), i.vw, i.vh)
	return i.cam.State()
}

func (i *Instance) boxes() []geom.Rect {
	cards := i.scene.Cards()
	out := make([]geom.Rect, len(cards))
	for n, c := range cards {
		out[n] = c.Box()
	}
	return out
}

// Close flushes a pending save, then stops the save timer and the glide
// loop. Timer callbacks that fire afterwards do nothing. Close is idempotent.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	if i.saveTimer != nil {
		i.saveTimer.Stop()
		i.saveTimer = nil
	}
	i.saveGen++
	pending := i.dirty
	stop, done := i.glideStop, i.glideDone
	i.glideStop, i.glideDone = nil, nil
	i.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	metrics.OpenCanvases.Dec()

	var err error
	if pending {
		err = i.save(ctx)
	} else {
		// Wait for a timer-started write that is already in flight.
		i.saveMu.Lock()
		i.saveMu.Unlock() //nolint:staticcheck // empty critical section
	}
	i.logger.Debug("canvas: closed")
	return err
}
