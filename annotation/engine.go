// Package annotation is the headless keypoint labeling engine: it binds image
// folders to annotation documents and applies the editing commands a labeling
// UI sends it.
package annotation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lewtec/keylabel/internal/domain"
	"github.com/lewtec/keylabel/internal/history"
	"github.com/lewtec/keylabel/internal/store"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
)

// ErrNoSide is returned for a side name the engine was not created with
var ErrNoSide = errors.New("no such side")

const (
	SideMain  = "main"
	SideLeft  = "left"
	SideRight = "right"
)

// Mode is what a pointer press does
type Mode string

const (
	ModeMove   Mode = "move"
	ModeAdd    Mode = "add"
	ModeDelete Mode = "delete"
)

// FormatMode tells whether keypoints carry a visibility flag
type FormatMode string

const (
	FormatStandard FormatMode = "standard"
	FormatCOCO     FormatMode = "coco"
)

// Level classifies a Result for display
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Result is the status of one engine command
type Result struct {
	OK      bool
	Level   Level
	Message string
	// Count is the number of items the command affected, when that applies
	Count int
}

func (r Result) String() string {
	return fmt.Sprintf("[%s] %s", r.Level, r.Message)
}

// Option configures an Engine
type Option func(*Engine)

// WithSides replaces the default single "main" side
func WithSides(names ...string) Option {
	return func(e *Engine) {
		e.order = append([]string(nil), names...)
	}
}

// WithCatalog caches image dimensions in repo
func WithCatalog(repo domain.ImageRepository) Option {
	return func(e *Engine) {
		e.catalog = repo
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger the engine writes to
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = logger
	}
}

// Engine holds the editing state of every side. All exported methods are
// safe for concurrent use and run one at a time.
type Engine struct {
	mu sync.Mutex

	cfg       *Config
	skeleton  domain.Skeleton
	mode      Mode
	format    FormatMode
	defaultV  domain.Visibility
	localizer *i18n.Localizer
	catalog   domain.ImageRepository
	now       func() time.Time
	log       logrus.FieldLogger

	order  []string
	sides  map[string]*side
	active string
}

// New creates an engine. A nil config means DefaultConfig.
func New(cfg *Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		cfg:       cfg,
		skeleton:  cfg.Skeleton(),
		mode:      ModeAdd,
		format:    FormatStandard,
		defaultV:  cfg.DefaultVisibility(),
		localizer: NewLocalizer(cfg.Language),
		now:       time.Now,
		log:       logrus.StandardLogger(),
		order:     []string{SideMain},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithField("component", "engine")
	e.sides = make(map[string]*side, len(e.order))
	for _, name := range e.order {
		e.sides[name] = newSide(name, cfg.History.Capacity, e.now())
	}
	e.active = e.order[0]
	return e
}

// Sides returns the side names in creation order
func (e *Engine) Sides() []string {
	return append([]string(nil), e.order...)
}

func (e *Engine) side(name string) (*side, error) {
	if name == "" {
		name = e.active
	}
	s, ok := e.sides[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSide, name)
	}
	return s, nil
}

func (e *Engine) msg(id string, data map[string]any) string {
	return Localize(e.localizer, id, data)
}

func (e *Engine) info(id string, data map[string]any) Result {
	return Result{OK: true, Level: LevelInfo, Message: e.msg(id, data)}
}

func (e *Engine) warn(id string, data map[string]any) Result {
	return Result{Level: LevelWarn, Message: e.msg(id, data)}
}

func (e *Engine) fail(id string, err error, data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	data["Error"] = err.Error()
	e.log.WithError(err).Warnf("Engine: %s", id)
	return Result{Level: LevelError, Message: e.msg(id, data)}
}

func (e *Engine) noSide(name string) Result {
	return e.warn("no_side", map[string]any{"Side": name})
}

// SetActiveSide selects the side used when a command names no side
func (e *Engine) SetActiveSide(name string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sides[name]; !ok {
		return e.noSide(name)
	}
	e.active = name
	return e.info("side_active", map[string]any{"Side": name})
}

// ActiveSide returns the name of the active side
func (e *Engine) ActiveSide() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SetMode changes what pointer presses do
func (e *Engine) SetMode(mode Mode) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch mode {
	case ModeMove, ModeAdd, ModeDelete:
	default:
		return e.warn("mode_invalid", map[string]any{"Mode": string(mode)})
	}
	e.mode = mode
	for _, s := range e.sides {
		s.endDrag()
	}
	return e.info("mode_set", map[string]any{"Mode": string(mode)})
}

// Mode returns the pointer mode
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// SetFormatMode switches between standard and COCO keypoints. Entering COCO
// mode gives every present keypoint of each side's current record a valid
// visibility, defaulting to visible. That upgrade is not recorded in the
// undo history.
func (e *Engine) SetFormatMode(format FormatMode) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch format {
	case FormatStandard:
		e.format = format
		return e.info("format_standard", nil)
	case FormatCOCO:
	default:
		return e.warn("format_invalid", map[string]any{"Mode": string(format)})
	}
	previous := e.format
	e.format = FormatCOCO
	if previous == FormatCOCO {
		return e.info("format_coco", nil)
	}
	upgraded := 0
	for _, name := range e.order {
		s := e.sides[name]
		if s.record == nil {
			continue
		}
		n := upgradeVisibility(s.record.Keypoints)
		if n > 0 {
			s.unsaved = true
			upgraded += n
		}
	}
	if upgraded > 0 {
		r := e.info("format_coco_upgraded", nil)
		r.Count = upgraded
		return r
	}
	return e.info("format_coco", nil)
}

// FormatMode returns the keypoint format
func (e *Engine) FormatMode() FormatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.format
}

func upgradeVisibility(kps []domain.Keypoint) int {
	n := 0
	for i, kp := range kps {
		switch {
		case kp.Kind == domain.Point:
			kps[i] = kp.WithVisibility(domain.Visible)
			n++
		case kp.Kind == domain.PointV && !kp.V.Valid():
			kps[i] = kp.WithVisibility(domain.Visible)
			n++
		}
	}
	return n
}

// SetDefaultVisibility sets the visibility of keypoints added in COCO mode
func (e *Engine) SetDefaultVisibility(v domain.Visibility) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !v.Valid() {
		return e.warn("visibility_invalid", nil)
	}
	e.defaultV = v
	return e.info("default_visibility_set", map[string]any{"Label": v.Label()})
}

// SetSkeleton replaces the keypoint names and limb pairs
func (e *Engine) SetSkeleton(skeleton domain.Skeleton) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, pair := range skeleton.Pairs {
		for _, id := range pair {
			if id < 0 || id >= len(skeleton.Names) {
				err := fmt.Errorf("pair %v is out of range for %d names", pair, len(skeleton.Names))
				return e.warn("skeleton_invalid", map[string]any{"Error": err.Error()})
			}
		}
	}
	e.skeleton = skeleton.Clone()
	return e.info("skeleton_updated", nil)
}

// Skeleton returns a copy of the keypoint names and limb pairs
func (e *Engine) Skeleton() domain.Skeleton {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skeleton.Clone()
}

// side is one image folder bound to one annotation document
type side struct {
	name string

	folder string
	images []string
	index  int

	store          *store.Store
	annotationFile string
	cocoFile       string

	record *domain.Record
	// matchedKey is the document path the record was found under, empty when created
	matchedKey string
	history    *history.History

	selected int
	dragging bool

	unsaved  bool
	lastSave time.Time
}

func newSide(name string, capacity int, now time.Time) *side {
	return &side{
		name:     name,
		store:    store.New(),
		history:  history.New(capacity),
		selected: -1,
		lastSave: now,
	}
}

func (s *side) endDrag() {
	s.dragging = false
	s.selected = -1
}

func (s *side) currentImage() string {
	if s.index < 0 || s.index >= len(s.images) {
		return ""
	}
	return s.images[s.index]
}
