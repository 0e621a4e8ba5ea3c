// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package viewport correlates the scroll position of a rendered menu with
// its sections: which section the navigation bar highlights, and
// programmatic scrolling to a section or item without the position
// observer fighting the animation.
package viewport

import (
	"math"
	"sync"
	"time"
)

// State of the tracker.
type State int

// Tracker states.
const (
	Idle State = iota
	UserScrolling
	ProgrammaticScrolling
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case UserScrolling:
		return "user-scrolling"
	case ProgrammaticScrolling:
		return "programmatic-scrolling"
	default:
		return "idle"
	}
}

// Defaults for Config.
const (
	DefaultSuppression    = 800 * time.Millisecond
	DefaultHighlight      = 2 * time.Second
	DefaultScrollEnd      = 150 * time.Millisecond
	DefaultHeaderOffset   = 80
	DefaultTopMargin      = 100
	DefaultBottomExclude  = 0.6
	DefaultViewportHeight = 800
)

// Config holds the geometry and timings of the tracker. Offsets are CSS
// pixels.
type Config struct {
	// ViewportHeight is the visible height.
	ViewportHeight float64
	// TopMargin moves the activation band down from the viewport top so
	// a section activates slightly before it reaches the very top.
	TopMargin float64
	// BottomExclude is the fraction of the viewport, measured from the
	// bottom, that does not count as intersecting.
	BottomExclude float64
	// HeaderOffset is subtracted from scroll targets to clear the sticky header.
	HeaderOffset float64
	Suppression  time.Duration
	Highlight    time.Duration
	ScrollEnd    time.Duration
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		ViewportHeight: DefaultViewportHeight,
		TopMargin:      DefaultTopMargin,
		BottomExclude:  DefaultBottomExclude,
		HeaderOffset:   DefaultHeaderOffset,
		Suppression:    DefaultSuppression,
		Highlight:      DefaultHighlight,
		ScrollEnd:      DefaultScrollEnd,
	}
}

// Entry is the viewport-relative geometry of one section anchor. Top and
// Bottom are distances from the viewport top; negative means above it.
type Entry struct {
	SectionID string
	Top       float64
	Bottom    float64
}

// Layout resolves document offsets of rendered sections and items.
type Layout interface {
	Offset(id string) (float64, bool)
}

// Scroller performs the page side effects.
type Scroller interface {
	ScrollTo(offset float64)
	SetHighlight(itemID string, on bool)
}

// Timer is a stoppable pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock schedules with time.AfterFunc.
var RealClock Clock = realClock{}

// Tracker is the active-section state machine. It is safe for
// concurrent use; Scroller and OnChange are called without locks held.
type Tracker struct {
	cfg      Config
	layout   Layout
	scroller Scroller
	clock    Clock
	onChange func(sectionID string)

	mu          sync.Mutex
	state       State
	active      string
	highlighted string
	gen         uint64 // invalidates timers armed before the last transition
	stateTimer  Timer
	hlTimer     Timer
	hlGen       uint64
}

// NewTracker creates a tracker. onChange may be nil.
func NewTracker(cfg Config, layout Layout, scroller Scroller, clock Clock, onChange func(sectionID string)) *Tracker {
	if clock == nil {
		clock = RealClock
	}
	return &Tracker{
		cfg:      cfg,
		layout:   layout,
		scroller: scroller,
		clock:    clock,
		onChange: onChange,
	}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Active returns the active section ID, "" before any activation.
func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Highlighted returns the highlighted item ID, if any.
func (t *Tracker) Highlighted() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.highlighted
}

// Observe handles a batch of anchor positions from the page. It is ignored
// while a programmatic scroll is in progress.
func (t *Tracker) Observe(entries []Entry) {
	t.mu.Lock()
	if t.state == ProgrammaticScrolling {
		t.mu.Unlock()
		return
	}

	t.state = UserScrolling
	t.armStateTimer(t.cfg.ScrollEnd)

	changed := ""
	if id, ok := t.pick(entries); ok && id != t.active {
		t.active = id
		changed = id
	}
	t.mu.Unlock()

	t.notify(changed)
}

// pick returns the intersecting section whose top edge is closest to the
// viewport top. On equal distance the one below the top wins.
func (t *Tracker) pick(entries []Entry) (string, bool) {
	bandTop := t.cfg.TopMargin
	bandBottom := t.cfg.ViewportHeight * (1 - t.cfg.BottomExclude)

	best, found := Entry{}, false
	for _, e := range entries {
		if e.Top >= bandBottom || e.Bottom <= bandTop {
			continue
		}
		if !found || closer(e.Top, best.Top) {
			best, found = e, true
		}
	}
	return best.SectionID, found
}

func closer(a, b float64) bool {
	da, db := math.Abs(a), math.Abs(b)
	if da != db {
		return da < db
	}
	return a > b
}

// ScrollToSection activates sectionID and scrolls to it.
func (t *Tracker) ScrollToSection(sectionID string) bool {
	offset, ok := t.layout.Offset(sectionID)
	if !ok {
		return false
	}
	t.scrollTo(sectionID, offset)
	return true
}

// ScrollToItem activates sectionID, scrolls to itemID and highlights it.
func (t *Tracker) ScrollToItem(sectionID, itemID string) bool {
	offset, ok := t.layout.Offset(itemID)
	if !ok {
		return false
	}
	t.scrollTo(sectionID, offset)

	t.mu.Lock()
	previous := t.highlighted
	if t.hlTimer != nil {
		t.hlTimer.Stop()
	}
	t.highlighted = itemID
	t.hlGen++
	gen := t.hlGen
	t.hlTimer = t.clock.AfterFunc(t.cfg.Highlight, func() { t.clearHighlight(gen) })
	t.mu.Unlock()

	if previous != "" && previous != itemID {
		t.scroller.SetHighlight(previous, false)
	}
	t.scroller.SetHighlight(itemID, true)
	return true
}

func (t *Tracker) scrollTo(sectionID string, offset float64) {
	t.mu.Lock()
	t.state = ProgrammaticScrolling
	t.armStateTimer(t.cfg.Suppression)
	changed := ""
	if sectionID != t.active {
		t.active = sectionID
		changed = sectionID
	}
	t.mu.Unlock()

	t.notify(changed)
	t.scroller.ScrollTo(math.Max(0, offset-t.cfg.HeaderOffset))
}

// Reset clears all state, e.g. on navigation to another menu.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.gen++
	if t.stateTimer != nil {
		t.stateTimer.Stop()
		t.stateTimer = nil
	}
	t.hlGen++
	if t.hlTimer != nil {
		t.hlTimer.Stop()
		t.hlTimer = nil
	}
	highlighted := t.highlighted
	t.state, t.active, t.highlighted = Idle, "", ""
	t.mu.Unlock()

	if highlighted != "" {
		t.scroller.SetHighlight(highlighted, false)
	}
}

// armStateTimer returns to Idle after d. Caller holds t.mu.
func (t *Tracker) armStateTimer(d time.Duration) {
	if t.stateTimer != nil {
		t.stateTimer.Stop()
	}
	t.gen++
	gen := t.gen
	t.stateTimer = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.gen == gen {
			t.state = Idle
			t.stateTimer = nil
		}
	})
}

func (t *Tracker) clearHighlight(gen uint64) {
	t.mu.Lock()
	if t.hlGen != gen || t.highlighted == "" {
		t.mu.Unlock()
		return
	}
	id := t.highlighted
	t.highlighted = ""
	t.hlTimer = nil
	t.mu.Unlock()

	t.scroller.SetHighlight(id, false)
}

func (t *Tracker) notify(sectionID string) {
	if sectionID != "" && t.onChange != nil {
		t.onChange(sectionID)
	}
}
