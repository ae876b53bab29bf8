// Package arbitrator implements the priority multiplexer of spec §4.1: it
// holds every registered source indexed by numeric priority and picks the
// single visible one for the rest of the pipeline.
//
// Grounded on the teacher's mutex-guarded registry idiom
// (conn/spi/spireg's byName map behind a sync.Mutex, Open/All/Register)
// generalized from "named ports" to "prioritized color/image sources".
package arbitrator

import (
	"errors"
	"fmt"

	"ambicore.dev/core/clock"
	"ambicore.dev/core/color"
)

// NoSourcePriority is the reserved priority that is always present,
// carrying black, selected once every other entry has expired or been
// cleared (spec §3, §4.1).
const NoSourcePriority = 255

// Kind identifies the component that registered a priority entry.
type Kind int

const (
	KindUnknown Kind = iota
	KindColor
	KindImage
	KindEffect
	KindExternal
)

// Errors, spec §7 and §4.1.
var (
	// ErrNotRegistered is returned by SetImage when no prior Register call
	// exists for the priority; the caller should register and retry.
	ErrNotRegistered = errors.New("arbitrator: priority not registered")
	// ErrInvalidPriority is returned for out-of-range or protected
	// priorities.
	ErrInvalidPriority = errors.New("arbitrator: invalid priority")
)

// entry is one priority's bookkeeping. Exactly one of colors/image is set
// once data has arrived; before that the entry is metadata-only and not
// selectable.
type entry struct {
	priority     uint8
	kind         Kind
	origin       string
	owner        string
	smoothingID  int
	colors       []color.Color
	image        *color.Image
	expiresAtMs  int64 // <0 => no expiry
	hasData      bool
	inactive     bool // setInputInactive: considered but suppressed, not removed (SPEC_FULL §13.2)
}

func (e *entry) selectable(now int64) bool {
	if !e.hasData || e.inactive {
		return false
	}
	if e.expiresAtMs >= 0 && e.expiresAtMs <= now {
		return false
	}
	return true
}

// ChangeKind enumerates what a Notify callback reports.
type ChangeKind int

const (
	// VisibilityChanged fires whenever the selected priority changes.
	VisibilityChanged ChangeKind = iota
	// SourceKindChanged additionally fires when the new visible entry's
	// Kind differs from the previous one's.
	SourceKindChanged
	// DeviceOff additionally fires whenever the visible priority falls
	// back to NoSourcePriority.
	DeviceOff
)

// Notification is delivered on a visibility change (spec §4.1).
type Notification struct {
	Change         ChangeKind
	PreviousPrio   uint8
	NewPrio        uint8
}

// Arbitrator is the priority multiplexer. The zero value is not usable;
// use New.
type Arbitrator struct {
	ledCount int
	entries  map[uint8]*entry

	autoSelect   bool
	forced       uint8
	forcedSet    bool

	visible  uint8
	onChange func(Notification)
}

// New creates an Arbitrator for a layout of ledCount LEDs. A
// NoSourcePriority entry carrying black is pre-registered, matching spec
// §3's "a special 'no source' priority = 255 is always present carrying
// black".
func New(ledCount int, onChange func(Notification)) *Arbitrator {
	a := &Arbitrator{
		ledCount:   ledCount,
		entries:    map[uint8]*entry{},
		autoSelect: true,
		visible:    NoSourcePriority,
		onChange:   onChange,
	}
	a.entries[NoSourcePriority] = &entry{
		priority:    NoSourcePriority,
		kind:        KindColor,
		origin:      "none",
		colors:      make([]color.Color, ledCount),
		expiresAtMs: -1,
		hasData:     true,
	}
	return a
}

func validPriority(p uint8) bool {
	return p <= 254
}

// Resize changes the LED count used to tile short color vectors and to
// size the NoSourcePriority fallback, reacting to a layout change (spec
// §4.2 "Rebuild trigger" applies symmetrically to the arbitrator's
// always-present black entry). Existing entries' stored vectors are
// retiled to the new count on their next SetColor call; the black
// fallback is retiled immediately since it is never resubmitted.
func (a *Arbitrator) Resize(n int) {
	a.ledCount = n
	a.entries[NoSourcePriority].colors = make([]color.Color, n)
}

// Register creates or updates an entry's metadata without attaching
// color/image data yet (spec §4.1).
func (a *Arbitrator) Register(priority uint8, kind Kind, origin, owner string, smoothingID int) error {
	if !validPriority(priority) {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}
	e, ok := a.entries[priority]
	if !ok {
		e = &entry{priority: priority, expiresAtMs: -1}
		a.entries[priority] = e
	}
	e.kind, e.origin, e.owner, e.smoothingID = kind, origin, owner, smoothingID
	return nil
}

// SetColor attaches a color vector to priority, implicitly registering it
// if absent. A vector shorter than the LED count is tiled to fill (spec
// §4.1, §8 boundary: size==1 tiles to full length). timeoutMs<0 means no
// expiry; timeoutMs==0 makes the entry immediately expired, a no-op as
// far as visibility is concerned (spec §8 round-trip property).
func (a *Arbitrator) SetColor(priority uint8, colors []color.Color, timeoutMs int64, origin, owner string) error {
	if !validPriority(priority) {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}
	if len(colors) == 0 {
		return fmt.Errorf("%w: empty color vector", ErrInvalidConfigLocal)
	}
	e, ok := a.entries[priority]
	if !ok {
		e = &entry{priority: priority, kind: KindColor, origin: origin, owner: owner}
		a.entries[priority] = e
	}
	e.kind = KindColor
	e.colors = tile(colors, a.ledCount)
	e.image = nil
	e.hasData = true
	e.inactive = false
	e.expiresAtMs = expiryFor(timeoutMs)
	a.reselect()
	return nil
}

// SetImage attaches an image to priority. It fails with ErrNotRegistered
// if Register was never called for this priority (spec §4.1, §7).
func (a *Arbitrator) SetImage(priority uint8, img *color.Image, timeoutMs int64) error {
	if !validPriority(priority) {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}
	e, ok := a.entries[priority]
	if !ok {
		return fmt.Errorf("%w: priority %d", ErrNotRegistered, priority)
	}
	// An image of size 1x1 is logically a color, not an image (spec §8
	// boundary behavior) — route it as such.
	if img.W == 1 && img.H == 1 {
		return a.SetColor(priority, []color.Color{img.At(0, 0)}, timeoutMs, e.origin, e.owner)
	}
	e.kind = KindImage
	e.image = img
	e.colors = nil
	e.hasData = true
	e.inactive = false
	e.expiresAtMs = expiryFor(timeoutMs)
	a.reselect()
	return nil
}

// Clear removes a single priority. Clearing a priority that was never
// registered is a no-op, so Register-then-Clear round-trips to the prior
// state (spec §8).
func (a *Arbitrator) Clear(priority uint8) {
	if priority == NoSourcePriority {
		return
	}
	delete(a.entries, priority)
	a.reselect()
}

// effectBandLow and effectBandHigh bound the reserved effect priority
// range protected from unprivileged bulk clears (spec §9 "Priority
// namespace policy"). Chosen to match the common Hyperion-family
// convention of dedicating the lowest 20 slots (0..19) to the arbitrator's
// protected starting range; callers needing a different boundary should
// not rely on this constant, only on ClearAll's forceClearAll parameter.
const effectBandLow, effectBandHigh = 0, 19

// ClearAll removes every entry except NoSourcePriority. If
// forceClearAll is false, the protected effect priority band
// [effectBandLow, effectBandHigh] is left untouched (spec §9).
func (a *Arbitrator) ClearAll(forceClearAll bool) {
	for p := range a.entries {
		if p == NoSourcePriority {
			continue
		}
		if !forceClearAll && p >= effectBandLow && p <= effectBandHigh {
			continue
		}
		delete(a.entries, p)
	}
	a.reselect()
}

// SetInputInactive freezes priority's timeout without removing the entry
// (spec §4.1); per SPEC_FULL §13.2 this suppresses the entry from
// selection without deleting it.
func (a *Arbitrator) SetInputInactive(priority uint8) {
	if e, ok := a.entries[priority]; ok {
		e.inactive = true
		a.reselect()
	}
}

// SetAutoSelect toggles whether the arbitrator picks the lowest-numbered
// non-expired entry automatically.
func (a *Arbitrator) SetAutoSelect(auto bool) {
	a.autoSelect = auto
	a.reselect()
}

// SetVisiblePriority forces a specific priority to be visible regardless
// of ordering, as long as it is present and selectable (spec §4.1).
func (a *Arbitrator) SetVisiblePriority(p uint8) {
	a.forced = p
	a.forcedSet = true
	a.reselect()
}

// ClearForcedVisible reverts to automatic selection.
func (a *Arbitrator) ClearForcedVisible() {
	a.forcedSet = false
	a.reselect()
}

// CurrentPriority returns the currently visible priority.
func (a *Arbitrator) CurrentPriority() uint8 { return a.visible }

// ActivePriorities returns every registered priority, sorted ascending,
// including metadata-only entries.
func (a *Arbitrator) ActivePriorities() []uint8 {
	out := make([]uint8, 0, len(a.entries))
	for p := range a.entries {
		out = append(out, p)
	}
	// insertion sort is fine; priority counts are tiny (<=255).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// PriorityInfo describes one entry for external query purposes (spec
// §6 getPriorityInfo).
type PriorityInfo struct {
	Priority    uint8
	Kind        Kind
	Origin      string
	Owner       string
	HasData     bool
	Active      bool
	ExpiresAtMs int64
}

// Info returns a snapshot of priority's metadata, or false if unknown.
func (a *Arbitrator) Info(priority uint8) (PriorityInfo, bool) {
	e, ok := a.entries[priority]
	if !ok {
		return PriorityInfo{}, false
	}
	return PriorityInfo{
		Priority:    e.priority,
		Kind:        e.kind,
		Origin:      e.origin,
		Owner:       e.owner,
		HasData:     e.hasData,
		Active:      e.selectable(clock.Now()),
		ExpiresAtMs: e.expiresAtMs,
	}, true
}

// Visible returns the currently selected entry's color vector and image
// (exactly one is non-nil, per spec §3) plus its priority and kind. It
// first sweeps expired entries, matching invariant 1 (spec §8): the
// selected priority is always the minimum-keyed non-expired entry, or the
// forced one if set and present.
func (a *Arbitrator) Visible() (priority uint8, kind Kind, colors []color.Color, image *color.Image) {
	a.expireAndReselect()
	e := a.entries[a.visible]
	return e.priority, e.kind, e.colors, e.image
}

// expireAndReselect removes entries whose finite expiry has elapsed, then
// recomputes the visible priority. Entries marked inactive are skipped:
// their timeout is frozen.
func (a *Arbitrator) expireAndReselect() {
	now := clock.Now()
	for p, e := range a.entries {
		if p == NoSourcePriority || e.inactive {
			continue
		}
		if e.expiresAtMs >= 0 && e.expiresAtMs <= now {
			delete(a.entries, p)
		}
	}
	a.reselect()
}

func (a *Arbitrator) reselect() {
	now := clock.Now()
	next := a.selectVisible(now)
	if next == a.visible {
		return
	}
	prevKind := KindUnknown
	if pe, ok := a.entries[a.visible]; ok {
		prevKind = pe.kind
	}
	prev := a.visible
	a.visible = next
	if a.onChange == nil {
		return
	}
	a.onChange(Notification{Change: VisibilityChanged, PreviousPrio: prev, NewPrio: next})
	if ne := a.entries[next]; ne != nil && ne.kind != prevKind {
		a.onChange(Notification{Change: SourceKindChanged, PreviousPrio: prev, NewPrio: next})
	}
	if next == NoSourcePriority {
		a.onChange(Notification{Change: DeviceOff, PreviousPrio: prev, NewPrio: next})
	}
}

func (a *Arbitrator) selectVisible(now int64) uint8 {
	if a.forcedSet {
		if e, ok := a.entries[a.forced]; ok && e.selectable(now) {
			return a.forced
		}
	}
	if !a.autoSelect {
		return NoSourcePriority
	}
	best := uint8(NoSourcePriority)
	for p, e := range a.entries {
		if !e.selectable(now) {
			continue
		}
		if p < best {
			best = p
		}
	}
	return best
}

func tile(src []color.Color, n int) []color.Color {
	if len(src) >= n {
		return append([]color.Color(nil), src[:n]...)
	}
	out := make([]color.Color, n)
	for i := range out {
		out[i] = src[i%len(src)]
	}
	return out
}

func expiryFor(timeoutMs int64) int64 {
	if timeoutMs < 0 {
		return -1
	}
	return clock.Now() + timeoutMs
}

// ErrInvalidConfigLocal reports a malformed call (e.g. an empty color
// vector), distinct from ErrInvalidPriority.
var ErrInvalidConfigLocal = errors.New("arbitrator: invalid argument")
