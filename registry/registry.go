// Package registry implements the compilation context described in
// spec.md §9: the ambient state the original implementation kept in
// a process-wide namespace, made explicit so callers can construct,
// use and discard it without global mutable state.
package registry

import (
	"go/token"

	"github.com/example/labc/labcerr"
)

// TimeMarker records a labelled point in time for display in a
// downstream viewer (spec.md §6, supplemented per SPEC_FULL.md §D.1).
type TimeMarker struct {
	Time    float64
	Label   string
	Color   [3]uint8
	HasColor bool
	Verbose bool
}

// ShotProperties carries the two passthrough fields spec.md §6
// requires of the sink payload.
type ShotProperties struct {
	TargetCycleTime                 *float64
	CycleTimeDelayAfterProgramming bool
}

// Named is satisfied by any device node the registry can track.
type Named interface {
	DeviceName() string
}

// Context is the compilation context: the name registry, device
// inventory and the start/stop/trigger bookkeeping flags spec.md §9
// asks to be threaded explicitly rather than kept globally.
type Context struct {
	names   map[string]Named
	devices []Named

	StartCalled bool
	StopTime    *float64

	MasterPseudoclock Named
	WaitMonitor       Named

	TriggerDuration float64
	WaitDelay       float64

	TimeMarkers []TimeMarker
	WaitTable   []WaitEntry

	Shot ShotProperties
}

// WaitEntry is one row of the wait table (spec.md §3).
type WaitEntry struct {
	Label   string
	Time    float64
	Timeout float64
}

// New returns a fresh, empty compilation context.
func New() *Context {
	return &Context{names: map[string]Named{}}
}

var reserved = map[string]bool{
	"start": true, "stop": true, "wait": true, "t": true,
}

// ValidateName fails InvalidName if name is not a legal identifier or
// is a reserved word, and NameClash if it is already registered.
func (c *Context) ValidateName(op, name string) error {
	if name == "" || !token.IsIdentifier(name) {
		return labcerr.New(labcerr.InvalidName, op, "not a legal identifier", "name", name)
	}
	if reserved[name] {
		return labcerr.New(labcerr.ReservedName, op, "name is reserved", "name", name)
	}
	if _, ok := c.names[name]; ok {
		return labcerr.New(labcerr.NameClash, op, "name already registered", "name", name)
	}
	return nil
}

// Register records a newly constructed device under its name. Callers
// must call ValidateName first; Register panics on a duplicate to
// surface a programming error in a device constructor rather than
// silently clobbering the registry.
func (c *Context) Register(n Named) {
	name := n.DeviceName()
	if _, ok := c.names[name]; ok {
		panic("registry: Register called without ValidateName for " + name)
	}
	c.names[name] = n
	c.devices = append(c.devices, n)
}

// Devices returns every registered device in registration order.
func (c *Context) Devices() []Named { return c.devices }

// Lookup returns the device registered under name, if any.
func (c *Context) Lookup(name string) (Named, bool) {
	n, ok := c.names[name]
	return n, ok
}

// Start marks the context as started. Fails NotStarted-adjacent
// double-start is permitted (idempotent) since the original tolerates
// re-entrant calls from script helper functions.
func (c *Context) Start() {
	c.StartCalled = true
}

// Stop fails ZeroStop if t is zero, else records the stop time.
func (c *Context) Stop(t float64) error {
	if t == 0 {
		return labcerr.New(labcerr.ZeroStop, "registry.Stop", "stop time must be nonzero")
	}
	c.StopTime = &t
	return nil
}

// AddTimeMarker records a labelled point in time, de-duplicating on
// identical (time,label) pairs per SPEC_FULL.md §D.1.
func (c *Context) AddTimeMarker(t float64, label string, color *[3]uint8, verbose bool) error {
	for _, m := range c.TimeMarkers {
		if m.Time == t && m.Label == label {
			return nil
		}
	}
	m := TimeMarker{Time: t, Label: label, Verbose: verbose}
	if color != nil {
		m.Color = *color
		m.HasColor = true
	}
	c.TimeMarkers = append(c.TimeMarkers, m)
	return nil
}

// AddWait records a wait table entry, failing NameClash/TimeClash on
// duplicate labels or times (spec.md §4.6).
func (c *Context) AddWait(label string, t, timeout float64) error {
	for _, w := range c.WaitTable {
		if w.Label == label {
			return labcerr.New(labcerr.NameClash, "registry.AddWait", "wait label already used", "label", label)
		}
		if w.Time == t {
			return labcerr.New(labcerr.TimeClash, "registry.AddWait", "wait time already used", "time", t)
		}
	}
	c.WaitTable = append(c.WaitTable, WaitEntry{Label: label, Time: t, Timeout: timeout})
	return nil
}
