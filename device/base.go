// Package device implements the typed device-tree nodes of spec.md
// §3/§4.1: Pseudoclock, ClockLine, IntermediateDevice, the Output
// kinds, Trigger and WaitMonitor, each carrying the three
// location-keyed property maps and enforcing the allowed-child table
// per kind.
package device

import (
	"github.com/example/labc/labcerr"
	"github.com/example/labc/registry"
)

// Kind enumerates every concrete device-tree node kind.
type Kind int

const (
	KindPseudoclock Kind = iota
	KindClockLine
	KindIntermediateDevice
	KindAnalogOut
	KindDigitalOut
	KindShutter
	KindTrigger
	KindDDS
	KindStaticAnalogOut
	KindStaticDigitalOut
	KindStaticDDS
	KindAnalogIn
	KindWaitMonitor
)

// Device is satisfied by every node in the tree.
type Device interface {
	registry.Named
	Kind() Kind
	ParentDevice() Device
	Children() []Device
	Connection() string
	DeviceProperties() map[string]interface{}
	ConnectionTableProperties() map[string]interface{}
	UnitConversionParameters() map[string]interface{}
	StartOrder() int
	StopOrder() int
}

// allowedChildren implements the table in spec.md §4.1.
var allowedChildren = map[Kind]map[Kind]bool{
	KindPseudoclock: {KindClockLine: true},
	KindClockLine:   {KindIntermediateDevice: true},
	KindIntermediateDevice: {
		KindAnalogOut: true, KindDigitalOut: true, KindShutter: true,
		KindTrigger: true, KindDDS: true, KindStaticAnalogOut: true,
		KindStaticDigitalOut: true, KindStaticDDS: true, KindAnalogIn: true,
	},
	KindTrigger: {
		KindPseudoclock: true, // a triggered secondary PseudoclockDevice
	},
}

// Base is embedded by every concrete device kind and implements the
// common bookkeeping: identity, parent/child links and the three
// property maps spec.md §3 requires.
type Base struct {
	name   string
	kind   Kind
	parent Device
	children []Device

	connection string

	startOrder int
	stopOrder  int

	deviceProperties           map[string]interface{}
	connectionTableProperties map[string]interface{}
	unitConversionParameters  map[string]interface{}
}

func newBase(ctx *registry.Context, op string, kind Kind, name string, parent Device, connection string) (*Base, error) {
	if err := ctx.ValidateName(op, name); err != nil {
		return nil, err
	}
	if parent != nil {
		allowed := allowedChildren[parent.Kind()]
		if !allowed[kind] {
			return nil, labcerr.New(labcerr.KindMismatch, op,
				"parent does not accept this child kind", "parent", parent.DeviceName(), "child", name)
		}
	}
	b := &Base{
		name:                       name,
		kind:                       kind,
		parent:                     parent,
		connection:                 connection,
		deviceProperties:           map[string]interface{}{},
		connectionTableProperties: map[string]interface{}{},
		unitConversionParameters:  map[string]interface{}{},
	}
	return b, nil
}

// attach registers self with ctx and, if it has a parent, appends
// itself to the parent's child list. Split from newBase so concrete
// constructors can finish building their own fields before the node
// becomes visible to tree walks.
func attach(ctx *registry.Context, self Device, b *Base) {
	ctx.Register(self)
	if b.parent != nil {
		if p, ok := b.parent.(interface{ addChild(Device) }); ok {
			p.addChild(self)
		}
	}
}

func (b *Base) addChild(d Device) { b.children = append(b.children, d) }

func (b *Base) DeviceName() string   { return b.name }
func (b *Base) Kind() Kind           { return b.kind }
func (b *Base) ParentDevice() Device { return b.parent }
func (b *Base) Children() []Device   { return b.children }
func (b *Base) Connection() string   { return b.connection }

// SetOrder overrides this device's start_order/stop_order, failing
// NotStartable if the device has no hardware connection (spec.md §6).
func (b *Base) SetOrder(start, stop int) error {
	if b.connection == "" {
		return labcerr.New(labcerr.NotStartable, "device.SetOrder",
			"start_order/stop_order set on a device with no hardware connection", "device", b.name)
	}
	b.startOrder = start
	b.stopOrder = stop
	return nil
}

// StartOrder and StopOrder report the device's program/start and
// transition/stop ordering (spec.md §6), defaulting to 0.
func (b *Base) StartOrder() int { return b.startOrder }
func (b *Base) StopOrder() int  { return b.stopOrder }

func (b *Base) DeviceProperties() map[string]interface{}           { return b.deviceProperties }
func (b *Base) ConnectionTableProperties() map[string]interface{} { return b.connectionTableProperties }
func (b *Base) UnitConversionParameters() map[string]interface{}  { return b.unitConversionParameters }

// PseudoclockDevice walks parents until it finds a Pseudoclock,
// failing NoPseudoclock if the tree has none (spec.md §4.1).
func PseudoclockDevice(d Device) (*Pseudoclock, error) {
	for n := d; n != nil; n = n.ParentDevice() {
		if pc, ok := n.(*Pseudoclock); ok {
			return pc, nil
		}
	}
	return nil, labcerr.New(labcerr.NoPseudoclock, "device.PseudoclockDevice",
		"no pseudoclock found walking parents", "device", d.DeviceName())
}

// ParentClockLine walks parents until it finds a ClockLine, failing
// NoPseudoclock (reused, since the spec defines no separate kind for
// this failure) if none exists.
func ParentClockLine(d Device) (*ClockLine, error) {
	for n := d; n != nil; n = n.ParentDevice() {
		if cl, ok := n.(*ClockLine); ok {
			return cl, nil
		}
	}
	return nil, labcerr.New(labcerr.NoPseudoclock, "device.ParentClockLine",
		"no clockline found walking parents", "device", d.DeviceName())
}

// QuantiseToPseudoclock implements spec.md §4.1's single rounding
// policy for scheduling: round(t/res)*res.
func QuantiseToPseudoclock(t, resolution float64) float64 {
	if resolution <= 0 {
		return t
	}
	n := t / resolution
	rounded := roundHalfAwayFromZero(n)
	return rounded * resolution
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -roundHalfAwayFromZero(-v)
	}
	i := float64(int64(v))
	if v-i >= 0.5 {
		return i + 1
	}
	return i
}
