// Package script hosts a user experiment description as an embedded
// Lua program (spec.md §6: "consumed from the script environment"),
// exposing the device constructors and start/stop/wait entry points
// as Go closures registered into a *lua.LState. Devices are addressed
// from Lua by name rather than by userdata handle, mirroring the
// name-registry lookup the core already performs for every device.
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/example/labc/compiler"
	"github.com/example/labc/device"
	"github.com/example/labc/diag"
	"github.com/example/labc/instruction"
	"github.com/example/labc/labcerr"
	"github.com/example/labc/sink"
	"github.com/example/labc/waveform"
)

// Host runs a Lua experiment script against one Compiler.
type Host struct {
	L    *lua.LState
	C    *compiler.Compiler
	sink sink.Sink
}

// New returns a Host with its "lab" module registered, reporting
// diagnostics through diagSink and, at stop(), emitting the compiled
// payload through out.
func New(diagSink diag.Sink, out sink.Sink) *Host {
	L := lua.NewState()
	h := &Host{L: L, C: compiler.New(diagSink), sink: out}
	h.register()
	return h
}

// Close releases the underlying Lua state.
func (h *Host) Close() { h.L.Close() }

// Run executes the Lua source in src.
func (h *Host) Run(src string) error {
	return h.L.DoString(src)
}

func (h *Host) register() {
	mod := h.L.NewTable()
	h.L.SetGlobal("lab", mod)

	set := func(name string, fn lua.LGFunction) { h.L.SetField(mod, name, h.L.NewFunction(fn)) }

	set("add_master_pseudoclock", h.addMasterPseudoclock)
	set("add_clockline", h.addClockLine)
	set("add_intermediate_device", h.addIntermediateDevice)
	set("add_digital_out", h.addDigitalOut)
	set("add_analog_out", h.addAnalogOut)
	set("add_trigger", h.addTrigger)
	set("add_secondary_pseudoclock", h.addSecondaryPseudoclock)
	set("add_shutter", h.addShutter)
	set("add_dds", h.addDDS)
	set("add_analog_in", h.addAnalogIn)
	set("add_wait_monitor", h.addWaitMonitor)
	set("add_static_analog_out", h.addStaticAnalogOut)
	set("add_static_digital_out", h.addStaticDigitalOut)
	set("add_static_dds", h.addStaticDDS)

	set("go_high", h.goHigh)
	set("go_low", h.goLow)
	set("enable", h.enable)
	set("disable", h.disable)
	set("constant", h.constant)
	set("ramp", h.ramp)
	set("sine", h.sine)
	set("sine_squared", h.sineSquared)
	set("quartic_sine", h.quarticSine)
	set("exp_ramp", h.expRamp)
	set("decay_ramp", h.decayRamp)
	set("piecewise_accel", h.piecewiseAccel)
	set("square_wave", h.squareWave)
	set("pulse_train", h.pulseTrain)
	set("custom_ramp", h.customRamp)
	set("repeat_pulse_sequence", h.repeatPulseSequence)

	set("shutter_open", h.shutterOpen)
	set("shutter_close", h.shutterClose)
	set("acquire", h.acquire)
	set("static_set", h.staticSet)
	set("static_go_high", h.staticGoHigh)
	set("static_go_low", h.staticGoLow)

	set("start", h.start)
	set("stop", h.stop)
	set("wait", h.wait)
	set("add_time_marker", h.addTimeMarker)
}

func (h *Host) device(name string) (device.Device, error) {
	n, ok := h.C.Ctx.Lookup(name)
	if !ok {
		return nil, labcerr.New(labcerr.InvalidName, "script", "no such device", "name", name)
	}
	d, ok := n.(device.Device)
	if !ok {
		return nil, labcerr.New(labcerr.InvalidName, "script", "name does not refer to a device", "name", name)
	}
	return d, nil
}

func (h *Host) output(name string) (device.Output, error) {
	d, err := h.device(name)
	if err != nil {
		return nil, err
	}
	o, ok := d.(device.Output)
	if !ok {
		return nil, labcerr.New(labcerr.InvalidName, "script", "device has no timeline", "name", name)
	}
	return o, nil
}

func fail(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}

func (h *Host) addMasterPseudoclock(L *lua.LState) int {
	name := L.CheckString(1)
	clockLimit := L.CheckNumber(2)
	clockResolution := L.CheckNumber(3)
	triggerMinDuration := L.OptNumber(4, 0)
	waitDelay := L.OptNumber(5, 0)
	_, err := device.NewMasterPseudoclock(h.C.Ctx, name, float64(clockLimit), float64(clockResolution), float64(triggerMinDuration), float64(waitDelay))
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addSecondaryPseudoclock(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	clockLimit := float64(L.CheckNumber(4))
	clockResolution := float64(L.CheckNumber(5))
	triggerDelay := float64(L.CheckNumber(6))
	triggerMinDuration := float64(L.OptNumber(7, 0))
	waitDelay := float64(L.OptNumber(8, 0))
	initialTriggerTime := float64(L.OptNumber(9, 0))

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	trig, ok := parentDev.(*device.Trigger)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not a Trigger", "name", parentName))
	}
	_, err = device.NewSecondaryPseudoclock(h.C.Ctx, name, trig, connection, clockLimit, clockResolution, triggerDelay, triggerMinDuration, waitDelay, initialTriggerTime)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addClockLine(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	rampingAllowed := L.OptBool(4, true)

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	pc, ok := parentDev.(*device.Pseudoclock)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not a Pseudoclock", "name", parentName))
	}
	_, err = device.NewClockLine(h.C.Ctx, name, pc, connection, rampingAllowed)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addIntermediateDevice(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	cl, ok := parentDev.(*device.ClockLine)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not a ClockLine", "name", parentName))
	}
	_, err = device.NewIntermediateDevice(h.C.Ctx, name, cl, connection)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addDigitalOut(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	inverted := L.OptBool(4, false)

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	id, ok := parentDev.(*device.IntermediateDevice)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not an IntermediateDevice", "name", parentName))
	}
	_, err = device.NewDigitalOut(h.C.Ctx, name, id, connection, inverted)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addAnalogOut(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	min := L.OptNumber(4, 0)
	max := L.OptNumber(5, 0)
	hasLimits := L.GetTop() >= 5

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	id, ok := parentDev.(*device.IntermediateDevice)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not an IntermediateDevice", "name", parentName))
	}
	limits := instruction.Limits{Min: float64(min), Max: float64(max), Set: hasLimits}
	_, err = device.NewAnalogOut(h.C.Ctx, name, id, connection, limits, nil)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addTrigger(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	negative := L.OptBool(4, false)

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	id, ok := parentDev.(*device.IntermediateDevice)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not an IntermediateDevice", "name", parentName))
	}
	edge := device.EdgePositive
	if negative {
		edge = device.EdgeNegative
	}
	_, err = device.NewTrigger(h.C.Ctx, name, id, connection, edge)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addShutter(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	openDelay := float64(L.CheckNumber(4))
	closeDelay := float64(L.CheckNumber(5))
	openState := int(L.OptNumber(6, 1))

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	id, ok := parentDev.(*device.IntermediateDevice)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not an IntermediateDevice", "name", parentName))
	}
	_, err = device.NewShutter(h.C.Ctx, name, id, connection, openDelay, closeDelay, openState)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addDDS(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	withGate := L.OptBool(4, false)

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	id, ok := parentDev.(*device.IntermediateDevice)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not an IntermediateDevice", "name", parentName))
	}
	_, err = device.NewDDS(h.C.Ctx, name, id, connection, instruction.Limits{}, instruction.Limits{}, instruction.Limits{}, nil, nil, nil, withGate)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addAnalogIn(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	scaleFactor := float64(L.OptNumber(4, 1))
	units := L.OptString(5, "")

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	id, ok := parentDev.(*device.IntermediateDevice)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not an IntermediateDevice", "name", parentName))
	}
	_, err = device.NewAnalogIn(h.C.Ctx, name, id, connection, scaleFactor, units)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addWaitMonitor(L *lua.LState) int {
	name := L.CheckString(1)
	acqDevice := L.CheckString(2)
	acqPort := L.CheckString(3)
	minimumPulseWidth := float64(L.OptNumber(4, 0))
	_, err := device.NewWaitMonitor(h.C.Ctx, name, acqDevice, acqPort, minimumPulseWidth)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addStaticAnalogOut(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	min := L.OptNumber(4, 0)
	max := L.OptNumber(5, 0)
	hasLimits := L.GetTop() >= 5

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	id, ok := parentDev.(*device.IntermediateDevice)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not an IntermediateDevice", "name", parentName))
	}
	limits := instruction.Limits{Min: float64(min), Max: float64(max), Set: hasLimits}
	_, err = device.NewStaticAnalogOut(h.C.Ctx, name, id, connection, limits, nil)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addStaticDigitalOut(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)
	inverted := L.OptBool(4, false)

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	id, ok := parentDev.(*device.IntermediateDevice)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not an IntermediateDevice", "name", parentName))
	}
	_, err = device.NewStaticDigitalOut(h.C.Ctx, name, id, connection, inverted)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) addStaticDDS(L *lua.LState) int {
	name := L.CheckString(1)
	parentName := L.CheckString(2)
	connection := L.CheckString(3)

	parentDev, err := h.device(parentName)
	if err != nil {
		return fail(L, err)
	}
	id, ok := parentDev.(*device.IntermediateDevice)
	if !ok {
		return fail(L, labcerr.New(labcerr.KindMismatch, "script", "parent is not an IntermediateDevice", "name", parentName))
	}
	_, err = device.NewStaticDDS(h.C.Ctx, name, id, connection, instruction.Limits{}, instruction.Limits{}, instruction.Limits{}, nil, nil, nil)
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) goHigh(L *lua.LState) int {
	return h.digitalCommand(L, true)
}

func (h *Host) goLow(L *lua.LState) int {
	return h.digitalCommand(L, false)
}

func (h *Host) digitalCommand(L *lua.LState, high bool) int {
	name := L.CheckString(1)
	t := float64(L.CheckNumber(2))

	o, err := h.output(name)
	if err != nil {
		return fail(L, err)
	}
	if !o.IsDigital() {
		return fail(L, labcerr.New(labcerr.InvalidName, "script", "not a digital output", "name", name))
	}
	t0 := timelineT0(o)
	switch d := o.(type) {
	case *device.DigitalOut:
		if high {
			err = d.GoHigh(h.C.Ctx.StartCalled, t0, t, h.C.Diag)
		} else {
			err = d.GoLow(h.C.Ctx.StartCalled, t0, t, h.C.Diag)
		}
	case *device.Trigger:
		if high {
			err = d.GoHigh(h.C.Ctx.StartCalled, t0, t, h.C.Diag)
		} else {
			err = d.GoLow(h.C.Ctx.StartCalled, t0, t, h.C.Diag)
		}
	default:
		err = labcerr.New(labcerr.InvalidName, "script", "unsupported digital output kind", "name", name)
	}
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) constant(L *lua.LState) int {
	name := L.CheckString(1)
	t := float64(L.CheckNumber(2))
	v := float64(L.CheckNumber(3))
	units := L.OptString(4, "")

	o, err := h.output(name)
	if err != nil {
		return fail(L, err)
	}
	t0 := timelineT0(o)
	if err := o.Timeline().AddScalar(h.C.Ctx.StartCalled, t0, t, v, units, h.C.Diag); err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) ramp(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	initial := float64(L.CheckNumber(5))
	final := float64(L.CheckNumber(6))
	units := L.OptString(7, "")

	o, err := h.output(name)
	if err != nil {
		return fail(L, err)
	}
	t0 := timelineT0(o)
	rec := instruction.Record{
		Function: waveform.Func{
			Kind:     waveform.KindRamp,
			Initial:  initial,
			Final:    final,
			Duration: end - start,
		},
		Description: fmt.Sprintf("ramp(%s)", name),
		InitialTime: start,
		EndTime:     end,
		ClockRate:   clockRate,
		Units:       units,
	}
	if err := o.Timeline().AddRamp(h.C.Ctx.StartCalled, t0, rec, h.C.Diag); err != nil {
		return fail(L, err)
	}
	return 0
}

// enable commands a DigitalOut-derived output (DigitalOut, Trigger,
// Shutter) to its logical active level, applying Inverted.
func (h *Host) enable(L *lua.LState) int {
	return h.digitalEnableCommand(L, true)
}

// disable commands a DigitalOut-derived output to its logical
// inactive level, applying Inverted.
func (h *Host) disable(L *lua.LState) int {
	return h.digitalEnableCommand(L, false)
}

// digitalEnabler is satisfied by DigitalOut and any type embedding it
// (Trigger, Shutter), via Go's method promotion.
type digitalEnabler interface {
	Enable(startCalled bool, t0, t float64, sink diag.Sink) error
	Disable(startCalled bool, t0, t float64, sink diag.Sink) error
}

// digitalGoer is satisfied by DigitalOut and any type embedding it.
type digitalGoer interface {
	GoHigh(startCalled bool, t0, t float64, sink diag.Sink) error
	GoLow(startCalled bool, t0, t float64, sink diag.Sink) error
}

func (h *Host) digitalEnableCommand(L *lua.LState, enable bool) int {
	name := L.CheckString(1)
	t := float64(L.CheckNumber(2))

	o, err := h.output(name)
	if err != nil {
		return fail(L, err)
	}
	d, ok := o.(digitalEnabler)
	if !ok {
		return fail(L, labcerr.New(labcerr.InvalidName, "script", "not a DigitalOut-derived output", "name", name))
	}
	t0 := timelineT0(o)
	if enable {
		err = d.Enable(h.C.Ctx.StartCalled, t0, t, h.C.Diag)
	} else {
		err = d.Disable(h.C.Ctx.StartCalled, t0, t, h.C.Diag)
	}
	if err != nil {
		return fail(L, err)
	}
	return 0
}

// addWaveform fills in rec.Function's Duration from the ramp's span
// and adds it to o's timeline, the common tail shared by every
// shape-specific ramp binding below.
func (h *Host) addWaveform(L *lua.LState, name string, start, end, clockRate float64, units string, fn waveform.Func) int {
	o, err := h.output(name)
	if err != nil {
		return fail(L, err)
	}
	fn.Duration = end - start
	t0 := timelineT0(o)
	rec := instruction.Record{
		Function:    fn,
		Description: fmt.Sprintf("%s(%s)", waveformDescName(fn.Kind), name),
		InitialTime: start,
		EndTime:     end,
		ClockRate:   clockRate,
		Units:       units,
	}
	if err := o.Timeline().AddRamp(h.C.Ctx.StartCalled, t0, rec, h.C.Diag); err != nil {
		return fail(L, err)
	}
	return 0
}

func waveformDescName(k waveform.Kind) string {
	switch k {
	case waveform.KindSine:
		return "sine"
	case waveform.KindSineSquared:
		return "sine_squared"
	case waveform.KindQuarticSine:
		return "quartic_sine"
	case waveform.KindExpByAsymptote:
		return "exp_ramp"
	case waveform.KindExpByTau:
		return "decay_ramp"
	case waveform.KindPiecewiseAccel:
		return "piecewise_accel"
	case waveform.KindSquareWave:
		return "square_wave"
	case waveform.KindPulseTrain:
		return "pulse_train"
	case waveform.KindCustom:
		return "custom_ramp"
	default:
		return "ramp"
	}
}

func (h *Host) sine(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	frequency := float64(L.CheckNumber(5))
	amplitude := float64(L.CheckNumber(6))
	phase := float64(L.OptNumber(7, 0))
	offset := float64(L.OptNumber(8, 0))
	units := L.OptString(9, "")
	return h.addWaveform(L, name, start, end, clockRate, units, waveform.Func{
		Kind: waveform.KindSine, Frequency: frequency, Amplitude: amplitude, Phase: phase, Offset: offset,
	})
}

func (h *Host) sineSquared(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	frequency := float64(L.CheckNumber(5))
	amplitude := float64(L.CheckNumber(6))
	phase := float64(L.OptNumber(7, 0))
	offset := float64(L.OptNumber(8, 0))
	units := L.OptString(9, "")
	return h.addWaveform(L, name, start, end, clockRate, units, waveform.Func{
		Kind: waveform.KindSineSquared, Frequency: frequency, Amplitude: amplitude, Phase: phase, Offset: offset,
	})
}

func (h *Host) quarticSine(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	frequency := float64(L.CheckNumber(5))
	amplitude := float64(L.CheckNumber(6))
	phase := float64(L.OptNumber(7, 0))
	offset := float64(L.OptNumber(8, 0))
	units := L.OptString(9, "")
	return h.addWaveform(L, name, start, end, clockRate, units, waveform.Func{
		Kind: waveform.KindQuarticSine, Frequency: frequency, Amplitude: amplitude, Phase: phase, Offset: offset,
	})
}

// expRamp approaches an asymptote with time constant tau (spec.md
// §9's exp_ramp: value(t) = asymptote - (asymptote-initial)*exp(-t/tau)).
func (h *Host) expRamp(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	initial := float64(L.CheckNumber(5))
	asymptote := float64(L.CheckNumber(6))
	tau := float64(L.CheckNumber(7))
	units := L.OptString(8, "")
	return h.addWaveform(L, name, start, end, clockRate, units, waveform.Func{
		Kind: waveform.KindExpByAsymptote, Initial: initial, Asymptote: asymptote, Tau: tau,
	})
}

// decayRamp decays from initial to final with time constant tau.
func (h *Host) decayRamp(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	initial := float64(L.CheckNumber(5))
	final := float64(L.CheckNumber(6))
	tau := float64(L.CheckNumber(7))
	units := L.OptString(8, "")
	return h.addWaveform(L, name, start, end, clockRate, units, waveform.Func{
		Kind: waveform.KindExpByTau, Initial: initial, Final: final, Tau: tau,
	})
}

func (h *Host) piecewiseAccel(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	initial := float64(L.CheckNumber(5))
	final := float64(L.CheckNumber(6))
	units := L.OptString(7, "")
	return h.addWaveform(L, name, start, end, clockRate, units, waveform.Func{
		Kind: waveform.KindPiecewiseAccel, Initial: initial, Final: final,
	})
}

func (h *Host) squareWave(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	frequency := float64(L.CheckNumber(5))
	amplitude := float64(L.CheckNumber(6))
	offset := float64(L.OptNumber(7, 0))
	dutyCycle := float64(L.OptNumber(8, 0.5))
	units := L.OptString(9, "")
	return h.addWaveform(L, name, start, end, clockRate, units, waveform.Func{
		Kind: waveform.KindSquareWave, Frequency: frequency, Amplitude: amplitude, Offset: offset, DutyCycle: dutyCycle,
	})
}

// pulseTrain is the waveform-shaped repeating (high, low) ramp, distinct
// from repeat_pulse_sequence's discrete go_high/go_low step expansion.
func (h *Host) pulseTrain(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	high := float64(L.CheckNumber(5))
	low := float64(L.CheckNumber(6))
	amplitude := float64(L.CheckNumber(7))
	offset := float64(L.OptNumber(8, 0))
	units := L.OptString(9, "")
	return h.addWaveform(L, name, start, end, clockRate, units, waveform.Func{
		Kind: waveform.KindPulseTrain, High: high, Low: low, Amplitude: amplitude, Offset: offset,
	})
}

// customRamp evaluates a named global Lua function of one argument
// (the time in seconds relative to the ramp's start) at each sample
// point, mirroring the original's arbitrary-function ramps.
func (h *Host) customRamp(L *lua.LState) int {
	name := L.CheckString(1)
	start := float64(L.CheckNumber(2))
	end := float64(L.CheckNumber(3))
	clockRate := float64(L.CheckNumber(4))
	fnName := L.CheckString(5)
	units := L.OptString(6, "")

	luaFn := L.GetGlobal(fnName)
	if luaFn.Type() != lua.LTFunction {
		return fail(L, labcerr.New(labcerr.InvalidName, "script", "custom_ramp function not found", "function", fnName))
	}
	// Evaluated later, during materialisation, so a Lua-side error in
	// the callback surfaces as a zero sample rather than a script error.
	eval := func(tRel float64) float64 {
		if err := h.L.CallByParam(lua.P{Fn: luaFn, NRet: 1, Protect: true}, lua.LNumber(tRel)); err != nil {
			return 0
		}
		ret := h.L.Get(-1)
		h.L.Pop(1)
		return float64(lua.LVAsNumber(ret))
	}
	return h.addWaveform(L, name, start, end, clockRate, units, waveform.Func{
		Kind: waveform.KindCustom, CustomName: fnName, CustomFn: eval,
	})
}

// repeatPulseSequence expands a repeating digital pulse sequence
// (SPEC_FULL.md §D.3) and issues the resulting go_high/go_low
// instructions on a DigitalOut-derived output's own timeline. sequence
// is a Lua array of {offset, high} pairs, one period long.
func (h *Host) repeatPulseSequence(L *lua.LState) int {
	name := L.CheckString(1)
	t := float64(L.CheckNumber(2))
	duration := float64(L.CheckNumber(3))
	period := float64(L.CheckNumber(4))
	seqTable := L.CheckTable(5)

	o, err := h.output(name)
	if err != nil {
		return fail(L, err)
	}
	d, ok := o.(digitalGoer)
	if !ok {
		return fail(L, labcerr.New(labcerr.InvalidName, "script", "not a DigitalOut-derived output", "name", name))
	}

	var seq []instruction.PulseStep
	var parseErr error
	seqTable.ForEach(func(_, v lua.LValue) {
		if parseErr != nil {
			return
		}
		pair, ok := v.(*lua.LTable)
		if !ok {
			parseErr = labcerr.New(labcerr.InvalidName, "script", "repeat_pulse_sequence: entry is not a table")
			return
		}
		offset := float64(lua.LVAsNumber(pair.RawGetInt(1)))
		high := lua.LVAsBool(pair.RawGetInt(2))
		seq = append(seq, instruction.PulseStep{Time: offset, High: high})
	})
	if parseErr != nil {
		return fail(L, parseErr)
	}

	steps := instruction.ExpandPulseTrain(t, duration, period, seq, h.C.Diag)
	t0 := timelineT0(o)
	for _, step := range steps {
		if step.High {
			err = d.GoHigh(h.C.Ctx.StartCalled, t0, step.Time, h.C.Diag)
		} else {
			err = d.GoLow(h.C.Ctx.StartCalled, t0, step.Time, h.C.Diag)
		}
		if err != nil {
			return fail(L, err)
		}
	}
	return 0
}

func (h *Host) shutterOpen(L *lua.LState) int {
	return h.shutterCommand(L, true)
}

func (h *Host) shutterClose(L *lua.LState) int {
	return h.shutterCommand(L, false)
}

func (h *Host) shutterCommand(L *lua.LState, open bool) int {
	name := L.CheckString(1)
	t := float64(L.CheckNumber(2))

	d, err := h.device(name)
	if err != nil {
		return fail(L, err)
	}
	s, ok := d.(*device.Shutter)
	if !ok {
		return fail(L, labcerr.New(labcerr.InvalidName, "script", "not a Shutter", "name", name))
	}
	t0 := timelineT0(s)
	if open {
		err = s.Open(h.C.Ctx.StartCalled, t0, t, h.C.Diag)
	} else {
		err = s.Close(h.C.Ctx.StartCalled, t0, t, h.C.Diag)
	}
	if err != nil {
		return fail(L, err)
	}
	return 0
}

// acquire records an acquisition window on an AnalogIn, returning its
// duration.
func (h *Host) acquire(L *lua.LState) int {
	name := L.CheckString(1)
	label := L.CheckString(2)
	start := float64(L.CheckNumber(3))
	end := float64(L.CheckNumber(4))
	waitLabel := L.OptString(5, "")
	units := L.OptString(6, "")

	d, err := h.device(name)
	if err != nil {
		return fail(L, err)
	}
	a, ok := d.(*device.AnalogIn)
	if !ok {
		return fail(L, labcerr.New(labcerr.InvalidName, "script", "not an AnalogIn", "name", name))
	}
	duration, err := a.Acquire(label, start, end, waitLabel, nil, units)
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LNumber(duration))
	return 1
}

// staticSet sets a StaticAnalogOut's one-time value.
func (h *Host) staticSet(L *lua.LState) int {
	name := L.CheckString(1)
	v := float64(L.CheckNumber(2))
	units := L.OptString(3, "")

	d, err := h.device(name)
	if err != nil {
		return fail(L, err)
	}
	s, ok := d.(*device.StaticAnalogOut)
	if !ok {
		return fail(L, labcerr.New(labcerr.InvalidName, "script", "not a StaticAnalogOut", "name", name))
	}
	if err := s.Set(v, units); err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) staticGoHigh(L *lua.LState) int {
	return h.staticDigitalCommand(L, true)
}

func (h *Host) staticGoLow(L *lua.LState) int {
	return h.staticDigitalCommand(L, false)
}

func (h *Host) staticDigitalCommand(L *lua.LState, high bool) int {
	name := L.CheckString(1)

	d, err := h.device(name)
	if err != nil {
		return fail(L, err)
	}
	s, ok := d.(*device.StaticDigitalOut)
	if !ok {
		return fail(L, labcerr.New(labcerr.InvalidName, "script", "not a StaticDigitalOut", "name", name))
	}
	if high {
		err = s.GoHigh()
	} else {
		err = s.GoLow()
	}
	if err != nil {
		return fail(L, err)
	}
	return 0
}

func (h *Host) start(L *lua.LState) int {
	ready, err := h.C.Start()
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LNumber(ready))
	return 1
}

func (h *Host) stop(L *lua.LState) int {
	t := float64(L.CheckNumber(1))
	compiled, err := h.C.Stop(t)
	if err != nil {
		return fail(L, err)
	}
	payload, err := sink.Build(h.C.Ctx, compiled)
	if err != nil {
		return fail(L, err)
	}
	if h.sink != nil {
		if err := h.sink.Emit(payload); err != nil {
			return fail(L, err)
		}
	}
	return 0
}

func (h *Host) wait(L *lua.LState) int {
	label := L.CheckString(1)
	t := float64(L.CheckNumber(2))
	timeout := float64(L.OptNumber(3, 0))
	ready, err := h.C.Wait(label, t, timeout)
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LNumber(ready))
	return 1
}

func (h *Host) addTimeMarker(L *lua.LState) int {
	t := float64(L.CheckNumber(1))
	label := L.CheckString(2)
	verbose := L.OptBool(3, false)
	if err := h.C.Ctx.AddTimeMarker(t, label, nil, verbose); err != nil {
		return fail(L, err)
	}
	return 0
}

func timelineT0(o device.Output) float64 {
	pc, err := device.PseudoclockDevice(o)
	if err != nil {
		return 0
	}
	return pc.T0()
}
