// Package labcerr defines the single error type raised by every
// package in this module. All compilation failures are reported
// through Error values so callers can inspect the Kind rather than
// matching on message text.
package labcerr

import "fmt"

// Kind enumerates every distinct failure mode the compiler can raise.
type Kind int

const (
	KindUnimplemented  Kind = iota // Start of valid kind enumerations.
	NameClash                     // Device or wait/marker label already registered.
	ReservedName                  // Identifier collides with a reserved word.
	InvalidName                   // Identifier is not a legal variable name.
	KindMismatch                  // Child kind not allowed under this parent.
	NoPseudoclock                 // No PseudoclockDevice found walking parents.
	NotStarted                    // Instruction added before start() was called.
	TooEarly                      // Instruction time precedes t0 for this device.
	OutOfRange                    // Value outside configured (min,max) limits.
	NoRamping                     // Ramp requested on a non-ramping clockline.
	RampOverlap                   // New ramp/instruction overlaps an existing ramp interval.
	NegativeDuration              // Ramp end_time precedes its start time.
	BadRate                       // clock_rate is zero.
	UnknownUnits                  // Units name not registered on the calibration.
	BadCalibration                // Calibration missing ToBase/FromBase for a unit.
	ClockLimitExceeded            // Requested rate/gap violates a clock_limit.
	StopTimeTooClose              // Gap from last instruction to stop_time too small.
	InstructionsAfterStop         // A change time falls after the declared stop_time.
	MultipleMasters               // More than one master pseudoclock declared.
	NoToplevelDevices              // No master pseudoclock has been declared.
	ZeroStop                       // stop(0) was requested.
	TimeClash                      // Duplicate wait time.
	TriggerOverlap                 // Instruction falls within a trigger's exclusion window.
	ShutterRecovery                // Shutter asked to act before it physically can.
	NotStartable                   // start_order/stop_order set on a device with no hardware connection.
	KindMax                        // End of kind enumerations.
)

var kindNames = map[Kind]string{
	NameClash:              "NameClash",
	ReservedName:           "ReservedName",
	InvalidName:            "InvalidName",
	KindMismatch:           "KindMismatch",
	NoPseudoclock:          "NoPseudoclock",
	NotStarted:             "NotStarted",
	TooEarly:               "TooEarly",
	OutOfRange:             "OutOfRange",
	NoRamping:              "NoRamping",
	RampOverlap:            "RampOverlap",
	NegativeDuration:       "NegativeDuration",
	BadRate:                "BadRate",
	UnknownUnits:           "UnknownUnits",
	BadCalibration:         "BadCalibration",
	ClockLimitExceeded:     "ClockLimitExceeded",
	StopTimeTooClose:       "StopTimeTooClose",
	InstructionsAfterStop:  "InstructionsAfterStop",
	MultipleMasters:        "MultipleMasters",
	NoToplevelDevices:      "NoToplevelDevices",
	ZeroStop:               "ZeroStop",
	TimeClash:              "TimeClash",
	TriggerOverlap:         "TriggerOverlap",
	ShutterRecovery:        "ShutterRecovery",
	NotStartable:           "NotStartable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Error is the sole error type raised by this module's packages.
type Error struct {
	Kind Kind
	// Op names the component/operation that detected the failure,
	// e.g. "instruction.AddScalar".
	Op string
	// Msg is a human-readable description of what went wrong.
	Msg string
	// Context carries free-form identifying detail (device names,
	// offending times) for diagnostic display.
	Context map[string]interface{}
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s %v", e.Op, e.Kind, e.Msg, e.Context)
}

// New builds an Error with the given kind, operation and message.
func New(k Kind, op, msg string, ctx ...interface{}) *Error {
	c := map[string]interface{}{}
	for i := 0; i+1 < len(ctx); i += 2 {
		key, ok := ctx[i].(string)
		if !ok {
			continue
		}
		c[key] = ctx[i+1]
	}
	return &Error{Kind: k, Op: op, Msg: msg, Context: c}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == k
}
