package device

import "github.com/example/labc/registry"

// TimeoutEdge selects the edge a wait-monitor timeout device fires on.
type TimeoutEdge int

const (
	TimeoutEdgeRising TimeoutEdge = iota
	TimeoutEdgeFalling
)

// WaitMonitor is the auxiliary device that pulses whenever the master
// pseudoclock starts or resumes, optionally producing software-timed
// rescue triggers on timeout (spec.md GLOSSARY). It is not itself a
// clocked Output; it is routed by name/port in the sink payload.
type WaitMonitor struct {
	*Base

	AcquisitionDevice string
	AcquisitionPort   string
	TimeoutDevice     string
	TimeoutPort       string
	HasTimeoutDevice  bool
	TimeoutEdge       TimeoutEdge

	MinimumPulseWidth float64
}

// NewWaitMonitor constructs the (process-wide, at most one) wait
// monitor. It has no parent in the device tree proper; it is
// referenced by the acquisition/timeout device+port pair it routes
// through.
func NewWaitMonitor(ctx *registry.Context, name, acqDevice, acqPort string, minimumPulseWidth float64) (*WaitMonitor, error) {
	b, err := newBase(ctx, "device.NewWaitMonitor", KindWaitMonitor, name, nil, "")
	if err != nil {
		return nil, err
	}
	wm := &WaitMonitor{
		Base:              b,
		AcquisitionDevice: acqDevice,
		AcquisitionPort:   acqPort,
		MinimumPulseWidth: minimumPulseWidth,
	}
	attach(ctx, wm, b)
	return wm, nil
}

// WithTimeout adds the software-timed rescue-trigger device+port.
func (wm *WaitMonitor) WithTimeout(device, port string, edge TimeoutEdge) {
	wm.TimeoutDevice = device
	wm.TimeoutPort = port
	wm.HasTimeoutDevice = true
	wm.TimeoutEdge = edge
}
