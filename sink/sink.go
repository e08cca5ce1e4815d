// Package sink implements the external persistence interface of
// spec.md §6: a Sink is called once per shot with the connection
// table, device properties, wait table, time markers, clock programs
// and raw sample arrays a downstream hardware-programming tool
// consumes.
package sink

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"sort"

	"github.com/example/labc/compiler"
	"github.com/example/labc/device"
	"github.com/example/labc/labcerr"
	"github.com/example/labc/registry"
	"github.com/example/labc/scheduler"
	"github.com/example/labc/unit"
)

// ConnectionRow is one row of the connection table (spec.md §6).
type ConnectionRow struct {
	Name                      string                 `json:"name"`
	Kind                      string                 `json:"kind"`
	ParentName                string                 `json:"parent_name"`
	ParentPort                string                 `json:"parent_port"`
	UnitConversionClass       string                 `json:"unit_conversion_class,omitempty"`
	UnitConversionParameters  map[string]interface{} `json:"unit_conversion_parameters,omitempty"`
	Connection                string                 `json:"connection"`
	ConnectionTableProperties map[string]interface{} `json:"connection_table_properties,omitempty"`
}

// DeviceRow is one row of the device properties table.
type DeviceRow struct {
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"device_properties"`
	StartOrder int                    `json:"start_order"`
	StopOrder  int                    `json:"stop_order"`
}

// WaitRow is one row of the wait table.
type WaitRow struct {
	Label   string  `json:"label"`
	Time    float64 `json:"time"`
	Timeout float64 `json:"timeout"`
}

// WaitMonitorRouting carries the wait monitor's device+port routing.
type WaitMonitorRouting struct {
	AcquisitionDevice string `json:"acquisition_device"`
	AcquisitionPort   string `json:"acquisition_port"`
	TimeoutDevice     string `json:"timeout_device,omitempty"`
	TimeoutPort       string `json:"timeout_port,omitempty"`
	HasTimeoutDevice  bool   `json:"has_timeout_device"`
	TimeoutEdge       int    `json:"timeout_edge"`
}

// TimeMarkerRow is one labelled point in time.
type TimeMarkerRow struct {
	Label string   `json:"label"`
	Time  float64  `json:"time"`
	Color [3]uint8 `json:"color,omitempty"`
}

// SegmentRow is the JSON-serialisable form of a scheduler.Segment,
// naming its enabled clocklines instead of holding live pointers.
type SegmentRow struct {
	IsWait  bool     `json:"is_wait"`
	Start   float64  `json:"start"`
	Reps    int      `json:"reps"`
	Step    float64  `json:"step"`
	Enabled []string `json:"enabled_clocklines,omitempty"`
}

// ClockProgramRow is one pseudoclock's synthesised clock program.
type ClockProgramRow struct {
	Pseudoclock string       `json:"pseudoclock"`
	Segments    []SegmentRow `json:"segments"`
}

// OutputSamples is one output's materialised raw_output array.
type OutputSamples struct {
	Name    string    `json:"name"`
	Digital bool      `json:"digital"`
	Float64 []float64 `json:"float64,omitempty"`
	Uint32  []uint32  `json:"uint32,omitempty"`
}

// ShotProperties is the passthrough shot metadata of spec.md §6.
type ShotProperties struct {
	TargetCycleTime                *float64 `json:"target_cycle_time"`
	CycleTimeDelayAfterProgramming bool     `json:"cycle_time_delay_after_programming"`
}

// Payload is the complete record a Sink receives once per shot.
type Payload struct {
	MasterPseudoclockName string               `json:"master_pseudoclock_name"`
	Connections           []ConnectionRow      `json:"connection_table"`
	Devices               []DeviceRow          `json:"device_properties"`
	WaitTable             []WaitRow            `json:"wait_table"`
	WaitMonitor           *WaitMonitorRouting  `json:"wait_monitor,omitempty"`
	TimeMarkers           []TimeMarkerRow      `json:"time_markers"`
	ClockPrograms         []ClockProgramRow    `json:"clock_programs"`
	Outputs               []OutputSamples      `json:"outputs"`
	Shot                  ShotProperties       `json:"shot_properties"`
}

// Sink is the external persistence collaborator of spec.md §6.
type Sink interface {
	Emit(p *Payload) error
}

// Build assembles the Payload for one compiled shot from the
// compilation context and the compiler's Stop() result.
func Build(ctx *registry.Context, compiled *compiler.Compiled) (*Payload, error) {
	const op = "sink.Build"
	master, ok := ctx.MasterPseudoclock.(*device.Pseudoclock)
	if !ok {
		return nil, labcerr.New(labcerr.NoToplevelDevices, op, "no master pseudoclock in context")
	}

	p := &Payload{MasterPseudoclockName: master.DeviceName(), Shot: ShotProperties{
		TargetCycleTime:                ctx.Shot.TargetCycleTime,
		CycleTimeDelayAfterProgramming: ctx.Shot.CycleTimeDelayAfterProgramming,
	}}

	for _, d := range ctx.Devices() {
		dev, ok := d.(device.Device)
		if !ok {
			continue
		}
		row := ConnectionRow{
			Name:                      dev.DeviceName(),
			Kind:                      kindName(dev.Kind()),
			Connection:                dev.Connection(),
			ConnectionTableProperties: dev.ConnectionTableProperties(),
		}
		if parent := dev.ParentDevice(); parent != nil {
			row.ParentName = parent.DeviceName()
			row.ParentPort = dev.Connection()
		}
		if cal := calibrationOf(dev); cal != nil {
			row.UnitConversionClass = cal.Name()
			row.UnitConversionParameters = dev.UnitConversionParameters()
		}
		p.Connections = append(p.Connections, row)

		p.Devices = append(p.Devices, DeviceRow{
			Name:       dev.DeviceName(),
			Properties: dev.DeviceProperties(),
			StartOrder: dev.StartOrder(),
			StopOrder:  dev.StopOrder(),
		})
	}
	sort.Slice(p.Connections, func(i, j int) bool { return p.Connections[i].Name < p.Connections[j].Name })
	sort.Slice(p.Devices, func(i, j int) bool { return p.Devices[i].Name < p.Devices[j].Name })

	for _, w := range ctx.WaitTable {
		p.WaitTable = append(p.WaitTable, WaitRow{Label: w.Label, Time: w.Time, Timeout: w.Timeout})
	}
	sort.Slice(p.WaitTable, func(i, j int) bool { return p.WaitTable[i].Time < p.WaitTable[j].Time })

	if wm, ok := ctx.WaitMonitor.(*device.WaitMonitor); ok {
		p.WaitMonitor = &WaitMonitorRouting{
			AcquisitionDevice: wm.AcquisitionDevice,
			AcquisitionPort:   wm.AcquisitionPort,
			TimeoutDevice:     wm.TimeoutDevice,
			TimeoutPort:       wm.TimeoutPort,
			HasTimeoutDevice:  wm.HasTimeoutDevice,
			TimeoutEdge:       int(wm.TimeoutEdge),
		}
	}

	for _, m := range ctx.TimeMarkers {
		row := TimeMarkerRow{Label: m.Label, Time: m.Time}
		if m.HasColor {
			row.Color = m.Color
		}
		p.TimeMarkers = append(p.TimeMarkers, row)
	}

	for _, cp := range compiled.Pseudoclocks {
		p.ClockPrograms = append(p.ClockPrograms, ClockProgramRow{
			Pseudoclock: cp.Pseudoclock.DeviceName(),
			Segments:    serialiseProgram(cp.Program),
		})
	}

	for _, out := range compiled.Outputs {
		s := OutputSamples{Name: out.Output.DeviceName(), Digital: out.Samples.Digital}
		if out.Samples.Digital {
			s.Uint32 = out.Samples.Uint32
		} else {
			s.Float64 = out.Samples.Float64
		}
		p.Outputs = append(p.Outputs, s)
	}

	return p, nil
}

func serialiseProgram(prog scheduler.Program) []SegmentRow {
	out := make([]SegmentRow, 0, len(prog))
	for _, seg := range prog {
		row := SegmentRow{IsWait: seg.IsWait, Start: seg.Start, Reps: seg.Reps, Step: seg.Step}
		for _, cl := range seg.Enabled {
			row.Enabled = append(row.Enabled, cl.DeviceName())
		}
		out = append(out, row)
	}
	return out
}

func calibrationOf(d device.Device) unit.Calibration {
	switch o := d.(type) {
	case *device.AnalogOut:
		return o.Calibration
	case *device.StaticAnalogOut:
		return o.Calibration
	default:
		return nil
	}
}

func kindName(k device.Kind) string {
	names := map[device.Kind]string{
		device.KindPseudoclock:       "Pseudoclock",
		device.KindClockLine:         "ClockLine",
		device.KindIntermediateDevice: "IntermediateDevice",
		device.KindAnalogOut:         "AnalogOut",
		device.KindDigitalOut:        "DigitalOut",
		device.KindShutter:           "Shutter",
		device.KindTrigger:           "Trigger",
		device.KindDDS:               "DDS",
		device.KindStaticAnalogOut:   "StaticAnalogOut",
		device.KindStaticDigitalOut:  "StaticDigitalOut",
		device.KindStaticDDS:         "StaticDDS",
		device.KindAnalogIn:          "AnalogIn",
		device.KindWaitMonitor:       "WaitMonitor",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "Unknown"
}

// MemorySink captures the most recent Payload, for tests and for the
// CLI's in-process "compile and inspect" path.
type MemorySink struct {
	Last *Payload
}

func (s *MemorySink) Emit(p *Payload) error {
	s.Last = p
	return nil
}

// FileSink writes the payload as JSON to W, gzip-compressing the
// stream when Compress is set (spec.md §6: "Compression of the
// connection table uses gzip when compression is enabled").
type FileSink struct {
	W        io.Writer
	Compress bool
}

func (s *FileSink) Emit(p *Payload) error {
	w := s.W
	if s.Compress {
		gz := gzip.NewWriter(s.W)
		defer gz.Close()
		w = gz
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
