// Package unit implements the bidirectional engineering-unit
// conversions an Output may bind (spec.md §4.3). A Calibration is
// stateless: each named unit maps to the output's base unit and back.
package unit

import "github.com/example/labc/labcerr"

// Calibration maps named engineering units to and from an output's
// base unit.
type Calibration interface {
	// Name identifies the calibration class, used in the connection
	// table's unit_conversion_class_qualified_name column.
	Name() string
	// Units lists every unit name this calibration accepts.
	Units() []string
	// ToBase converts a value expressed in unit u to the base unit.
	ToBase(u string, v float64) (float64, error)
	// FromBase converts a base-unit value to unit u.
	FromBase(u string, v float64) (float64, error)
}

// AffineFunc is a single unit's linear mapping: base = scale*v + offset.
type AffineFunc struct {
	Scale  float64
	Offset float64
}

func (f AffineFunc) toBase(v float64) float64   { return f.Scale*v + f.Offset }
func (f AffineFunc) fromBase(v float64) float64 { return (v - f.Offset) / f.Scale }

// Table is the common-case Calibration: each unit is an independent
// affine transform of the base unit (e.g. MHz<->Hz, dBm<->Vpp).
type Table struct {
	ClassName string
	Funcs     map[string]AffineFunc
}

// NewTable builds a Table calibration. Fails BadCalibration if funcs
// is empty, since a calibration with no convertible units is useless
// and cannot satisfy the Calibration contract's promise of
// ToBase/FromBase for at least one unit.
func NewTable(className string, funcs map[string]AffineFunc) (*Table, error) {
	if len(funcs) == 0 {
		return nil, labcerr.New(labcerr.BadCalibration, "unit.NewTable",
			"calibration declares no convertible units", "class", className)
	}
	return &Table{ClassName: className, Funcs: funcs}, nil
}

func (t *Table) Name() string { return t.ClassName }

func (t *Table) Units() []string {
	out := make([]string, 0, len(t.Funcs))
	for u := range t.Funcs {
		out = append(out, u)
	}
	return out
}

func (t *Table) ToBase(u string, v float64) (float64, error) {
	f, ok := t.Funcs[u]
	if !ok {
		return 0, labcerr.New(labcerr.UnknownUnits, "unit.Table.ToBase",
			"unit not registered on calibration", "class", t.ClassName, "unit", u)
	}
	return f.toBase(v), nil
}

func (t *Table) FromBase(u string, v float64) (float64, error) {
	f, ok := t.Funcs[u]
	if !ok {
		return 0, labcerr.New(labcerr.UnknownUnits, "unit.Table.FromBase",
			"unit not registered on calibration", "class", t.ClassName, "unit", u)
	}
	return f.fromBase(v), nil
}
