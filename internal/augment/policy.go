package augment

import (
	"fmt"
	"math"
)

// Entry is one row of a policy table: an operation and the range its
// magnitude is drawn from.
type Entry struct {
	Op  Op      `json:"op"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Table is an immutable, ordered set of policy entries.
type Table struct {
	entries []Entry
}

// NewTable copies entries into a new table. It does not validate; see Check.
func NewTable(entries ...Entry) Table {
	return Table{entries: append([]Entry(nil), entries...)}
}

func (t Table) Len() int { return len(t.entries) }

func (t Table) At(i int) Entry { return t.entries[i] }

// Entries returns a copy of the table rows.
func (t Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Default ranges follow RandAugment (arXiv:1909.13719) and AutoAugment
// (arXiv:1805.09501). Translation is 150/331 of the image side.
var defaultTable = NewTable(
	Entry{Identity, 0, 0},
	Entry{AutoContrast, 0, 0},
	Entry{Equalize, 0, 0},
	Entry{Posterize, 0, 4},
	Entry{Solarize, 0, 256},
	Entry{Color, 0, 0.9},
	Entry{Contrast, 0, 0.9},
	Entry{Brightness, 0, 0.9},
	Entry{Sharpness, 0, 0.9},
	Entry{Rotate, 0, 30},
	Entry{TranslateX, 0, 0.453},
	Entry{TranslateY, 0, 0.453},
	Entry{ShearX, 0, 0.3},
	Entry{ShearY, 0, 0.3},
)

var udaTable = NewTable(
	Entry{Identity, 0, 0},
	Entry{AutoContrast, 0, 0},
	Entry{Equalize, 0, 0},
	Entry{Posterize, 0, 4},
	Entry{Solarize, 0, 256},
	Entry{Color, 0.05, 0.95},
	Entry{Contrast, 0.05, 0.95},
	Entry{Brightness, 0.05, 0.95},
	Entry{Sharpness, 0.05, 0.95},
	Entry{Rotate, 0, 30},
	Entry{TranslateX, 0, 0.3},
	Entry{TranslateY, 0, 0.3},
	Entry{ShearX, 0, 0.3},
	Entry{ShearY, 0, 0.3},
)

// DefaultTable returns the built-in RandAugment table.
func DefaultTable() Table { return defaultTable }

// UDATable returns the built-in RandAugmentUDA table.
func UDATable() Table { return udaTable }

// Check validates every entry of t. It fails with *ConfigurationError when
// the table is empty, an operation is unknown or an entry has Min > Max.
func Check(t Table) error {
	if t.Len() == 0 {
		return &ConfigurationError{Index: -1, Reason: "policy table is empty"}
	}
	for i, e := range t.entries {
		switch {
		case !e.Op.Valid():
			return &ConfigurationError{Index: i, Entry: e, Reason: "unknown operation"}
		case math.IsNaN(e.Min) || math.IsNaN(e.Max):
			return &ConfigurationError{Index: i, Entry: e, Reason: "bound is NaN"}
		case e.Min > e.Max:
			return &ConfigurationError{Index: i, Entry: e, Reason: fmt.Sprintf("min %g is greater than max %g", e.Min, e.Max)}
		}
	}
	return nil
}
