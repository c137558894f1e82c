// Package diag collects non-fatal anomalies found while decoding assets.
//
// A nil *Collector is valid and discards everything, so decoders can report
// unconditionally.
package diag

import (
	"fmt"
	"strings"
)

// Kind classifies a warning.
type Kind string

const (
	EmptyName      Kind = "empty-name"
	DuplicateName  Kind = "duplicate-name"
	SelfParent     Kind = "self-parent"
	MissingParent  Kind = "missing-parent"
	IndexRange     Kind = "index-out-of-range"
	Alpha          Kind = "alpha"
	UnexpectedData Kind = "unexpected-data"
	PaletteKey     Kind = "palette-key"
	PaletteNearKey Kind = "palette-near-key"
	PaletteMagenta Kind = "palette-magenta"
)

// Warning is a single anomaly.
type Warning struct {
	Kind    Kind
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Collector accumulates warnings in the order they were added.
type Collector struct {
	warnings []Warning
}

// New creates an empty Collector.
func New() *Collector {
	return new(Collector)
}

// Add appends a warning. It does nothing on a nil Collector.
func (c *Collector) Add(kind Kind, format string, args ...any) {
	if c == nil {
		return
	}
	c.warnings = append(c.warnings, Warning{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// Warnings returns a copy of the collected warnings.
func (c *Collector) Warnings() []Warning {
	if c == nil {
		return nil
	}
	return append([]Warning(nil), c.warnings...)
}

// Len returns the number of collected warnings.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.warnings)
}

// Has checks whether any warning of kind was collected.
func (c *Collector) Has(kind Kind) bool {
	if c == nil {
		return false
	}
	for _, w := range c.warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// String renders one warning per line.
func (c *Collector) String() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, w := range c.warnings {
		b.WriteString(w.String())
		b.WriteByte('\n')
	}
	return b.String()
}
