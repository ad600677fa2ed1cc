// Package detect enumerates the local system's hardware components, matches
// them against an option catalog, and synthesizes a module graph enabling
// the options the detected hardware needs.
package detect

import (
	"strings"
)

// Component is one detected system component. It is consumed once during
// module construction and not retained afterwards.
type Component struct {
	// Subsystem is the bus the component was found on (pci, usb, acpi, ...).
	Subsystem string `json:"subsystem"`

	// Modalias is the kernel's module-alias string for the component, the
	// key the catalog matches on.
	Modalias string `json:"modalias"`
}

// CanonicalName returns the component's stable identity string. Detected
// components are sorted by it for run-to-run determinism, and generated
// module names embed it, so the sanitization is part of the output contract:
// lower case, with every character outside [a-z0-9] mapped to '_'.
func (c Component) CanonicalName() string {
	raw := c.Subsystem + "_" + c.Modalias
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
