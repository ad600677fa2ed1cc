package detect

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ComponentSource supplies detected system components. The sysfs detector
// is the production implementation; tests inject canned sources.
type ComponentSource interface {
	Components(ctx context.Context) ([]Component, error)
}

// Detector enumerates components by reading modalias files under sysfs.
// It is a thin wrapper around the filesystem layout; anything it cannot
// read is skipped rather than failed, since sysfs exposes plenty of
// entries a process may not open.
type Detector struct {
	root   string
	logger zerolog.Logger
}

// NewDetector creates a detector reading from the standard sysfs mount.
func NewDetector(logger zerolog.Logger) *Detector {
	return NewDetectorAt("/sys", logger)
}

// NewDetectorAt creates a detector rooted at an alternative sysfs path.
func NewDetectorAt(root string, logger zerolog.Logger) *Detector {
	return &Detector{
		root:   root,
		logger: logger.With().Str("component", "detector").Logger(),
	}
}

// Components implements ComponentSource. It walks /sys/bus/<bus>/devices
// and collects one component per readable, non-empty modalias file.
func (d *Detector) Components(ctx context.Context) ([]Component, error) {
	busDir := filepath.Join(d.root, "bus")
	buses, err := os.ReadDir(busDir)
	if err != nil {
		return nil, err
	}

	var components []Component
	for _, bus := range buses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !bus.IsDir() {
			continue
		}

		devicesDir := filepath.Join(busDir, bus.Name(), "devices")
		devices, err := os.ReadDir(devicesDir)
		if err != nil {
			continue
		}
		for _, dev := range devices {
			data, err := os.ReadFile(filepath.Join(devicesDir, dev.Name(), "modalias"))
			if err != nil {
				continue
			}
			modalias := strings.TrimSpace(string(data))
			if modalias == "" {
				continue
			}
			components = append(components, Component{
				Subsystem: bus.Name(),
				Modalias:  modalias,
			})
		}
	}

	d.logger.Debug().Int("count", len(components)).Msg("Enumerated system components")
	return components, nil
}
