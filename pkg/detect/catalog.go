package detect

import (
	"fmt"
	"io"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// Catalog maps detected components to candidate option names. It is a
// black-box lookup: entries pair a modalias glob pattern with the options
// that support matching hardware, and a component collects the options of
// every entry it matches, in catalog order.
type Catalog struct {
	entries []catalogEntry
}

type catalogEntry struct {
	subsystem string
	pattern   string
	options   []string
}

// catalogFile is the on-disk YAML layout.
type catalogFile struct {
	Entries []catalogFileEntry `yaml:"entries"`
}

type catalogFileEntry struct {
	// Subsystem restricts the entry to one bus; empty matches any.
	Subsystem string `yaml:"subsystem,omitempty"`

	// Match is a glob pattern over the component's modalias.
	Match string `yaml:"match"`

	// Options are the option names enabling support for matching hardware.
	Options []string `yaml:"options"`
}

// LoadCatalog reads an option catalog from a YAML file.
func LoadCatalog(filename string) (*Catalog, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := ParseCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

// ParseCatalog decodes an option catalog from a reader.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{}
	for i, entry := range file.Entries {
		if entry.Match == "" {
			return nil, fmt.Errorf("catalog entry %d has no match pattern", i)
		}
		if _, err := path.Match(entry.Match, ""); err != nil {
			return nil, fmt.Errorf("catalog entry %d: bad pattern %q: %w", i, entry.Match, err)
		}
		if len(entry.Options) == 0 {
			return nil, fmt.Errorf("catalog entry %d (%s) has no options", i, entry.Match)
		}
		c.entries = append(c.entries, catalogEntry{
			subsystem: entry.Subsystem,
			pattern:   entry.Match,
			options:   entry.Options,
		})
	}
	return c, nil
}

// FindOptions returns the candidate option names for a component, without
// duplicates, in catalog order. An empty result means the catalog knows
// nothing about the component.
func (c *Catalog) FindOptions(comp Component) []string {
	var options []string
	seen := make(map[string]bool)
	for _, entry := range c.entries {
		if entry.subsystem != "" && entry.subsystem != comp.Subsystem {
			continue
		}
		ok, err := path.Match(entry.pattern, comp.Modalias)
		if err != nil || !ok {
			continue
		}
		for _, opt := range entry.options {
			if !seen[opt] {
				seen[opt] = true
				options = append(options, opt)
			}
		}
	}
	return options
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
