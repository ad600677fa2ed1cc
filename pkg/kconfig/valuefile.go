package kconfig

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// ProcConfigGzPath is the running kernel's value snapshot, used when no
// reference value file is given.
const ProcConfigGzPath = "/proc/config.gz"

// ValueEntry is one assignment parsed from a value file, in file order.
type ValueEntry struct {
	Symbol string
	Value  string
}

// HasProcConfigGz checks whether the running kernel exposes its value
// snapshot under /proc.
func HasProcConfigGz() bool {
	info, err := os.Stat(ProcConfigGzPath)
	return err == nil && info.Mode().IsRegular()
}

// ParseValueFile reads assignments in the kernel value-file format:
// "CONFIG_NAME=value" lines, double-quoted string values, and the
// "# CONFIG_NAME is not set" comment form for disabled symbols.
func ParseValueFile(r io.Reader) ([]ValueEntry, error) {
	var entries []ValueEntry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			// Disabled symbols hide in comments.
			rest := strings.TrimSpace(strings.TrimPrefix(line, "#"))
			if name, ok := strings.CutSuffix(rest, " is not set"); ok {
				name = strings.TrimPrefix(strings.TrimSpace(name), "CONFIG_")
				if name != "" {
					entries = append(entries, ValueEntry{Symbol: name, Value: No.String()})
				}
			}
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: not an assignment: %q", lineNo, line)
		}
		name = strings.TrimPrefix(strings.TrimSpace(name), "CONFIG_")
		value = strings.TrimSpace(value)
		if unquoted, err := unquoteValue(value); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		} else {
			value = unquoted
		}
		entries = append(entries, ValueEntry{Symbol: name, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadValueFile parses a value file from disk. An empty path reads the
// running kernel's gzipped snapshot instead.
func ReadValueFile(path string) ([]ValueEntry, error) {
	if path == "" {
		return readProcConfigGz()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := ParseValueFile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func readProcConfigGz() ([]ValueEntry, error) {
	f, err := os.Open(ProcConfigGzPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ProcConfigGzPath, err)
	}
	defer gz.Close()

	entries, err := ParseValueFile(gz)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ProcConfigGzPath, err)
	}
	return entries, nil
}

// FormatValueLine renders one symbol assignment in value-file form. Disabled
// tristate symbols use the "is not set" comment form, string-typed values are
// double-quoted, and tristate values stay bare.
func FormatValueLine(symbol, value string, typ SymbolType) string {
	switch typ {
	case TypeBool, TypeTristate:
		if value == No.String() {
			return fmt.Sprintf("# CONFIG_%s is not set", symbol)
		}
		return fmt.Sprintf("CONFIG_%s=%s", symbol, value)
	case TypeString:
		return fmt.Sprintf("CONFIG_%s=%q", symbol, value)
	default:
		return fmt.Sprintf("CONFIG_%s=%s", symbol, value)
	}
}

func unquoteValue(v string) (string, error) {
	if !strings.HasPrefix(v, `"`) {
		return v, nil
	}
	if len(v) < 2 || !strings.HasSuffix(v, `"`) {
		return "", fmt.Errorf("unterminated quoted value: %s", v)
	}
	inner := v[1 : len(v)-1]
	var sb strings.Builder
	escaped := false
	for _, r := range inner {
		if escaped {
			sb.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		sb.WriteRune(r)
	}
	if escaped {
		return "", fmt.Errorf("dangling escape in quoted value: %s", v)
	}
	return sb.String(), nil
}
