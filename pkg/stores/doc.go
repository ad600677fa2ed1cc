// Package stores provides the run-history persistence layer: runs, their
// applied change records, and the hardware components matched during
// detection, backed by SQLite with embedded migrations.
package stores
