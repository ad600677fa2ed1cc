// Package engine implements the configuration resolution core of autokernel.
//
// # Overview
//
// The engine turns declarative intent into a concrete, conflict-free symbol
// assignment in three cooperating pieces that share one data model (modules,
// dependency edges, assignments) and one traversal discipline (dependency
// before dependent, visit once):
//
//  1. Builder - expands a requested symbol into the minimal set of option
//     modules satisfying its unmet dependencies
//  2. Applier - walks a module graph against the symbol oracle, applying
//     value changes with deterministic conflict detection
//  3. Graph/Walker - the shared module registry and post-order DAG walk
//     used by the applier, the reverse-dependency builder and the renderers
//
// The symbol oracle itself (metadata, values, dependency evaluation) lives
// in pkg/kconfig and is only reached through the narrow kconfig.Oracle
// contract, so tests can inject a deterministic fake.
//
// # Core Domain Types
//
//   - Module: a named unit bundling dependency edges, value assignments,
//     assertions and external merge files
//   - Graph: an insertion-ordered registry of uniquely named modules plus
//     the synthetic select-all module of one run
//   - ChangeRecord: the before/after value pair for one symbol that
//     actually changed during an apply run
//
// # Error Classification
//
// Errors carry a class and a stable code:
//
//   - Conflict: two modules requested different values for one symbol
//   - Permanent: unknown symbol, failed assertion, dependency cycle, IO
//
// A rejected value set is deliberately not an error: no contradictory
// intent existed, so the applier logs a warning and continues with the
// oracle's actual resulting value.
//
// # Determinism
//
// Builder output is memoized by symbol identity, module naming is a fixed
// function of the symbol name, and the applier's change log is ordered by
// first successful change, so repeated runs over the same oracle state
// produce identical results.
package engine
