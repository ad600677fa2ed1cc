// Package policy evaluates hardening policies against a resolved symbol
// assignment using Rego.
//
// The engine ships a builtin set of kernel-hardening policies and can load
// additional .rego files from disk. Policy input is the resolved symbol map:
//
//	{"symbols": {"DEVMEM": "y", "STACKPROTECTOR_STRONG": "n", ...}}
//
// Each policy package exposes a deny set whose elements carry a message,
// severity and the offending symbol. Error-severity violations fail the
// check; warning-severity ones are reported and the check still passes.
package policy
