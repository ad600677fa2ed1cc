package policy

// BuiltinPolicies returns the builtin kernel-hardening policies. Each one
// inspects the resolved symbol map only; a symbol the snapshot does not
// carry never raises a violation.
func BuiltinPolicies() []Policy {
	return []Policy{
		memoryProtectionsPolicy(),
		stackProtectionsPolicy(),
		attackSurfacePolicy(),
		debugInterfacesPolicy(),
	}
}

// memoryProtectionsPolicy flags raw memory access interfaces and disabled
// kernel memory protections.
func memoryProtectionsPolicy() Policy {
	return Policy{
		Name:        "memory-protections",
		Description: "Flags /dev/mem style interfaces and disabled kernel memory protections",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"hardening", "memory"},
		Rego: `package autokernel.hardening.memory

import rego.v1

deny contains violation if {
	input.symbols.DEVMEM == "y"
	violation := {
		"message": "DEVMEM exposes raw physical memory via /dev/mem",
		"severity": "error",
		"symbol": "DEVMEM",
	}
}

deny contains violation if {
	input.symbols.DEVKMEM == "y"
	violation := {
		"message": "DEVKMEM exposes kernel virtual memory via /dev/kmem",
		"severity": "error",
		"symbol": "DEVKMEM",
	}
}

deny contains violation if {
	value := input.symbols.STRICT_KERNEL_RWX
	value != "y"
	violation := {
		"message": "STRICT_KERNEL_RWX should be enabled to enforce kernel text protections",
		"severity": "error",
		"symbol": "STRICT_KERNEL_RWX",
	}
}
`,
	}
}

// stackProtectionsPolicy checks the stack hardening options.
func stackProtectionsPolicy() Policy {
	return Policy{
		Name:        "stack-protections",
		Description: "Checks stack protector and stack virtual mapping options",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"hardening", "stack"},
		Rego: `package autokernel.hardening.stack

import rego.v1

deny contains violation if {
	value := input.symbols.STACKPROTECTOR_STRONG
	value != "y"
	violation := {
		"message": "STACKPROTECTOR_STRONG should be enabled",
		"severity": "error",
		"symbol": "STACKPROTECTOR_STRONG",
	}
}

deny contains violation if {
	value := input.symbols.VMAP_STACK
	value != "y"
	violation := {
		"message": "VMAP_STACK should be enabled to catch stack overflows",
		"severity": "error",
		"symbol": "VMAP_STACK",
	}
}
`,
	}
}

// attackSurfacePolicy warns about options that widen the attack surface.
func attackSurfacePolicy() Policy {
	return Policy{
		Name:        "attack-surface",
		Description: "Warns about options that widen the kernel attack surface",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"hardening", "attack-surface"},
		Rego: `package autokernel.hardening.attack_surface

import rego.v1

deny contains violation if {
	input.symbols.KEXEC == "y"
	violation := {
		"message": "KEXEC allows replacing the running kernel",
		"severity": "warning",
		"symbol": "KEXEC",
	}
}

deny contains violation if {
	input.symbols.DEVPORT == "y"
	violation := {
		"message": "DEVPORT exposes raw I/O port access via /dev/port",
		"severity": "warning",
		"symbol": "DEVPORT",
	}
}

deny contains violation if {
	input.symbols.LEGACY_PTYS == "y"
	violation := {
		"message": "LEGACY_PTYS enables the obsolete BSD pty interface",
		"severity": "warning",
		"symbol": "LEGACY_PTYS",
	}
}
`,
	}
}

// debugInterfacesPolicy warns about debug interfaces left enabled.
func debugInterfacesPolicy() Policy {
	return Policy{
		Name:        "debug-interfaces",
		Description: "Warns about debug interfaces enabled in the resolved configuration",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"hardening", "debug"},
		Rego: `package autokernel.hardening.debug

import rego.v1

deny contains violation if {
	input.symbols.DEBUG_FS == "y"
	violation := {
		"message": "DEBUG_FS exposes kernel internals under /sys/kernel/debug",
		"severity": "warning",
		"symbol": "DEBUG_FS",
	}
}

deny contains violation if {
	input.symbols.PROC_KCORE == "y"
	violation := {
		"message": "PROC_KCORE exposes a kernel core image under /proc/kcore",
		"severity": "warning",
		"symbol": "PROC_KCORE",
	}
}
`,
	}
}
