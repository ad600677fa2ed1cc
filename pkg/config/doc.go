// Package config loads the two user-facing configuration surfaces: HCL
// module files describing the desired option modules, and CUE settings
// describing tool-level paths and toggles.
//
// # Module Files
//
// Module files are HCL. Each file may carry any number of module blocks plus
// at most one kernel block naming the root module of the run:
//
//	kernel {
//	  module = "base"
//	}
//
//	module "base" {
//	  use   = ["net"]
//	  merge = ["extra.config"]
//
//	  set {
//	    USB_STORAGE      = "y"
//	    DEFAULT_HOSTNAME = "box"
//	  }
//
//	  assert {
//	    EXPERT = "y"
//	  }
//	}
//
// Attribute order inside set and assert blocks is preserved; the engine
// applies assignments in declaration order. Modules may reference each
// other across files, forward references included.
//
// # Settings
//
// Settings are CUE, evaluated from a single file or a directory package.
// The top-level "settings" struct carries the symbol snapshot path, module
// file locations, output path, catalog path, store path and hardening
// toggles. Struct validation runs after decoding.
package config
