// Package config provides configuration management for tensorscope.
//
// This package implements a layered configuration system. Configuration is
// loaded from multiple sources and merged in a specific order, with later
// sources overriding earlier ones.
//
// # Configuration Layers
//
//  1. Default Configuration (built into the binary, see GetDefaultConfig)
//
//  2. User Configuration (~/.config/tensorscope/config.yaml)
//     - Personal preferences that apply everywhere
//
//  3. Project Configuration (./.tensorscope/config.yaml)
//     - Settings for the checkpoints in the current directory
//
// When --config is given, only that file is layered over the defaults.
// Command-line flags override whatever the files say.
//
// # Configuration Structure
//
//	explorer:
//	  recursive: false          # scan directory arguments recursively
//	  failurePolicy: strict     # or best-effort: skip unreadable files
//	  requireAllShards: false   # fail if an index references a missing shard
//	  showMetadata: true        # show the Metadata group
//	  expandDepth: 1            # levels open at startup
//	  concurrency: 4            # parallel header reads
//
//	ui:
//	  theme: auto               # auto, dark or light
//	  indentWidth: 2
//	  showIcons: true
//	  detailPanel: true         # side panel on wide terminals
//
//	logging:
//	  level: info               # debug, info, warn or error
//
// Unknown keys are an error.
package config
