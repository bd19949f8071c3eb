// Package cli implements the foodweb command-line interface.
//
// The CLI loads food webs from JSON graphs or edge lists (local paths or
// http(s) URLs), analyzes and renders them through pkg/pipeline, explores
// them interactively with a background engine, and serves them over HTTP.
// It is built on cobra; output styling uses lipgloss and logging uses
// charmbracelet/log.
//
// # Commands
//
//   - analyze: Write the analysis (levels, chain, cycle, components) as JSON
//   - layout: Write the web with stress layout positions
//   - render: Generate DOT, SVG, PNG, PDF or JSON output
//   - convert: Convert between JSON graphs and edge lists
//   - explore: Edit a web in a terminal UI while the layout settles
//   - serve: Start the HTTP API
//   - cache, config: Manage the local cache and the configuration file
//
// # Configuration
//
// Solver, cache and server settings come from a TOML file (see pkg/config),
// by default ~/.config/foodweb/config.toml. Command flags override it.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Progress
// spinners are hidden while debug logging is on so the two do not interleave.
package cli
