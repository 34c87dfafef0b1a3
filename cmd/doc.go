// Package cmd implements the command-line interface for the credd group
// membership service. It provides a hierarchical command structure with
// operations for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - groups: Commands for group membership operations (register, get, set, check, etc.)
//   - serve: Commands for starting and configuring the credd server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See credd -help for a list of all commands.
package cmd
