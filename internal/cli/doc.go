// Package cli implements the waypoint command line: running a YAML flow in
// the terminal, validating flow files and reading the transition journal.
package cli
