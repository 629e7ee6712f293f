// Package cli wires together the Cobra command tree for the prsentry binary.
//
// It defines the root command and its subcommands (run, analyze, score,
// index, config, version), loads the layered configuration, builds the
// reasoning, retrieval and delivery collaborators, and maps failures to
// deterministic exit codes.
package cli
