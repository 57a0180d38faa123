package main

import (
	"github.com/spf13/cobra"

	"humanify/internal/llm"
)

var identityFlags engineFlags

// identityCmd runs the whole pipeline with the identity visitor: no API key,
// no renames. Useful to verify a bundle survives a parse/print round-trip
// and to exercise checkpointing.
var identityCmd = &cobra.Command{
	Use:   "identity <file.js>",
	Short: "Run the engine without renaming (round-trip check)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, path, err := readInput(args)
		if err != nil {
			return err
		}
		opts := buildOptions(&identityFlags, path)
		return runEngine(cmd.Context(), source, llm.IdentityVisitor, opts, &identityFlags)
	},
}

func init() {
	addEngineFlags(identityCmd, &identityFlags)
}
