package main

import (
	"github.com/spf13/cobra"

	"humanify/internal/llm"
)

var geminiFlags engineFlags

// geminiCmd renames a file using the Gemini API.
var geminiCmd = &cobra.Command{
	Use:   "gemini <file.js>",
	Short: "Rename identifiers using a Gemini model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, path, err := readInput(args)
		if err != nil {
			return err
		}
		apiKey := geminiFlags.apiKey
		if apiKey == "" {
			apiKey = cfg.LLM.APIKey
		}
		model := geminiFlags.model
		if model == "" {
			model = cfg.LLM.Model
		}
		client, err := llm.NewGeminiClient(cmd.Context(), apiKey, model)
		if err != nil {
			return err
		}
		opts := buildOptions(&geminiFlags, path)
		return runEngine(cmd.Context(), source, llm.NewVisitor(client), opts, &geminiFlags)
	},
}

func init() {
	addEngineFlags(geminiCmd, &geminiFlags)
}
