package main

import (
	"github.com/spf13/cobra"

	"humanify/internal/llm"
)

var openaiFlags engineFlags

// openaiCmd renames a file using the OpenAI API or a compatible endpoint.
var openaiCmd = &cobra.Command{
	Use:   "openai <file.js>",
	Short: "Rename identifiers using an OpenAI model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, path, err := readInput(args)
		if err != nil {
			return err
		}
		apiKey := openaiFlags.apiKey
		if apiKey == "" {
			apiKey = cfg.LLM.APIKey
		}
		model := openaiFlags.model
		if model == "" {
			model = cfg.LLM.Model
		}
		baseURL := openaiFlags.baseURL
		if baseURL == "" {
			baseURL = cfg.LLM.BaseURL
		}
		client, err := llm.NewOpenAIClient(apiKey, model, baseURL)
		if err != nil {
			return err
		}
		opts := buildOptions(&openaiFlags, path)
		return runEngine(cmd.Context(), source, llm.NewVisitor(client), opts, &openaiFlags)
	},
}

func init() {
	addEngineFlags(openaiCmd, &openaiFlags)
}
