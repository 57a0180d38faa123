package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"humanify/cmd/humanify/ui"
	"humanify/internal/rename"
)

// engineFlags are the per-command knobs shared by every provider command.
type engineFlags struct {
	output             string
	resume             string
	contextSize        int
	batchSize          int
	concurrency        int
	mergeLimit         int
	minInfoScore       int
	checkpointInterval int
	uniqueNames        bool
	noProgress         bool
	model              string
	apiKey             string
	baseURL            string
}

// addEngineFlags wires the shared flag set onto a provider command.
func addEngineFlags(cmd *cobra.Command, f *engineFlags) {
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	fl.StringVar(&f.resume, "resume", "", "resume path; enables checkpointing next to it")
	fl.IntVar(&f.contextSize, "context-size", 0, "prompt context budget in characters")
	fl.IntVar(&f.batchSize, "batch-size", 0, "max identifiers per LLM call")
	fl.IntVar(&f.concurrency, "concurrency", 0, "parallel LLM calls")
	fl.IntVar(&f.mergeLimit, "merge-limit", -1, "max group size eligible for merging (0 disables)")
	fl.IntVar(&f.minInfoScore, "min-info-score", 0, "minimum context line count")
	fl.IntVar(&f.checkpointInterval, "checkpoint-interval", 0, "batches between checkpoints")
	fl.BoolVar(&f.uniqueNames, "unique-names", false, "require globally unique new names")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
	fl.StringVar(&f.model, "model", "", "model name")
	fl.StringVar(&f.apiKey, "api-key", "", "provider API key")
	fl.StringVar(&f.baseURL, "base-url", "", "provider base URL (OpenAI-compatible endpoints)")
}

// readInput loads the JavaScript to process. "-" reads stdin.
func readInput(args []string) (source string, path string, err error) {
	if len(args) != 1 {
		return "", "", fmt.Errorf("expected exactly one input file (or \"-\" for stdin)")
	}
	if args[0] == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), "", nil
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", err
	}
	abs, aerr := filepath.Abs(args[0])
	if aerr != nil {
		abs = args[0]
	}
	return string(raw), abs, nil
}

// buildOptions merges config defaults with command-line flags.
func buildOptions(f *engineFlags, inputPath string) rename.Options {
	opts := rename.DefaultOptions(cfg.Engine.ContextWindowSize)
	opts.MaxBatchSize = cfg.Engine.MaxBatchSize
	opts.MinInformationScore = cfg.Engine.MinInformationScore
	opts.BatchConcurrency = cfg.Engine.BatchConcurrency
	opts.DirtyCheckpointInterval = cfg.Engine.DirtyCheckpointInterval
	opts.SmallScopeMergeLimit = cfg.Engine.SmallScopeMergeLimit
	opts.UniqueNames = cfg.Engine.UniqueNames

	if f.contextSize > 0 {
		opts.ContextWindowSize = f.contextSize
	}
	if f.batchSize > 0 {
		opts.MaxBatchSize = f.batchSize
	}
	if f.concurrency > 0 {
		opts.BatchConcurrency = f.concurrency
	}
	if f.mergeLimit >= 0 {
		opts.SmallScopeMergeLimit = f.mergeLimit
	}
	if f.minInfoScore > 0 {
		opts.MinInformationScore = f.minInfoScore
	}
	if f.checkpointInterval > 0 {
		opts.DirtyCheckpointInterval = f.checkpointInterval
	}
	if f.uniqueNames {
		opts.UniqueNames = true
	}
	opts.ResumePath = f.resume
	opts.FilePath = inputPath
	return opts
}

// runEngine executes the engine with an optional progress bar and writes the
// result. The input file is never written; output defaults to stdout.
func runEngine(ctx context.Context, source string, visitor rename.Visitor, opts rename.Options, f *engineFlags) error {
	if f.output != "" && opts.FilePath != "" {
		if abs, err := filepath.Abs(f.output); err == nil && abs == opts.FilePath {
			return fmt.Errorf("output %s is the input file; refusing to overwrite it", f.output)
		}
	}
	showBar := !f.noProgress && isatty.IsTerminal(os.Stderr.Fd())

	var program *tea.Program
	if showBar {
		label := "humanify"
		if opts.FilePath != "" {
			label = filepath.Base(opts.FilePath)
		}
		program = tea.NewProgram(ui.New(label), tea.WithOutput(os.Stderr))
		opts.OnProgress = func(fraction float64) {
			program.Send(ui.ProgressMsg(fraction))
		}
	} else {
		opts.OnProgress = func(fraction float64) {
			logger.Debug("progress", zap.Float64("fraction", fraction))
		}
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := rename.Rename(ctx, source, visitor, opts)
		if program != nil {
			program.Send(ui.DoneMsg{})
		}
		done <- result{out: out, err: err}
	}()

	if program != nil {
		if _, err := program.Run(); err != nil {
			logger.Warn("progress UI failed", zap.Error(err))
		}
	}
	res := <-done
	if res.err != nil {
		return res.err
	}

	if f.output == "" {
		_, err := io.WriteString(os.Stdout, res.out)
		return err
	}
	if err := os.WriteFile(f.output, []byte(res.out), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("wrote renamed source", zap.String("path", f.output), zap.Int("bytes", len(res.out)))
	return nil
}
