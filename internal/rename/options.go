package rename

import "context"

// Visitor is the caller-supplied naming capability. It receives the batch's
// identifier names in order and a textual code context, and returns a mapping
// from old to new names. Missing keys, empty values, and values equal to the
// key all mean "leave this binding alone". The mapping's iteration order is
// never relied upon. A Visitor may be invoked concurrently up to
// BatchConcurrency times; the engine imposes no timeout.
type Visitor func(ctx context.Context, names []string, codeContext string) (map[string]string, error)

// ProgressFunc receives a completion fraction in [0, 1]. It is called after
// every applied batch and exactly once with 1 on completion.
type ProgressFunc func(fraction float64)

// Defaults set by DefaultOptions. validate also fills MinInformationScore and
// DirtyCheckpointInterval with theirs when left zero.
const (
	DefaultMaxBatchSize            = 10
	DefaultMinInformationScore     = 16
	DefaultBatchConcurrency        = 1
	DefaultDirtyCheckpointInterval = 50
	DefaultSmallScopeMergeLimit    = 2

	// cleanCheckpointInterval is how many applied batches may pass without a
	// checkpoint when no rename has changed the tree.
	cleanCheckpointInterval = 200

	// mergeDistanceLimit bounds how far apart, in bytes, two scopes may be
	// and still merge into one batch. Unrelated far-away scopes confuse the
	// model more than they save in round-trips.
	mergeDistanceLimit = 5000

	// disambiguationBound caps the suffix-increment loop before the engine
	// gives up on a name.
	disambiguationBound = 10000
)

// Options configures one engine run. Use DefaultOptions for the documented
// defaults; MaxBatchSize and BatchConcurrency must be positive and
// SmallScopeMergeLimit non-negative or the run is rejected with ConfigError.
type Options struct {
	// ContextWindowSize is the character budget for one prompt's code context.
	ContextWindowSize int

	// OnProgress, if set, receives completion fractions.
	OnProgress ProgressFunc

	// ResumePath enables checkpointing: sidecar state is stored next to this
	// path and picked up on restart. Empty disables checkpointing.
	ResumePath string

	// FilePath identifies the input source file within a multi-file run. It
	// participates in sidecar path derivation and is recorded in the state
	// file for validation.
	FilePath string

	// MaxBatchSize caps identifiers per LLM call. Default 10.
	MaxBatchSize int

	// MinInformationScore is the minimum context line count considered
	// informative enough. Default 16.
	MinInformationScore int

	// UniqueNames requires every assigned name to be fresh across the whole
	// run, not just within the target scope.
	UniqueNames bool

	// BatchConcurrency is how many visitor calls may run in parallel.
	// Default 1.
	BatchConcurrency int

	// DirtyCheckpointInterval is how many applied batches may pass between
	// checkpoints while the tree has unsaved renames. Default 50.
	DirtyCheckpointInterval int

	// SmallScopeMergeLimit is the largest group size eligible for merging
	// with its neighbors. 0 disables merging; DefaultOptions sets 2.
	SmallScopeMergeLimit int
}

// DefaultOptions returns Options with every knob at its documented default.
func DefaultOptions(contextWindowSize int) Options {
	return Options{
		ContextWindowSize:       contextWindowSize,
		MaxBatchSize:            DefaultMaxBatchSize,
		MinInformationScore:     DefaultMinInformationScore,
		BatchConcurrency:        DefaultBatchConcurrency,
		DirtyCheckpointInterval: DefaultDirtyCheckpointInterval,
		SmallScopeMergeLimit:    DefaultSmallScopeMergeLimit,
	}
}

// validate rejects invalid values before any I/O or parsing happens and fills
// a non-positive MinInformationScore or DirtyCheckpointInterval with its
// default.
func (o *Options) validate() error {
	if o.ContextWindowSize <= 0 {
		return &ConfigError{Field: "ContextWindowSize", Msg: "must be positive"}
	}
	if o.MaxBatchSize <= 0 {
		return &ConfigError{Field: "MaxBatchSize", Msg: "must be positive"}
	}
	if o.BatchConcurrency <= 0 {
		return &ConfigError{Field: "BatchConcurrency", Msg: "must be positive"}
	}
	if o.SmallScopeMergeLimit < 0 {
		return &ConfigError{Field: "SmallScopeMergeLimit", Msg: "must not be negative"}
	}
	if o.MinInformationScore <= 0 {
		o.MinInformationScore = DefaultMinInformationScore
	}
	if o.DirtyCheckpointInterval <= 0 {
		o.DirtyCheckpointInterval = DefaultDirtyCheckpointInterval
	}
	return nil
}
