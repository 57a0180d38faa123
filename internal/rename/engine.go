// Package rename implements the identifier-renaming engine: it decides what
// to rename in parsed JavaScript, packs identifiers into batches with
// surrounding context, hands each batch to a caller-supplied visitor,
// applies the returned renames scope-safely, and checkpoints progress so
// long runs can resume.
package rename

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"humanify/internal/jsast"
	"humanify/internal/logging"
)

// Rename runs the engine over source and returns the renamed source text.
// The visitor is invoked once per batch, up to opts.BatchConcurrency calls in
// flight at a time. Configuration problems surface synchronously as
// ConfigError; unparseable input as jsast.ParseError. Visitor failures never
// abort the run: the affected batch is left alone and processing continues.
func Rename(ctx context.Context, source string, visitor Visitor, opts Options) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if visitor == nil {
		return "", &ConfigError{Field: "visitor", Msg: "required"}
	}

	tree, err := jsast.Parse(ctx, []byte(source))
	if err != nil {
		return "", err
	}

	r := &run{
		opts:      opts,
		tree:      tree,
		visitor:   visitor,
		ckpt:      newCheckpointManager(opts.ResumePath, opts.FilePath, opts.DirtyCheckpointInterval),
		tel:       newTelemetry(),
		visited:   make(map[string]bool),
		renameSet: make(map[string]bool),
	}
	// The tree reference changes when a resume swaps in checkpointed source,
	// so close whatever tree the run ends up holding.
	defer func() { r.tree.Close() }()
	if err := r.restore(ctx); err != nil {
		return "", err
	}

	out, err := r.execute(ctx)
	if err != nil {
		return "", err
	}
	r.ckpt.finish()
	r.tel.checkpoints = r.ckpt.writes
	r.tel.report(r.totalScopes)
	return out, nil
}

// run holds the mutable state of one engine invocation. The tree is shared
// between context extraction and rename application; both happen on the
// orchestrator goroutine only. Visitor calls are the only concurrent part.
type run struct {
	opts    Options
	tree    *jsast.Tree
	visitor Visitor
	ckpt    *checkpointManager
	tel     *telemetry

	judge     *skipJudge
	extractor *contextExtractor

	visited      map[string]bool
	renameSet    map[string]bool
	currentIndex int
	totalScopes  int
	startIndex   int
}

// identityKey is stable for the lifetime of one parse: the owning scope's
// span, the original name, and the declaration start offset.
func identityKey(b *jsast.Binding) string {
	return fmt.Sprintf("%d-%d::%s::%d", b.Scope.Span.Start, b.Scope.Span.End, b.OriginalName, b.Decl.Start)
}

// restore picks up sidecar state when a resume path is configured. A corrupt
// sidecar means starting fresh without deleting the bad file; a sidecar for a
// different input file is ignored.
func (r *run) restore(ctx context.Context) error {
	if r.opts.ResumePath == "" {
		return nil
	}
	state, err := r.ckpt.load(r.opts.ResumePath, r.opts.FilePath)
	if err != nil || state == nil {
		return nil
	}
	if state.CodePath != r.opts.FilePath {
		logging.Get(logging.CategoryCheckpoint).Warn(
			"resume state is for %q, not %q; starting fresh", state.CodePath, r.opts.FilePath)
		return nil
	}
	resumed, perr := jsast.Parse(ctx, []byte(state.Code))
	if perr != nil {
		// A checkpoint whose serialized source no longer parses is fatal:
		// continuing would silently discard applied renames.
		return fmt.Errorf("resume state %s: %w", r.ckpt.path, perr)
	}
	r.tree.Close()
	r.tree = resumed
	for _, name := range state.Renames {
		r.renameSet[name] = true
	}
	for _, key := range state.Visited {
		r.visited[key] = true
	}
	r.startIndex = state.CurrentIndex
	logging.EngineDebug("resuming at %d/%d", state.CurrentIndex, state.TotalScopes)
	return nil
}

func (r *run) execute(ctx context.Context) (string, error) {
	r.judge = newSkipJudge(r.tree)
	r.extractor = &contextExtractor{
		tree:       r.tree,
		windowSize: r.opts.ContextWindowSize,
		minLines:   r.opts.MinInformationScore,
	}

	bindings := r.tree.Bindings()
	r.totalScopes = len(bindings)
	if r.totalScopes == 0 {
		r.reportDone()
		return r.tree.Print(), nil
	}

	groups := groupBindings(bindings)
	merged := mergeSmallGroups(groups, r.opts.SmallScopeMergeLimit, r.opts.MaxBatchSize, r.judge.shouldSkip)
	batches := splitGroups(merged, r.opts.MaxBatchSize)
	logging.EngineDebug("%d bindings in %d groups -> %d merged -> %d batches",
		r.totalScopes, len(groups), len(merged), len(batches))

	batches = r.seekResume(batches)

	for start := 0; start < len(batches); {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		end := start + r.opts.BatchConcurrency
		if end > len(batches) {
			end = len(batches)
		}
		if err := r.processCohort(ctx, batches[start:end]); err != nil {
			return "", err
		}
		start = end
	}

	r.reportDone()
	return r.tree.Print(), nil
}

// seekResume drops batches already applied before the checkpoint that was
// restored. Checkpoints land on batch boundaries, so whole batches are
// skipped; their bindings count as processed.
func (r *run) seekResume(batches []*batch) []*batch {
	toSkip := r.startIndex
	i := 0
	for i < len(batches) && toSkip >= batches[i].size() {
		b := batches[i]
		for _, bind := range append(b.bindings, b.collapsed...) {
			r.visited[identityKey(bind)] = true
		}
		toSkip -= b.size()
		r.currentIndex += b.size()
		i++
	}
	return batches[i:]
}

// cohortJob carries one batch through a concurrent visitor call. Contexts
// are extracted sequentially before any call launches; results are applied
// sequentially in launch order after all calls return.
type cohortJob struct {
	b       *batch
	active  []*jsast.Binding
	names   []string
	context string
	mapping map[string]string
	err     error
}

func (r *run) processCohort(ctx context.Context, cohort []*batch) error {
	jobs := make([]*cohortJob, 0, len(cohort))
	for _, b := range cohort {
		job := r.prepare(b)
		if job != nil {
			jobs = append(jobs, job)
		}
	}

	// The tree is read-only from here until every visitor call returns.
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			job.mapping, job.err = r.visitor(gctx, job.names, job.context)
			return nil
		})
	}
	_ = g.Wait()

	for _, job := range jobs {
		if err := r.apply(job); err != nil {
			return err
		}
	}
	return nil
}

// prepare partitions a batch into skipped and active bindings and extracts
// the context for the active ones. Returns nil when nothing needs a visitor.
func (r *run) prepare(b *batch) *cohortJob {
	var active []*jsast.Binding
	for _, bind := range b.bindings {
		key := identityKey(bind)
		if r.visited[key] {
			continue
		}
		if r.judge.shouldSkip(bind) {
			r.visited[key] = true
			r.tel.skipped++
			r.currentIndex++
			continue
		}
		active = append(active, bind)
	}
	r.tel.batches++
	if len(active) == 0 {
		r.finishCollapsed(b)
		r.reportProgress()
		r.ckpt.tick(r.snapshot)
		return nil
	}
	job := &cohortJob{b: b, active: active}
	job.names = make([]string, len(active))
	for i, bind := range active {
		job.names[i] = bind.Name
	}
	job.context = r.extractor.extract(&batch{bindings: active})
	r.tel.visitorCalls++
	return job
}

// apply folds one visitor result into the tree. A failed or unusable visitor
// call no-ops the batch: its bindings are marked visited and the run goes on.
func (r *run) apply(job *cohortJob) error {
	if job.err != nil {
		verr := &VisitorError{Batch: r.tel.batches, Err: job.err}
		logging.Get(logging.CategoryBatch).Warn("%v; leaving %d bindings alone", verr, len(job.active))
		r.tel.visitorErrors++
		job.mapping = nil
	}

	for _, bind := range job.active {
		if err := r.applyOne(bind, job.mapping); err != nil {
			return err
		}
		r.visited[identityKey(bind)] = true
		r.currentIndex++
	}
	r.finishCollapsed(job.b)
	r.reportProgress()
	r.ckpt.tick(r.snapshot)
	return nil
}

func (r *run) applyOne(bind *jsast.Binding, mapping map[string]string) error {
	suggestion, ok := mapping[bind.Name]
	if !ok {
		r.tel.noops++
		return nil
	}
	normalized := normalizeIdentifier(suggestion)
	if normalized == "" || normalized == bind.Name {
		// NormalizationMiss and identity both mean "leave alone".
		r.tel.noops++
		return nil
	}
	safe, err := r.safeName(bind, normalized)
	if err != nil {
		return err
	}
	if err := r.tree.Rename(bind, safe); err != nil {
		return err
	}
	r.renameSet[safe] = true
	r.ckpt.markDirty()
	r.tel.renamed++
	logging.BatchDebug("renamed %s -> %s", bind.OriginalName, safe)
	return nil
}

// safeName resolves collisions deterministically. The candidate must not be
// a built-in global and must not be bound in the target scope chain; with
// UniqueNames it must also be fresh across the whole run. While any check
// fails, the trailing-digit increment rule produces the next candidate.
func (r *run) safeName(bind *jsast.Binding, candidate string) (string, error) {
	name := candidate
	for i := 0; i < disambiguationBound; i++ {
		conflict := builtinGlobals[name] || bind.Scope.HasBinding(name)
		if r.opts.UniqueNames {
			conflict = conflict || r.renameSet[name]
		}
		if !conflict {
			return name, nil
		}
		name = nextVariant(name)
	}
	return "", &CollisionUnresolvableError{Name: candidate}
}

// finishCollapsed marks duplicate-name bindings that were collapsed out of
// the batch as processed.
func (r *run) finishCollapsed(b *batch) {
	for _, bind := range b.collapsed {
		key := identityKey(bind)
		if !r.visited[key] {
			r.visited[key] = true
			r.currentIndex++
		}
	}
}

func (r *run) reportProgress() {
	if r.opts.OnProgress == nil || r.totalScopes == 0 {
		return
	}
	fraction := float64(r.currentIndex) / float64(r.totalScopes)
	if fraction >= 1 {
		// The single terminal call with 1 happens at completion.
		return
	}
	r.opts.OnProgress(fraction)
}

func (r *run) reportDone() {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(1)
	}
}

func (r *run) snapshot() *resumeState {
	return &resumeState{
		Code:         r.tree.Print(),
		Renames:      sortedKeys(r.renameSet),
		Visited:      sortedKeys(r.visited),
		CurrentIndex: r.currentIndex,
		TotalScopes:  r.totalScopes,
		CodePath:     r.opts.FilePath,
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
