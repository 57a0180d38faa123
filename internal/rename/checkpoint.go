package rename

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"humanify/internal/logging"
)

// sidecarSuffix is the fixed tail of every resume state filename.
const sidecarSuffix = ".humanify-resume.json"

// resumeState is the exact on-disk schema of the sidecar file. The source
// file at CodePath is never written by the engine; only this sidecar is.
type resumeState struct {
	Code         string   `json:"code"`
	Renames      []string `json:"renames"`
	Visited      []string `json:"visited"`
	CurrentIndex int      `json:"currentIndex"`
	TotalScopes  int      `json:"totalScopes"`
	CodePath     string   `json:"codePath"`
}

// sidecarPath derives the state file path for a resume path and an optional
// per-file path: dirname(R)/.basename(R).<md5prefix>.humanify-resume.json,
// where the hash covers the resolved resume path, plus "::" and the resolved
// file path when one is given.
func sidecarPath(resumePath, filePath string) string {
	key := resolvePath(resumePath)
	if filePath != "" {
		key += "::" + resolvePath(filePath)
	}
	sum := md5.Sum([]byte(key))
	prefix := hex.EncodeToString(sum[:])[:8]
	dir := filepath.Dir(resumePath)
	base := filepath.Base(resumePath)
	return filepath.Join(dir, "."+base+"."+prefix+sidecarSuffix)
}

// legacySidecarPaths returns older naming schemes still honored on load.
// Writes always use the current scheme.
func legacySidecarPaths(resumePath, filePath string) []string {
	dir := filepath.Dir(resumePath)
	base := filepath.Base(resumePath)
	var out []string
	if filePath != "" {
		// Scheme that hashed only the resume path.
		sum := md5.Sum([]byte(resolvePath(resumePath)))
		out = append(out, filepath.Join(dir, "."+base+"."+hex.EncodeToString(sum[:])[:8]+sidecarSuffix))
	}
	// Scheme with no hash at all.
	out = append(out, filepath.Join(dir, "."+base+sidecarSuffix))
	return out
}

func resolvePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// checkpointManager persists engine progress to the sidecar and restores it
// on startup. A write failure is logged and retried at the next interval;
// progress persistence is best-effort by design.
type checkpointManager struct {
	path          string // "" disables checkpointing
	dirtyInterval int

	sinceLast int
	dirty     bool
	writes    int
	preserve  bool
}

func newCheckpointManager(resumePath, filePath string, dirtyInterval int) *checkpointManager {
	m := &checkpointManager{dirtyInterval: dirtyInterval}
	if resumePath != "" {
		m.path = sidecarPath(resumePath, filePath)
	}
	return m
}

// load tries the current sidecar name, then the legacy names. A file that
// fails schema validation is reported and left on disk; when it sits at the
// current sidecar name, a checkpoint written later in the same run replaces
// it.
func (m *checkpointManager) load(resumePath, filePath string) (*resumeState, error) {
	if m.path == "" {
		return nil, nil
	}
	candidates := append([]string{m.path}, legacySidecarPaths(resumePath, filePath)...)
	for _, path := range candidates {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		state, err := decodeResumeState(raw)
		if err != nil {
			// The bad file stays on disk for inspection; a fresh run must
			// not clean it up at completion either.
			m.preserve = path == m.path
			logging.Get(logging.CategoryCheckpoint).Warn("ignoring corrupt resume state %s: %v", path, err)
			return nil, &ResumeCorrupt{Path: path, Err: err}
		}
		logging.CheckpointDebug("loaded resume state from %s: %d/%d", path, state.CurrentIndex, state.TotalScopes)
		return state, nil
	}
	return nil, nil
}

// decodeResumeState validates the sidecar schema strictly: all six fields
// must be present with the right JSON types.
func decodeResumeState(raw []byte) (*resumeState, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for _, key := range []string{"code", "renames", "visited", "currentIndex", "totalScopes", "codePath"} {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("missing field %q", key)
		}
	}
	var state resumeState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	if state.CurrentIndex < 0 || state.TotalScopes < 0 || state.CurrentIndex > state.TotalScopes {
		return nil, fmt.Errorf("inconsistent progress %d/%d", state.CurrentIndex, state.TotalScopes)
	}
	return &state, nil
}

// markDirty records that the tree changed since the last checkpoint.
func (m *checkpointManager) markDirty() { m.dirty = true }

// tick is called after every applied batch; it decides whether a checkpoint
// is due and writes one if so.
func (m *checkpointManager) tick(state func() *resumeState) {
	if m.path == "" {
		return
	}
	m.sinceLast++
	due := (m.dirty && m.sinceLast >= m.dirtyInterval) ||
		(!m.dirty && m.sinceLast >= cleanCheckpointInterval)
	if !due {
		return
	}
	// Restart the count so a failed write is retried at the next interval.
	m.sinceLast = 0
	m.write(state())
}

func (m *checkpointManager) write(state *resumeState) {
	raw, err := json.Marshal(state)
	if err != nil {
		logging.Get(logging.CategoryCheckpoint).Error("marshal resume state: %v", err)
		return
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		logging.Get(logging.CategoryCheckpoint).Warn("checkpoint write failed: %v", err)
		return
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		logging.Get(logging.CategoryCheckpoint).Warn("checkpoint rename failed: %v", err)
		return
	}
	m.sinceLast = 0
	m.dirty = false
	m.writes++
	logging.CheckpointDebug("checkpoint written: %d/%d", state.CurrentIndex, state.TotalScopes)
}

// finish removes the sidecar after a successful run, including one left
// behind by a previous interrupted run.
func (m *checkpointManager) finish() {
	if m.path == "" || (m.preserve && m.writes == 0) {
		return
	}
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		logging.Get(logging.CategoryCheckpoint).Warn("could not remove sidecar: %v", err)
	}
}
