package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/testutil"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

type fakeProcessor struct {
	mu    sync.Mutex
	seen  []string
	ids   map[string]int64
	fail  map[string]bool
	dedup map[string]bool
}

func (f *fakeProcessor) ProcessFile(_ context.Context, path string) (workflow.StorageState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, path)
	name := filepath.Base(path)
	if f.fail[name] {
		return workflow.StorageState{}, errors.New("model unavailable")
	}
	outcome := constants.OutcomeStored
	if f.dedup[name] {
		outcome = constants.OutcomeDeduplicated
	}
	return workflow.StorageState{}.WithDocumentID(f.ids[name], outcome), nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(filepath.Base(path)), 0o644))
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"a.pdf", "b.txt", "c.PNG", "skip.docx", ".hidden.pdf", ".git/x.pdf", "sub/d.jpg", "sub/e.pdf"} {
		touch(t, filepath.Join(root, p))
	}

	proc := &fakeProcessor{
		ids:   map[string]int64{"a.pdf": 1, "b.txt": 2, "c.PNG": 3, "d.jpg": 1},
		fail:  map[string]bool{"e.pdf": true},
		dedup: map[string]bool{"d.jpg": true},
	}
	in := NewIngester(proc, testutil.Logger())

	results, stats, err := in.IngestDirectory(context.Background(), root, Options{SkipHidden: true, Workers: 3})
	require.NoError(t, err)

	assert.Equal(t, DirStats{Scanned: 6, Matched: 5, Succeeded: 4, Deduplicated: 1, Failed: 1}, stats)
	require.Len(t, results, 5)

	byName := map[string]FileResult{}
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r
	}
	assert.Equal(t, int64(1), byName["a.pdf"].DocumentID)
	assert.Equal(t, constants.OutcomeStored, byName["a.pdf"].Outcome)
	assert.Equal(t, constants.OutcomeDeduplicated, byName["d.jpg"].Outcome)
	assert.Error(t, byName["e.pdf"].Err)

	sort.Strings(proc.seen)
	assert.NotContains(t, proc.seen, filepath.Join(root, ".hidden.pdf"))
	assert.NotContains(t, proc.seen, filepath.Join(root, ".git", "x.pdf"))
}

func TestIngestDirectory_ExtensionFilterAndHidden(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "b.txt"))
	touch(t, filepath.Join(root, ".c.txt"))

	proc := &fakeProcessor{}
	_, stats, err := NewIngester(proc, testutil.Logger()).
		IngestDirectory(context.Background(), root, Options{Exts: []string{".TXT"}})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), stats.Scanned)
	assert.Equal(t, uint32(2), stats.Matched)
	assert.Len(t, proc.seen, 2)
}

func TestIngestDirectory_BadRoot(t *testing.T) {
	in := NewIngester(&fakeProcessor{}, testutil.Logger())

	_, _, err := in.IngestDirectory(context.Background(), " ", Options{})
	assert.ErrorIs(t, err, common.ErrConfig)

	_, _, err = in.IngestDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	assert.ErrorIs(t, err, common.ErrFileNotFound)
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "existing.pdf"))
	touch(t, filepath.Join(root, "doc_1_note_unknown_abcdef01.txt"))
	touch(t, filepath.Join(root, "doc_scan.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, testutil.Logger())
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	assert.Equal(t, filepath.Join(root, "doc_scan.pdf"), next())
	assert.Equal(t, filepath.Join(root, "existing.pdf"), next())

	created := filepath.Join(root, "new.txt")
	touch(t, created)
	assert.Equal(t, created, next())

	cancel()
	for range events {
	}
}

func TestWantedSkipsOnlyCanonicalNames(t *testing.T) {
	exts := extSet(nil)
	tests := []struct {
		path string
		want bool
	}{
		{"in/doc_scan.pdf", true},
		{"in/doc_2024_taxes.pdf", true},
		{"in/doc_7_doctor-receipt_2023-10-01_abcdef01.pdf", false},
		{"in/doc_7_receipt_from_do_2023-10-01_abcdef01.PDF", false},
		{"in/.hidden.pdf", false},
		{"in/notes.exe", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, wanted(filepath.FromSlash(tt.path), exts))
		})
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, testutil.Logger())
	assert.Error(t, err)
}
