package files

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"a/b:c", 15, "a_b_c"},
		{strings.Repeat("x", 30), 15, strings.Repeat("x", 15)},
		{"", 15, "unnamed"},
		{"   ", 15, "unnamed"},
		{" GP visit ", 15, "GP_visit"},
		{`<>"|?*\`, 15, "_______"},
		{"2023-10-01T10:00", 10, "2023-10-01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in, tt.max))
		})
	}
}

func TestCanonicalName(t *testing.T) {
	hash := "abcdef0123456789"
	got := CanonicalName(42, "receipt_from_doctor", "2023-10-01", hash, ".pdf")
	assert.Equal(t, "doc_42_receipt_from_do_2023-10-01_abcdef01.pdf", got)

	got = CanonicalPath(filepath.Join("in", "scan.PNG"), 3, "note", "", hash)
	assert.Equal(t, filepath.Join("in", "doc_3_note_unnamed_abcdef01.PNG"), got)
}

func TestIsCanonicalName(t *testing.T) {
	hash := "abcdef0123456789"
	for _, name := range []string{
		CanonicalName(42, "receipt_from_doctor", "2023-10-01", hash, ".pdf"),
		CanonicalName(3, "note", "", hash, ".PNG"),
		CanonicalName(9, "doctor-receipt", "2024-01-02", hash, ""),
	} {
		assert.True(t, IsCanonicalName(name), name)
	}
	for _, name := range []string{
		"doc_scan.pdf",
		"doc_2024_taxes_final.pdf",
		"doc_42_note_2023-10-01.pdf",
		"my_doc_42_note_x_abcdef01.pdf",
		"doc_x_note_2023-10-01_abcdef01.pdf",
	} {
		assert.False(t, IsCanonicalName(name), name)
	}
}

func TestComputeDigest(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	content := []byte("hello world")
	require.NoError(t, os.WriteFile(p, content, 0o600))

	d, err := ComputeDigest(p)
	require.NoError(t, err)
	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), d.Hex)
	assert.Equal(t, int64(len(content)), d.Size)

	_, err = ComputeDigest(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, common.ErrFileNotFound)
}

func TestOSMover(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "a.txt")
	to := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(from, []byte("x"), 0o600))

	require.NoError(t, OSMover{}.Move(from, to))
	assert.NoFileExists(t, from)
	assert.FileExists(t, to)

	err := OSMover{}.Move(from, to)
	assert.ErrorIs(t, err, common.ErrFileWrite)

	called := false
	var m Mover = MoverFunc(func(string, string) error { called = true; return errors.New("boom") })
	assert.Error(t, m.Move("a", "b"))
	assert.True(t, called)
}
