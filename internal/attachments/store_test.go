package attachments

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "files")
	s, err := NewStore(config.StorageConfig{
		AttachmentRoot:   root,
		AllowedMIMETypes: []string{"application/pdf", "text/plain"},
	}, nil)
	require.NoError(t, err)
	return s, root
}

// snapshot lists every path below root so tests can assert no mutation.
func snapshot(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	_ = filepath.Walk(filepath.Dir(root), func(p string, _ os.FileInfo, err error) error {
		if err == nil {
			paths = append(paths, p)
		}
		return nil
	})
	return paths
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my_paper_2024_.pdf", SanitizeFilename("my paper(2024).pdf"))
	assert.Equal(t, "a.b-c_d", SanitizeFilename("a.b-c_d"))
	assert.Equal(t, ".._.._secret", SanitizeFilename("../../secret"))
}

func TestStore_AddFiles(t *testing.T) {
	s, root := newTestStore(t)

	results, err := s.AddFiles("42", []Upload{
		{Name: "paper one.pdf", MIMEType: "application/pdf", Data: pdfBytes},
		{Name: "image.png", MIMEType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")},
		{Name: "notes.txt", MIMEType: "text/plain; charset=utf-8", Data: []byte("plain notes")},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Accepted)
	assert.Equal(t, "paper_one.pdf", results[0].StoredName)
	assert.False(t, results[1].Accepted)
	assert.Contains(t, results[1].Reason, "not allowed")
	assert.True(t, results[2].Accepted)

	data, err := os.ReadFile(filepath.Join(root, "42", "paper_one.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, data)
}

func TestStore_AddFilesRejectsSpoofedContent(t *testing.T) {
	s, root := newTestStore(t)

	results, err := s.AddFiles("42", []Upload{
		{Name: "fake.pdf", MIMEType: "application/pdf", Data: []byte("not really a pdf")},
	})
	require.NoError(t, err)
	assert.False(t, results[0].Accepted)
	assert.NoDirExists(t, filepath.Join(root, "42"))
}

func TestStore_AddFilesNeverOverwrites(t *testing.T) {
	s, root := newTestStore(t)

	results, err := s.AddFiles("42", []Upload{
		{Name: "a b.pdf", MIMEType: "application/pdf", Data: pdfBytes},
		{Name: "a?b.pdf", MIMEType: "application/pdf", Data: append([]byte{}, append(pdfBytes, '2')...)},
	})
	require.NoError(t, err)
	assert.True(t, results[0].Accepted)
	assert.False(t, results[1].Accepted)
	assert.Equal(t, "a_b.pdf", results[1].StoredName)

	results, err = s.AddFiles("42", []Upload{{Name: "a_b.pdf", MIMEType: "application/pdf", Data: []byte("%PDF-1.7 other")}})
	require.NoError(t, err)
	assert.False(t, results[0].Accepted)
	assert.Equal(t, "file already exists", results[0].Reason)

	files, err := s.ListFiles("42")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b.pdf"}, files)

	data, err := os.ReadFile(filepath.Join(root, "42", "a_b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, data)
}

func TestStore_PathSafety(t *testing.T) {
	s, root := newTestStore(t)
	_, err := s.AddFiles("x", []Upload{{Name: "keep.pdf", MIMEType: "application/pdf", Data: pdfBytes}})
	require.NoError(t, err)
	before := snapshot(t, root)

	tests := []struct {
		name string
		run  func() error
	}{
		{"add with traversal id", func() error {
			_, err := s.AddFiles("../etc", []Upload{{Name: "passwd", MIMEType: "text/plain", Data: []byte("x")}})
			return err
		}},
		{"add with dot id", func() error {
			_, err := s.AddFiles("..", []Upload{{Name: "a.txt", MIMEType: "text/plain", Data: []byte("x")}})
			return err
		}},
		{"delete with traversal filename", func() error { return s.DeleteFile("x", "../../secret") }},
		{"delete with dot-dot filename", func() error { return s.DeleteFile("x", "..") }},
		{"delete with traversal id", func() error { return s.DeleteFile("../x", "keep.pdf") }},
		{"list with traversal id", func() error {
			_, err := s.ListFiles("../../")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, core.ErrInvalidPath)
			assert.Equal(t, before, snapshot(t, root))
		})
	}
}

func TestStore_AddFilesSkipsInvalidFilenames(t *testing.T) {
	s, root := newTestStore(t)

	results, err := s.AddFiles("42", []Upload{
		{Name: "good.pdf", MIMEType: "application/pdf", Data: pdfBytes},
		{Name: "..", MIMEType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")},
		{Name: ".", MIMEType: "application/pdf", Data: pdfBytes},
		{Name: "", MIMEType: "application/pdf", Data: pdfBytes},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].Accepted)
	for _, res := range results[1:] {
		assert.False(t, res.Accepted, res.Name)
		assert.Equal(t, "invalid filename", res.Reason, res.Name)
	}

	names, err := s.ListFiles("42")
	require.NoError(t, err)
	assert.Equal(t, []string{"good.pdf"}, names)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "42", entries[0].Name())
}

func TestStore_AddFilesOnlyInvalidFilenamesLeavesDiskUntouched(t *testing.T) {
	s, root := newTestStore(t)
	before := snapshot(t, root)

	results, err := s.AddFiles("42", []Upload{{Name: "..", MIMEType: "application/pdf", Data: pdfBytes}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Accepted)
	assert.Equal(t, before, snapshot(t, root))
}

func TestStore_InvalidIDIsAlsoInvalidIdentifier(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AddFiles("../etc", nil)
	assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
	assert.ErrorIs(t, err, core.ErrInvalidPath)
}

func TestStore_DeleteFileRemovesEmptyDirectory(t *testing.T) {
	s, root := newTestStore(t)
	_, err := s.AddFiles("42", []Upload{
		{Name: "a.pdf", MIMEType: "application/pdf", Data: pdfBytes},
		{Name: "b.txt", MIMEType: "text/plain", Data: []byte("notes")},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile("42", "a.pdf"))
	assert.DirExists(t, filepath.Join(root, "42"))

	require.NoError(t, s.DeleteFile("42", "b.txt"))
	assert.NoDirExists(t, filepath.Join(root, "42"))

	files, err := s.ListFiles("42")
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.ErrorIs(t, s.DeleteFile("42", "b.txt"), core.ErrNotFound)
}

func TestStore_ReadFiles(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddFiles("42", []Upload{{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("plain notes")}})
	require.NoError(t, err)

	files, err := s.ReadFiles("42")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].Name)
	assert.Equal(t, "plain notes", string(files[0].Data))

	none, err := s.ReadFiles("empty")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ConcurrentAddAndDeleteSameID(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddFiles("42", []Upload{{Name: "seed.txt", MIMEType: "text/plain", Data: []byte("seed")}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.DeleteFile("42", "seed.txt")
	}()
	go func() {
		defer wg.Done()
		_, _ = s.AddFiles("42", []Upload{{Name: "late.txt", MIMEType: "text/plain", Data: []byte("late")}})
	}()
	wg.Wait()

	files, err := s.ListFiles("42")
	require.NoError(t, err)
	assert.Equal(t, []string{"late.txt"}, files)
}

func TestStore_LocksReleasedAfterUse(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := core.ReviewID(fmt.Sprintf("r%d", i%3))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddFiles(id, []Upload{{Name: "a.txt", MIMEType: "text/plain", Data: []byte("a")}})
			_, _ = s.ListFiles(id)
			_ = s.DeleteFile(id, "a.txt")
		}()
	}
	wg.Wait()

	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	assert.Empty(t, s.locks)
}
