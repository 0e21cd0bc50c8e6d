// Package attachments keeps the reference files users upload for a review,
// one directory per review under a single root.
package attachments

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
)

var (
	filenamePattern   = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	unsafeFilenameRun = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// Upload is one incoming file of an AddFiles batch.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Result reports what happened to one upload.
type Result struct {
	Name       string `json:"name"`
	StoredName string `json:"stored_name"`
	Accepted   bool   `json:"accepted"`
	Reason     string `json:"reason,omitempty"`
}

// File is a stored attachment read back from disk.
type File struct {
	Name string
	Data []byte
}

// Store manages the attachment directories. Operations on one review id are
// serialized; different ids never contend.
type Store struct {
	root    string
	allowed map[string]struct{}
	logger  *slog.Logger

	locksMu sync.Mutex
	locks   map[core.ReviewID]*idLock
}

// idLock serializes the operations on one review id. refs counts holders
// and waiters so the entry can be dropped once nobody needs it.
type idLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates a store rooted at cfg.AttachmentRoot. The root itself is
// created lazily with the first accepted file.
func NewStore(cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	root, err := filepath.Abs(cfg.AttachmentRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attachment root %q: %w", cfg.AttachmentRoot, err)
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMETypes))
	for _, mt := range cfg.AllowedMIMETypes {
		parsed, _, err := mime.ParseMediaType(mt)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed MIME type %q: %w", mt, err)
		}
		allowed[parsed] = struct{}{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, allowed: allowed, logger: logger, locks: make(map[core.ReviewID]*idLock)}, nil
}

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with '_'.
func SanitizeFilename(name string) string {
	return unsafeFilenameRun.ReplaceAllString(name, "_")
}

func (s *Store) lock(id core.ReviewID) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &idLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// reviewDir resolves root/id and checks it is a direct child of root.
func (s *Store) reviewDir(id core.ReviewID) (string, error) {
	if err := id.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrInvalidPath, err)
	}
	dir, err := filepath.Abs(filepath.Join(s.root, string(id)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidPath, err)
	}
	if !isDirectChild(s.root, dir) {
		return "", fmt.Errorf("%w: review id %q escapes the attachment root", core.ErrInvalidPath, id)
	}
	return dir, nil
}

// filePath resolves dir/name and checks it is a direct child of dir.
func filePath(dir, name string) (string, error) {
	if !filenamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: filename %q", core.ErrInvalidPath, name)
	}
	p, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidPath, err)
	}
	if !isDirectChild(dir, p) {
		return "", fmt.Errorf("%w: filename %q escapes the review directory", core.ErrInvalidPath, name)
	}
	return p, nil
}

func isDirectChild(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !strings.ContainsRune(rel, filepath.Separator)
}

// AddFiles stores the accepted uploads of a batch. An invalid review id
// rejects the whole batch before anything is written. Each file is then
// filtered on its own: a name that does not resolve inside the review
// directory, a type outside the allow-list and a name that already exists
// are reported as not accepted and leave the disk untouched.
func (s *Store) AddFiles(id core.ReviewID, uploads []Upload) ([]Result, error) {
	dir, err := s.reviewDir(id)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(uploads))
	paths := make([]string, len(uploads))
	for i, up := range uploads {
		stored := SanitizeFilename(up.Name)
		results[i] = Result{Name: up.Name, StoredName: stored}
		p, err := filePath(dir, stored)
		if err != nil {
			results[i].Reason = "invalid filename"
			s.logger.Warn("attachment rejected", "review_id", id, "file", up.Name, "error", err)
			continue
		}
		paths[i] = p
	}

	unlock := s.lock(id)
	defer unlock()

	dirReady := false
	seen := make(map[string]struct{}, len(uploads))
	for i, up := range uploads {
		res := &results[i]
		if paths[i] == "" {
			continue
		}
		if reason := s.checkContent(up); reason != "" {
			res.Reason = reason
			continue
		}
		if _, dup := seen[res.StoredName]; dup {
			res.Reason = "duplicate name in upload"
			continue
		}
		seen[res.StoredName] = struct{}{}

		if !dirReady {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create attachment directory for review %s: %w", id, err)
			}
			dirReady = true
		}

		written, err := writeExclusive(paths[i], up.Data)
		if err != nil {
			s.removeIfEmpty(dir)
			return nil, fmt.Errorf("failed to store %s for review %s: %w", res.StoredName, id, err)
		}
		if !written {
			res.Reason = "file already exists"
			continue
		}
		res.Accepted = true
		s.logger.Info("attachment stored", "review_id", id, "file", res.StoredName, "bytes", len(up.Data))
	}

	if dirReady {
		s.removeIfEmpty(dir)
	}
	return results, nil
}

// checkContent returns why an upload is rejected, or "" when it is accepted.
// The declared type must be allowed and agree with the sniffed content.
func (s *Store) checkContent(up Upload) string {
	declared, _, err := mime.ParseMediaType(up.MIMEType)
	if err != nil {
		return "invalid MIME type"
	}
	if _, ok := s.allowed[declared]; !ok {
		return fmt.Sprintf("MIME type %s is not allowed", declared)
	}
	for detected := mimetype.Detect(up.Data); detected != nil; detected = detected.Parent() {
		if detected.Is(declared) {
			return ""
		}
	}
	return fmt.Sprintf("content does not match declared type %s", declared)
}

func writeExclusive(path string, data []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return false, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return false, err
	}
	return true, nil
}

// ListFiles returns the stored names in upload order. A review without
// attachments yields an empty list.
func (s *Store) ListFiles(id core.ReviewID) ([]string, error) {
	dir, err := s.reviewDir(id)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(id)
	defer unlock()

	entries, err := s.entries(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names, nil
}

// ReadFiles returns every attachment of the review with its content.
func (s *Store) ReadFiles(id core.ReviewID) ([]File, error) {
	dir, err := s.reviewDir(id)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(id)
	defer unlock()

	entries, err := s.entries(dir)
	if err != nil {
		return nil, err
	}
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.name))
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment %s of review %s: %w", e.name, id, err)
		}
		files = append(files, File{Name: e.name, Data: data})
	}
	return files, nil
}

// DeleteFile removes one attachment, and the review directory once it is empty.
func (s *Store) DeleteFile(id core.ReviewID, filename string) error {
	dir, err := s.reviewDir(id)
	if err != nil {
		return err
	}
	p, err := filePath(dir, filename)
	if err != nil {
		return err
	}

	unlock := s.lock(id)
	defer unlock()

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("attachment %s of review %s: %w", filename, id, core.ErrNotFound)
		}
		return fmt.Errorf("failed to delete attachment %s of review %s: %w", filename, id, err)
	}
	s.logger.Info("attachment deleted", "review_id", id, "file", filename)
	s.removeIfEmpty(dir)
	return nil
}

type entry struct {
	name  string
	mtime int64
}

func (s *Store) entries(dir string) ([]entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []entry{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	out := make([]entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, entry{name: de.Name(), mtime: info.ModTime().UnixNano()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].mtime != out[j].mtime {
			return out[i].mtime < out[j].mtime
		}
		return out[i].name < out[j].name
	})
	return out, nil
}

// removeIfEmpty deletes dir when it holds no entries. Callers hold the id lock.
func (s *Store) removeIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove empty attachment directory", "dir", dir, "error", err)
	}
}
