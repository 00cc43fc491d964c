package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/spf13/afero"

	constants "smanager/config"
)

var (
	ErrOutsideRoot  = errors.New("path outside root")
	ErrNotFound     = errors.New("path does not exist")
	ErrExists       = errors.New("path already exists")
	ErrIsDirectory  = errors.New("path is a directory")
	ErrNotDirectory = errors.New("path is not a directory")
	ErrTooLarge     = errors.New("file too large")
	ErrBinary       = errors.New("binary file")
	ErrInvalidName  = errors.New("invalid name")
	ErrRoot         = errors.New("operation not allowed on root")
)

// Entry describes one file or directory below the root
type Entry struct {
	Name         string `json:"name"`
	Path         string `json:"path"` // slash-separated, relative to root, leading "/"
	IsDirectory  bool   `json:"isDirectory"`
	Size         int64  `json:"size"`
	ModifiedTime int64  `json:"modifiedTime"` // epoch milliseconds
	Permissions  string `json:"permissions"`
}

// Content is a text file together with its metadata
type Content struct {
	Entry
	Content string `json:"content"`
}

// Manager performs file operations confined beneath a root directory
type Manager struct {
	fs           afero.Fs
	root         string
	realRoot     string
	resolveLinks bool
	maxRead      int64
}

// NewManager creates a manager over the OS filesystem. Symlinks are
// resolved so a link cannot point outside root.
func NewManager(root string) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s: %w", abs, ErrNotDirectory)
	}

	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		real = abs
	}

	return &Manager{
		fs:           afero.NewOsFs(),
		root:         abs,
		realRoot:     real,
		resolveLinks: true,
		maxRead:      constants.MAX_READ_BYTES,
	}, nil
}

// NewManagerWithFs creates a manager over an arbitrary afero filesystem.
// Symlinks are not resolved.
func NewManagerWithFs(fsys afero.Fs, root string) *Manager {
	root = filepath.Clean(root)
	return &Manager{
		fs:       fsys,
		root:     root,
		realRoot: root,
		maxRead:  constants.MAX_READ_BYTES,
	}
}

// Root returns the absolute root directory
func (m *Manager) Root() string {
	return m.root
}

// resolve maps a client path onto the root. A leading "/" means the root
// itself; anything that lands outside it fails.
func (m *Manager) resolve(p string) (string, error) {
	p = strings.TrimSpace(p)
	clean := filepath.Clean(strings.TrimPrefix(filepath.FromSlash(p), string(filepath.Separator)))
	candidate := filepath.Join(m.root, clean)

	if !within(m.root, candidate) {
		return "", ErrOutsideRoot
	}

	if m.resolveLinks {
		real, err := evalExisting(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		if !within(m.realRoot, real) {
			return "", ErrOutsideRoot
		}
	}
	return candidate, nil
}

// evalExisting resolves symlinks of the longest existing prefix of p
func evalExisting(p string) (string, error) {
	var missing []string
	for {
		real, err := filepath.EvalSymlinks(p)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				real = filepath.Join(real, missing[i])
			}
			return real, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		missing = append(missing, filepath.Base(p))
		p = parent
	}
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (m *Manager) entry(abs string, info fs.FileInfo) Entry {
	rel, err := filepath.Rel(m.root, abs)
	if err != nil || rel == "." {
		rel = ""
	}
	return Entry{
		Name:         info.Name(),
		Path:         "/" + filepath.ToSlash(rel),
		IsDirectory:  info.IsDir(),
		Size:         info.Size(),
		ModifiedTime: info.ModTime().UnixMilli(),
		Permissions:  info.Mode().String(),
	}
}

func (m *Manager) stat(abs string) (fs.FileInfo, error) {
	info, err := m.fs.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat: %w", err)
	}
	return info, nil
}

// List returns the directory entries, directories first, then by
// case-insensitive name
func (m *Manager) List(p string) ([]Entry, error) {
	abs, err := m.resolve(p)
	if err != nil {
		return nil, err
	}
	info, err := m.stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}

	infos, err := afero.ReadDir(m.fs, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, m.entry(filepath.Join(abs, fi.Name()), fi))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDirectory != entries[j].IsDirectory {
			return entries[i].IsDirectory
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// Read returns the content of a text file up to the read limit
func (m *Manager) Read(p string) (*Content, error) {
	abs, err := m.resolve(p)
	if err != nil {
		return nil, err
	}
	info, err := m.stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrIsDirectory
	}
	if info.Size() > m.maxRead {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, info.Size(), m.maxRead)
	}

	data, err := afero.ReadFile(m.fs, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if isBinary(data) {
		return nil, ErrBinary
	}

	return &Content{Entry: m.entry(abs, info), Content: string(data)}, nil
}

func isBinary(data []byte) bool {
	head := data
	if len(head) > 262 {
		head = head[:262]
	}
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return true
	}
	return !utf8.Valid(data)
}

// Write replaces the content of a file, creating parent directories
func (m *Manager) Write(p, content string) error {
	abs, err := m.resolve(p)
	if err != nil {
		return err
	}
	if abs == m.root {
		return ErrRoot
	}
	if info, err := m.fs.Stat(abs); err == nil && info.IsDir() {
		return ErrIsDirectory
	}

	if err := m.fs.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := afero.WriteFile(m.fs, abs, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Create makes an empty file or a directory. An existing path fails.
func (m *Manager) Create(p string, isDirectory bool) error {
	abs, err := m.resolve(p)
	if err != nil {
		return err
	}
	if exists, _ := afero.Exists(m.fs, abs); exists {
		return ErrExists
	}

	if isDirectory {
		if err := m.fs.MkdirAll(abs, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}

	if err := m.fs.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	f, err := m.fs.OpenFile(abs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return f.Close()
}

// Delete removes a file or a directory tree
func (m *Manager) Delete(p string) error {
	abs, err := m.resolve(p)
	if err != nil {
		return err
	}
	if abs == m.root {
		return ErrRoot
	}
	if _, err := m.stat(abs); err != nil {
		return err
	}
	if err := m.fs.RemoveAll(abs); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// Rename gives p a new name in the same directory and returns the new
// relative path
func (m *Manager) Rename(p, newName string) (string, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`) {
		return "", ErrInvalidName
	}

	abs, err := m.resolve(p)
	if err != nil {
		return "", err
	}
	if abs == m.root {
		return "", ErrRoot
	}
	if _, err := m.stat(abs); err != nil {
		return "", err
	}

	target := filepath.Join(filepath.Dir(abs), newName)
	if !within(m.root, target) {
		return "", ErrOutsideRoot
	}
	if exists, _ := afero.Exists(m.fs, target); exists {
		return "", ErrExists
	}
	if err := m.fs.Rename(abs, target); err != nil {
		return "", fmt.Errorf("failed to rename: %w", err)
	}

	rel, _ := filepath.Rel(m.root, target)
	return "/" + filepath.ToSlash(rel), nil
}
