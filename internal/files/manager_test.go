package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func newMemManager(t *testing.T) (*Manager, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/srv/data", 0755); err != nil {
		t.Fatalf("Failed to create root: %v", err)
	}
	return NewManagerWithFs(fsys, "/srv/data"), fsys
}

func TestListSortsDirectoriesFirst(t *testing.T) {
	m, fsys := newMemManager(t)
	afero.WriteFile(fsys, "/srv/data/b.txt", []byte("b"), 0644)
	afero.WriteFile(fsys, "/srv/data/A.txt", []byte("a"), 0644)
	fsys.MkdirAll("/srv/data/zeta", 0755)
	fsys.MkdirAll("/srv/data/Alpha", 0755)

	entries, err := m.List("/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := "Alpha,zeta,A.txt,b.txt"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("Expected order %s, got %s", want, got)
	}

	if !entries[0].IsDirectory || entries[0].Path != "/Alpha" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[2].Size != 1 || entries[2].Permissions == "" {
		t.Errorf("Unexpected file entry: %+v", entries[2])
	}
}

func TestListErrors(t *testing.T) {
	m, fsys := newMemManager(t)
	afero.WriteFile(fsys, "/srv/data/file.txt", []byte("x"), 0644)

	if _, err := m.List("/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := m.List("/file.txt"); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("Expected ErrNotDirectory, got %v", err)
	}
}

func TestPathsCannotEscapeRoot(t *testing.T) {
	m, fsys := newMemManager(t)
	afero.WriteFile(fsys, "/srv/secret.txt", []byte("secret"), 0644)

	escapes := []string{"../secret.txt", "a/../../secret.txt", "../../etc/passwd", "..", "/../secret.txt"}
	for _, p := range escapes {
		if _, err := m.Read(p); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Read(%q): expected ErrOutsideRoot, got %v", p, err)
		}
		if err := m.Write(p, "x"); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Write(%q): expected ErrOutsideRoot, got %v", p, err)
		}
		if err := m.Delete(p); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Delete(%q): expected ErrOutsideRoot, got %v", p, err)
		}
	}

	data, _ := afero.ReadFile(fsys, "/srv/secret.txt")
	if string(data) != "secret" {
		t.Error("File outside root was modified")
	}
}

func TestAbsolutePathIsRootRelative(t *testing.T) {
	m, fsys := newMemManager(t)
	fsys.MkdirAll("/srv/data/etc", 0755)
	afero.WriteFile(fsys, "/srv/data/etc/passwd", []byte("inside"), 0644)

	c, err := m.Read("/etc/passwd")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if c.Content != "inside" {
		t.Errorf("Expected file under root, got %q", c.Content)
	}
}

func TestWriteAndRead(t *testing.T) {
	m, _ := newMemManager(t)

	if err := m.Write("notes/today.md", "# hello"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	c, err := m.Read("/notes/today.md")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if c.Content != "# hello" {
		t.Errorf("Expected content, got %q", c.Content)
	}
	if c.Path != "/notes/today.md" || c.Name != "today.md" {
		t.Errorf("Unexpected metadata: %+v", c.Entry)
	}

	if err := m.Write("notes", "x"); !errors.Is(err, ErrIsDirectory) {
		t.Errorf("Expected ErrIsDirectory, got %v", err)
	}
	if _, err := m.Read("notes"); !errors.Is(err, ErrIsDirectory) {
		t.Errorf("Expected ErrIsDirectory, got %v", err)
	}
}

func TestReadRefusesLargeAndBinary(t *testing.T) {
	m, fsys := newMemManager(t)
	m.maxRead = 16

	afero.WriteFile(fsys, "/srv/data/big.txt", []byte(strings.Repeat("x", 17)), 0644)
	if _, err := m.Read("big.txt"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}

	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0}
	afero.WriteFile(fsys, "/srv/data/img.png", png, 0644)
	if _, err := m.Read("img.png"); !errors.Is(err, ErrBinary) {
		t.Errorf("Expected ErrBinary for png, got %v", err)
	}

	afero.WriteFile(fsys, "/srv/data/raw.bin", []byte{0xff, 0xfe, 0xfd}, 0644)
	if _, err := m.Read("raw.bin"); !errors.Is(err, ErrBinary) {
		t.Errorf("Expected ErrBinary for invalid utf-8, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	m, fsys := newMemManager(t)

	if err := m.Create("a/b/c", true); err != nil {
		t.Fatalf("Create dir failed: %v", err)
	}
	if ok, _ := afero.DirExists(fsys, "/srv/data/a/b/c"); !ok {
		t.Error("Expected directory to exist")
	}

	if err := m.Create("a/new.txt", false); err != nil {
		t.Fatalf("Create file failed: %v", err)
	}
	if ok, _ := afero.Exists(fsys, "/srv/data/a/new.txt"); !ok {
		t.Error("Expected file to exist")
	}

	if err := m.Create("a/new.txt", false); !errors.Is(err, ErrExists) {
		t.Errorf("Expected ErrExists, got %v", err)
	}
}

func TestDeleteRecursive(t *testing.T) {
	m, fsys := newMemManager(t)
	fsys.MkdirAll("/srv/data/tree/sub", 0755)
	afero.WriteFile(fsys, "/srv/data/tree/sub/f.txt", []byte("x"), 0644)

	if err := m.Delete("tree"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok, _ := afero.Exists(fsys, "/srv/data/tree"); ok {
		t.Error("Expected tree to be removed")
	}

	if err := m.Delete("tree"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := m.Delete("/"); !errors.Is(err, ErrRoot) {
		t.Errorf("Expected ErrRoot, got %v", err)
	}
}

func TestRename(t *testing.T) {
	m, fsys := newMemManager(t)
	fsys.MkdirAll("/srv/data/docs", 0755)
	afero.WriteFile(fsys, "/srv/data/docs/old.txt", []byte("x"), 0644)
	afero.WriteFile(fsys, "/srv/data/docs/taken.txt", []byte("y"), 0644)

	newPath, err := m.Rename("docs/old.txt", "new.txt")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if newPath != "/docs/new.txt" {
		t.Errorf("Expected /docs/new.txt, got %s", newPath)
	}
	if ok, _ := afero.Exists(fsys, "/srv/data/docs/new.txt"); !ok {
		t.Error("Expected renamed file to exist")
	}

	for _, bad := range []string{"", "..", "../x", "a/b"} {
		if _, err := m.Rename("docs/new.txt", bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Rename to %q: expected ErrInvalidName, got %v", bad, err)
		}
	}
	if _, err := m.Rename("docs/new.txt", "taken.txt"); !errors.Is(err, ErrExists) {
		t.Errorf("Expected ErrExists, got %v", err)
	}
	if _, err := m.Rename("/", "x"); !errors.Is(err, ErrRoot) {
		t.Errorf("Expected ErrRoot, got %v", err)
	}
}

func TestSymlinkCannotEscapeRoot(t *testing.T) {
	outside := t.TempDir()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	m, err := NewManager(root)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := m.Read("link/secret.txt"); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("Expected ErrOutsideRoot through symlink, got %v", err)
	}
	if err := m.Write("link/new.txt", "x"); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("Expected ErrOutsideRoot writing through symlink, got %v", err)
	}
}

func TestNewManagerRequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	os.WriteFile(file, []byte("x"), 0644)

	if _, err := NewManager(file); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("Expected ErrNotDirectory, got %v", err)
	}
	if _, err := NewManager(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing root")
	}
}
