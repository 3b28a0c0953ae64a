// SPDX-License-Identifier: MPL-2.0

package cmdline

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zw := zip.NewWriter(f)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRender_ContainerMapper(t *testing.T) {
	t.Parallel()

	c := New().Arg("-x").File("dir", "/host/some/dir", ModeInput, KindDirectory, nil)

	got, err := c.Render(ContainerMapper{BaseDir: "/data"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"-x", "/data/dir"}; !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRender_PrefixedFile(t *testing.T) {
	t.Parallel()

	c := New("java").File("adloutput", "/out", ModeOutput, KindDirectory, Prefixed("--outputdir="))

	got, err := c.Render(ContainerMapper{BaseDir: "/data/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"java", "--outputdir=/data/adloutput"}; !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCommandLine_DuplicateLabel(t *testing.T) {
	t.Parallel()

	c := New().
		File("dir", "/a", ModeInput, KindDirectory, nil).
		File("dir", "/b", ModeOutput, KindDirectory, nil)

	if err := c.Err(); !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("expected ErrDuplicateLabel, got %v", err)
	}
	if _, err := c.Render(ContainerMapper{BaseDir: "/data"}); err == nil {
		t.Fatal("expected render to fail")
	}
	if n := len(c.MappedFiles()); n != 1 {
		t.Errorf("expected 1 mapped file, got %d", n)
	}
}

func TestCommandLine_InvalidLabel(t *testing.T) {
	t.Parallel()

	for _, label := range []Label{"", "..", "a/b", "-flag", "sp ace"} {
		c := New().File(label, "/a", ModeInput, KindDirectory, nil)
		var labelErr *InvalidLabelError
		if !errors.As(c.Err(), &labelErr) {
			t.Errorf("label %q: expected InvalidLabelError, got %v", label, c.Err())
			continue
		}
		if !errors.Is(c.Err(), ErrInvalidLabel) {
			t.Errorf("label %q: expected error to wrap ErrInvalidLabel", label)
		}
	}
}

func TestCommandLine_RejectsUnknownModeAndKind(t *testing.T) {
	t.Parallel()

	if err := New().File("a", "/a", TransferMode("sideways"), KindDirectory, nil).Err(); err == nil {
		t.Error("expected error for unknown mode")
	}
	if err := New().File("a", "/a", ModeInput, FileKind("socket"), nil).Err(); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestCommandLine_Accessors(t *testing.T) {
	t.Parallel()

	c := New("typescript").
		File("adloutput", "/out", ModeOutput, KindDirectory, nil).
		Arg("--verbose").
		Tree("sources", DirTree{Root: "/src"}, nil).
		File("manifest", "/out/manifest", ModeOutput, KindSingleFile, nil)

	if n := len(c.Arguments()); n != 5 {
		t.Errorf("expected 5 arguments, got %d", n)
	}
	files := c.MappedFiles()
	if len(files) != 2 || files[0].Label != "adloutput" || files[1].Label != "manifest" {
		t.Errorf("unexpected mapped files %+v", files)
	}
	trees := c.MappedTrees()
	if len(trees) != 1 || trees[0].Strategy != EachFile {
		t.Errorf("expected one tree defaulting to EachFile, got %+v", trees)
	}
}

func TestRender_EachFileTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"b.adl":         "module b {};",
		"nested/a.adl":  "module nested.a {};",
		"notes.txt":     "ignored",
		"empty/x.txt":   "ignored",
		"nested/c.json": "ignored",
	})

	c := New().Tree("sources", DirTree{Root: root, Include: []string{"*.adl"}}, EachFile)
	got, err := c.Render(ContainerMapper{BaseDir: "/data"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/data/sources/b.adl", "/data/sources/nested/a.adl"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRender_BaseDirTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.adl": "", "b.adl": ""})

	c := New().Tree("sources", DirTree{Root: root}, BaseDir)
	got, err := c.Render(ContainerMapper{BaseDir: "/data"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"/data/sources"}; !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRender_HostMapperTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"x.adl": "", "y/z.adl": ""})

	m := NewHostMapper(t.TempDir())
	c := New().Tree("sources", DirTree{Root: root}, nil)
	got, err := c.Render(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{filepath.Join(root, "x.adl"), filepath.Join(root, "y", "z.adl")}
	if !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHostMapper_ArchiveDirectory(t *testing.T) {
	t.Parallel()

	archives := t.TempDir()
	single := filepath.Join(archives, "libadl.jar")
	writeZip(t, single, map[string]string{"mylib/foo.adl": "module mylib.foo {};"})
	multi := filepath.Join(archives, "multi.zip")
	writeZip(t, multi, map[string]string{"a.adl": "", "b/c.adl": ""})

	tempRoot := t.TempDir()
	m := NewHostMapper(tempRoot)

	dir, err := m.MapFile(MappedFile{Label: "s", HostPath: single, Mode: ModeInput, Kind: KindDirectory})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mylib", "foo.adl")); err != nil {
		t.Errorf("expected top-level archive directory to be kept: %v", err)
	}

	dir, err = m.MapFile(MappedFile{Label: "m", HostPath: multi, Mode: ModeInput, Kind: KindDirectory})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.adl")); err != nil {
		t.Errorf("expected expanded file at root: %v", err)
	}

	if err := m.Cleanup(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected cleanup to remove expanded archives, found %d entries", len(entries))
	}
}

// The native mapper must expose an archive search directory with the same
// relative layout that a container receives for it: the archive's entries
// unchanged below the mapped directory.
func TestHostMapper_ArchiveLayoutMatchesContainer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
	}{
		{name: "single top-level directory", files: map[string]string{"mylib/foo.adl": "", "mylib/sub/bar.adl": ""}},
		{name: "several top-level entries", files: map[string]string{"a.adl": "", "b/c.adl": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			archive := filepath.Join(t.TempDir(), "search.zip")
			writeZip(t, archive, tt.files)

			var entries []string
			err := ArchiveTree{Path: archive}.Walk(func(elem Element) error {
				if !elem.IsDir {
					entries = append(entries, elem.RelPath)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(entries) != len(tt.files) {
				t.Fatalf("expected %d archive entries, got %q", len(tt.files), entries)
			}

			m := NewHostMapper(t.TempDir())
			t.Cleanup(func() { _ = m.Cleanup() })
			f := MappedFile{Label: "searchdir", HostPath: archive, Mode: ModeInput, Kind: KindDirectory}
			hostDir, err := m.MapFile(f)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			containerDir, err := ContainerMapper{BaseDir: "/data"}.MapFile(f)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if containerDir != "/data/searchdir" {
				t.Fatalf("expected /data/searchdir, got %s", containerDir)
			}

			for _, rel := range entries {
				if _, err := os.Stat(filepath.Join(hostDir, filepath.FromSlash(rel))); err != nil {
					t.Errorf("entry %s (container path %s/%s) missing on host: %v", rel, containerDir, rel, err)
				}
			}
		})
	}
}

func TestHostMapper_PlainPathsAreAbsolute(t *testing.T) {
	t.Parallel()

	m := NewHostMapper("")
	got, err := m.MapFile(MappedFile{Label: "out", HostPath: "relative/out", Mode: ModeOutput, Kind: KindDirectory})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %s", got)
	}
}
