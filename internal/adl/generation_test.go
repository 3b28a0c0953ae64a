// SPDX-License-Identifier: MPL-2.0

package adl

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/helix-collective/adlgen/internal/cmdline"
	"github.com/helix-collective/adlgen/internal/testutil"
)

func testSources(t *testing.T, searchDirs ...string) Sources {
	t.Helper()

	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"model/a.adl":    "module model.a {};",
		"model/b.adl":    "module model.b {};",
		"model/notes.md": "ignored",
	})
	return Sources{
		Trees:      []cmdline.Tree{cmdline.DirTree{Root: root, Include: []string{"*.adl"}}},
		SearchDirs: searchDirs,
	}
}

func renderContainer(t *testing.T, src Sources, g Generation) []string {
	t.Helper()

	cl, err := CommandLine(src, g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args, err := cl.Render(cmdline.ContainerMapper{BaseDir: "/data"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return args
}

func TestCommandLine_Java(t *testing.T) {
	t.Parallel()

	src := testSources(t, "/work/adl-std", "/work/lib.zip")
	src.Verbose = true
	g := Java{
		OutputDir:                  "/work/gen",
		Package:                    " com.example.adl ",
		RuntimePackage:             "com.example.runtime",
		IncludeRuntime:             true,
		Transitive:                 true,
		SuppressWarningsAnnotation: "all",
		HeaderComment:              "generated",
		Manifest:                   "/work/manifest.txt",
		Args:                       []string{"--json"},
	}

	want := []string{
		"java",
		"--outputdir=/data/adloutput",
		"--searchdir=/data/adlsearchdir1",
		"--searchdir=/data/adlsearchdir2",
		"--verbose",
		"--package=com.example.adl",
		"--include-rt",
		"--rtpackage=com.example.runtime",
		"--generate-transitive",
		"--suppress-warnings-annotation=all",
		"--header-comment=generated",
		"--manifest=/data/manifest",
		"--json",
		"/data/sources/model/a.adl",
		"/data/sources/model/b.adl",
	}
	if got := renderContainer(t, src, g); !slices.Equal(got, want) {
		t.Errorf("args = %q\nwant %q", got, want)
	}
}

func TestCommandLine_JavaMinimal(t *testing.T) {
	t.Parallel()

	got := renderContainer(t, testSources(t), Java{OutputDir: "/work/gen", Package: "   "})
	want := []string{"java", "--outputdir=/data/adloutput", "/data/sources/model/a.adl", "/data/sources/model/b.adl"}
	if !slices.Equal(got, want) {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestCommandLine_Typescript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  Typescript
		want []string
	}{
		{
			name: "defaults with ast",
			gen:  Typescript{OutputDir: "/out", GenerateAST: true},
			want: []string{"typescript", "--outputdir=/data/adloutput"},
		},
		{
			name: "everything",
			gen: Typescript{
				OutputDir:       "/out",
				IncludeRuntime:  true,
				Transitive:      true,
				IncludeResolver: true,
				RuntimeDir:      "runtime",
				Manifest:        "/out.manifest",
				Args:            []string{"--x"},
			},
			want: []string{
				"typescript", "--outputdir=/data/adloutput",
				"--generate-transitive", "--include-resolver", "--exclude-ast",
				"--include-rt", "--runtime-dir=runtime", "--manifest=/data/manifest", "--x",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			want := append(tt.want, "/data/sources/model/a.adl", "/data/sources/model/b.adl")
			if got := renderContainer(t, testSources(t), tt.gen); !slices.Equal(got, want) {
				t.Errorf("args = %q\nwant %q", got, want)
			}
		})
	}
}

func TestCommandLine_JavaTablesUnsupported(t *testing.T) {
	t.Parallel()

	cl, err := CommandLine(testSources(t), JavaTables{OutputDir: "/o", Package: "p", RuntimePackage: "r"})
	if !errors.Is(err, ErrUnsupportedGeneration) {
		t.Fatalf("expected ErrUnsupportedGeneration, got %v", err)
	}
	if cl != nil {
		t.Errorf("expected no command line, got %q", cl.Arguments())
	}
}

func TestCommandLine_Javascript(t *testing.T) {
	t.Parallel()

	got := renderContainer(t, testSources(t), Javascript{OutputDir: "/o", Args: []string{"--y"}})
	want := []string{"javascript", "--outputdir=/data/adloutput", "--y", "/data/sources/model/a.adl", "/data/sources/model/b.adl"}
	if !slices.Equal(got, want) {
		t.Errorf("javascript args = %q", got)
	}
}

func TestCommandLine_SQLUsesSeparateFlagValues(t *testing.T) {
	t.Parallel()

	got := renderContainer(t, testSources(t, "/std"), SQL{OutputDir: "/sql"})
	want := []string{
		"sql", "--outputdir", "/data/adloutput",
		"--searchdir", "/data/adlsearchdir1",
		"/data/sources/model/a.adl", "/data/sources/model/b.adl",
	}
	if !slices.Equal(got, want) {
		t.Errorf("args = %q\nwant %q", got, want)
	}
}

func TestCommandLine_NativePaths(t *testing.T) {
	t.Parallel()

	src := testSources(t)
	out := filepath.Join(t.TempDir(), "gen")
	cl, err := CommandLine(src, Javascript{OutputDir: out})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mapper := cmdline.NewHostMapper(t.TempDir())
	t.Cleanup(func() { _ = mapper.Cleanup() })

	args, err := cl.Render(mapper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 4 || args[1] != "--outputdir="+out || filepath.Base(args[3]) != "b.adl" {
		t.Errorf("unexpected native args %q", args)
	}
}

func TestCommandLine_MultipleSourceTrees(t *testing.T) {
	t.Parallel()

	src := testSources(t)
	src.Trees = append(src.Trees, src.Trees[0])

	got := renderContainer(t, src, Javascript{OutputDir: "/o"})
	if !slices.Contains(got, "/data/sources2/model/a.adl") {
		t.Errorf("second tree not labelled: %q", got)
	}
}

func TestCommandLine_Errors(t *testing.T) {
	t.Parallel()

	if _, err := CommandLine(testSources(t), Java{}); !errors.Is(err, ErrNoOutputDir) {
		t.Errorf("expected ErrNoOutputDir, got %v", err)
	}
	if _, err := CommandLine(testSources(t), nil); err == nil {
		t.Error("expected error for nil generation")
	}
}

func TestKinds_Order(t *testing.T) {
	t.Parallel()

	want := []Kind{KindJava, KindJavaTables, KindTypescript, KindJavascript, KindSQL}
	if !slices.Equal(Kinds(), want) {
		t.Errorf("Kinds() = %v", Kinds())
	}
	for _, g := range []Generation{Java{}, JavaTables{}, Typescript{}, Javascript{}, SQL{}} {
		if !slices.Contains(want, g.Kind()) {
			t.Errorf("unexpected kind %q", g.Kind())
		}
	}
}
