// SPDX-License-Identifier: MPL-2.0

package adl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/helix-collective/adlgen/internal/cmdline"
)

const (
	KindJava       Kind = "java"
	KindJavaTables Kind = "java_tables"
	KindTypescript Kind = "typescript"
	KindJavascript Kind = "javascript"
	KindSQL        Kind = "sql"
)

var (
	// ErrNoOutputDir is returned for a generation without an output directory.
	ErrNoOutputDir = errors.New("generation has no output directory")
	// ErrUnsupportedGeneration is returned for a generation that neither adlc
	// nor hx-adl can produce.
	ErrUnsupportedGeneration = errors.New("generation is not supported by the ADL tools")
)

type (
	// Kind names a generation target. Kinds run in the order of Kinds().
	Kind string

	// Generation is one configured code-generation target. The set of
	// implementations is closed: Java, JavaTables, Typescript, Javascript
	// and SQL.
	Generation interface {
		Kind() Kind
		// Output is the host directory generated files are written to.
		Output() string
		isGeneration()
	}

	// Java generates Java sources with the adlc java backend.
	Java struct {
		OutputDir                  string
		Package                    string
		RuntimePackage             string
		IncludeRuntime             bool
		Transitive                 bool
		SuppressWarningsAnnotation string
		HeaderComment              string
		// Manifest is an optional host file listing the generated files.
		Manifest string
		Args     []string
	}

	// JavaTables describes Java table classes for ADL SQL models. It is
	// accepted in configuration but no tool backend produces it, so
	// CommandLine rejects it with ErrUnsupportedGeneration.
	JavaTables struct {
		OutputDir      string
		Package        string
		RuntimePackage string
		Manifest       string
		Args           []string
	}

	// Typescript generates Typescript sources with the adlc typescript backend.
	Typescript struct {
		OutputDir       string
		IncludeRuntime  bool
		Transitive      bool
		IncludeResolver bool
		// GenerateAST keeps the type ASTs in the output. The adlc default
		// is to generate them, callers building a Typescript by hand
		// usually want true.
		GenerateAST bool
		RuntimeDir  string
		Manifest    string
		Args        []string
	}

	// Javascript generates Javascript sources with the adlc javascript backend.
	Javascript struct {
		OutputDir string
		Manifest  string
		Args      []string
	}

	// SQL generates SQL schema files with hx-adl.
	SQL struct {
		OutputDir string
	}
)

// Kinds returns every generation kind in execution order.
func Kinds() []Kind {
	return []Kind{KindJava, KindJavaTables, KindTypescript, KindJavascript, KindSQL}
}

func (Java) Kind() Kind       { return KindJava }
func (JavaTables) Kind() Kind { return KindJavaTables }
func (Typescript) Kind() Kind { return KindTypescript }
func (Javascript) Kind() Kind { return KindJavascript }
func (SQL) Kind() Kind        { return KindSQL }

func (g Java) Output() string       { return g.OutputDir }
func (g JavaTables) Output() string { return g.OutputDir }
func (g Typescript) Output() string { return g.OutputDir }
func (g Javascript) Output() string { return g.OutputDir }
func (g SQL) Output() string        { return g.OutputDir }

func (Java) isGeneration()       {}
func (JavaTables) isGeneration() {}
func (Typescript) isGeneration() {}
func (Javascript) isGeneration() {}
func (SQL) isGeneration()        {}

// Sources are the ADL inputs shared by every generation.
type Sources struct {
	// Trees hold the ADL files passed to the tool, one argument per file.
	Trees []cmdline.Tree
	// SearchDirs are directories, or archives, searched for imported modules.
	SearchDirs []string
	Verbose    bool
}

// CommandLine builds the tool command line for g. The executable itself
// is not part of it.
func CommandLine(src Sources, g Generation) (*cmdline.CommandLine, error) {
	if g == nil {
		return nil, errors.New("generation is nil")
	}
	if g.Output() == "" {
		return nil, fmt.Errorf("%s: %w", g.Kind(), ErrNoOutputDir)
	}

	var cl *cmdline.CommandLine
	switch g := g.(type) {
	case Java:
		cl = javaCommand(src, g)
	case JavaTables:
		return nil, fmt.Errorf("%s: %w", g.Kind(), ErrUnsupportedGeneration)
	case Typescript:
		cl = typescriptCommand(src, g)
	case Javascript:
		cl = javascriptCommand(src, g)
	case SQL:
		cl = sqlCommand(src, g)
	default:
		return nil, fmt.Errorf("unknown generation %T", g)
	}

	addSources(cl, src)
	if err := cl.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", g.Kind(), err)
	}
	return cl, nil
}

const (
	outputLabel    cmdline.Label = "adloutput"
	manifestLabel  cmdline.Label = "manifest"
	searchDirLabel               = "adlsearchdir"
	sourcesLabel                 = "sources"
)

// adlcCommand starts an adlc command line: backend, output directory and
// search directories, then --verbose.
func adlcCommand(backend string, src Sources, outputDir string) *cmdline.CommandLine {
	cl := cmdline.New(backend).
		File(outputLabel, outputDir, cmdline.ModeOutput, cmdline.KindDirectory, cmdline.Prefixed("--outputdir="))
	for i, dir := range src.SearchDirs {
		label := cmdline.Label(fmt.Sprintf("%s%d", searchDirLabel, i+1))
		cl.File(label, dir, cmdline.ModeInput, cmdline.KindDirectory, cmdline.Prefixed("--searchdir="))
	}
	if src.Verbose {
		cl.Arg("--verbose")
	}
	return cl
}

func addManifest(cl *cmdline.CommandLine, manifest string) {
	if manifest != "" {
		cl.File(manifestLabel, manifest, cmdline.ModeOutput, cmdline.KindSingleFile, cmdline.Prefixed("--manifest="))
	}
}

func addSources(cl *cmdline.CommandLine, src Sources) {
	for i, tree := range src.Trees {
		label := cmdline.Label(sourcesLabel)
		if i > 0 {
			label = cmdline.Label(fmt.Sprintf("%s%d", sourcesLabel, i+1))
		}
		cl.Tree(label, tree, cmdline.EachFile)
	}
}

func argIf(cl *cmdline.CommandLine, cond bool, arg string) {
	if cond {
		cl.Arg(arg)
	}
}

func valueArg(cl *cmdline.CommandLine, flag, value string) {
	if value != "" {
		cl.Arg(flag + value)
	}
}

func javaCommand(src Sources, g Java) *cmdline.CommandLine {
	cl := adlcCommand("java", src, g.OutputDir)
	valueArg(cl, "--package=", strings.TrimSpace(g.Package))
	argIf(cl, g.IncludeRuntime, "--include-rt")
	valueArg(cl, "--rtpackage=", g.RuntimePackage)
	argIf(cl, g.Transitive, "--generate-transitive")
	valueArg(cl, "--suppress-warnings-annotation=", g.SuppressWarningsAnnotation)
	valueArg(cl, "--header-comment=", g.HeaderComment)
	addManifest(cl, g.Manifest)
	return cl.Arg(g.Args...)
}

func typescriptCommand(src Sources, g Typescript) *cmdline.CommandLine {
	cl := adlcCommand("typescript", src, g.OutputDir)
	argIf(cl, g.Transitive, "--generate-transitive")
	argIf(cl, g.IncludeResolver, "--include-resolver")
	argIf(cl, !g.GenerateAST, "--exclude-ast")
	argIf(cl, g.IncludeRuntime, "--include-rt")
	valueArg(cl, "--runtime-dir=", g.RuntimeDir)
	addManifest(cl, g.Manifest)
	return cl.Arg(g.Args...)
}

func javascriptCommand(src Sources, g Javascript) *cmdline.CommandLine {
	cl := adlcCommand("javascript", src, g.OutputDir)
	addManifest(cl, g.Manifest)
	return cl.Arg(g.Args...)
}

// sqlCommand passes hx-adl its directories as separate flag and value
// arguments.
func sqlCommand(src Sources, g SQL) *cmdline.CommandLine {
	cl := cmdline.New("sql", "--outputdir").
		File(outputLabel, g.OutputDir, cmdline.ModeOutput, cmdline.KindDirectory, nil)
	for i, dir := range src.SearchDirs {
		label := cmdline.Label(fmt.Sprintf("%s%d", searchDirLabel, i+1))
		cl.Arg("--searchdir").
			File(label, dir, cmdline.ModeInput, cmdline.KindDirectory, nil)
	}
	return cl
}
