// SPDX-License-Identifier: MPL-2.0

package config

import (
	"github.com/helix-collective/adlgen/internal/adl"
	"github.com/helix-collective/adlgen/internal/cmdline"
)

// Sources returns the ADL inputs described by the source section, one
// tree per directory.
func (c *Config) Sources() adl.Sources {
	trees := make([]cmdline.Tree, 0, len(c.Source.Dirs))
	for _, dir := range c.Source.Dirs {
		trees = append(trees, cmdline.DirTree{Root: dir, Include: c.Source.Include})
	}
	return adl.Sources{
		Trees:      trees,
		SearchDirs: c.Source.SearchDirs,
		Verbose:    c.Source.Verbose,
	}
}

// List returns the configured generations in execution order.
func (g GenerationsConfig) List() []adl.Generation {
	out := make([]adl.Generation, 0, g.GenerationCount())
	for _, j := range g.Java {
		out = append(out, adl.Java{
			OutputDir:                  j.OutputDir,
			Package:                    j.Package,
			RuntimePackage:             j.RuntimePackage,
			IncludeRuntime:             j.IncludeRuntime,
			Transitive:                 j.Transitive,
			SuppressWarningsAnnotation: j.SuppressWarningsAnnotation,
			HeaderComment:              j.HeaderComment,
			Manifest:                   j.Manifest,
			Args:                       j.Args,
		})
	}
	for _, j := range g.JavaTables {
		out = append(out, adl.JavaTables{
			OutputDir:      j.OutputDir,
			Package:        j.Package,
			RuntimePackage: j.RuntimePackage,
			Manifest:       j.Manifest,
			Args:           j.Args,
		})
	}
	for _, ts := range g.Typescript {
		out = append(out, adl.Typescript{
			OutputDir:       ts.OutputDir,
			IncludeRuntime:  ts.IncludeRuntime,
			Transitive:      ts.Transitive,
			IncludeResolver: ts.IncludeResolver,
			GenerateAST:     ts.GenerateAST,
			RuntimeDir:      ts.RuntimeDir,
			Manifest:        ts.Manifest,
			Args:            ts.Args,
		})
	}
	for _, js := range g.Javascript {
		out = append(out, adl.Javascript{OutputDir: js.OutputDir, Manifest: js.Manifest, Args: js.Args})
	}
	for _, s := range g.SQL {
		out = append(out, adl.SQL{OutputDir: s.OutputDir})
	}
	return out
}
