// SPDX-License-Identifier: MPL-2.0

package cmdline

import (
	"errors"
	"fmt"
	"slices"
)

type (
	// CommandLine is an ordered list of arguments built once per tool
	// invocation. Builder methods record problems instead of failing; Err
	// and Render report them.
	CommandLine struct {
		args   []Argument
		labels map[Label]struct{}
		errs   []error
	}

	// PathMapper translates mapped files into paths of an execution environment.
	PathMapper interface {
		// MapFile returns the path of a mapped file or directory.
		MapFile(file MappedFile) (string, error)
		// MapTree returns the base directories a mapped tree appears under.
		MapTree(tree MappedFileTree) ([]string, error)
		// MapTreeElement returns the path of one element of a mapped tree.
		MapTreeElement(tree MappedFileTree, elem Element) (string, error)
	}
)

// New returns a command line starting with the given plain arguments.
func New(args ...string) *CommandLine {
	c := &CommandLine{labels: make(map[Label]struct{})}
	return c.Arg(args...)
}

// Arg appends plain arguments.
func (c *CommandLine) Arg(values ...string) *CommandLine {
	for _, v := range values {
		c.args = append(c.args, StringArgument{Value: v})
	}
	return c
}

// File appends a mapped host file. A nil render emits the mapped path as is.
func (c *CommandLine) File(label Label, hostPath string, mode TransferMode, kind FileKind, render RenderFunc) *CommandLine {
	if err := c.claim(label); err != nil {
		c.errs = append(c.errs, err)
		return c
	}
	if err := errors.Join(mode.Validate(), kind.Validate()); err != nil {
		c.errs = append(c.errs, fmt.Errorf("file %q: %w", label, err))
		return c
	}
	if hostPath == "" {
		c.errs = append(c.errs, fmt.Errorf("file %q: host path is empty", label))
		return c
	}
	c.args = append(c.args, MappedFile{Label: label, HostPath: hostPath, Mode: mode, Kind: kind, Render: render})
	return c
}

// Tree appends a mapped input tree. A nil strategy means EachFile.
func (c *CommandLine) Tree(label Label, tree Tree, strategy TreeStrategy) *CommandLine {
	if err := c.claim(label); err != nil {
		c.errs = append(c.errs, err)
		return c
	}
	if tree == nil {
		c.errs = append(c.errs, fmt.Errorf("tree %q: tree is nil", label))
		return c
	}
	if strategy == nil {
		strategy = EachFile
	}
	c.args = append(c.args, MappedFileTree{Label: label, Tree: tree, Strategy: strategy})
	return c
}

func (c *CommandLine) claim(label Label) error {
	if err := label.Validate(); err != nil {
		return err
	}
	if _, ok := c.labels[label]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, string(label))
	}
	c.labels[label] = struct{}{}
	return nil
}

// Err returns every problem recorded while building, or nil.
func (c *CommandLine) Err() error {
	return errors.Join(c.errs...)
}

// Arguments returns the arguments in order.
func (c *CommandLine) Arguments() []Argument {
	return slices.Clone(c.args)
}

// MappedFiles returns the mapped files in argument order.
func (c *CommandLine) MappedFiles() []MappedFile {
	var out []MappedFile
	for _, a := range c.args {
		if f, ok := a.(MappedFile); ok {
			out = append(out, f)
		}
	}
	return out
}

// MappedTrees returns the mapped trees in argument order.
func (c *CommandLine) MappedTrees() []MappedFileTree {
	var out []MappedFileTree
	for _, a := range c.args {
		if t, ok := a.(MappedFileTree); ok {
			out = append(out, t)
		}
	}
	return out
}

// Render produces the final argument strings with paths translated by mapper.
func (c *CommandLine) Render(mapper PathMapper) ([]string, error) {
	if err := c.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(c.args))
	for _, arg := range c.args {
		switch a := arg.(type) {
		case StringArgument:
			out = append(out, a.Value)
		case MappedFile:
			p, err := mapper.MapFile(a)
			if err != nil {
				return nil, fmt.Errorf("mapping %q: %w", a.Label, err)
			}
			out = append(out, a.Text(p))
		case MappedFileTree:
			bases, err := mapper.MapTree(a)
			if err != nil {
				return nil, fmt.Errorf("mapping %q: %w", a.Label, err)
			}
			out = append(out, a.Strategy.FromTree(bases)...)
			err = a.Tree.Walk(func(elem Element) error {
				p, err := mapper.MapTreeElement(a, elem)
				if err != nil {
					return err
				}
				out = append(out, a.Strategy.FromElement(elem, p)...)
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("mapping %q: %w", a.Label, err)
			}
		default:
			return nil, fmt.Errorf("unsupported argument type %T", arg)
		}
	}
	return out, nil
}
