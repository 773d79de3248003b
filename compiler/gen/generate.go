package gen

import (
	"context"

	"go.uber.org/zap"
)

// Result lists the files of one generation run.
type Result struct {
	// Written holds the paths rendered by the run.
	Written []string
	// Skipped holds the paths left untouched because they exist.
	Skipped []string
	// Types holds the names of the processed types.
	Types []string
}

// Generate writes the artifacts of every selected type of g. The
// destination directories are created first, so an unusable destination
// fails the run before anything is rendered.
func Generate(ctx context.Context, g *Graph) (*Result, error) {
	if g == nil || g.Config == nil {
		return nil, ErrMissingConfig
	}
	if g.Target == "" {
		return nil, NewConfigError("Target", g.Target, "missing target directory")
	}
	if g.Package == "" {
		return nil, NewConfigError("Package", g.Package, "missing import path of the target package")
	}
	return generate(ctx, g, g.Nodes)
}

func generate(ctx context.Context, g *Graph, types []*Type) (*Result, error) {
	w := NewWriter(g.Config)
	if err := w.Prepare(g.Target); err != nil {
		return nil, err
	}
	var (
		res = &Result{}
		asm = NewAssembler(g)
		log = g.logger()
	)
	for _, t := range types {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Debug("process type", zap.String("type", t.Name), zap.String("table", t.Table()))
		res.Types = append(res.Types, t.Name)
		for _, a := range asm.Type(t) {
			ok, err := w.Write(a)
			if err != nil {
				return res, err
			}
			if ok {
				res.Written = append(res.Written, a.Path)
			} else {
				res.Skipped = append(res.Skipped, a.Path)
			}
		}
	}
	return res, nil
}
