package lower

import (
	"context"
	"fmt"
	"io"

	"firlower/internal/ast"
	"firlower/internal/diag"
	"firlower/internal/fir"
	"firlower/internal/firlog"
	"firlower/internal/semantics"

	"golang.org/x/exp/slog"
)

// SetDebugChannel redirects the ambient logger to w, e.g. the CLI demo
// driver's --debug-channel flag.
func SetDebugChannel(w io.Writer) {
	firlog.SetRoot(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// CreateFortranIR lowers every program unit in src into a fir.Program,
// running the Linearizer and Block Builder over each in turn. debugLinear
// additionally logs each procedure's linear op stream before it is
// consumed, matching the original afforestation pass's optional dump.
//
// A structural precondition failure anywhere in the Linearizer or Block
// Builder surfaces here as an error rather than a panic: both phases
// signal that class of failure by panicking with a *diag.StructuralError,
// and this is the one place that recovers it.
func CreateFortranIR(ctx context.Context, src *ast.Program, sc *semantics.Context, debugLinear bool) (out *fir.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*diag.StructuralError); ok {
				err = se
				return
			}
			panic(r)
		}
	}()

	program := fir.NewProgram()
	for _, unit := range src.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		proc := lowerUnit(ctx, unit, sc, debugLinear)
		if !program.AddProcedure(proc) {
			return nil, fmt.Errorf("duplicate procedure name %q", proc.Name)
		}
	}

	if err := fir.Verify(program); err != nil {
		return nil, fmt.Errorf("internal consistency check failed: %w", err)
	}
	return program, nil
}

func lowerUnit(ctx context.Context, unit ast.ProgramUnit, sc *semantics.Context, debugLinear bool) *fir.Procedure {
	name, kind, body := unitShape(unit)
	loc := unit.Loc()

	firlog.Info("lowering procedure", "name", name, "kind", kind.String())

	state := NewAnalysisState()
	lz := NewLinearizer(state)
	lz.Walk(body)
	ops := lz.Ops()

	if debugLinear {
		firlog.Debug("linear op stream", "procedure", name, "ops", FormatLinearOps(ops))
	}

	proc := fir.NewProcedure(name, kind, loc)
	bb := NewBlockBuilder(state, proc)
	bb.Run(ops)

	firlog.Debug("lowered procedure", "name", name, "blocks", bb.BlockCount(), "pending_edges_at_resolution", bb.PendingCount())

	return proc
}

func unitShape(unit ast.ProgramUnit) (name string, kind fir.ProcKind, body ast.Block) {
	switch u := unit.(type) {
	case *ast.MainProgram:
		n := "MAIN"
		if u.Name != nil {
			n = u.Name.Text
		}
		return n, fir.MainProgram, u.Body
	case *ast.FunctionSubprogram:
		return u.Name, fir.FunctionSubprogram, u.Body
	case *ast.SubroutineSubprogram:
		return u.Name, fir.SubroutineSubprogram, u.Body
	default:
		panic(diag.NewStructuralError(nil, "unrecognized program unit kind"))
	}
}
