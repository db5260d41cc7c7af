// Command lockcheck is a best-effort static lint over this module's source
// flagging a function that calls (*task.Executor).AcquireLock twice in a
// row on its straight-line instruction stream without an intervening
// ReleaseLock — a caller bug under the non-reentrant lock model spec.md
// §4.8 describes. It walks golang.org/x/tools/go/ssa's instruction stream
// per basic block rather than golang.org/x/tools/go/pointer's full
// points-to analysis: our LockId values are plain uint64s passed by value,
// never heap-aliased objects a pointer analysis would need to disambiguate,
// so the heavier whole-program alias analysis buys nothing here that a
// per-block instruction scan doesn't already give. This is advisory
// tooling, not part of the booted kernel, analogous to the teacher's misc/
// tree.
package main

import (
	"fmt"
	"os"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

const targetMethod = "AcquireLock"
const releaseMethod = "ReleaseLock"

func main() {
	cfg := &packages.Config{Mode: packages.LoadAllSyntax}
	pkgs, err := packages.Load(cfg, "nucleus/...")
	if err != nil {
		fmt.Fprintln(os.Stderr, "lockcheck:", err)
		os.Exit(1)
	}

	prog, _ := ssautil.AllPackages(pkgs, 0)
	prog.Build()

	findings := 0
	for fn := range ssautil.AllFunctions(prog) {
		if fn.Blocks == nil {
			continue
		}
		for _, blk := range fn.Blocks {
			held := false
			for _, instr := range blk.Instrs {
				call, ok := instr.(*ssa.Call)
				if !ok {
					continue
				}
				name := calleeName(call)
				switch name {
				case targetMethod:
					if held {
						fmt.Printf("%s: possible double AcquireLock without an intervening ReleaseLock in %s\n",
							fn.Prog.Fset.Position(instr.Pos()), fn.String())
						findings++
					}
					held = true
				case releaseMethod:
					held = false
				}
			}
		}
	}

	if findings == 0 {
		fmt.Println("lockcheck: no findings")
	}
}

func calleeName(call *ssa.Call) string {
	if call.Call.IsInvoke() {
		return call.Call.Method.Name()
	}
	if fn, ok := call.Call.Value.(*ssa.Function); ok {
		return fn.Name()
	}
	return ""
}
