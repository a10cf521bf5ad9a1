// Package wasmalloc adapts a wazero guest module's allocator exports to
// the heaptrace.Allocator interface, so a hosted guest's heap can be
// traced without touching guest code: wrap the Guest in alloc.Tracked
// and every guest allocation the host performs is recorded.
//
// The adapter resolves dedicated malloc/free/realloc exports first and
// falls back to the component-model cabi_realloc entry point, which can
// express all three operations.
package wasmalloc

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	heaptrace "github.com/embtrace/heap-trace"
	"github.com/embtrace/heap-trace/errors"
)

// defaultAlign is the allocation alignment requested through
// cabi_realloc when the guest exposes no dedicated allocator.
const defaultAlign = 8

// reallocNames are the fallback allocator exports, in preference order.
var reallocNames = []string{"cabi_realloc", "canonical_abi_realloc"}

// Function is the callable subset of wazero's api.Function. api.Function
// is a sealed interface, so the adapter works against this narrow local
// one; Wrap bridges real wazero modules.
type Function interface {
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// Module is the subset of a guest module the adapter needs.
type Module interface {
	ExportedFunction(name string) Function
	Memory() api.Memory
}

// Wrap adapts a wazero api.Module to the Module interface.
func Wrap(mod api.Module) Module {
	return wazeroModule{mod: mod}
}

type wazeroModule struct {
	mod api.Module
}

func (m wazeroModule) ExportedFunction(name string) Function {
	if fn := m.mod.ExportedFunction(name); fn != nil {
		return fn
	}
	return nil
}

func (m wazeroModule) Memory() api.Memory {
	return m.mod.Memory()
}

// Guest is a heaptrace.Allocator backed by a wasm guest. Guest call
// errors (traps, exhausted linear memory) are absorbed into the 0
// failure sentinel, which is exactly what the tracer records.
//
// Guest is as thread-safe as the underlying module: wazero instances
// are single-threaded, so recording hosts need no extra care beyond
// what the guest already imposes.
type Guest struct {
	ctx     context.Context
	mem     api.Memory
	malloc  Function
	free    Function
	realloc Function
	cabi    Function
	// sizes tracks live block sizes; cabi_realloc frees need the old
	// size, which the Allocator interface does not carry.
	sizes map[uint32]uint32
}

// New resolves the guest's allocator exports. It fails only when
// neither a malloc export nor a cabi_realloc-style export exists.
func New(ctx context.Context, mod Module) (*Guest, error) {
	g := &Guest{
		ctx:     ctx,
		mem:     mod.Memory(),
		malloc:  mod.ExportedFunction("malloc"),
		free:    mod.ExportedFunction("free"),
		realloc: mod.ExportedFunction("realloc"),
		sizes:   make(map[uint32]uint32),
	}
	for _, name := range reallocNames {
		if g.cabi = mod.ExportedFunction(name); g.cabi != nil {
			break
		}
	}
	if g.malloc == nil && g.cabi == nil {
		return nil, errors.NotFound(errors.PhaseAlloc, "guest export", "malloc")
	}
	return g, nil
}

// Bounds reports the guest linear memory as the traced heap: base 0,
// size the current memory size. Unknown when the module has no memory.
func (g *Guest) Bounds() heaptrace.HeapBounds {
	if g.mem == nil {
		return heaptrace.HeapBounds{}
	}
	return heaptrace.HeapBounds{Base: 0, Size: g.mem.Size(), Valid: true}
}

// Malloc allocates size bytes in guest memory, 0 on failure.
func (g *Guest) Malloc(size uint32) uint32 {
	var ptr uint32
	if g.malloc != nil {
		ptr = g.call1(g.malloc, uint64(size))
	} else {
		ptr = g.call1(g.cabi, 0, 0, defaultAlign, uint64(size))
	}
	if ptr != 0 {
		g.sizes[ptr] = size
	}
	return ptr
}

// Free releases ptr in guest memory. Free(0) is a no-op.
func (g *Guest) Free(ptr uint32) {
	if ptr == 0 {
		return
	}
	size := g.sizes[ptr]
	delete(g.sizes, ptr)
	if g.free != nil {
		_, _ = g.free.Call(g.ctx, uint64(ptr))
		return
	}
	_, _ = g.cabi.Call(g.ctx, uint64(ptr), uint64(size), defaultAlign, 0)
}

// Realloc resizes ptr in guest memory, with the usual malloc-like and
// free-like edge modes. Returns 0 on failure.
func (g *Guest) Realloc(ptr, size uint32) uint32 {
	if ptr == 0 {
		return g.Malloc(size)
	}
	if size == 0 {
		g.Free(ptr)
		return 0
	}

	oldSize := g.sizes[ptr]
	var newPtr uint32
	if g.realloc != nil {
		newPtr = g.call1(g.realloc, uint64(ptr), uint64(size))
	} else {
		newPtr = g.call1(g.cabi, uint64(ptr), uint64(oldSize), defaultAlign, uint64(size))
	}
	if newPtr != 0 {
		delete(g.sizes, ptr)
		g.sizes[newPtr] = size
	}
	return newPtr
}

// call1 invokes fn and returns its single result, 0 on any failure.
func (g *Guest) call1(fn Function, params ...uint64) uint32 {
	results, err := fn.Call(g.ctx, params...)
	if err != nil || len(results) == 0 {
		return 0
	}
	return uint32(results[0])
}
