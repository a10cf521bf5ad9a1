// Command heaptrace runs a randomized allocation workload over a
// tracked arena heap and writes the binary trace, exercising the full
// pipeline end to end. With -i it opens a live monitor instead.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/embtrace/heap-trace/alloc"
	"github.com/embtrace/heap-trace/platform"
	"github.com/embtrace/heap-trace/tracer"
	"github.com/embtrace/heap-trace/transport/file"
)

func main() {
	var (
		out         = flag.String("out", file.DefaultPath, "Trace output file")
		budget      = flag.Int("budget", 4096, "Record buffer byte budget")
		heapSize    = flag.Uint("heap", 256<<10, "Arena heap size in bytes")
		ops         = flag.Int("ops", 2000, "Number of workload operations")
		seed        = flag.Int64("seed", 1, "Workload random seed")
		debug       = flag.Bool("debug", false, "Enable per-operation debug logging")
		interactive = flag.Bool("i", false, "Interactive mode with live TUI monitor")
	)
	flag.Parse()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*out, *budget, uint32(*heapSize), *ops, *seed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*out, *budget, uint32(*heapSize), *ops, *seed, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out string, budget int, heapSize uint32, ops int, seed int64, debug bool) error {
	logger := zap.NewNop()
	if debug {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = dev
		defer logger.Sync()
	}

	w := newWorkload(out, budget, heapSize, seed, debug, logger)
	for i := 0; i < ops; i++ {
		w.step()
	}
	if err := w.trc.Close(); err != nil {
		return err
	}

	fmt.Printf("Workload: %d operations over a %d-byte arena\n", ops, heapSize)
	fmt.Printf("  mallocs:  %d (%d failed)\n", w.mallocs, w.failures)
	fmt.Printf("  frees:    %d\n", w.frees)
	fmt.Printf("  reallocs: %d\n", w.reallocs)
	fmt.Printf("  live:     %d blocks, %d bytes\n", w.heap.LiveBlocks(), w.heap.Used())

	if info, err := os.Stat(out); err == nil {
		fmt.Printf("Trace: %s (%d bytes, %d records)\n", out, info.Size(), info.Size()/24)
	}
	return nil
}

// workload drives tracked allocations with a mixed malloc-heavy
// profile, keeping live pointers for frees and reallocs.
type workload struct {
	rng     *rand.Rand
	heap    *alloc.Heap
	tracked *alloc.Tracked
	trc     *tracer.Tracer
	live    []uint32

	mallocs  int
	frees    int
	reallocs int
	failures int
}

func newWorkload(out string, budget int, heapSize uint32, seed int64, debug bool, logger *zap.Logger) *workload {
	heap := alloc.NewHeap(heapSize)
	trc := tracer.New(tracer.Config{
		BufferBytes: budget,
		Transport:   file.New(file.WithPath(out)),
		Hooks:       platform.Host(logger),
		HeapBounds:  heap.Bounds(),
		DebugLog:    debug,
	})
	return &workload{
		rng:     rand.New(rand.NewSource(seed)),
		heap:    heap,
		tracked: alloc.NewTracked(heap, trc),
		trc:     trc,
	}
}

// step performs one random operation and describes it.
func (w *workload) step() string {
	switch r := w.rng.Intn(10); {
	case r < 4: // malloc
		size := uint32(8 + w.rng.Intn(1024))
		ptr := w.tracked.Malloc(size)
		w.mallocs++
		if ptr == 0 {
			w.failures++
			return fmt.Sprintf("malloc %4d -> failed", size)
		}
		w.live = append(w.live, ptr)
		return fmt.Sprintf("malloc %4d -> 0x%x", size, ptr)

	case r < 5: // calloc
		n := uint32(1 + w.rng.Intn(16))
		elem := uint32(8 + w.rng.Intn(64))
		ptr := w.tracked.Calloc(n, elem)
		w.mallocs++
		if ptr == 0 {
			w.failures++
			return fmt.Sprintf("calloc %dx%d -> failed", n, elem)
		}
		w.live = append(w.live, ptr)
		return fmt.Sprintf("calloc %dx%d -> 0x%x", n, elem, ptr)

	case r < 8: // free
		if len(w.live) == 0 {
			w.tracked.Free(0)
			w.frees++
			return "free null"
		}
		i := w.rng.Intn(len(w.live))
		ptr := w.live[i]
		w.live = append(w.live[:i], w.live[i+1:]...)
		w.tracked.Free(ptr)
		w.frees++
		return fmt.Sprintf("free 0x%x", ptr)

	default: // realloc
		w.reallocs++
		if len(w.live) == 0 {
			size := uint32(8 + w.rng.Intn(256))
			ptr := w.tracked.Realloc(0, size)
			if ptr != 0 {
				w.live = append(w.live, ptr)
			}
			return fmt.Sprintf("realloc null %d -> 0x%x", size, ptr)
		}
		i := w.rng.Intn(len(w.live))
		old := w.live[i]
		size := uint32(8 + w.rng.Intn(2048))
		ptr := w.tracked.Realloc(old, size)
		if ptr == 0 {
			w.failures++
			return fmt.Sprintf("realloc 0x%x %d -> failed", old, size)
		}
		w.live[i] = ptr
		return fmt.Sprintf("realloc 0x%x %d -> 0x%x", old, size, ptr)
	}
}
