// bench-edits measures heap memory before and after Hibernate() calls
// during a sustained randomized edit run against a large document.
//
// Usage:
//
//	go run ./scripts/bench-edits --doc-size 67108864 --ops 1000000 \
//	  --chunk-size 100000 --profile-dir docs/profiles/edit-hibernation
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/Sumatoshi-tech/piecetree/pkg/textbuf"
)

const (
	lineLength = 64
	maxEdit    = 32
)

func main() {
	docSize := flag.Int("doc-size", 1<<26, "Generated document size in bytes")
	ops := flag.Int("ops", 1_000_000, "Total edit operations")
	chunkSize := flag.Int("chunk-size", 100_000, "Edits per chunk between hibernation cycles")
	seed := flag.Int64("seed", 42, "Workload rng seed")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles")
	cpuProfile := flag.Bool("cpu-profile", false, "Write CPU profile to profile-dir/cpu.prof")

	flag.Parse()

	if *profileDir == "" {
		log.Fatal("--profile-dir is required")
	}

	if err := os.MkdirAll(*profileDir, 0o755); err != nil {
		log.Fatalf("mkdir profile-dir: %v", err)
	}

	if *cpuProfile {
		cpuPath := filepath.Join(*profileDir, "cpu.prof")

		cpuFile, cpuErr := os.Create(cpuPath)
		if cpuErr != nil {
			log.Fatalf("create cpu profile: %v", cpuErr)
		}
		defer cpuFile.Close()

		if startErr := pprof.StartCPUProfile(cpuFile); startErr != nil {
			log.Fatalf("start cpu profile: %v", startErr)
		}

		defer pprof.StopCPUProfile()

		log.Printf("CPU profiling enabled -> %s", cpuPath)
	}

	rng := rand.New(rand.NewSource(*seed))

	log.Printf("generating %d byte document", *docSize)

	buffer := generateDocument(rng, *docSize)

	log.Printf("document ready: %d bytes, %d lines, %d pieces",
		buffer.Length(), buffer.LineCount(), buffer.PieceCount())

	chunks := (*ops + *chunkSize - 1) / *chunkSize

	type heapSnapshot struct {
		label     string
		heapInUse uint64
		heapSys   uint64
		heapIdle  uint64
		numGC     uint32
	}

	var snapshots []heapSnapshot

	takeSnapshot := func(label string) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snapshots = append(snapshots, heapSnapshot{
			label:     label,
			heapInUse: m.HeapInuse,
			heapSys:   m.HeapSys,
			heapIdle:  m.HeapIdle,
			numGC:     m.NumGC,
		})
		log.Printf("  [heap] %-40s inuse=%6.1f MB  sys=%6.1f MB  idle=%6.1f MB",
			label, float64(m.HeapInuse)/1e6, float64(m.HeapSys)/1e6, float64(m.HeapIdle)/1e6)
	}

	writeHeapProfile := func(name string) {
		runtime.GC()
		runtime.GC()

		path := filepath.Join(*profileDir, name)

		f, ferr := os.Create(path)
		if ferr != nil {
			log.Printf("warning: create heap profile %s: %v", path, ferr)

			return
		}
		defer f.Close()

		if perr := pprof.WriteHeapProfile(f); perr != nil {
			log.Printf("warning: write heap profile %s: %v", path, perr)
		}
	}

	takeSnapshot("before_editing")
	writeHeapProfile("heap_before_editing.prof")

	start := time.Now()
	remaining := *ops

	for i := 0; i < chunks; i++ {
		if i > 0 {
			takeSnapshot(fmt.Sprintf("chunk_%d_end_before_hibernate", i))
			writeHeapProfile(fmt.Sprintf("heap_chunk_%d_before_hibernate.prof", i))

			buffer.Hibernate()

			takeSnapshot(fmt.Sprintf("chunk_%d_end_after_hibernate", i))
			writeHeapProfile(fmt.Sprintf("heap_chunk_%d_after_hibernate.prof", i))
			log.Printf("  hibernated: live=%d compressed=%d", buffer.LiveSize(), buffer.HibernatedSize())

			buffer.Boot()

			takeSnapshot(fmt.Sprintf("chunk_%d_end_after_boot", i))
		}

		count := min(remaining, *chunkSize)
		remaining -= count

		log.Printf("processing chunk %d/%d (%d edits)", i+1, chunks, count)

		runEdits(rng, buffer, count)
	}

	elapsed := time.Since(start)

	if err := buffer.Validate(); err != nil {
		log.Fatalf("post-run audit: %v", err)
	}

	takeSnapshot("after_all_chunks")
	writeHeapProfile("heap_after_all_chunks.prof")

	fmt.Println()
	fmt.Println("=== Heap Memory Timeline ===")
	fmt.Printf("%-45s %10s %10s %10s\n", "Phase", "InUse(MB)", "Sys(MB)", "Idle(MB)")
	fmt.Println("---------------------------------------------+----------+----------+----------")

	for _, s := range snapshots {
		fmt.Printf("%-45s %10.1f %10.1f %10.1f\n",
			s.label, float64(s.heapInUse)/1e6, float64(s.heapSys)/1e6, float64(s.heapIdle)/1e6)
	}

	fmt.Println()
	fmt.Printf("%d edits in %s (%.0f ops/sec), final document %d bytes in %d pieces\n",
		*ops, elapsed.Round(time.Millisecond),
		float64(*ops)/elapsed.Seconds(), buffer.Length(), buffer.PieceCount())
}

func generateDocument(rng *rand.Rand, size int) *textbuf.TextBuffer {
	const alphabet = "abcdefghijklmnopqrstuvwxyz 0123456789"

	builder := textbuf.NewBuilder()
	line := make([]byte, 0, lineLength+1)

	for written := 0; written < size; {
		line = line[:0]
		for len(line) < lineLength {
			line = append(line, alphabet[rng.Intn(len(alphabet))])
		}

		line = append(line, '\n')
		builder.AcceptChunk(string(line))
		written += len(line)
	}

	return builder.Build()
}

func runEdits(rng *rand.Rand, buffer *textbuf.TextBuffer, count int) {
	payload := "piecetree bench payload\n"

	for op := 0; op < count; op++ {
		if rng.Intn(2) == 0 || buffer.Length() < maxEdit {
			offset := rng.Intn(buffer.Length() + 1)
			length := 1 + rng.Intn(maxEdit)

			if err := buffer.Insert(offset, payload[:min(length, len(payload))]); err != nil {
				log.Fatalf("insert: %v", err)
			}
		} else {
			offset := rng.Intn(buffer.Length())
			length := 1 + rng.Intn(min(maxEdit, buffer.Length()-offset))

			if err := buffer.Delete(offset, length); err != nil {
				log.Fatalf("delete: %v", err)
			}
		}
	}
}
