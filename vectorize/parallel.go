package vectorize

import (
	"runtime"
	"sync"
)

// parallelFor splits the index range [0,n) into contiguous chunks and runs
// fn over them on up to workers goroutines. Chunks are disjoint, so fn may
// write to per-index slots of a shared slice without synchronization.
// workers <= 1 (or a range too small to be worth fanning out) runs inline.
func parallelFor(workers, n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	const minChunk = 1024
	if workers == 1 || n < minChunk*2 {
		fn(0, n)
		return
	}
	if workers > n/minChunk {
		workers = n / minChunk
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
