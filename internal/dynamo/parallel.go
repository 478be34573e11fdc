package dynamo

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// ForEach calls fn for every index in [0, n) on up to workers goroutines
// (GOMAXPROCS when workers < 1). Indices are handed out one at a time, so
// items of uneven cost balance across workers. fn must not share mutable
// state between indices.
func ForEach(n, workers int, fn func(i int)) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= n {
					return
				}
				fn(i)
			}
		}()
	}
	wg.Wait()
}
