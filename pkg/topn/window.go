package topn

import (
	"cmp"
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/mapx"
)

// Window is one processing window of a partitioned stream: an ordered item
// sequence per partition id.
type Window[T cmp.Ordered] struct {
	ID         int
	Partitions map[int][]T
}

// TotalItems returns the number of items across all partitions.
func (w Window[T]) TotalItems() int {
	var total int
	for _, items := range w.Partitions {
		total += len(items)
	}

	return total
}

// RunWindow drives one window through a runner: initialize, route every
// partition's items, finalize.
//
// With parallel set, each partition is inserted on its own goroutine; this
// is safe because every partition's sketch has that goroutine as its only
// writer, and finalization happens after the barrier. Insert order within a
// partition is preserved either way, so results are identical.
func RunWindow[T cmp.Ordered](runner MethodRunner[T], w Window[T], parallel bool) (*WindowResult[T], error) {
	err := runner.InitializeSketches(w.ID)
	if err != nil {
		return nil, fmt.Errorf("window %d: initialize: %w", w.ID, err)
	}

	if parallel {
		err = insertParallel(runner, w)
	} else {
		err = insertSequential(runner, w)
	}

	if err != nil {
		return nil, fmt.Errorf("window %d: %w", w.ID, err)
	}

	result, err := runner.FinalizeWindow(w.ID)
	if err != nil {
		return nil, fmt.Errorf("window %d: finalize: %w", w.ID, err)
	}

	return result, nil
}

func insertSequential[T cmp.Ordered](runner MethodRunner[T], w Window[T]) error {
	for _, pid := range mapx.SortedKeys(w.Partitions) {
		for _, item := range w.Partitions[pid] {
			err := runner.InsertItem(pid, item)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func insertParallel[T cmp.Ordered](runner MethodRunner[T], w Window[T]) error {
	pids := mapx.SortedKeys(w.Partitions)
	errs := make([]error, len(pids))

	var wg sync.WaitGroup

	for i, pid := range pids {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for _, item := range w.Partitions[pid] {
				err := runner.InsertItem(pid, item)
				if err != nil {
					errs[i] = err

					return
				}
			}
		}()
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
