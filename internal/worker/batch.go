package worker

import "context"

// indexedJob tags a job with its submission slot
type indexedJob struct {
	index int
	job   Job
}

func (j indexedJob) Execute(ctx context.Context) Result {
	return indexedResult{index: j.index, Result: j.job.Execute(ctx)}
}

type indexedResult struct {
	index int
	Result
}

// RunAll executes jobs on a pool of the given size and returns their results
// in submission order, regardless of completion order. Slots whose job never
// ran because ctx was cancelled hold nil.
func RunAll(ctx context.Context, workers int, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	pool := NewPool(ctx, workers)
	pool.Start()

	go func() {
		defer pool.Close()
		for i, job := range jobs {
			if !pool.Submit(indexedJob{index: i, job: job}) {
				return
			}
		}
	}()

	for r := range pool.Results() {
		ir := r.(indexedResult)
		results[ir.index] = ir.Result
	}
	pool.cancelFunc()

	return results
}
