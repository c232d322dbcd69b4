package annotate

import (
	"context"

	"github.com/ppiankov/factlight/internal/model"
	"github.com/ppiankov/factlight/internal/worker"
)

// Outcome is the verdict, or the failure, for one claim
type Outcome struct {
	Index   int // ClaimRecord.Index of the claim
	Verdict model.Verdict
	Err     error
}

type verdictJob struct {
	annotator *Annotator
	claim     model.ClaimRecord
}

func (j *verdictJob) Execute(ctx context.Context) worker.Result {
	v, err := j.annotator.Annotate(ctx, j.claim.Text)
	return &verdictResult{Outcome{Index: j.claim.Index, Verdict: v, Err: err}}
}

type verdictResult struct {
	Outcome
}

func (r *verdictResult) GetError() error {
	return r.Err
}

// AnnotateAll fetches verdicts for claims using up to workers concurrent
// requests. Outcomes line up with claims; a claim whose request never ran
// because ctx ended gets ctx's error.
func (a *Annotator) AnnotateAll(ctx context.Context, claims []model.ClaimRecord, workers int) []Outcome {
	jobs := make([]worker.Job, len(claims))
	for i, c := range claims {
		jobs[i] = &verdictJob{annotator: a, claim: c}
	}

	results := worker.RunAll(ctx, workers, jobs)

	outcomes := make([]Outcome, len(claims))
	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			outcomes[i] = Outcome{Index: claims[i].Index, Err: err}
			continue
		}
		outcomes[i] = r.(*verdictResult).Outcome
	}
	return outcomes
}
