package screen

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Runner analyzes every (protein, compound) pair of a sample table and
// writes one record per pair. A failure in one pair is written as a
// diagnostic row and logged; it never stops the batch.
type Runner struct {
	Samples *Samples
	Config  Config
	Writer  *Writer

	// OnOutcome, if set, receives every successful outcome, one at a time.
	OnOutcome func(*Outcome)
}

// Summary counts what a Run did.
type Summary struct {
	Pairs     int // pairs with samples
	Fitted    int // pairs whose fit converged
	NoFit     int // pairs analyzed without a converged fit
	Failed    int // pairs written as diagnostics
	Cancelled bool
}

type pair struct {
	index   int
	protein string
	cpd     string
}

type pairResult struct {
	pair
	outcome *Outcome
	err     error
}

// pairs lists the pairs in output order: proteins, then compounds, each in
// order of first appearance.
func (s *Samples) pairs() []pair {
	var out []pair
	for _, protein := range s.Proteins() {
		for _, cpd := range s.Compounds() {
			out = append(out, pair{index: len(out), protein: protein, cpd: cpd})
		}
	}
	return out
}

// Run processes all pairs. Records are written in pair order regardless of
// how many workers run. The returned error is only for failures that end
// the whole run: an unwritable output, or cancellation of ctx, in which case
// the pairs already written stand.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	concurrency := r.Config.Workers
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(chan pairResult, concurrency)
	doneListening := make(chan error)
	go func() {
		// Serialize results and restore pair order before writing.
		var writeErr error
		pending := make(map[int]pairResult)
		next := 0
		for res := range results {
			pending[res.index] = res
			for {
				res, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++

				if writeErr == nil {
					writeErr = r.emit(res, &summary)
				}
			}
		}
		doneListening <- writeErr
	}()

	semaphore := make(chan struct{}, concurrency)

	cancelled := false
	for _, p := range r.Samples.pairs() {
		if ctx.Err() != nil {
			cancelled = true
			// Keep the ordering goroutine moving past pairs that never ran.
			results <- pairResult{pair: p, err: ErrNoSamples}
			continue
		}

		// Will block after `concurrency` simultaneous goroutines are running
		semaphore <- struct{}{}

		go func(p pair) {
			// Be sure to permit unblocking once we finish
			defer func() { <-semaphore }()

			res := pairResult{pair: p}
			defer func() {
				if rec := recover(); rec != nil {
					res.outcome, res.err = nil, fmt.Errorf("panic: %v", rec)
				}
				results <- res
			}()

			exp, err := r.Samples.Experiment(p.protein, p.cpd)
			if err != nil {
				res.err = err
				return
			}
			res.outcome, res.err = r.Samples.Process(exp, r.Config)
		}(p)
	}

	// Make sure we don't exit until the final goroutines are done
	for i := 0; i < cap(semaphore); i++ {
		semaphore <- struct{}{}
	}

	close(results)
	err := <-doneListening
	summary.Cancelled = cancelled
	if err == nil && cancelled {
		err = ctx.Err()
	}

	return summary, err
}

func (r *Runner) emit(res pairResult, summary *Summary) error {
	if errors.Is(res.err, ErrNoSamples) {
		return nil
	}
	summary.Pairs++

	if res.err != nil {
		summary.Failed++
		log.Printf("%s : %s: %v\n", res.protein, res.cpd, res.err)
		return r.Writer.Write(FailedRecord(res.protein, res.cpd, res.err))
	}

	if res.outcome.ControlErr != nil {
		log.Printf("%s : %s: control wells: %v\n", res.protein, res.cpd, res.outcome.ControlErr)
	}

	if res.outcome.Fit.Converged() {
		summary.Fitted++
	} else {
		summary.NoFit++
	}

	if r.OnOutcome != nil {
		r.OnOutcome(res.outcome)
	}

	return r.Writer.Write(NewRecord(res.outcome))
}
