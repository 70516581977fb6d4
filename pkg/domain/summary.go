package domain

// PostOutcome records what happened to one candidate post.
type PostOutcome struct {
	Post     Post
	Title    string // post title with the highlight prefix removed
	Success  bool
	Failure  FailureKind
	VideoURL string
	Asset    VideoAsset // zero unless Success
}

// RunSummary is accumulated by the pipeline across one run.
type RunSummary struct {
	RunID     string
	Attempted int
	Succeeded int
	Outcomes  []PostOutcome
}

// Record appends an outcome and updates the counters.
func (s *RunSummary) Record(outcome PostOutcome) {
	s.Attempted++
	if outcome.Success {
		s.Succeeded++
	}
	s.Outcomes = append(s.Outcomes, outcome)
}

// Failed returns the number of attempted posts that did not succeed.
func (s RunSummary) Failed() int {
	return s.Attempted - s.Succeeded
}
