package ledger

// Run statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Step stages.
const (
	StageAlign    = "align"
	StageEstimate = "estimate"
)

// Run is one pipeline invocation.
type Run struct {
	ID         string `json:"id"`
	ConfigHash string `json:"config_hash"`
	Config     string `json:"config"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	PairCount  int    `json:"pair_count"`
}

// Step is one recorded stage for one pair. Align steps carry the gene ids and
// the codon alignment path; estimate steps carry the estimator output.
type Step struct {
	RunID     string `json:"run_id"`
	Seq       int64  `json:"seq"`
	Stage     string `json:"stage"`
	PairLabel string `json:"pair_label"`
	GeneA     string `json:"gene_a,omitempty"`
	GeneB     string `json:"gene_b,omitempty"`
	Artifact  string `json:"artifact"`
	Output    string `json:"output,omitempty"`
}
