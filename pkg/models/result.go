package models

// NodeResult is the outcome of one node in a pipeline run. It is produced
// exactly once per node per run and is immutable after creation.
//
// Skipped is distinct from failure: a skipped node never invoked its worker
// because an ancestor failed, so Error is empty and Success is false.
type NodeResult struct {
	NodeID    string `json:"node_id"`
	Output    any    `json:"output,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Skipped   bool   `json:"skipped"`
	Attempts  int    `json:"attempts"`
	LatencyMs int64  `json:"latency_ms"`
}

// PipelineResult aggregates the results of a full pipeline run. Success is
// true iff no non-skipped node failed; skipped nodes do not by themselves
// fail the pipeline.
//
// Reason is set only when a checkpoint rejection halted the run; the
// rejected step's output is withheld and no later node executes.
type PipelineResult struct {
	PipelineName    string                `json:"pipeline_name"`
	ExecutionID     string                `json:"execution_id"`
	Outputs         map[string]NodeResult `json:"outputs"`
	FinalOutput     any                   `json:"final_output,omitempty"`
	Success         bool                  `json:"success"`
	Reason          string                `json:"reason,omitempty"`
	TotalDurationMs int64                 `json:"total_duration_ms"`
}
