package ir

// RunStatus is the final state of a finished run.
type RunStatus string

const (
	// RunHalted means the program ran off its end.
	RunHalted RunStatus = "halted"
	// RunBlocked means the program waited for input that never came.
	RunBlocked RunStatus = "blocked"
	// RunFailed means execution stopped on a fatal error.
	RunFailed RunStatus = "failed"
	// RunCanceled means the driving loop was stopped from outside.
	RunCanceled RunStatus = "canceled"
)

// RunRecord is the outcome of one run as written to the history store.
// It holds no tape contents and is never loaded back into an engine.
type RunRecord struct {
	ID           string    `json:"id"`
	Seq          int64     `json:"seq"` // assigned by the store
	Source       string    `json:"source"`
	ProgramHash  string    `json:"program_hash"`
	Status       RunStatus `json:"status"`
	Steps        int64     `json:"steps"`
	InputBytes   int64     `json:"input_bytes"`
	Output       []byte    `json:"output"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	IRVersion    string    `json:"ir_version"`
}
