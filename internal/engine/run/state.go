package run

// State is the pipeline's position between trigger and summary.
type State string

const (
	StateIdle         State = "idle"
	StateScanning     State = "scanning"
	StateMapped       State = "mapped"
	StateProvisioning State = "provisioning"
	StateRewriting    State = "rewriting"
	StateReporting    State = "reporting"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Terminal reports whether a new run may start from this state.
func (s State) Terminal() bool {
	return s == StateIdle || s == StateDone || s == StateFailed
}
