package capture

// Phase is the lifecycle position of a capture session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingPermission
	PhaseStreaming
	PhaseDetecting
	PhaseCaptured
	PhaseStopped
	PhaseFailed
)

var phaseNames = [...]string{
	PhaseIdle:               "idle",
	PhaseAwaitingPermission: "awaiting_permission",
	PhaseStreaming:          "streaming",
	PhaseDetecting:          "detecting",
	PhaseCaptured:           "captured",
	PhaseStopped:            "stopped",
	PhaseFailed:             "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseStopped || p == PhaseFailed
}

