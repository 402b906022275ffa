// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Result     uint16
	SWDStatus  uint16
	Attempts   uint16
	IDCode     uint32
	DurationMs uint32
	Unit       uint32
	Session    uint32
	Heartbeat  uint16
}

// Idle is the snapshot published before any run completes.
func Idle(session uint32) Snapshot {
	return Snapshot{Result: ResultNone, Session: session}
}
