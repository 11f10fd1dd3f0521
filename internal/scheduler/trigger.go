package scheduler

// Trigger identifies what caused a check.
type Trigger int

const (
	// TriggerStartup fires once, shortly after Start.
	TriggerStartup Trigger = iota
	// TriggerInterval fires on the recurring interval.
	TriggerInterval
	// TriggerVisible fires when the host becomes visible again.
	TriggerVisible
	// TriggerReconnect fires when the network comes back online.
	TriggerReconnect
	// TriggerPush fires when the deployment announces a new build.
	TriggerPush
	// TriggerManual is an explicit user request.
	TriggerManual
)

func (t Trigger) String() string {
	switch t {
	case TriggerStartup:
		return "startup"
	case TriggerInterval:
		return "interval"
	case TriggerVisible:
		return "visible"
	case TriggerReconnect:
		return "reconnect"
	case TriggerPush:
		return "push"
	case TriggerManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Automatic reports whether the trigger fired without an explicit user request.
func (t Trigger) Automatic() bool {
	return t != TriggerManual
}
