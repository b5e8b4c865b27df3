package trampoline

// Stats is a snapshot of an engine's counters, see [Engine.Stats].
type Stats struct {
	// Drains is the number of drain passes started.
	Drains uint64
	// Callbacks is the number of callback entries run by drains.
	Callbacks uint64
	// Settlements is the number of settlement entries run by drains.
	Settlements uint64
	// Rearms is the number of drains armed by a previous pass, because work
	// remained after it.
	Rearms uint64
	// DirectDispatches is the number of operations that bypassed the queues,
	// because trampolining was disabled.
	DirectDispatches uint64
	// ScheduleErrors is the number of drains the scheduler rejected.
	ScheduleErrors uint64
}
