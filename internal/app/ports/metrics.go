package ports

type SimulationMetrics interface {
	RecordTicks(n int)
	RecordTaskStarted(taskType string)
	RecordTaskRejected()
	RecordTaskCompleted(n int)
	RecordConflict()
	RecordFailure()
}
