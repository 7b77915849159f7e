package inmemory

import "sync"

type Snapshot struct {
	Ticks          uint64            `json:"ticks"`
	TaskStarted    uint64            `json:"task_started"`
	TaskRejected   uint64            `json:"task_rejected"`
	TaskCompleted  uint64            `json:"task_completed"`
	SaveConflict   uint64            `json:"save_conflict"`
	Failure        uint64            `json:"failure"`
	StartsByType   map[string]uint64 `json:"starts_by_type"`
	StartAcceptPct float64           `json:"start_accept_pct"`
}

type Recorder struct {
	mu        sync.Mutex
	ticks     uint64
	started   uint64
	rejected  uint64
	completed uint64
	conflict  uint64
	failure   uint64
	byType    map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byType: map[string]uint64{},
	}
}

func (r *Recorder) RecordTicks(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks += uint64(n)
}

func (r *Recorder) RecordTaskStarted(taskType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	r.byType[taskType]++
}

func (r *Recorder) RecordTaskRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *Recorder) RecordTaskCompleted(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed += uint64(n)
}

func (r *Recorder) RecordConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflict++
}

func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		Ticks:         r.ticks,
		TaskStarted:   r.started,
		TaskRejected:  r.rejected,
		TaskCompleted: r.completed,
		SaveConflict:  r.conflict,
		Failure:       r.failure,
		StartsByType:  make(map[string]uint64, len(r.byType)),
	}
	if attempts := r.started + r.rejected; attempts > 0 {
		out.StartAcceptPct = float64(r.started) * 100 / float64(attempts)
	}
	for k, v := range r.byType {
		out.StartsByType[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
