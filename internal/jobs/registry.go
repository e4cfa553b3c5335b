package jobs

import (
	"fmt"
	"time"

	"fetchd/internal/options"
	"fetchd/internal/services"
)

// DefaultFinishedLimit bounds the finished collection unless overridden.
const DefaultFinishedLimit = 1000

// Registry owns every task and finished record.
type Registry struct {
	pending []*Task

	active      map[GID]*Task
	activeOrder []GID

	finished      map[GID]FinishedRecord
	finishedOrder []GID
	finishedLimit int

	runtimes map[GID]PeerRuntime

	global      options.Values
	downloadCap int64
	uploadCap   int64

	nextID  GID
	now     func() time.Time
	onFinal []func(FinishedRecord)
}

// NewRegistry returns an empty registry whose counter starts at 1.
func NewRegistry() *Registry {
	return &Registry{
		active:        make(map[GID]*Task),
		finished:      make(map[GID]FinishedRecord),
		finishedLimit: DefaultFinishedLimit,
		runtimes:      make(map[GID]PeerRuntime),
		global:        options.Values{},
		nextID:        1,
		now:           time.Now,
	}
}

// SetFinishedLimit bounds how many finished records are retained in memory;
// the oldest are evicted first. n <= 0 disables the bound.
func (r *Registry) SetFinishedLimit(n int) {
	r.finishedLimit = n
	r.trimFinished()
}

// OnFinished registers fn to observe every record as it is created.
func (r *Registry) OnFinished(fn func(FinishedRecord)) {
	if fn != nil {
		r.onFinal = append(r.onFinal, fn)
	}
}

// ResetGIDCounter restarts id assignment at 1. Test and bootstrap use only.
func (r *Registry) ResetGIDCounter() {
	r.nextID = 1
}

func (r *Registry) assign(t *Task) GID {
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	if t.Options == nil {
		t.Options = options.Values{}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now()
	}
	return t.ID
}

// AddPending appends t to the tail of pending and returns its id.
func (r *Registry) AddPending(t *Task) GID {
	id := r.assign(t)
	r.pending = append(r.pending, t)
	return id
}

// InsertPending inserts tasks at pos, preserving their relative order. A
// position past the tail appends.
func (r *Registry) InsertPending(pos int, tasks ...*Task) ([]GID, error) {
	if pos < 0 {
		return nil, services.Wrap(services.ErrInvalidArgument, "jobs", "insert pending",
			fmt.Sprintf("position %d is negative", pos), nil)
	}
	if pos > len(r.pending) {
		pos = len(r.pending)
	}
	ids := make([]GID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, r.assign(t))
	}
	rest := append([]*Task(nil), r.pending[pos:]...)
	r.pending = append(append(r.pending[:pos], tasks...), rest...)
	return ids, nil
}

func (r *Registry) pendingIndex(id GID) int {
	for i, t := range r.pending {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FindPending returns the pending task with id.
func (r *Registry) FindPending(id GID) (*Task, error) {
	if i := r.pendingIndex(id); i >= 0 {
		return r.pending[i], nil
	}
	return nil, notFound("find pending", id)
}

// ListPending returns the live pending sequence. Callers must not modify it.
func (r *Registry) ListPending() []*Task {
	return r.pending
}

// RemovePending detaches the task with id from pending.
func (r *Registry) RemovePending(id GID) (*Task, error) {
	i := r.pendingIndex(id)
	if i < 0 {
		return nil, notFound("remove pending", id)
	}
	t := r.pending[i]
	r.pending = append(r.pending[:i], r.pending[i+1:]...)
	return t, nil
}

// Activate promotes a pending task to the active collection.
func (r *Registry) Activate(id GID) (*Task, error) {
	t, err := r.RemovePending(id)
	if err != nil {
		return nil, err
	}
	r.active[id] = t
	r.activeOrder = append(r.activeOrder, id)
	return t, nil
}

// FindActive returns the active task with id.
func (r *Registry) FindActive(id GID) (*Task, error) {
	if t, ok := r.active[id]; ok {
		return t, nil
	}
	return nil, notFound("find active", id)
}

// ListActive returns active tasks in activation order.
func (r *Registry) ListActive() []*Task {
	out := make([]*Task, 0, len(r.activeOrder))
	for _, id := range r.activeOrder {
		out = append(out, r.active[id])
	}
	return out
}

// Find returns a live task from pending or active.
func (r *Registry) Find(id GID) (*Task, error) {
	if t, ok := r.active[id]; ok {
		return t, nil
	}
	if i := r.pendingIndex(id); i >= 0 {
		return r.pending[i], nil
	}
	return nil, notFound("find", id)
}

// AttachRuntime binds a live peer runtime to an active task.
func (r *Registry) AttachRuntime(id GID, rt PeerRuntime) error {
	t, err := r.FindActive(id)
	if err != nil {
		return err
	}
	r.runtimes[id] = rt
	if n, ok := t.Options.Int64(options.BTMaxPeers); ok {
		rt.SetMaxPeers(int(n))
	}
	return nil
}

// Runtime returns the peer runtime attached to id, if any.
func (r *Registry) Runtime(id GID) (PeerRuntime, bool) {
	rt, ok := r.runtimes[id]
	return rt, ok
}

// UpdateProgress records engine counters for an active task.
func (r *Registry) UpdateProgress(id GID, completed, uploaded, downSpeed, upSpeed int64) error {
	t, err := r.FindActive(id)
	if err != nil {
		return err
	}
	t.CompletedLength = completed
	t.UploadLength = uploaded
	t.DownloadSpeed = downSpeed
	t.UploadSpeed = upSpeed
	return nil
}

// Stats summarizes collection sizes, caps and aggregate speeds.
func (r *Registry) Stats() Stats {
	s := Stats{
		NumActive:   len(r.active),
		NumWaiting:  len(r.pending),
		NumStopped:  len(r.finished),
		DownloadCap: r.downloadCap,
		UploadCap:   r.uploadCap,
	}
	for _, t := range r.active {
		s.DownloadSpeed += t.DownloadSpeed
		s.UploadSpeed += t.UploadSpeed
	}
	return s
}

func notFound(op string, id GID) error {
	return services.Wrap(services.ErrNotFound, "jobs", op, fmt.Sprintf("gid %s not found", id), nil)
}
