package jobs

import (
	"fmt"

	"fetchd/internal/services"
)

// RecordFinished moves a live task into the finished collection. The record's
// identity and link fields are taken from the task at this moment; zero-valued
// totals and paths are filled from the task as well.
func (r *Registry) RecordFinished(id GID, rec FinishedRecord) (FinishedRecord, error) {
	t, err := r.detachLive(id)
	if err != nil {
		return FinishedRecord{}, err
	}
	rec.ID = id
	rec.FollowedBy = append([]GID(nil), t.FollowedBy...)
	rec.BelongsTo = t.BelongsTo
	if rec.Result == "" {
		rec.Result = ResultComplete
	}
	if rec.TotalLength == 0 {
		rec.TotalLength = t.Files.TotalLength()
	}
	if rec.CompletedLength == 0 {
		rec.CompletedLength = t.CompletedLength
	}
	if rec.UploadLength == 0 {
		rec.UploadLength = t.UploadLength
	}
	if rec.Dir == "" {
		rec.Dir = t.Dir()
	}
	if rec.Files == nil {
		rec.Files = t.Files.Paths()
	}
	if rec.URIs == nil {
		for _, entry := range t.Files.Entries {
			rec.URIs = append(rec.URIs, entry.URIs...)
		}
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = r.now()
	}
	rec = rec.clone()

	r.storeFinished(rec)
	for _, fn := range r.onFinal {
		fn(rec.clone())
	}
	return rec.clone(), nil
}

// Remove stops a live task, recording it with ResultRemoved.
func (r *Registry) Remove(id GID) (FinishedRecord, error) {
	return r.RecordFinished(id, FinishedRecord{Result: ResultRemoved})
}

func (r *Registry) detachLive(id GID) (*Task, error) {
	if t, ok := r.active[id]; ok {
		delete(r.active, id)
		delete(r.runtimes, id)
		for i, other := range r.activeOrder {
			if other == id {
				r.activeOrder = append(r.activeOrder[:i], r.activeOrder[i+1:]...)
				break
			}
		}
		return t, nil
	}
	if t, err := r.RemovePending(id); err == nil {
		return t, nil
	}
	return nil, services.Wrap(services.ErrNotFound, "jobs", "record finished",
		fmt.Sprintf("gid %s is not live", id), nil)
}

func (r *Registry) storeFinished(rec FinishedRecord) {
	if _, exists := r.finished[rec.ID]; !exists {
		r.finishedOrder = append(r.finishedOrder, rec.ID)
	}
	r.finished[rec.ID] = rec
	r.trimFinished()
}

func (r *Registry) trimFinished() {
	if r.finishedLimit <= 0 {
		return
	}
	for len(r.finishedOrder) > r.finishedLimit {
		oldest := r.finishedOrder[0]
		r.finishedOrder = r.finishedOrder[1:]
		delete(r.finished, oldest)
	}
}

// FindFinished returns a copy of the finished record for id.
func (r *Registry) FindFinished(id GID) (FinishedRecord, error) {
	rec, ok := r.finished[id]
	if !ok {
		return FinishedRecord{}, notFound("find finished", id)
	}
	return rec.clone(), nil
}

// ListFinished returns copies of finished records, oldest first.
func (r *Registry) ListFinished() []FinishedRecord {
	out := make([]FinishedRecord, 0, len(r.finishedOrder))
	for _, id := range r.finishedOrder {
		out = append(out, r.finished[id].clone())
	}
	return out
}

// RestoreFinished loads records archived by a previous process, oldest first.
// Records whose id is already known are skipped. The id counter moves past
// every restored id. It returns the number of records loaded.
func (r *Registry) RestoreFinished(records []FinishedRecord) int {
	loaded := 0
	for _, rec := range records {
		if rec.ID == 0 {
			continue
		}
		if _, err := r.Find(rec.ID); err == nil {
			continue
		}
		if _, ok := r.finished[rec.ID]; ok {
			continue
		}
		r.storeFinished(rec.clone())
		if rec.ID >= r.nextID {
			r.nextID = rec.ID + 1
		}
		loaded++
	}
	return loaded
}
