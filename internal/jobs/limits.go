package jobs

import (
	"fetchd/internal/options"
)

// SetGlobalCap sets the aggregate cap for dir in bytes per second.
func (r *Registry) SetGlobalCap(dir Direction, bytesPerSecond int64) {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}
	switch dir {
	case Upload:
		r.uploadCap = bytesPerSecond
	default:
		r.downloadCap = bytesPerSecond
	}
}

// GlobalCap returns the aggregate cap for dir; zero is unlimited.
func (r *Registry) GlobalCap(dir Direction) int64 {
	if dir == Upload {
		return r.uploadCap
	}
	return r.downloadCap
}

// ChangeTaskOptions applies a validated per-task overlay to a live task,
// refreshes its caps and pushes bt-max-peers into an attached runtime.
func (r *Registry) ChangeTaskOptions(id GID, changes options.Values) error {
	t, err := r.Find(id)
	if err != nil {
		return err
	}
	t.Options.Merge(changes)
	t.refreshCaps()
	if n, ok := changes.Int64(options.BTMaxPeers); ok {
		if rt, attached := r.runtimes[id]; attached {
			rt.SetMaxPeers(int(n))
		}
	}
	return nil
}

// ChangeGlobalOptions applies a validated global overlay and refreshes the
// aggregate caps.
func (r *Registry) ChangeGlobalOptions(changes options.Values) {
	r.global.Merge(changes)
	if n, ok := changes.Int64(options.MaxOverallDownloadLimit); ok {
		r.SetGlobalCap(Download, n)
	}
	if n, ok := changes.Int64(options.MaxOverallUploadLimit); ok {
		r.SetGlobalCap(Upload, n)
	}
}

// GlobalOptions returns a copy of the global overlay.
func (r *Registry) GlobalOptions() options.Values {
	return r.global.Clone()
}
