package jobs

import (
	"fmt"
	"strconv"
	"time"

	"fetchd/internal/fileset"
	"fetchd/internal/options"
	"fetchd/internal/services"
)

// GID identifies a task for the lifetime of the process. Zero means unset.
type GID uint64

func (g GID) String() string {
	return strconv.FormatUint(uint64(g), 10)
}

// ParseGID parses the decimal text form used on the wire.
func ParseGID(raw string) (GID, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, services.Wrap(services.ErrValidation, "jobs", "parse gid",
			fmt.Sprintf("invalid gid %q", raw), nil)
	}
	return GID(n), nil
}

// Task is one download unit.
type Task struct {
	ID      GID
	Files   fileset.Set
	Options options.Values

	// Per-task transfer caps in bytes per second; zero is unlimited.
	DownloadCap int64
	UploadCap   int64

	FollowedBy []GID
	BelongsTo  GID

	// Progress counters reported by the engine.
	CompletedLength int64
	UploadLength    int64
	DownloadSpeed   int64
	UploadSpeed     int64

	CreatedAt time.Time
}

// NewTask builds a task for files with an already validated option overlay.
func NewTask(files fileset.Set, opts options.Values) *Task {
	if opts == nil {
		opts = options.Values{}
	}
	t := &Task{Files: files, Options: opts}
	t.refreshCaps()
	return t
}

func (t *Task) refreshCaps() {
	if n, ok := t.Options.Int64(options.MaxDownloadLimit); ok {
		t.DownloadCap = n
	}
	if n, ok := t.Options.Int64(options.MaxUploadLimit); ok {
		t.UploadCap = n
	}
}

// Dir returns the directory the task writes into.
func (t *Task) Dir() string {
	if dir := t.Options.Get(options.Dir); dir != "" {
		return dir
	}
	return t.Files.Dir
}

// Result classifies how a task left the live pool.
type Result string

const (
	ResultComplete Result = "complete"
	ResultError    Result = "error"
	ResultRemoved  Result = "removed"
)

// FinishedRecord is an immutable snapshot of a task that has left the live
// pool. Slices are private copies.
type FinishedRecord struct {
	ID              GID
	Result          Result
	ErrorCode       int
	TotalLength     int64
	CompletedLength int64
	UploadLength    int64
	Dir             string
	Files           []string
	URIs            []string
	FollowedBy      []GID
	BelongsTo       GID
	FinishedAt      time.Time
}

func (r FinishedRecord) clone() FinishedRecord {
	out := r
	out.Files = append([]string(nil), r.Files...)
	out.URIs = append([]string(nil), r.URIs...)
	out.FollowedBy = append([]GID(nil), r.FollowedBy...)
	return out
}

// PeerRuntime is the live BitTorrent object of an active task.
type PeerRuntime interface {
	MaxPeers() int
	SetMaxPeers(n int)
}

// Direction selects a transfer direction for aggregate caps.
type Direction int

const (
	Download Direction = iota
	Upload
)

func (d Direction) String() string {
	if d == Upload {
		return "upload"
	}
	return "download"
}

// Stats summarizes registry occupancy and caps.
type Stats struct {
	NumActive     int
	NumWaiting    int
	NumStopped    int
	DownloadCap   int64
	UploadCap     int64
	DownloadSpeed int64
	UploadSpeed   int64
}
