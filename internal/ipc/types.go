package ipc

import (
	"encoding/json"
	"time"
)

// ServiceName is the net/rpc name the daemon registers.
const ServiceName = "Fetchd"

// CallRequest carries one method call. Params is a JSON array; null or empty
// means no parameters.
type CallRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// CallResponse mirrors rpc.Response: Result holds the success value, or the
// fault struct when Fault is set.
type CallResponse struct {
	Fault       bool            `json:"fault"`
	FaultString string          `json:"fault_string,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// StatusRequest requests daemon status.
type StatusRequest struct{}

// StatusResponse reports daemon runtime information.
type StatusResponse struct {
	Running       bool      `json:"running"`
	PID           int       `json:"pid"`
	SessionID     string    `json:"session_id"`
	StartedAt     time.Time `json:"started_at"`
	Listen        string    `json:"listen,omitempty"`
	LockPath      string    `json:"lock_path"`
	DatabasePath  string    `json:"database_path"`
	LogPath       string    `json:"log_path"`
	NumActive     int       `json:"num_active"`
	NumWaiting    int       `json:"num_waiting"`
	NumStopped    int       `json:"num_stopped"`
	DownloadSpeed int64     `json:"download_speed"`
	UploadSpeed   int64     `json:"upload_speed"`
	DownloadLimit int64     `json:"download_limit"`
	UploadLimit   int64     `json:"upload_limit"`
}

// LogTailRequest selects daemon log lines. A negative Offset returns the
// last Limit lines. GID and Match narrow the output.
type LogTailRequest struct {
	Offset     int64  `json:"offset"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
	GID        uint64 `json:"gid,omitempty"`
	Match      string `json:"match,omitempty"`
}

// LogTailResponse returns log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Accepted bool `json:"accepted"`
}
