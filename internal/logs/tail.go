package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// TailOptions selects which lines Tail returns.
type TailOptions struct {
	// Offset < 0 returns the last Limit lines; otherwise reading starts at
	// this byte position.
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	// Match, when set, drops lines it rejects.
	Match func(line string) bool
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// MatchGID keeps lines that mention gid in either console ("GID #3") or JSON
// ("gid":3) form.
func MatchGID(gid uint64) func(string) bool {
	id := strconv.FormatUint(gid, 10)
	console := "GID #" + id + " "
	jsonField := `"gid":` + id
	return func(line string) bool {
		if strings.Contains(line, console) || strings.HasSuffix(line, "GID #"+id) {
			return true
		}
		idx := strings.Index(line, jsonField)
		if idx < 0 {
			return false
		}
		rest := line[idx+len(jsonField):]
		return rest == "" || rest[0] < '0' || rest[0] > '9'
	}
}

// MatchText keeps lines containing needle.
func MatchText(needle string) func(string) bool {
	return func(line string) bool {
		return strings.Contains(line, needle)
	}
}

// Tail reads lines from path according to opts. A missing file yields no
// lines and offset zero.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	t := tailer{path: path, match: opts.Match}
	var result TailResult
	if opts.Offset < 0 {
		result, err = t.last(opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			offset = info.Size()
		}
		result, err = t.forward(offset, opts.Limit)
	}
	if err != nil {
		return TailResult{Offset: opts.Offset}, err
	}
	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return t.wait(ctx, result.Offset, opts.Limit, opts.Wait)
	}
	return result, nil
}

type tailer struct {
	path  string
	match func(string) bool
}

func (t tailer) keep(line string) bool {
	return t.match == nil || t.match(line)
}

func (t tailer) scan(offset int64, visit func(string)) (int64, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if line := scanner.Text(); t.keep(line) {
			visit(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return offset, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return offset, fmt.Errorf("determine log offset: %w", err)
	}
	return end, nil
}

// last keeps a ring of the final limit matching lines.
func (t tailer) last(limit int) (TailResult, error) {
	if limit <= 0 {
		end, err := t.scan(0, func(string) {})
		return TailResult{Offset: end}, err
	}
	ring := make([]string, limit)
	count, idx := 0, 0
	end, err := t.scan(0, func(line string) {
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return TailResult{}, err
	}
	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return TailResult{Lines: lines, Offset: end}, nil
}

// forward returns matching lines after offset; a positive limit keeps the
// earliest limit lines.
func (t tailer) forward(offset int64, limit int) (TailResult, error) {
	var lines []string
	end, err := t.scan(offset, func(line string) {
		if limit <= 0 || len(lines) < limit {
			lines = append(lines, line)
		}
	})
	if err != nil {
		return TailResult{Offset: offset}, err
	}
	return TailResult{Lines: lines, Offset: end}, nil
}

func (t tailer) wait(ctx context.Context, offset int64, limit int, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		result, err := t.forward(offset, limit)
		if err != nil {
			return result, err
		}
		if len(result.Lines) > 0 || time.Now().After(deadline) {
			return result, nil
		}
		offset = result.Offset
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
	}
}
