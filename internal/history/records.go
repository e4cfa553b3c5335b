package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fetchd/internal/jobs"
)

// timestampLayout is fixed width so finished_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const recordColumns = `gid, result, error_code, total_length, completed_length, upload_length,
	dir, files_json, uris_json, followed_by_json, belongs_to, finished_at`

func formatTime(ts time.Time) string {
	return ts.UTC().Format(timestampLayout)
}

// Save inserts or replaces the archived copy of rec.
func (s *Store) Save(ctx context.Context, rec jobs.FinishedRecord) error {
	if rec.ID == 0 {
		return errors.New("history: record has no gid")
	}
	files, err := json.Marshal(nonNilStrings(rec.Files))
	if err != nil {
		return fmt.Errorf("encode files: %w", err)
	}
	uris, err := json.Marshal(nonNilStrings(rec.URIs))
	if err != nil {
		return fmt.Errorf("encode uris: %w", err)
	}
	followedBy, err := json.Marshal(gidInts(rec.FollowedBy))
	if err != nil {
		return fmt.Errorf("encode followed_by: %w", err)
	}
	finishedAt := rec.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	_, err = s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO finished_records (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(rec.ID), string(rec.Result), rec.ErrorCode, rec.TotalLength, rec.CompletedLength, rec.UploadLength,
		rec.Dir, string(files), string(uris), string(followedBy), int64(rec.BelongsTo), formatTime(finishedAt),
	)
	if err != nil {
		return fmt.Errorf("save finished record %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the archived record for id, or nil when absent.
func (s *Store) Get(ctx context.Context, id jobs.GID) (*jobs.FinishedRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM finished_records WHERE gid = ?`, int64(id))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get finished record %s: %w", id, err)
	}
	return &rec, nil
}

// Recent returns up to limit of the most recently finished records, oldest
// first. A limit <= 0 returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]jobs.FinishedRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM finished_records ORDER BY finished_at DESC, gid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list finished records: %w", err)
	}
	defer rows.Close()

	var out []jobs.FinishedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan finished record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count returns the number of archived records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM finished_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count finished records: %w", err)
	}
	return n, nil
}

// PruneBefore deletes records finished before cutoff and returns how many
// were removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM finished_records WHERE finished_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune finished records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (jobs.FinishedRecord, error) {
	var (
		rec                         jobs.FinishedRecord
		gid, belongsTo              int64
		result                      string
		files, uris, followedBy, ts string
	)
	if err := row.Scan(&gid, &result, &rec.ErrorCode, &rec.TotalLength, &rec.CompletedLength, &rec.UploadLength,
		&rec.Dir, &files, &uris, &followedBy, &belongsTo, &ts); err != nil {
		return jobs.FinishedRecord{}, err
	}
	rec.ID = jobs.GID(gid)
	rec.BelongsTo = jobs.GID(belongsTo)
	rec.Result = jobs.Result(result)
	if err := json.Unmarshal([]byte(files), &rec.Files); err != nil {
		return jobs.FinishedRecord{}, fmt.Errorf("decode files: %w", err)
	}
	if err := json.Unmarshal([]byte(uris), &rec.URIs); err != nil {
		return jobs.FinishedRecord{}, fmt.Errorf("decode uris: %w", err)
	}
	var links []uint64
	if err := json.Unmarshal([]byte(followedBy), &links); err != nil {
		return jobs.FinishedRecord{}, fmt.Errorf("decode followed_by: %w", err)
	}
	for _, id := range links {
		rec.FollowedBy = append(rec.FollowedBy, jobs.GID(id))
	}
	finishedAt, err := time.Parse(timestampLayout, ts)
	if err != nil {
		return jobs.FinishedRecord{}, fmt.Errorf("decode finished_at: %w", err)
	}
	rec.FinishedAt = finishedAt
	return rec, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func gidInts(ids []jobs.GID) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		out = append(out, uint64(id))
	}
	return out
}
