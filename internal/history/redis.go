package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"fetchd/internal/config"
	"fetchd/internal/jobs"
)

// MirrorKeyPrefix prefixes every mirrored record key.
const MirrorKeyPrefix = "fetchd:finished:"

// Mirror receives a copy of each archived record.
type Mirror interface {
	Publish(ctx context.Context, rec jobs.FinishedRecord) error
	Close() error
}

// RedisMirror stores finished records as Redis hashes that expire after TTL.
type RedisMirror struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisMirror connects to the configured Redis server. It returns nil
// without error when no address is configured.
func NewRedisMirror(ctx context.Context, cfg config.History) (*RedisMirror, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	return &RedisMirror{rdb: rdb, ttl: time.Duration(cfg.RedisTTLHours) * time.Hour}, nil
}

// MirrorKey returns the hash key for id.
func MirrorKey(id jobs.GID) string {
	return MirrorKeyPrefix + id.String()
}

// Publish writes rec and refreshes its expiry in one transaction.
func (m *RedisMirror) Publish(ctx context.Context, rec jobs.FinishedRecord) error {
	fields, err := MirrorFields(rec)
	if err != nil {
		return err
	}
	key := MirrorKey(rec.ID)
	_, err = m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if m.ttl > 0 {
			pipe.Expire(ctx, key, m.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror record %s: %w", rec.ID, err)
	}
	return nil
}

// Close releases the client.
func (m *RedisMirror) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// MirrorFields flattens rec into hash fields. Empty optional fields are
// omitted.
func MirrorFields(rec jobs.FinishedRecord) (map[string]any, error) {
	fields := map[string]any{
		"gid":              rec.ID.String(),
		"status":           string(rec.Result),
		"error_code":       strconv.Itoa(rec.ErrorCode),
		"total_length":     strconv.FormatInt(rec.TotalLength, 10),
		"completed_length": strconv.FormatInt(rec.CompletedLength, 10),
		"upload_length":    strconv.FormatInt(rec.UploadLength, 10),
		"finished_at":      rec.FinishedAt.UTC().Format(time.RFC3339),
	}
	if rec.Dir != "" {
		fields["dir"] = rec.Dir
	}
	if len(rec.Files) > 0 {
		data, err := json.Marshal(rec.Files)
		if err != nil {
			return nil, fmt.Errorf("encode files: %w", err)
		}
		fields["files"] = string(data)
	}
	if len(rec.FollowedBy) > 0 {
		ids := make([]string, 0, len(rec.FollowedBy))
		for _, id := range rec.FollowedBy {
			ids = append(ids, id.String())
		}
		data, err := json.Marshal(ids)
		if err != nil {
			return nil, fmt.Errorf("encode followed_by: %w", err)
		}
		fields["followed_by"] = string(data)
	}
	if rec.BelongsTo != 0 {
		fields["belongs_to"] = rec.BelongsTo.String()
	}
	return fields, nil
}
