package store

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/picalc/pi-calculator/internal/store/model"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "picalc:job:"

func redisJobKey(id uuid.UUID) string { return redisKeyPrefix + id.String() }

// Scripts return -1 when the key is missing, 0 when the write was ignored
// and 1 when it was applied.
var (
	createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

	progressScript = redis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if not state then return -1 end
if state ~= 'queued' and state ~= 'running' then return 0 end
local current = tonumber(redis.call('HGET', KEYS[1], 'progress') or '0')
if tonumber(ARGV[1]) < current then return 0 end
redis.call('HSET', KEYS[1], 'state', 'running', 'progress', ARGV[1], 'updated_at', ARGV[2])
return 1
`)

	terminateScript = redis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if not state then return -1 end
if state ~= 'queued' and state ~= 'running' then return 0 end
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
local ttl = tonumber(ARGV[1])
if ttl > 0 then redis.call('PEXPIRE', KEYS[1], ttl) end
return 1
`)

	cancelScript = redis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if not state then return -1 end
if state == 'queued' or state == 'running' then
  redis.call('HSET', KEYS[1], 'cancel_requested', '1', 'updated_at', ARGV[1])
end
return 1
`)
)

// RedisJobStatusStore keeps job statuses as Redis hashes. Terminal statuses
// expire after the retention period instead of being reaped.
type RedisJobStatusStore struct {
	client    redis.UniversalClient
	retention time.Duration
}

var _ JobStatus = (*RedisJobStatusStore)(nil)

func NewRedisJobStatusStore(client redis.UniversalClient, retention time.Duration) JobStatus {
	return &RedisJobStatusStore{client: client, retention: retention}
}

func (s *RedisJobStatusStore) Close() error {
	return s.client.Close()
}

func (s *RedisJobStatusStore) Create(ctx context.Context, id uuid.UUID, digits int) error {
	now := formatTime(time.Now())
	applied, err := createScript.Run(ctx, s.client, []string{redisJobKey(id)},
		"digits", digits,
		"state", model.JobStatusQueued,
		"progress", "0",
		"cancelled", "0",
		"cancel_requested", "0",
		"created_at", now,
		"updated_at", now,
	).Int()
	if err != nil {
		return fmt.Errorf("creating job status: %w", err)
	}
	if applied == 0 {
		return ErrDuplicateKey
	}
	return nil
}

func (s *RedisJobStatusStore) Get(ctx context.Context, id uuid.UUID) (*model.JobStatus, error) {
	fields, err := s.client.HGetAll(ctx, redisJobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("querying job status: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrRecordNotFound
	}
	return statusFromHash(id, fields)
}

func (s *RedisJobStatusStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) error {
	if math.IsNaN(progress) || progress < 0 || progress > 1 {
		return fmt.Errorf("%w: progress %v out of [0, 1]", ErrInvalidUpdate, progress)
	}
	applied, err := progressScript.Run(ctx, s.client, []string{redisJobKey(id)},
		strconv.FormatFloat(progress, 'g', -1, 64),
		formatTime(time.Now()),
	).Int()
	if err != nil {
		return fmt.Errorf("updating job progress: %w", err)
	}
	return scriptResult(applied)
}

func (s *RedisJobStatusStore) Finish(ctx context.Context, id uuid.UUID, result string) error {
	now := formatTime(time.Now())
	return s.terminate(ctx, id,
		"state", model.JobStatusFinished,
		"progress", "1",
		"result", result,
		"finished_at", now,
		"updated_at", now,
	)
}

func (s *RedisJobStatusStore) Fail(ctx context.Context, id uuid.UUID, cause string, cancelled bool) error {
	now := formatTime(time.Now())
	return s.terminate(ctx, id,
		"state", model.JobStatusFailed,
		"error", cause,
		"cancelled", formatBool(cancelled),
		"finished_at", now,
		"updated_at", now,
	)
}

func (s *RedisJobStatusStore) RequestCancel(ctx context.Context, id uuid.UUID) (*model.JobStatus, error) {
	applied, err := cancelScript.Run(ctx, s.client, []string{redisJobKey(id)}, formatTime(time.Now())).Int()
	if err != nil {
		return nil, fmt.Errorf("requesting job cancellation: %w", err)
	}
	if err := scriptResult(applied); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *RedisJobStatusStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.Del(ctx, redisJobKey(id)).Result()
	if err != nil {
		return fmt.Errorf("deleting job status: %w", err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteExpired is a no-op: terminal hashes carry a TTL.
func (s *RedisJobStatusStore) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (s *RedisJobStatusStore) terminate(ctx context.Context, id uuid.UUID, fields ...any) error {
	args := append([]any{s.retention.Milliseconds()}, fields...)
	applied, err := terminateScript.Run(ctx, s.client, []string{redisJobKey(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("writing terminal job status: %w", err)
	}
	return scriptResult(applied)
}

func scriptResult(applied int) error {
	if applied < 0 {
		return ErrRecordNotFound
	}
	return nil
}

func statusFromHash(id uuid.UUID, fields map[string]string) (*model.JobStatus, error) {
	status := &model.JobStatus{
		ID:              id,
		State:           fields["state"],
		Cancelled:       fields["cancelled"] == "1",
		CancelRequested: fields["cancel_requested"] == "1",
	}

	var err error
	if status.Digits, err = strconv.Atoi(fields["digits"]); err != nil {
		return nil, fmt.Errorf("decoding digits of job %s: %w", id, err)
	}
	if status.Progress, err = strconv.ParseFloat(fields["progress"], 64); err != nil {
		return nil, fmt.Errorf("decoding progress of job %s: %w", id, err)
	}
	if v, ok := fields["result"]; ok {
		status.Result = &v
	}
	if v, ok := fields["error"]; ok {
		status.Error = &v
	}

	status.CreatedAt, err = parseTime(fields["created_at"])
	if err != nil {
		return nil, err
	}
	status.UpdatedAt, err = parseTime(fields["updated_at"])
	if err != nil {
		return nil, err
	}
	if v, ok := fields["finished_at"]; ok {
		t, err := parseTime(v)
		if err != nil {
			return nil, err
		}
		status.FinishedAt = &t
	}

	return status, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding timestamp %q: %w", v, err)
	}
	return t, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
