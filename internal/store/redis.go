package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trustlens/review-api/internal/apperrors"
	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/history"
)

// HistoryKey is the Redis list holding the history, newest at index 0.
const HistoryKey = "trustlens:history"

// maxWatchRetries bounds how often Import restarts after another client
// changed the list between its read and its write.
const maxWatchRetries = 32

// RedisHistory stores history as a list of JSON documents.
type RedisHistory struct {
	client *redis.Client
	limit  int
}

// NewRedisHistory creates a Redis-backed history capped at limit records.
func NewRedisHistory(client *redis.Client, limit int) *RedisHistory {
	return &RedisHistory{client: client, limit: normalizeLimit(limit)}
}

// Append pushes rec onto the head of the list and trims the tail in one transaction.
func (r *RedisHistory) Append(ctx context.Context, rec domain.HistoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, HistoryKey, data)
		pipe.LTrim(ctx, HistoryKey, 0, int64(r.limit-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append history: %w", err)
	}
	return nil
}

// List returns every record, newest first.
func (r *RedisHistory) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	records, _, err := r.load(ctx)
	return records, err
}

// Get returns the record with the given id.
func (r *RedisHistory) Get(ctx context.Context, id string) (domain.HistoryRecord, error) {
	records, _, err := r.load(ctx)
	if err != nil {
		return domain.HistoryRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.HistoryRecord{}, apperrors.NotFound("history record", id)
}

// Delete removes the first element whose record carries id.
func (r *RedisHistory) Delete(ctx context.Context, id string) error {
	records, raw, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i, rec := range records {
		if rec.ID != id {
			continue
		}
		removed, err := r.client.LRem(ctx, HistoryKey, 1, raw[i]).Result()
		if err != nil {
			return fmt.Errorf("redis delete history record: %w", err)
		}
		if removed == 0 {
			// Raced with another writer.
			return apperrors.NotFound("history record", id)
		}
		return nil
	}
	return apperrors.NotFound("history record", id)
}

// Clear deletes the list.
func (r *RedisHistory) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, HistoryKey).Err(); err != nil {
		return fmt.Errorf("redis clear history: %w", err)
	}
	return nil
}

// Replace rewrites the list in one transaction.
func (r *RedisHistory) Replace(ctx context.Context, records []domain.HistoryRecord) error {
	values, err := encodeRecords(capRecords(records, r.limit))
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rewriteList(ctx, pipe, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis replace history: %w", err)
	}
	return nil
}

// Import merges imported ahead of the stored list under WATCH. If another
// client writes the list before EXEC, the transaction is dropped and the
// merge starts over from a fresh read.
func (r *RedisHistory) Import(ctx context.Context, imported []domain.HistoryRecord) (int, error) {
	var total int
	txf := func(tx *redis.Tx) error {
		raw, err := tx.LRange(ctx, HistoryKey, 0, -1).Result()
		if err != nil {
			return fmt.Errorf("redis list history: %w", err)
		}
		existing, err := decodeRecords(raw)
		if err != nil {
			return err
		}

		merged := capRecords(history.Merge(imported, existing), r.limit)
		values, err := encodeRecords(merged)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			rewriteList(ctx, pipe, values)
			return nil
		})
		total = len(merged)
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := r.client.Watch(ctx, txf, HistoryKey)
		if err == nil {
			return total, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return 0, fmt.Errorf("redis import history: %w", err)
	}
	return 0, fmt.Errorf("redis import history: %w", redis.TxFailedErr)
}

// Ping checks the connection.
func (r *RedisHistory) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// load reads the whole list and returns decoded records alongside the raw
// elements they came from.
func (r *RedisHistory) load(ctx context.Context) ([]domain.HistoryRecord, []string, error) {
	raw, err := r.client.LRange(ctx, HistoryKey, 0, -1).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis list history: %w", err)
	}
	records, err := decodeRecords(raw)
	if err != nil {
		return nil, nil, err
	}
	return records, raw, nil
}

// rewriteList queues the commands that replace the list with values.
func rewriteList(ctx context.Context, pipe redis.Pipeliner, values []any) {
	pipe.Del(ctx, HistoryKey)
	if len(values) > 0 {
		pipe.RPush(ctx, HistoryKey, values...)
	}
}

func encodeRecords(records []domain.HistoryRecord) ([]any, error) {
	values := make([]any, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal history record: %w", err)
		}
		values = append(values, data)
	}
	return values, nil
}

func decodeRecords(raw []string) ([]domain.HistoryRecord, error) {
	records := make([]domain.HistoryRecord, len(raw))
	for i, s := range raw {
		if err := json.Unmarshal([]byte(s), &records[i]); err != nil {
			return nil, fmt.Errorf("unmarshal history record: %w", err)
		}
	}
	return records, nil
}
