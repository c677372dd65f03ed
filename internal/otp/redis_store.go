package otp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ==============================================
// REDIS STORE
// ==============================================

// RedisStore keeps OTP records in the shared Redis instance. Expiry is
// enforced twice: Redis evicts records via TTL, and Consume checks ExpiresAt
// so a record surviving past its deadline (clock skew, persistence reload)
// still reads as expired.
type RedisStore struct {
	client    *redis.Client
	txRetries int
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, txRetries: 4}
}

func (s *RedisStore) Save(ctx context.Context, key string, rec *Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode OTP record: %w", err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return n > 0, nil
}

// Consume runs the verify step inside an optimistic WATCH transaction so the
// compare and the delete-on-match commit together. A concurrent writer on the
// same key aborts the transaction and the loop retries against fresh state.
func (s *RedisStore) Consume(ctx context.Context, key, hashedCode string, maxAttempts int) error {
	for i := 0; i < s.txRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrNotFoundOrExpired
				}
				return err
			}

			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				// Unreadable record: treat as dead and clear it.
				_, delErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if delErr != nil {
					return delErr
				}
				return ErrNotFoundOrExpired
			}

			now := time.Now()
			if now.After(rec.ExpiresAt) {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrNotFoundOrExpired
			}

			// Exhaustion check precedes the comparison: an already-spent
			// record never buys one more guess.
			if rec.Attempts >= maxAttempts {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrTooManyAttempts
			}

			if subtle.ConstantTimeCompare([]byte(rec.HashedCode), []byte(hashedCode)) != 1 {
				rec.Attempts++

				ttl := time.Until(rec.ExpiresAt)
				if ttl <= 0 {
					_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return ErrNotFoundOrExpired
				}

				updated, err := json.Marshal(&rec)
				if err != nil {
					return err
				}

				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}

				if rec.Attempts >= maxAttempts {
					return ErrTooManyAttempts
				}
				return ErrInvalidCode
			}

			// Match: delete in the same transaction so the code is single-use.
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFoundOrExpired),
				errors.Is(err, ErrTooManyAttempts),
				errors.Is(err, ErrInvalidCode):
				return err
			default:
				return fmt.Errorf("%w: %v", ErrStorageFailed, err)
			}
		}

		return nil
	}

	// The record is still live; reporting it missing would mislead the
	// caller, and an infrastructure error would needlessly degrade the
	// engine off Redis. The caller can simply try again.
	return ErrConsumeContention
}
