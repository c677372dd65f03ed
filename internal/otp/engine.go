package otp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arstudios/protend/internal/auth"
)

// connectProbeTimeout bounds the construction-time reachability ping so a
// down Redis can't stall startup.
const connectProbeTimeout = 2 * time.Second

// Sender delivers a plaintext code to a recipient. It must return an error
// rather than panic, and fail fast when the mail channel is not configured.
type Sender interface {
	SendOTP(ctx context.Context, email, code string, purpose Purpose) error
}

// ==============================================
// ENGINE
// ==============================================

// Engine issues and verifies one-time codes. It prefers the shared Redis
// store; after the first storage failure it switches permanently (for this
// process) to the in-memory fallback instead of paying a timeout on every
// subsequent call.
type Engine struct {
	shared   Store
	fallback *MemoryStore
	sender   Sender
	logger   *zap.Logger
	degraded atomic.Bool

	now func() time.Time
}

// NewEngine probes the shared store and wires the fallback. A nil client or a
// failed probe starts the engine degraded; everything still works, codes just
// don't survive a process restart.
func NewEngine(client *redis.Client, sender Sender, logger *zap.Logger) *Engine {
	e := &Engine{
		fallback: NewMemoryStore(),
		sender:   sender,
		logger:   logger,
		now:      time.Now,
	}

	if client == nil {
		e.degraded.Store(true)
		logger.Warn("otp: no shared store configured, using in-memory fallback")
		return e
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectProbeTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		e.degraded.Store(true)
		logger.Warn("otp: shared store unreachable, using in-memory fallback", zap.Error(err))
		return e
	}

	e.shared = NewRedisStore(client)
	return e
}

func (e *Engine) store() Store {
	if e.degraded.Load() || e.shared == nil {
		return e.fallback
	}
	return e.shared
}

// degrade flips the engine onto the fallback store for the rest of the
// process lifetime. Logged once; later calls are no-ops.
func (e *Engine) degrade(err error) {
	if e.degraded.CompareAndSwap(false, true) {
		e.logger.Warn("otp: shared store failed, degrading to in-memory fallback", zap.Error(err))
	}
}

// Degraded reports whether the engine has fallen back to in-process storage.
func (e *Engine) Degraded() bool {
	return e.degraded.Load()
}

// ==============================================
// OPERATIONS
// ==============================================

// Issue generates a fresh code for (purpose, recipient), stores its hash with
// the full StoreTTL, and triggers delivery. Any prior record under the same
// key is overwritten, which invalidates the earlier code. A delivery failure
// leaves the record in place and is reported as ErrDeliveryFailed; the next
// Issue simply overwrites it.
func (e *Engine) Issue(ctx context.Context, email string, purpose Purpose) error {
	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}

	now := e.now()
	rec := &Record{
		HashedCode: auth.HashOTP(code),
		CreatedAt:  now,
		ExpiresAt:  now.Add(StoreTTL),
		Attempts:   0,
		Purpose:    string(purpose),
	}

	key := Key(purpose, email)
	if err := e.store().Save(ctx, key, rec, StoreTTL); err != nil {
		if !errors.Is(err, ErrStorageFailed) {
			return err
		}
		e.degrade(err)
		if err := e.fallback.Save(ctx, key, rec, StoreTTL); err != nil {
			return err
		}
	}

	if err := e.sender.SendOTP(ctx, email, code, purpose); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return nil
}

// Verify checks a submitted code against the live challenge for
// (purpose, recipient). Outcomes:
//
//   - nil: match; the record is gone and the code cannot be used again
//   - ErrInvalidCode: wrong guess, one attempt consumed, challenge still live
//   - ErrTooManyAttempts: attempt limit reached, challenge invalidated
//   - ErrNotFoundOrExpired: no live challenge
//
// The submitted code is treated as an opaque string and compared only through
// its hash.
func (e *Engine) Verify(ctx context.Context, email, code string, purpose Purpose) error {
	key := Key(purpose, email)
	hashed := auth.HashOTP(code)

	err := e.store().Consume(ctx, key, hashed, MaxAttempts)
	if errors.Is(err, ErrStorageFailed) {
		e.degrade(err)
		return e.fallback.Consume(ctx, key, hashed, MaxAttempts)
	}
	return err
}

// Status reports whether a live challenge exists for (purpose, recipient).
// Pure probe: no attempt is consumed.
func (e *Engine) Status(ctx context.Context, email string, purpose Purpose) bool {
	ok, err := e.store().Exists(ctx, Key(purpose, email))
	if errors.Is(err, ErrStorageFailed) {
		e.degrade(err)
		ok, _ = e.fallback.Exists(ctx, Key(purpose, email))
		return ok
	}
	if err != nil {
		return false
	}
	return ok
}
