package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisEngine(t *testing.T) (*Engine, *MockSender, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sender := &MockSender{}
	engine := NewEngine(client, sender, zap.NewNop())
	require.False(t, engine.Degraded())

	return engine, sender, mr
}

// ==============================================
// REDIS PATH: SAME PROPERTIES AS FALLBACK
// ==============================================

func TestRedis_SingleUse(t *testing.T) {
	ctx := context.Background()
	engine, sender, _ := newRedisEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	code := sender.LastCode

	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", "wrong!", PurposeLogin), ErrInvalidCode)
	assert.NoError(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin))
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin), ErrNotFoundOrExpired)
}

func TestRedis_AttemptExhaustion(t *testing.T) {
	ctx := context.Background()
	engine, sender, _ := newRedisEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	code := sender.LastCode

	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", "wrong!", PurposeLogin), ErrInvalidCode)
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", "wrong!", PurposeLogin), ErrInvalidCode)
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", "wrong!", PurposeLogin), ErrTooManyAttempts)
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin), ErrTooManyAttempts)
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin), ErrNotFoundOrExpired)
}

func TestRedis_ReissueInvalidatesPriorCode(t *testing.T) {
	ctx := context.Background()
	engine, sender, _ := newRedisEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	first := sender.LastCode

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	second := sender.LastCode

	if first != second {
		assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", first, PurposeLogin), ErrInvalidCode)
	}
	assert.NoError(t, engine.Verify(ctx, "a@x.com", second, PurposeLogin))
}

func TestRedis_TTLEviction(t *testing.T) {
	ctx := context.Background()
	engine, sender, mr := newRedisEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	assert.True(t, engine.Status(ctx, "a@x.com", PurposeLogin))

	mr.FastForward(StoreTTL + time.Second)

	assert.False(t, engine.Status(ctx, "a@x.com", PurposeLogin))
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", sender.LastCode, PurposeLogin), ErrNotFoundOrExpired)
}

// A record that outlived its ExpiresAt without being evicted (skewed clocks,
// restored snapshot) still reads as expired.
func TestRedis_StaleRecordReadsAsExpired(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newRedisEngine(t)

	now := time.Now()
	key := Key(PurposeLogin, "a@x.com")
	require.NoError(t, engine.shared.Save(ctx, key, &Record{
		HashedCode: "deadbeef",
		CreatedAt:  now.Add(-3 * time.Minute),
		ExpiresAt:  now.Add(-time.Minute),
		Purpose:    "login",
	}, StoreTTL))

	err := engine.shared.Consume(ctx, key, "deadbeef", MaxAttempts)
	assert.ErrorIs(t, err, ErrNotFoundOrExpired)
}

// A verify that keeps losing its WATCH transaction to concurrent writers must
// not report the still-live record as missing, nor as an infrastructure
// failure that would degrade the engine off Redis.
func TestRedis_ContentionIsNotReportedAsMissing(t *testing.T) {
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client)
	now := time.Now()
	key := Key(PurposeLogin, "a@x.com")
	require.NoError(t, store.Save(ctx, key, &Record{
		HashedCode: "deadbeef",
		CreatedAt:  now,
		ExpiresAt:  now.Add(StoreTTL),
		Purpose:    "login",
	}, StoreTTL))

	// Model a transaction loop in which every attempt is aborted by a
	// concurrent writer before the retry budget runs out.
	store.txRetries = 0

	err = store.Consume(ctx, key, "deadbeef", MaxAttempts)
	assert.ErrorIs(t, err, ErrConsumeContention)
	assert.NotErrorIs(t, err, ErrNotFoundOrExpired)
	assert.NotErrorIs(t, err, ErrStorageFailed)

	// The challenge is untouched and the next call can still win.
	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	store.txRetries = 1
	assert.NoError(t, store.Consume(ctx, key, "deadbeef", MaxAttempts))
}

// ==============================================
// MID-FLIGHT DEGRADATION
// ==============================================

func TestEngine_DegradesWhenSharedStoreDies(t *testing.T) {
	ctx := context.Background()
	engine, sender, mr := newRedisEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))

	// Shared store goes away mid-flight.
	mr.Close()

	// The verify against the dead store degrades the engine; the record was
	// in Redis so the fallback reports no live challenge.
	err := engine.Verify(ctx, "a@x.com", sender.LastCode, PurposeLogin)
	assert.ErrorIs(t, err, ErrNotFoundOrExpired)
	assert.True(t, engine.Degraded())

	// From here on everything runs in-process and works normally.
	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	assert.NoError(t, engine.Verify(ctx, "a@x.com", sender.LastCode, PurposeLogin))
}
