package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ==============================================
// MOCK SENDER
// ==============================================

type MockSender struct {
	mu       sync.Mutex
	LastCode string
	LastTo   string
	Sent     int
	Err      error
}

func (m *MockSender) SendOTP(_ context.Context, email, code string, _ Purpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.LastTo = email
	m.LastCode = code
	m.Sent++
	return nil
}

// newFallbackEngine builds an engine with no shared store, i.e. running on
// the in-memory path from construction.
func newFallbackEngine(t *testing.T) (*Engine, *MockSender) {
	t.Helper()
	sender := &MockSender{}
	return NewEngine(nil, sender, zap.NewNop()), sender
}

// ==============================================
// ISSUE / VERIFY PROPERTIES
// ==============================================

func TestVerify_SingleUse(t *testing.T) {
	ctx := context.Background()
	engine, sender := newFallbackEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	require.Len(t, sender.LastCode, CodeLength)

	// Correct code succeeds exactly once.
	require.NoError(t, engine.Verify(ctx, "a@x.com", sender.LastCode, PurposeLogin))

	// Second use of the same code fails: the record is gone.
	err := engine.Verify(ctx, "a@x.com", sender.LastCode, PurposeLogin)
	assert.ErrorIs(t, err, ErrNotFoundOrExpired)
}

func TestVerify_WrongThenRightScenario(t *testing.T) {
	ctx := context.Background()
	engine, sender := newFallbackEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	code := sender.LastCode

	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", "000000", PurposeLogin), ErrInvalidCode)
	assert.NoError(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin))
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin), ErrNotFoundOrExpired)
}

func TestVerify_AttemptExhaustion(t *testing.T) {
	ctx := context.Background()
	engine, sender := newFallbackEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	code := sender.LastCode

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", wrong, PurposeLogin), ErrInvalidCode)
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", wrong, PurposeLogin), ErrInvalidCode)

	// Third wrong guess spends the budget.
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", wrong, PurposeLogin), ErrTooManyAttempts)

	// The correct code no longer helps, and the failure names the reason.
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin), ErrTooManyAttempts)

	// The exhausted record is gone; everything after is a missing challenge.
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin), ErrNotFoundOrExpired)
	assert.False(t, engine.Status(ctx, "a@x.com", PurposeLogin))
}

func TestIssue_ReissueInvalidatesPriorCode(t *testing.T) {
	ctx := context.Background()
	engine, sender := newFallbackEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	first := sender.LastCode

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	second := sender.LastCode

	if first != second {
		// First code is unexpired and unused but must no longer verify.
		assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", first, PurposeLogin), ErrInvalidCode)
	}
	assert.NoError(t, engine.Verify(ctx, "a@x.com", second, PurposeLogin))
}

func TestVerify_ExpiredRecord(t *testing.T) {
	ctx := context.Background()
	engine, sender := newFallbackEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))

	// Move the fallback store's clock past the record deadline.
	engine.fallback.now = func() time.Time {
		return time.Now().Add(StoreTTL + time.Second)
	}

	err := engine.Verify(ctx, "a@x.com", sender.LastCode, PurposeLogin)
	assert.ErrorIs(t, err, ErrNotFoundOrExpired)
}

func TestVerify_PurposesAreIndependent(t *testing.T) {
	ctx := context.Background()
	engine, sender := newFallbackEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	loginCode := sender.LastCode

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeSignup))
	signupCode := sender.LastCode

	if loginCode != signupCode {
		assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", signupCode, PurposeLogin), ErrInvalidCode)
	}
	assert.NoError(t, engine.Verify(ctx, "a@x.com", loginCode, PurposeLogin))
	assert.NoError(t, engine.Verify(ctx, "a@x.com", signupCode, PurposeSignup))
}

func TestStatus_NoSideEffects(t *testing.T) {
	ctx := context.Background()
	engine, sender := newFallbackEngine(t)

	assert.False(t, engine.Status(ctx, "a@x.com", PurposeLogin))

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	for i := 0; i < 10; i++ {
		assert.True(t, engine.Status(ctx, "a@x.com", PurposeLogin))
	}

	// Probing consumed no attempts.
	assert.NoError(t, engine.Verify(ctx, "a@x.com", sender.LastCode, PurposeLogin))
}

// ==============================================
// DELIVERY FAILURES
// ==============================================

func TestIssue_DeliveryFailure(t *testing.T) {
	ctx := context.Background()
	sender := &MockSender{Err: errors.New("smtp: connection refused")}
	engine := NewEngine(nil, sender, zap.NewNop())

	err := engine.Issue(ctx, "a@x.com", PurposeLogin)
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	// The record was written before the send was attempted.
	assert.True(t, engine.Status(ctx, "a@x.com", PurposeLogin))
}

// ==============================================
// FALLBACK PROTOCOL
// ==============================================

func TestNewEngine_UnreachableSharedStoreFallsBack(t *testing.T) {
	ctx := context.Background()
	sender := &MockSender{}

	// Nothing listens here; the construction probe must fail fast and the
	// engine must start degraded.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()

	engine := NewEngine(client, sender, zap.NewNop())
	require.True(t, engine.Degraded())

	// All single-use/attempt/overwrite properties hold on the fallback path.
	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))
	code := sender.LastCode

	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", "999999x", PurposeLogin), ErrInvalidCode)
	assert.NoError(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin))
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", code, PurposeLogin), ErrNotFoundOrExpired)
}

func TestVerify_OpaqueCodeInput(t *testing.T) {
	ctx := context.Background()
	engine, _ := newFallbackEngine(t)

	require.NoError(t, engine.Issue(ctx, "a@x.com", PurposeLogin))

	// Non-numeric garbage is accepted as input and simply fails to match.
	assert.ErrorIs(t, engine.Verify(ctx, "a@x.com", "not-a-code", PurposeLogin), ErrInvalidCode)
}

// ==============================================
// MEMORY STORE SWEEP
// ==============================================

func TestMemoryStore_SweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Now()
	require.NoError(t, store.Save(ctx, "otp:login:a@x.com", &Record{
		HashedCode: "deadbeef",
		CreatedAt:  now.Add(-3 * time.Minute),
		ExpiresAt:  now.Add(-1 * time.Minute),
		Purpose:    "login",
	}, StoreTTL))
	require.NoError(t, store.Save(ctx, "otp:login:b@x.com", &Record{
		HashedCode: "deadbeef",
		CreatedAt:  now,
		ExpiresAt:  now.Add(StoreTTL),
		Purpose:    "login",
	}, StoreTTL))

	ok, err := store.Exists(ctx, "otp:login:a@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Exists(ctx, "otp:login:b@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	store.mu.Lock()
	assert.Len(t, store.records, 1)
	store.mu.Unlock()
}

func TestMemoryStore_ConcurrentConsumeSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	hashed := "a3f5"
	require.NoError(t, store.Save(ctx, "otp:login:a@x.com", &Record{
		HashedCode: hashed,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(StoreTTL),
		Purpose:    "login",
	}, StoreTTL))

	const callers = 16
	var wg sync.WaitGroup
	successes := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.Consume(ctx, "otp:login:a@x.com", hashed, MaxAttempts) == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 1, count, "exactly one caller may observe success for a single code")
}
