package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lnsms "github.com/lnsms/go"
)

func newRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, opts...), mr
}

func TestRedisStore_InsertAndGet(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newPending("ch_1")))
	assert.True(t, mr.Exists("lnsms:charge:ch_1"))

	got, err := store.Get(ctx, "ch_1")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", got.Recipient)
	assert.Equal(t, "Hello", got.MessageBody)
	assert.Equal(t, "0.1", got.PriceAmount.String())
	assert.Equal(t, lnsms.StatusPending, got.Status)
	assert.False(t, got.Delivered)
}

func TestRedisStore_InsertDuplicate(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newPending("ch_1")))
	assert.ErrorIs(t, store.Insert(ctx, newPending("ch_1")), lnsms.ErrDuplicateKey)
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, lnsms.IsNotFound(err))
}

func TestRedisStore_KeyPrefixAndTTL(t *testing.T) {
	store, mr := newRedisStore(t, WithKeyPrefix("test"), WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newPending("ch_1")))
	assert.True(t, mr.Exists("test:charge:ch_1"))
	assert.Equal(t, time.Hour, mr.TTL("test:charge:ch_1"))

	_, err := store.UpdateOnDelivery(ctx, "ch_1", lnsms.Delivery{ReceiptID: "SM1"})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("test:charge:ch_1"), "delivery must keep the TTL")

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "ch_1")
	assert.True(t, lnsms.IsNotFound(err))
}

func TestRedisStore_UpdateOnDelivery(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, newPending("ch_1")))

	paidAt := int64(1700000100)
	updated, err := store.UpdateOnDelivery(ctx, "ch_1", lnsms.Delivery{
		ReceiptID:    "SM123",
		SenderNumber: "+15550000000",
		PaidAt:       &paidAt,
		DeliveredAt:  time.Unix(1700000105, 0).UTC(),
	})
	require.NoError(t, err)
	assert.True(t, updated.Delivered)
	assert.Equal(t, lnsms.StatusCompleted, updated.Status)
	assert.Equal(t, "SM123", updated.DeliveryReceiptID)

	got, err := store.Get(ctx, "ch_1")
	require.NoError(t, err)
	assert.True(t, got.Delivered)
	assert.Equal(t, "+15550000000", got.SenderNumber)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, paidAt, *got.PaidAt)

	_, err = store.UpdateOnDelivery(ctx, "ch_1", lnsms.Delivery{ReceiptID: "SM456"})
	assert.ErrorIs(t, err, lnsms.ErrAlreadyDelivered)

	_, err = store.UpdateOnDelivery(ctx, "nope", lnsms.Delivery{ReceiptID: "SM1"})
	assert.True(t, lnsms.IsNotFound(err))
}

func TestRedisStore_Lock(t *testing.T) {
	store, mr := newRedisStore(t, WithLockRetryInterval(5*time.Millisecond))
	ctx := context.Background()

	unlock, err := store.Lock(ctx, "ch_1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lnsms:lock:ch_1"))

	tctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = store.Lock(tctx, "ch_1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("lnsms:lock:ch_1"))

	unlock2, err := store.Lock(ctx, "ch_1")
	require.NoError(t, err)
	unlock2()
}

func TestRedisStore_UnlockKeepsForeignLock(t *testing.T) {
	store, mr := newRedisStore(t, WithLockTTL(time.Second))
	ctx := context.Background()

	unlock, err := store.Lock(ctx, "ch_1")
	require.NoError(t, err)

	// The lock expires and another instance takes it over
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("lnsms:lock:ch_1", "other-token"))

	unlock()
	got, err := mr.Get("lnsms:lock:ch_1")
	require.NoError(t, err)
	assert.Equal(t, "other-token", got)
}

func TestRedisStore_LockSerializesHolders(t *testing.T) {
	store, _ := newRedisStore(t, WithLockRetryInterval(time.Millisecond))
	ctx := context.Background()

	var mu sync.Mutex
	holders, maxHolders := 0, 0
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := store.Lock(ctx, "ch_1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			holders++
			if holders > maxHolders {
				maxHolders = holders
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxHolders)
}
