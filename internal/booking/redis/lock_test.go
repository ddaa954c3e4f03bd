package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	bookingredis "turfbook/internal/booking/redis"
)

func TestParseLockKey(t *testing.T) {
	key := bookingredis.LockKey("match", "2030-06-10", "06:00-07:00")
	assert.Equal(t, "slot_lock:match:2030-06-10:06:00-07:00", key)

	ground, date, slot, ok := bookingredis.ParseLockKey(key)
	assert.True(t, ok)
	assert.Equal(t, "match", ground)
	assert.Equal(t, "2030-06-10", date)
	assert.Equal(t, "06:00-07:00", slot)

	_, _, _, ok = bookingredis.ParseLockKey("other_key:foo")
	assert.False(t, ok)

	_, _, _, ok = bookingredis.ParseLockKey("slot_lock:match")
	assert.False(t, ok)
}

// TestSlotLockIntegration exercises the lock lifecycle against a real Redis
// container.
func TestSlotLockIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{
		Addr:     host + ":" + port.Port(),
		Password: "",
		DB:       0,
	})

	lock := bookingredis.NewRedis(client, time.Minute, nil)

	slots := []string{"06:00-07:00", "07:00-08:00"}
	const ground, date = "match", "2030-06-10"

	locked, err := lock.LockSlots(ground, date, slots, "booking-1")
	require.NoError(t, err)
	assert.True(t, locked, "Expected slots to be lockable")

	// A competing booking must not get the same slots.
	locked, err = lock.LockSlots(ground, date, slots, "booking-2")
	require.NoError(t, err)
	assert.False(t, locked, "Expected slots to be already held")

	// Failed lock attempt must not have eaten booking-1's holds.
	ok, held, err := lock.CheckSlotsAvailability(ground, date, slots)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, held, 2)

	// The same slots on the other ground are independent.
	locked, err = lock.LockSlots("practice", date, slots, "booking-3")
	require.NoError(t, err)
	assert.True(t, locked, "Expected other ground to be free")

	// A different booking cannot release someone else's hold.
	err = lock.UnlockSlots(ground, date, slots, "booking-2")
	require.NoError(t, err)
	ok, _, err = lock.CheckSlotsAvailability(ground, date, slots)
	require.NoError(t, err)
	assert.False(t, ok, "Expected holds to survive a foreign unlock")

	err = lock.UnlockSlots(ground, date, slots, "booking-1")
	require.NoError(t, err)

	locked, err = lock.LockSlots(ground, date, slots, "booking-2")
	require.NoError(t, err)
	assert.True(t, locked, "Expected slots to be lockable after unlock")

	// Simultaneous grabs for a fresh slot: exactly one caller may win.
	type attempt struct {
		locked bool
		err    error
	}
	const racers = 8
	results := make(chan attempt, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		id := fmt.Sprintf("racer-%d", i)
		go func() {
			<-start
			got, err := lock.LockSlots(ground, date, []string{"20:00-21:00"}, id)
			results <- attempt{locked: got, err: err}
		}()
	}
	close(start)

	winners := 0
	for i := 0; i < racers; i++ {
		res := <-results
		require.NoError(t, res.err)
		if res.locked {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "Expected exactly one racer to hold the slot")
}
