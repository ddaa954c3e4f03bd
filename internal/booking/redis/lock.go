package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"turfbook/internal/logger"
)

const lockKeyPrefix = "slot_lock:"

// Redis holds checkout-time slot locks. A lock is a SetNX key whose value
// is the booking ID; the TTL bounds how long an unpaid booking may sit on
// its slots before the expiry listener cancels it.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{
		Client: client,
		TTL:    ttl,
		Logger: log,
	}
}

// LockKey builds the Redis key for one slot hold.
func LockKey(groundID, date, slot string) string {
	return fmt.Sprintf("%s%s:%s:%s", lockKeyPrefix, groundID, date, slot)
}

// ParseLockKey splits an expired key back into its parts. The slot label
// itself contains a colon ("06:00-07:00"), so the split is positional.
func ParseLockKey(key string) (groundID, date, slot string, ok bool) {
	if !strings.HasPrefix(key, lockKeyPrefix) {
		return "", "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(key, lockKeyPrefix), ":", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// CheckSlotAvailability reports whether a slot is free of checkout holds.
func (r *Redis) CheckSlotAvailability(groundID, date, slot string) (bool, error) {
	_, err := r.Client.Get(context.Background(), LockKey(groundID, date, slot)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// CheckSlotsAvailability reports which of the given slots are being held.
func (r *Redis) CheckSlotsAvailability(groundID, date string, slots []string) (bool, []string, error) {
	held := []string{}
	for _, slot := range slots {
		available, err := r.CheckSlotAvailability(groundID, date, slot)
		if err != nil {
			return false, nil, err
		}
		if !available {
			held = append(held, slot)
		}
	}
	if len(held) > 0 {
		return false, held, nil
	}
	return true, nil, nil
}

// LockSlot holds a single slot for a booking.
func (r *Redis) LockSlot(groundID, date, slot, bookingID string) (bool, error) {
	key := LockKey(groundID, date, slot)
	return r.Client.SetNX(context.Background(), key, bookingID, r.TTL).Result()
}

// UnlockSlot releases a hold, but only if this booking owns it.
func (r *Redis) UnlockSlot(groundID, date, slot, bookingID string) error {
	ctx := context.Background()
	key := LockKey(groundID, date, slot)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == bookingID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// LockSlots holds every requested slot or none: a failed lock rolls back
// the ones already taken.
func (r *Redis) LockSlots(groundID, date string, slots []string, bookingID string) (bool, error) {
	locked := []string{}
	for _, slot := range slots {
		ok, err := r.LockSlot(groundID, date, slot, bookingID)
		if err != nil {
			for _, l := range locked {
				_ = r.UnlockSlot(groundID, date, l, bookingID)
			}
			return false, err
		}
		if !ok {
			for _, l := range locked {
				_ = r.UnlockSlot(groundID, date, l, bookingID)
			}
			if r.Logger != nil {
				r.Logger.Warn("REDIS", fmt.Sprintf("Slot %s on %s/%s already held, rolled back %d locks", slot, groundID, date, len(locked)))
			}
			return false, nil
		}
		locked = append(locked, slot)
	}
	return true, nil
}

// UnlockSlots releases the holds a booking took. The first error wins but
// every slot is attempted.
func (r *Redis) UnlockSlots(groundID, date string, slots []string, bookingID string) error {
	var firstErr error
	for _, slot := range slots {
		if err := r.UnlockSlot(groundID, date, slot, bookingID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
