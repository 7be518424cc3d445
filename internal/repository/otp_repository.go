package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRepo stores one-time passwords in Redis with a per-key TTL.
// Keeping OTPs out of process memory lets multiple instances serve
// the verify call regardless of which instance issued the code, and
// expiry is handled by Redis eviction instead of manual sweeping.
type OTPRepo struct {
	rdb    *redis.Client
	prefix string
}

// ErrOTPUnavailable is returned when no Redis client is configured.
var ErrOTPUnavailable = errors.New("otp store unavailable")

// ErrOTPMismatch is returned when the submitted code does not match
// the stored one or the stored one has expired.
var ErrOTPMismatch = errors.New("invalid or expired otp")

// NewOTPRepo returns an OTPRepo backed by the given client.  A nil
// client is tolerated; operations then fail with ErrOTPUnavailable.
func NewOTPRepo(rdb *redis.Client) *OTPRepo {
	return &OTPRepo{rdb: rdb, prefix: "otp:phone:"}
}

// Store saves the OTP for a user with the supplied TTL, replacing
// any previous code for the same user.
func (r *OTPRepo) Store(ctx context.Context, userID uint64, otp string, ttl time.Duration) error {
	if r.rdb == nil {
		return ErrOTPUnavailable
	}
	return r.rdb.Set(ctx, r.key(userID), otp, ttl).Err()
}

// Verify compares the submitted code against the stored one and
// deletes it on success so a code can be used only once.
func (r *OTPRepo) Verify(ctx context.Context, userID uint64, otp string) error {
	if r.rdb == nil {
		return ErrOTPUnavailable
	}
	stored, err := r.rdb.Get(ctx, r.key(userID)).Result()
	if err == redis.Nil {
		return ErrOTPMismatch
	}
	if err != nil {
		return err
	}
	if stored != otp {
		return ErrOTPMismatch
	}
	return r.rdb.Del(ctx, r.key(userID)).Err()
}

func (r *OTPRepo) key(userID uint64) string {
	return r.prefix + strconv.FormatUint(userID, 10)
}
