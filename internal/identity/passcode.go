package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

// passcodeTTL bounds how long a password-reset code stays valid.
const passcodeTTL = 5 * time.Minute

// PasscodeStore keeps short-lived password-reset codes. Consume is single-use:
// a code that verifies once never verifies again.
type PasscodeStore interface {
	Put(ctx context.Context, email, code string) error
	Consume(ctx context.Context, email, code string) (bool, error)
}

// RedisPasscodeStore stores codes under a per-email key; the Redis TTL
// enforces the expiry.
type RedisPasscodeStore struct {
	client *redis.Client
}

func NewRedisPasscodeStore(redisURL string) (*RedisPasscodeStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisPasscodeStore{client: client}, nil
}

func passcodeKey(email string) string {
	return "passcode:" + email
}

func (s *RedisPasscodeStore) Put(ctx context.Context, email, code string) error {
	return s.client.Set(ctx, passcodeKey(email), code, passcodeTTL).Err()
}

func (s *RedisPasscodeStore) Consume(ctx context.Context, email, code string) (bool, error) {
	key := passcodeKey(email)

	stored, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != code {
		return false, nil
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return false, err
	}

	return true, nil
}

func (s *RedisPasscodeStore) Close() error {
	return s.client.Close()
}

// generatePasscode returns a 6-digit numeric code.
func generatePasscode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
