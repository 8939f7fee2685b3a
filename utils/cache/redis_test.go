package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLockerReportsUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	locker := NewLocker(NewRedisCacheFromClient(client), time.Second)
	ok, release, err := locker.TryLock(context.Background(), "approve:contribution:1")
	if err == nil {
		t.Fatal("TryLock succeeded without a server")
	}
	if ok {
		t.Error("TryLock reported the lock as held")
	}
	// release must be callable even when nothing was acquired
	release()
}
