// Package lock serializes snapshot imports per teacher.
//
// Two implementations satisfy Locker. KeyedMutex keeps locks in process and is
// used when no Redis URL is configured. RedisLocker stores a random token under
// the key with SET NX and releases it with a compare-and-delete script, so a
// lock that expired and was taken by another process is never released by
// the former holder. While held, the key is extended every third of its TTL.
//
// # Usage
//
//	locker, err := lock.New(cfg.Redis, logger)
//	release, err := locker.Acquire(ctx, "teacher:"+email)
//	if err != nil {
//	    return err
//	}
//	defer release()
package lock
