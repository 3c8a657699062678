package utils

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

// Pending registration codes live in Redis so any instance can verify them.
// When Redis is unreachable a process-local map takes over, which is enough
// for a single-node deployment.
type otpEntry struct {
	value     string
	expiresAt time.Time
}

var (
	otpMem sync.Map // key -> otpEntry
)

func otpKey(email string) string {
	return "verify:email:" + email
}

func emailCooldownKey(email string) string {
	return "cooldown:email:" + email
}

// GenerateVerificationCode returns n random decimal digits, zero-padded.
func GenerateVerificationCode(n int) string {
	if n <= 0 {
		n = 6
	}
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			v = big.NewInt(time.Now().UnixNano() % 10)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}

// SaveCode stores the code for an email address with the given TTL.
func SaveCode(email, code string, ttl time.Duration) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisCtx()
		defer cancel()
		if rc.Set(ctx, otpKey(email), code, ttl).Err() == nil {
			return
		}
	}
	otpMem.Store(otpKey(email), otpEntry{value: code, expiresAt: time.Now().Add(ttl)})
}

// VerifyAndConsumeCode checks the submitted code and removes it on any
// lookup, so a code can only be tried once whether it matched or not.
func VerifyAndConsumeCode(email, code string) bool {
	key := otpKey(email)
	if stored, ok := redisGetDel(key); ok {
		return stored != "" && stored == code
	}

	v, ok := otpMem.LoadAndDelete(key)
	if !ok {
		return false
	}
	entry := v.(otpEntry)
	if time.Now().After(entry.expiresAt) {
		return false
	}
	return entry.value == code
}

// EmailCooldownTrySet claims the resend cooldown slot for an address.
// It returns false while a previous claim is still cooling down.
func EmailCooldownTrySet(email string, cooldown time.Duration) bool {
	key := emailCooldownKey(email)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := redisCtx()
		defer cancel()
		if ok, err := rc.SetNX(ctx, key, "1", cooldown).Result(); err == nil {
			return ok
		}
	}

	now := time.Now()
	if v, ok := otpMem.Load(key); ok {
		if entry := v.(otpEntry); now.Before(entry.expiresAt) {
			return false
		}
	}
	otpMem.Store(key, otpEntry{value: "1", expiresAt: now.Add(cooldown)})
	return true
}
