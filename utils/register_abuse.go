package utils

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bagarji/library/config"
)

// Registration abuse counters live in Redis only. Every check fails open:
// losing Redis weakens abuse protection but never blocks real signups.

func regKey(parts ...string) string {
	return "register:" + strings.Join(parts, ":")
}

func regCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 500*time.Millisecond)
}

// RegistrationCooldownTry claims the per-IP attempt slot. False means the
// previous attempt from this IP is still cooling down.
func RegistrationCooldownTry(ip string) bool {
	sec := config.Get().RegisterAttemptCooldownSec
	if sec <= 0 {
		return true
	}
	ctx, cancel := regCtx()
	defer cancel()
	ok, err := GetRedis().SetNX(ctx, regKey("cooldown", ip), "1", time.Duration(sec)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}

// RegistrationDailyLimitCheck reports whether the IP is still under its
// daily cap of completed registrations.
func RegistrationDailyLimitCheck(ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	ctx, cancel := regCtx()
	defer cancel()
	n, err := GetRedis().Get(ctx, dailyKey(ip)).Int()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		return true
	}
	return n < limit
}

// RegistrationDailyIncrement counts one completed registration against the
// IP's daily cap. The counter expires at midnight.
func RegistrationDailyIncrement(ip string) {
	ctx, cancel := regCtx()
	defer cancel()
	cli := GetRedis()
	key := dailyKey(ip)
	if err := cli.Incr(ctx, key).Err(); err != nil {
		return
	}
	midnight := time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	_ = cli.Expire(ctx, key, time.Until(midnight)).Err()
}

func dailyKey(ip string) string {
	return regKey("day", ip, time.Now().Format("20060102"))
}

// RegistrationFailRecord counts a failed attempt within the current hour and
// returns the running total, which the handler compares against the ban
// threshold.
func RegistrationFailRecord(ip string) int {
	ctx, cancel := regCtx()
	defer cancel()
	cli := GetRedis()
	key := regKey("fail", ip, time.Now().Format("2006010215"))
	n, err := cli.Incr(ctx, key).Result()
	if err != nil {
		return 0
	}
	_ = cli.Expire(ctx, key, time.Hour).Err()
	return int(n)
}

// RegistrationIsBanned reports whether the IP currently holds a temp ban.
func RegistrationIsBanned(ip string) bool {
	ctx, cancel := regCtx()
	defer cancel()
	n, err := GetRedis().Exists(ctx, regKey("ban", ip)).Result()
	return err == nil && n > 0
}

// RegistrationBan places a temporary ban on the IP.
func RegistrationBan(ip string) {
	minutes := config.Get().RegisterTempBanMinutes
	if minutes <= 0 {
		minutes = 60
	}
	ctx, cancel := regCtx()
	defer cancel()
	_ = GetRedis().Set(ctx, regKey("ban", ip), "1", time.Duration(minutes)*time.Minute).Err()
}
