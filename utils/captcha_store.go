package utils

import (
	"time"

	"github.com/mojocn/base64Captcha"
)

// redisCaptchaStore keeps captcha answers in Redis so verification works no
// matter which instance served the image.
type redisCaptchaStore struct {
	ttl time.Duration
}

// NewRedisCaptchaStore builds a base64Captcha.Store with the given answer TTL.
func NewRedisCaptchaStore(ttl time.Duration) base64Captcha.Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisCaptchaStore{ttl: ttl}
}

func (s *redisCaptchaStore) key(id string) string {
	return "captcha:" + id
}

func (s *redisCaptchaStore) Set(id string, value string) error {
	rc := GetRedis()
	if rc == nil {
		return nil
	}
	ctx, cancel := redisCtx()
	defer cancel()
	return rc.Set(ctx, s.key(id), value, s.ttl).Err()
}

func (s *redisCaptchaStore) Get(id string, clear bool) string {
	if clear {
		v, _ := redisGetDel(s.key(id))
		return v
	}
	rc := GetRedis()
	if rc == nil {
		return ""
	}
	ctx, cancel := redisCtx()
	defer cancel()
	v, err := rc.Get(ctx, s.key(id)).Result()
	if err != nil {
		return ""
	}
	return v
}

// Verify consumes the stored answer when clear is set, so one answer cannot
// be replayed across attempts.
func (s *redisCaptchaStore) Verify(id, answer string, clear bool) bool {
	v := s.Get(id, clear)
	return v != "" && v == answer
}
