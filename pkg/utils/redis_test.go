package utils

import "testing"

func TestRedisConfig_Defaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if c.DialTimeout <= 0 || c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		t.Fatalf("expected timeout defaults, got %+v", c)
	}
	if c.PoolSize <= 0 {
		t.Fatalf("expected pool size default, got %d", c.PoolSize)
	}
}
