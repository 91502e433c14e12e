package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

func TestParseAddrs(t *testing.T) {
	got := parseAddrs(" a:11211, ,b:11211 ")
	if len(got) != 2 || got[0] != "a:11211" || got[1] != "b:11211" {
		t.Errorf("parseAddrs() = %v", got)
	}
	if got := parseAddrs(""); len(got) != 0 {
		t.Errorf("parseAddrs(\"\") = %v, want empty", got)
	}
}

func TestExpiration(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int32
	}{
		{time.Hour, 3600},
		{0, int32(DefaultTTL.Seconds())},
		{-time.Second, int32(DefaultTTL.Seconds())},
		{31 * 24 * time.Hour, int32(DefaultTTL.Seconds())},
	}
	for _, tt := range tests {
		if got := expiration(tt.ttl); got != tt.want {
			t.Errorf("expiration(%v) = %d, want %d", tt.ttl, got, tt.want)
		}
	}
}

func TestMemcachedStore_Key(t *testing.T) {
	c, _ := NewMemcachedStore("", 0, 0, 0)
	if got := c.key("abc"); got != "session:abc" {
		t.Errorf("key() = %q, want session:abc", got)
	}
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want DefaultTTL", c.ttl)
	}
}

// TestMemcachedStore_Set_TooLarge verifies oversize sessions are rejected before any network call.
func TestMemcachedStore_Set_TooLarge(t *testing.T) {
	c, _ := NewMemcachedStore("127.0.0.1:1", time.Minute, 10*time.Millisecond, 0)
	s := &Session{}
	city := strings.Repeat("x", 1000)
	for i := 0; i < 2000; i++ {
		s.Observations = append(s.Observations, models.Observation{City: city})
	}
	err := c.Set(context.Background(), "sid", s)
	if !errors.Is(err, ErrSessionTooLarge) {
		t.Errorf("Set() error = %v, want ErrSessionTooLarge", err)
	}
}

func TestMemcachedStore_InvalidID(t *testing.T) {
	c, _ := NewMemcachedStore("127.0.0.1:1", time.Minute, 10*time.Millisecond, 0)
	if _, _, err := c.Get(context.Background(), ""); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Get(\"\") error = %v, want ErrInvalidID", err)
	}
	if err := c.Set(context.Background(), "", &Session{}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidID", err)
	}
}
