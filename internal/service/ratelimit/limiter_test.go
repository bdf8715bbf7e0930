package ratelimit

import "testing"

func TestAllowBurstThenDeny(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("client", 3, 0) {
			t.Fatalf("request %d inside burst should pass", i)
		}
	}
	if l.Allow("client", 3, 0) {
		t.Fatalf("request beyond burst should be denied")
	}
}

func TestAllowKeysIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("first key should pass")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("first key exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("second key has its own bucket")
	}
}
