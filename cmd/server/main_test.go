package main

import (
	"context"
	"testing"
)

func TestValidatePort(t *testing.T) {
	for _, port := range []int{0, 80, 65535} {
		if err := validatePort(port); err != nil {
			t.Fatalf("port %d: unexpected error %v", port, err)
		}
	}
	for _, port := range []int{-1, 65536} {
		if err := validatePort(port); err == nil {
			t.Fatalf("port %d: expected error", port)
		}
	}
}

func TestRun_RejectsBadFlags(t *testing.T) {
	if err := run(context.Background(), []string{"-port", "70000"}); err == nil {
		t.Fatalf("expected invalid port error")
	}
	if err := run(context.Background(), []string{"-unknown"}); err == nil {
		t.Fatalf("expected flag parse error")
	}
}
