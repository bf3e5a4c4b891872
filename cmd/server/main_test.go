package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIgnoreCanceled(t *testing.T) {
	if err := ignoreCanceled(context.Canceled); err != nil {
		t.Fatalf("expected nil for context.Canceled, got %v", err)
	}
	if err := ignoreCanceled(fmt.Errorf("worker: %w", context.Canceled)); err != nil {
		t.Fatalf("expected nil for wrapped context.Canceled, got %v", err)
	}
	if err := ignoreCanceled(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	boom := errors.New("broker unreachable")
	if err := ignoreCanceled(boom); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}
