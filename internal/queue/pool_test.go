package queue

import (
	"errors"
	"testing"
)

func TestConnectRejectsUnsupportedScheme(t *testing.T) {
	_, err := Connect("redis://localhost:6379")
	if err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("got %v, want wrapped ErrConnect", err)
	}
}

func TestConnectRejectsMalformedAddress(t *testing.T) {
	_, err := Connect("://not-a-url")
	if err == nil {
		t.Fatal("expected error for malformed address")
	}
}
