package main

import (
	"testing"

	"github.com/vovakirdan/roomchat/internal/config"
)

func TestRateLimitFlagZeroDisables(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--rate-limit", "0"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	var overrides config.Relay
	cfg := applyOverrides(config.DefaultRelay(), overrides, cmd.Flags().Changed)
	if cfg.RateLimit != 0 {
		t.Fatalf("rate limit = %d, want 0", cfg.RateLimit)
	}
}

func TestRateLimitDefaultKeptWithoutFlag(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--addr", ":9100"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg := applyOverrides(config.DefaultRelay(), config.Relay{Addr: ":9100"}, cmd.Flags().Changed)
	if cfg.RateLimit != config.DefaultRelay().RateLimit || cfg.Addr != ":9100" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
