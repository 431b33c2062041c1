package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vainnor/checkins/config"
)

func TestTLSEnabled(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	for _, p := range []string{cert, key} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		s    config.ServerConfig
		want bool
	}{
		{"both present", config.ServerConfig{TLSCertPath: cert, TLSKeyPath: key}, true},
		{"no paths", config.ServerConfig{}, false},
		{"key missing", config.ServerConfig{TLSCertPath: cert}, false},
		{"cert file absent", config.ServerConfig{TLSCertPath: filepath.Join(dir, "nope.pem"), TLSKeyPath: key}, false},
	}
	for _, tt := range tests {
		if got := tlsEnabled(tt.s); got != tt.want {
			t.Errorf("%s: tlsEnabled = %v, want %v", tt.name, got, tt.want)
		}
	}
}
