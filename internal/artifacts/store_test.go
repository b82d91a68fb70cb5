package artifacts

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestResultKey(t *testing.T) {
	id := uuid.MustParse("5a1ef4c7-2f9c-4a91-8c11-3f6f17f4b100")

	tests := []struct {
		jobType string
		want    string
	}{
		{"bayesian-simulation", "results/bayesian-simulation-5a1ef4c7-2f9c-4a91-8c11-3f6f17f4b100.json"},
		{"sensitivity-analysis", "results/sensitivity-analysis-5a1ef4c7-2f9c-4a91-8c11-3f6f17f4b100.json"},
		{"update-pfd", "results/update-pfd-5a1ef4c7-2f9c-4a91-8c11-3f6f17f4b100.json"},
	}
	for _, tt := range tests {
		if got := ResultKey(tt.jobType, id); got != tt.want {
			t.Errorf("ResultKey(%s) = %q, want %q", tt.jobType, got, tt.want)
		}
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := newConfig()
	if cfg.useSSL {
		t.Error("SSL should default to off")
	}
	if cfg.urlExpiry != time.Hour {
		t.Errorf("urlExpiry = %v, want 1h", cfg.urlExpiry)
	}
}

func TestNewConfigOptions(t *testing.T) {
	cfg := newConfig(
		WithEndpoint("minio.local:9000"),
		WithBucket("bbn-results"),
		WithCredentials("ak", "sk"),
		WithSSL(true),
		WithURLExpiry(15*time.Minute),
	)
	if cfg.endpoint != "minio.local:9000" || cfg.bucket != "bbn-results" {
		t.Errorf("endpoint/bucket not applied: %+v", cfg)
	}
	if cfg.accessKey != "ak" || cfg.secretAccessKey != "sk" {
		t.Errorf("credentials not applied: %+v", cfg)
	}
	if !cfg.useSSL || cfg.urlExpiry != 15*time.Minute {
		t.Errorf("ssl/expiry not applied: %+v", cfg)
	}
}
