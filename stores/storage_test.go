package stores

import (
	"context"
	"testing"

	"certificate-server/config"
	"certificate-server/core"
)

func TestGetStore(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       config.Config
		versioned bool
	}{
		{"memory", config.Config{StorageType: "memory"}, true},
		{"default", config.Config{}, true},
		{"filesystem", config.Config{StorageType: "filesystem", LocalStoragePath: t.TempDir()}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := GetStore(context.Background(), &tc.cfg)
			if store == nil {
				t.Fatal("GetStore() returned nil")
			}
			if _, ok := store.(core.VersionStore); ok != tc.versioned {
				t.Errorf("VersionStore = %v, want %v", ok, tc.versioned)
			}
		})
	}
}
