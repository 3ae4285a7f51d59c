package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"STREAMCC_USE_DISK_BUFFER", "STREAMCC_COPY_IN_MEMORY", "STREAMCC_DISK_LOCATION",
		"STREAMCC_NUM_GROUPS", "STREAMCC_SEED", "STREAMCC_FAILURE_FACTOR", "STREAMCC_HTTP_ADDR",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UseDiskBuffer {
		t.Errorf("expected UseDiskBuffer default false")
	}
	if !cfg.CopyInMemory {
		t.Errorf("expected CopyInMemory default true")
	}
	if cfg.DiskLocation != "./data" {
		t.Errorf("DiskLocation = %q, want ./data", cfg.DiskLocation)
	}
	if cfg.NumGroups != 4 {
		t.Errorf("NumGroups = %d, want 4", cfg.NumGroups)
	}
	if cfg.FailureFactor != 1 {
		t.Errorf("FailureFactor = %d, want 1", cfg.FailureFactor)
	}
	if cfg.HTTPAddress != ":8085" {
		t.Errorf("HTTPAddress = %q, want :8085", cfg.HTTPAddress)
	}
	if cfg.Seed == 0 {
		t.Errorf("expected non-zero derived Seed")
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STREAMCC_NUM_GROUPS", "8")
	t.Setenv("STREAMCC_SEED", "12345")
	t.Setenv("STREAMCC_FAILURE_FACTOR", "3")
	t.Setenv("STREAMCC_COPY_IN_MEMORY", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumGroups != 8 {
		t.Errorf("NumGroups = %d, want 8", cfg.NumGroups)
	}
	if cfg.Seed != 12345 {
		t.Errorf("Seed = %d, want 12345", cfg.Seed)
	}
	if cfg.FailureFactor != 3 {
		t.Errorf("FailureFactor = %d, want 3", cfg.FailureFactor)
	}
	if cfg.CopyInMemory {
		t.Errorf("expected CopyInMemory overridden to false")
	}
}
