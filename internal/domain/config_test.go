package domain

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Edition != "biolinux" {
		t.Fatalf("expected default edition biolinux, got %q", cfg.Edition)
	}
	if cfg.Apt.SourcesFile != "/etc/apt/sources.list" {
		t.Fatalf("unexpected sources file %q", cfg.Apt.SourcesFile)
	}
	if cfg.Privilege.Command != "sudo -n" {
		t.Fatalf("unexpected privilege command %q", cfg.Privilege.Command)
	}
	if cfg.Paths.ReportsDir != "reports" {
		t.Fatalf("unexpected reports dir %q", cfg.Paths.ReportsDir)
	}
}

func TestConfigEnvironment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = DistributionConfig{Version: "12", Codename: "bookworm"}
	cfg.Apt.DebianRepository = "http://mirror.example/debian/"

	env := cfg.Environment()
	if env.Version != "12" || env.Codename != "bookworm" {
		t.Fatalf("expected distribution to map, got %+v", env)
	}
	if env.SourcesFile != cfg.Apt.SourcesFile {
		t.Fatalf("expected sources file to map")
	}
	if env.DebianRepository != "http://mirror.example/debian/" {
		t.Fatalf("expected debian repository to map")
	}
}
