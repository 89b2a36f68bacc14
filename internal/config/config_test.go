package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"WIKI_API_URL", "OUTPUT_PATH", "STORAGE_KIND", "POSTGRES_DSN", "FETCH_TIMEOUT_SECONDS", "PAGE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	if cfg.SourceURL != DefaultSourceURL {
		t.Errorf("SourceURL = %q", cfg.SourceURL)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.StorageKind != DefaultStorage {
		t.Errorf("StorageKind = %q", cfg.StorageKind)
	}
	if cfg.FetchTimeout != DefaultTimeout {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.PageLimit != DefaultPageLimit {
		t.Errorf("PageLimit = %d", cfg.PageLimit)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("WIKI_API_URL", "http://mirror.test/api.php")
	t.Setenv("OUTPUT_PATH", "/tmp/out")
	t.Setenv("STORAGE_KIND", "json")
	t.Setenv("POSTGRES_DSN", "postgres://u@h/db")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "5")
	t.Setenv("PAGE_LIMIT", "200")

	cfg := FromEnv()
	if cfg.SourceURL != "http://mirror.test/api.php" {
		t.Errorf("SourceURL = %q", cfg.SourceURL)
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.StorageKind != "json" {
		t.Errorf("StorageKind = %q", cfg.StorageKind)
	}
	if cfg.PostgresDSN != "postgres://u@h/db" {
		t.Errorf("PostgresDSN = %q", cfg.PostgresDSN)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.PageLimit != 200 {
		t.Errorf("PageLimit = %d", cfg.PageLimit)
	}
}

func TestFromEnvMalformedNumbersKeepDefaults(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT_SECONDS", "soon")
	t.Setenv("PAGE_LIMIT", "-3")

	cfg := FromEnv()
	if cfg.FetchTimeout != DefaultTimeout {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.PageLimit != DefaultPageLimit {
		t.Errorf("PageLimit = %d", cfg.PageLimit)
	}
}

func valid() Config {
	return Config{
		SourceURL:    DefaultSourceURL,
		OutputDir:    "data",
		StorageKind:  "csv",
		FetchTimeout: DefaultTimeout,
		PageLimit:    50,
	}
}

var kinds = []string{"csv", "json", "postgres", "sqlite"}

func TestValidateOK(t *testing.T) {
	t.Parallel()
	if issues := Validate(valid(), kinds); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestValidateIssues(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		mutate   func(*Config)
		path     string
		severity IssueSeverity
	}{
		{"empty url", func(c *Config) { c.SourceURL = " " }, "source.url", SeverityError},
		{"relative url", func(c *Config) { c.SourceURL = "w/api.php" }, "source.url", SeverityError},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, "output.dir", SeverityError},
		{"unknown storage", func(c *Config) { c.StorageKind = "parquet" }, "storage.kind", SeverityError},
		{"postgres without dsn", func(c *Config) { c.StorageKind = "postgres" }, "storage.dsn", SeverityError},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }, "source.timeout", SeverityError},
		{"zero limit", func(c *Config) { c.PageLimit = 0 }, "source.page_limit", SeverityError},
		{"huge limit", func(c *Config) { c.PageLimit = 5000 }, "source.page_limit", SeverityWarning},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			c.mutate(&cfg)
			issues := Validate(cfg, kinds)
			if len(issues) == 0 {
				t.Fatalf("want an issue")
			}
			found := false
			for _, i := range issues {
				if i.Path == c.path && i.Severity == c.severity {
					found = true
				}
			}
			if !found {
				t.Fatalf("no %s issue at %s; got %v", c.severity, c.path, issues)
			}
		})
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()
	i := Issue{Severity: SeverityError, Path: "storage.kind", Message: "unknown"}
	if got := i.Error(); got != "error at storage.kind: unknown" {
		t.Errorf("Error() = %q", got)
	}
}
