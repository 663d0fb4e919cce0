package infra

import "testing"

func TestLoadConfigDefaultStaticBaseURL(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STATIC_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:8090/static"
	if cfg.StaticBaseURL != expected {
		t.Fatalf("StaticBaseURL mismatch: got %q want %q", cfg.StaticBaseURL, expected)
	}
}

func TestLoadConfigInheritsPortInStaticBaseURL(t *testing.T) {
	t.Setenv("PORT", "1919")
	t.Setenv("STATIC_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "http://localhost:1919/static"
	if cfg.StaticBaseURL != expected {
		t.Fatalf("StaticBaseURL mismatch: got %q want %q", cfg.StaticBaseURL, expected)
	}
}

func TestLoadConfigHonorsExplicitStaticBaseURL(t *testing.T) {
	t.Setenv("STATIC_BASE_URL", "https://cdn.example.com/static")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StaticBaseURL != "https://cdn.example.com/static" {
		t.Fatalf("StaticBaseURL mismatch: got %q", cfg.StaticBaseURL)
	}
}

func TestLoadConfigWriteTimeoutDefaultsToZero(t *testing.T) {
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.HTTPWriteTimeout != 0 {
		t.Fatalf("HTTPWriteTimeout = %v, want 0 (SSE responses must not be cut)", cfg.HTTPWriteTimeout)
	}
}

func TestExtractMarker(t *testing.T) {
	query := "--sql c64c96de-6ba5-4b47-94f9-d811423d0235\nselect 1;"
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker returned error: %v", err)
	}
	if marker != "c64c96de-6ba5-4b47-94f9-d811423d0235" {
		t.Fatalf("marker = %q", marker)
	}
	if trimmed != "select 1;" {
		t.Fatalf("trimmed = %q", trimmed)
	}
}

func TestExtractMarkerRejectsUnmarkedQuery(t *testing.T) {
	if _, _, err := extractMarker("select 1;"); err == nil {
		t.Fatalf("expected error for unmarked query")
	}
}
