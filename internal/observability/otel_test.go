package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = abc ,broken, =x,team=ops")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "ops" {
		t.Fatalf("parseHeaders = %v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}

func TestParseRatioClamps(t *testing.T) {
	for raw, want := range map[string]float64{"0.25": 0.25, "-1": 0, "3": 1} {
		got, err := parseRatio(raw)
		if err != nil || got != want {
			t.Fatalf("parseRatio(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := parseRatio("half"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExporterKind(t *testing.T) {
	t.Setenv("OTEL_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if got := exporterKind(); got != "stdout" {
		t.Fatalf("default exporter = %s", got)
	}
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	if got := exporterKind(); got != "otlp" {
		t.Fatalf("endpoint implies otlp, got %s", got)
	}
	t.Setenv("OTEL_EXPORTER", "None")
	if got := exporterKind(); got != "none" {
		t.Fatalf("explicit exporter = %s", got)
	}
}
