package msgcat

import (
	"strings"
	"testing"
)

func TestEmbeddedCatalogLoads(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	for _, key := range []string{
		"reject.wrong_turn",
		"reject.illegal_point",
		"reject.session_over",
		"session.no_contest",
	} {
		out, err := c.Render(key, nil)
		if err != nil || strings.TrimSpace(out) == "" {
			t.Fatalf("Render(%s) = %q, %v", key, out, err)
		}
	}
}

func TestRenderTemplateData(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	out, err := c.Render("session.disconnect", map[string]any{"Name": "철수", "Seconds": 90})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "철수") || !strings.Contains(out, "90") {
		t.Fatalf("template data not applied: %q", out)
	}
}

func TestRenderOrFallsBack(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	if got := c.RenderOr("reject.no_such_key", "fallback", nil); got != "fallback" {
		t.Fatalf("RenderOr = %q", got)
	}
	if got := c.RenderOr("reject.wrong_turn", "fallback", nil); got == "fallback" {
		t.Fatal("RenderOr ignored existing key")
	}
}
