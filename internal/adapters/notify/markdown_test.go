package notify

import (
	"strings"
	"testing"
)

// TestRenderHTML tests markdown rendering and raw HTML suppression.
func TestRenderHTML(t *testing.T) {
	got, err := RenderHTML("A new **injury** case\n> lifted a pallet <script>alert(1)</script>")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(got, "<strong>injury</strong>") {
		t.Errorf("expected bold text, got %s", got)
	}
	if !strings.Contains(got, "<blockquote>") {
		t.Errorf("expected blockquote, got %s", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML must not be rendered, got %s", got)
	}
}
