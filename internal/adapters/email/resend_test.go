package email

import "testing"

// TestBuildParams tests sender defaulting and tag ordering.
func TestBuildParams(t *testing.T) {
	p := buildParams(SendRequest{
		To:      []string{"sup@example.com"},
		Subject: "New injury case",
		HTML:    "<p>hi</p>",
		Tags:    map[string]string{"kind": "supervisor_alert", "case": "case-1"},
	}, "Casework <noreply@casework.example>")

	if p.From != "Casework <noreply@casework.example>" {
		t.Errorf("From = %q", p.From)
	}
	if len(p.Tags) != 2 || p.Tags[0].Name != "case" || p.Tags[1].Value != "supervisor_alert" {
		t.Errorf("Tags = %+v", p.Tags)
	}
	if p.ReplyTo != "" {
		t.Errorf("ReplyTo = %q, want empty", p.ReplyTo)
	}

	p = buildParams(SendRequest{From: "ops@example.com"}, "default@example.com")
	if p.From != "ops@example.com" {
		t.Errorf("explicit From overridden: %q", p.From)
	}
}
