package validator

import "testing"

type sample struct {
	SessionID string `validate:"required,session_id"`
}

func TestSessionIDValidation(t *testing.T) {
	cases := map[string]bool{
		"3f2a9c1e-8b7d-4e2f-9a61-0c5d2b7e4f10": true,
		"session_1":                            true,
		"":                                     false,
		"has space":                            false,
		"../etc/passwd":                        false,
	}
	for id, valid := range cases {
		err := Validate(sample{SessionID: id})
		if valid && err != nil {
			t.Fatalf("expected %q to be valid: %v", id, err)
		}
		if !valid && err == nil {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
}

func TestSanitizeMarkup(t *testing.T) {
	got := SanitizeMarkup(`  <script>alert(1)</script>Hello, <strong onclick="x()">friend</strong> `)
	if got != "Hello, <strong>friend</strong>" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}
