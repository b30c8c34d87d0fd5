package web

import (
	"strings"
	"testing"
)

func TestAuthorizationPage(t *testing.T) {
	t.Run("Renders Token And State", func(t *testing.T) {
		page, err := AuthorizationPage("eyJhbGc.eyJpc3M.c2ln", "state-abc-123")
		if err != nil {
			t.Fatalf("AuthorizationPage failed: %v", err)
		}

		html := string(page)
		for _, want := range []string{"state-abc-123", "eyJhbGc.eyJpc3M.c2ln", "musickit.js", "/token"} {
			if !strings.Contains(html, want) {
				t.Errorf("page missing %q", want)
			}
		}
	})

	t.Run("Escapes Injected Values", func(t *testing.T) {
		page, err := AuthorizationPage("token", `</script><script>alert(1)`)
		if err != nil {
			t.Fatalf("AuthorizationPage failed: %v", err)
		}

		if strings.Contains(string(page), "</script><script>alert(1)") {
			t.Error("state value escaped the script context")
		}
	})
}
