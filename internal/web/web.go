// Package web holds the browser assets served during the CLI login flow.
//
// The authorization page loads the host's MusicKit bridge, asks it for a
// media user token under the configured developer token, and posts the
// result back to the local capture server together with the state value
// that started the flow.
package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
)

//go:embed authorize.html
var authorizePage string

// AuthorizationPage renders the token capture page for one login attempt.
// The developer token configures the browser-side bridge; the state ties
// the eventual submission back to this attempt.
func AuthorizationPage(developerToken, state string) ([]byte, error) {
	tmpl, err := template.New("authorize").Parse(authorizePage)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization page: %w", err)
	}

	data := struct {
		DeveloperToken string
		State          string
	}{
		DeveloperToken: developerToken,
		State:          state,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render authorization page: %w", err)
	}

	return buf.Bytes(), nil
}
