package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/amx/internal/server"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/web"
	"github.com/urfave/cli/v3"
)

// AuthLogin captures a Music User Token through the browser and saves it
// to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	token, err := r.captureUserToken()
	if err != nil {
		return err
	}

	if err := r.saveTokens(&shared.MusicTokens{UserToken: token}); err != nil {
		return err
	}

	r.writePlain("\n✓ Authorization successful\n")
	if r.configPath != "" {
		r.writePlain("✓ User token saved to %s\n", r.configPath)
	}
	r.writePlain("\nYou can now run: amx album library <l.id>\n")
	return nil
}

// captureUserToken serves the embedded authorization page on the configured
// local address, opens the browser, and waits for the page to post back a
// Music User Token.
func (r *Runner) captureUserToken() (string, error) {
	devToken := r.config.Credentials.AppleMusic.DeveloperToken
	if devToken == "" {
		return "", fmt.Errorf("%w: developer token must be configured first (run 'amx auth import')", shared.ErrMissingCredentials)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	page, err := web.AuthorizationPage(devToken, state)
	if err != nil {
		return "", err
	}

	handler := server.NewTokenHandler(page, state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{Addr: serverAddr, Handler: router}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting token capture server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	// Give the server a moment to start
	time.Sleep(100 * time.Millisecond)

	authURL := fmt.Sprintf("http://%s/", serverAddr)
	r.writePlain("→ Opening browser for Apple Music authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.TokenResult
	select {
	case result = <-handler.Result():
		// Got the token from the page
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return "", fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.UserToken == "" {
		return "", fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.UserToken, nil
}

// AuthImport extracts Apple Music tokens from a "Copy as cURL" request and
// saves them to the config file.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	r.logger.Info("parsing cURL command for Apple Music tokens")

	var headers *shared.CurlHeaders
	var err error
	if curlFile != "" {
		headers, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL command", "file", curlFile)
	} else {
		headers, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
	}

	tokens, err := headers.Tokens()
	if err != nil {
		return err
	}

	if err := r.saveTokens(tokens); err != nil {
		return err
	}

	r.writePlain("✓ Apple Music tokens imported\n")
	if tokens.DeveloperToken != "" {
		r.writePlain("  Developer token: present (%d chars)\n", len(tokens.DeveloperToken))
	}
	if tokens.UserToken != "" {
		r.writePlain("  User token: present (%d chars)\n", len(tokens.UserToken))
	}
	if r.configPath != "" {
		r.writePlain("  Saved to %s\n", r.configPath)
	}
	r.writePlain("\nRun 'amx auth status' to verify them against the API.\n")
	return nil
}

// AuthStatus validates configured token formats and probes the API with them.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	creds := r.config.Credentials.AppleMusic

	switch {
	case creds.DeveloperToken == "":
		r.writePlain("Developer token: ✗ not configured\n")
	case services.ValidateDeveloperToken(creds.DeveloperToken) != nil:
		r.writePlain("Developer token: ✗ %v\n", services.ValidateDeveloperToken(creds.DeveloperToken))
	default:
		r.writePlain("Developer token: ✓ valid format\n")
	}

	if creds.UserToken == "" {
		r.writePlain("User token: ✗ not configured (run 'amx auth login')\n")
	} else {
		r.writePlain("User token: ✓ present\n")
	}

	storefront := creds.Storefront
	if storefront == "" {
		storefront = "us"
	}
	if err := services.ValidateStorefront(storefront); err != nil {
		r.writePlain("Storefront: ✗ %v\n", err)
	} else {
		r.writePlain("Storefront: ✓ %s\n", storefront)
	}

	if creds.DeveloperToken == "" {
		return fmt.Errorf("%w: developer token (run 'amx auth import')", shared.ErrMissingCredentials)
	}

	resp, err := r.api.Get(ctx, fmt.Sprintf("/v1/storefronts/%s", storefront))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		r.writePlain("Catalog access: ✓ authorized\n")
	case resp.StatusCode == http.StatusUnauthorized:
		r.writePlain("Catalog access: ✗ developer token rejected\n")
		return fmt.Errorf("%w: developer token rejected (status %d)", shared.ErrAuthFailed, resp.StatusCode)
	default:
		r.writePlain("Catalog access: ✗ status %d\n", resp.StatusCode)
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if creds.UserToken == "" {
		return nil
	}

	resp, err = r.api.Get(ctx, "/v1/me/library/albums?limit=1")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		r.writePlain("Library access: ✓ authorized\n")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		r.writePlain("Library access: ✗ user token rejected (run 'amx auth login')\n")
		return fmt.Errorf("%w: user token rejected (status %d)", shared.ErrTokenExpired, resp.StatusCode)
	default:
		r.writePlain("Library access: ✗ status %d\n", resp.StatusCode)
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return nil
}
