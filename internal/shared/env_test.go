package shared

import "testing"

func TestApplyEnv(t *testing.T) {
	t.Run("overrides config values", func(t *testing.T) {
		t.Setenv(EnvDeveloperToken, "env_dev_token")
		t.Setenv(EnvUserToken, "env_user_token")
		t.Setenv(EnvStorefront, "jp")
		t.Setenv(EnvDatabasePath, "/env/amx.db")

		config := DefaultConfig()
		ApplyEnv(config)

		if config.Credentials.AppleMusic.DeveloperToken != "env_dev_token" {
			t.Errorf("expected env developer token, got %s", config.Credentials.AppleMusic.DeveloperToken)
		}

		if config.Credentials.AppleMusic.UserToken != "env_user_token" {
			t.Errorf("expected env user token, got %s", config.Credentials.AppleMusic.UserToken)
		}

		if config.Credentials.AppleMusic.Storefront != "jp" {
			t.Errorf("expected storefront jp, got %s", config.Credentials.AppleMusic.Storefront)
		}

		if config.Database.Path != "/env/amx.db" {
			t.Errorf("expected env database path, got %s", config.Database.Path)
		}
	})

	t.Run("empty variables leave config untouched", func(t *testing.T) {
		t.Setenv(EnvDeveloperToken, "")
		t.Setenv(EnvBaseURL, "")

		config := DefaultConfig()
		ApplyEnv(config)

		if config.Credentials.AppleMusic.DeveloperToken != "your_developer_token" {
			t.Errorf("empty env should not override, got %s", config.Credentials.AppleMusic.DeveloperToken)
		}

		if config.API.BaseURL != "https://amp-api.music.apple.com" {
			t.Errorf("empty env should not override base URL, got %s", config.API.BaseURL)
		}
	})
}
