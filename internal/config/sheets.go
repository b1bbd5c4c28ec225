package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Veraticus/zenith/internal/sheets"
)

// SheetsTokenFile is where 'zenith auth sheets' saves the OAuth token.
func SheetsTokenFile() string {
	if v := viper.GetString("sheets.token_file"); v != "" {
		return ExpandPath(v)
	}
	return filepath.Join(ConfigDir(), "sheets-token.json")
}

// LoadSheetsConfig builds the Sheets configuration. Viper keys under
// sheets.* win over the GOOGLE_SHEETS_* environment variables.
func LoadSheetsConfig() (*sheets.Config, error) {
	cfg := sheets.DefaultConfig()

	pick := func(key, env string) string {
		if v := viper.GetString(key); v != "" {
			return v
		}
		return os.Getenv(env)
	}

	cfg.ServiceAccountPath = ExpandPath(pick("sheets.service_account_path", "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))
	cfg.ClientID = pick("sheets.client_id", "GOOGLE_SHEETS_CLIENT_ID")
	cfg.ClientSecret = pick("sheets.client_secret", "GOOGLE_SHEETS_CLIENT_SECRET")
	cfg.RefreshToken = pick("sheets.refresh_token", "GOOGLE_SHEETS_REFRESH_TOKEN")
	cfg.SpreadsheetID = pick("sheets.spreadsheet_id", "GOOGLE_SHEETS_SPREADSHEET_ID")
	if name := pick("sheets.spreadsheet_name", "GOOGLE_SHEETS_SPREADSHEET_NAME"); name != "" {
		cfg.SpreadsheetName = name
	}
	if cfg.ServiceAccountPath == "" {
		cfg.TokenFile = SheetsTokenFile()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SheetsOAuth returns the OAuth client settings for the consent flow.
func SheetsOAuth() sheets.OAuth2Config {
	pick := func(key, env string) string {
		if v := viper.GetString(key); v != "" {
			return v
		}
		return os.Getenv(env)
	}
	return sheets.OAuth2Config{
		ClientID:     pick("sheets.client_id", "GOOGLE_SHEETS_CLIENT_ID"),
		ClientSecret: pick("sheets.client_secret", "GOOGLE_SHEETS_CLIENT_SECRET"),
		TokenFile:    SheetsTokenFile(),
		CallbackAddr: viper.GetString("sheets.callback_addr"),
	}
}
