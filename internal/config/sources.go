package config

import "os"

// Source says where an effective setting came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceDefault Source = "default"
)

// SettingStatus describes one effective setting for the status command.
type SettingStatus struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// CheckSettings reports the effective pricing API settings and their origin.
func CheckSettings(cfg *Config) []SettingStatus {
	return []SettingStatus{
		checkSetting("Pricing API base URL", cfg.API.BaseURL, DefaultBaseURL,
			"COMMODITYAVG_API_BASE_URL", EnvBackendURL),
	}
}

// checkSetting classifies value as coming from env, config, or the default.
func checkSetting(name, value, def string, envVars ...string) SettingStatus {
	st := SettingStatus{Name: name, Value: value, Source: SourceConfig}
	for _, e := range envVars {
		if os.Getenv(e) != "" {
			st.Source = SourceEnv
			return st
		}
	}
	if value == def {
		st.Source = SourceDefault
	}
	return st
}
