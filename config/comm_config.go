package config

import (
	"encoding/json"
	"os"
)

// SlackConfig is the "slack" section of communication_config.json.
type SlackConfig struct {
	BotToken    string `json:"bot_token,omitempty"`
	BotTokenEnv string `json:"bot_token_env,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
}

// SMTPConfig is the "smtp" section of communication_config.json.
type SMTPConfig struct {
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	PasswordEnv  string `json:"password_env,omitempty"`
	UseTLS       *bool  `json:"use_tls,omitempty"`
	UseSSL       *bool  `json:"use_ssl,omitempty"`
	FromEmail    string `json:"from_email,omitempty"`
	FromName     string `json:"from_name,omitempty"`
}

// CommunicationConfig is the decoded shape of communication_config.json.
type CommunicationConfig struct {
	Slack SlackConfig `json:"slack,omitempty"`
	SMTP  SMTPConfig  `json:"smtp,omitempty"`
}

// LoadCommunicationConfig reads the optional Slack/SMTP side-config. A
// missing file is not an error: callers treat the tool as "not_configured"
// rather than failing process boot.
func LoadCommunicationConfig(path string) CommunicationConfig {
	if path == "" {
		return CommunicationConfig{}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return CommunicationConfig{}
	}
	var cfg CommunicationConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return CommunicationConfig{}
	}
	return cfg
}

// ResolveSecret prefers an explicit value, falling back to the named
// environment variable, matching the _resolve_secret precedence the
// original Slack/SMTP tool adapters use.
func ResolveSecret(explicit, envName string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(envName)
}
