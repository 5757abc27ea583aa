// Package config loads the process-wide configuration. It is read once at
// startup into an immutable struct passed explicitly to each constructor;
// there are no ambient singletons.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Firebase    FirebaseConfig    `yaml:"firebase"`
	GoogleOAuth GoogleOAuthConfig `yaml:"google_oauth"`
	Mail        MailConfig        `yaml:"mail"`
	Firestore   *FirestoreConfig  `yaml:"firestore,omitempty"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Addr string `yaml:"addr"` // listen address, e.g. ":8080"
}

// FirebaseConfig represents the identity-backend configuration
type FirebaseConfig struct {
	ProjectID   string `yaml:"project_id"`
	Credentials string `yaml:"credentials"` // path to service account JSON
	APIKey      string `yaml:"api_key"`     // Web API key for the token REST endpoints
}

// GoogleOAuthConfig represents the Google OAuth provider configuration.
// ClientID wins when both fields are set; CredentialsPath points at a
// client credentials JSON whose web.client_id is extracted at load time.
type GoogleOAuthConfig struct {
	ClientID        string `yaml:"client_id"`
	CredentialsPath string `yaml:"credentials_path"`
}

// MailConfig represents verification-email delivery settings. Both fields
// empty means links are logged instead of sent.
type MailConfig struct {
	ResendAPIKey string `yaml:"resend_api_key"`
	From         string `yaml:"from"`
}

// FirestoreConfig enables the /status/firestore diagnostics route.
type FirestoreConfig struct {
	Database string `yaml:"database"` // e.g. "chauffeur"
}

// Load reads configuration from the specified YAML file, then applies
// environment variable overrides. An empty path skips the file and reads
// the environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.resolveGoogleClientID(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv reads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Server.Addr, "AUTH_ADDR")
	setFromEnv(&c.Firebase.ProjectID, "FIREBASE_PROJECT_ID")
	setFromEnv(&c.Firebase.Credentials, "FIREBASE_SERVICE_ACCOUNT_KEY")
	setFromEnv(&c.Firebase.APIKey, "FIREBASE_API_KEY")
	setFromEnv(&c.GoogleOAuth.ClientID, "GOOGLE_OAUTH_CLIENT_ID")
	setFromEnv(&c.GoogleOAuth.CredentialsPath, "GOOGLE_OAUTH_CREDS_PATH")
	setFromEnv(&c.Mail.ResendAPIKey, "RESEND_API_KEY")
	setFromEnv(&c.Mail.From, "MAIL_FROM")

	if database := os.Getenv("FIRESTORE_DATABASE"); database != "" {
		if c.Firestore == nil {
			c.Firestore = &FirestoreConfig{}
		}
		c.Firestore.Database = database
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// resolveGoogleClientID extracts web.client_id from the OAuth client
// credentials file when no explicit client id is configured.
func (c *Config) resolveGoogleClientID() error {
	if c.GoogleOAuth.ClientID != "" || c.GoogleOAuth.CredentialsPath == "" {
		return nil
	}

	data, err := os.ReadFile(c.GoogleOAuth.CredentialsPath)
	if err != nil {
		return fmt.Errorf("failed to read google oauth credentials: %w", err)
	}

	var creds struct {
		Web struct {
			ClientID string `json:"client_id"`
		} `json:"web"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("failed to parse google oauth credentials: %w", err)
	}
	if creds.Web.ClientID == "" {
		return fmt.Errorf("client_id not found in %s at path web.client_id", c.GoogleOAuth.CredentialsPath)
	}

	c.GoogleOAuth.ClientID = creds.Web.ClientID
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Firebase.ProjectID == "" {
		return fmt.Errorf("firebase.project_id is required (FIREBASE_PROJECT_ID)")
	}
	if c.Firebase.APIKey == "" {
		return fmt.Errorf("firebase.api_key is required (FIREBASE_API_KEY)")
	}
	// Mail settings come as a pair.
	if (c.Mail.ResendAPIKey == "") != (c.Mail.From == "") {
		return fmt.Errorf("mail.resend_api_key and mail.from must be set together (RESEND_API_KEY, MAIL_FROM)")
	}
	return nil
}

func setFromEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
