// Package config handles configuration loading for the OAGIS server.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax), so credentials can be
// injected at runtime.
//
// # Configuration Sections
//
//   - server: HTTP receiver settings (port, base path)
//   - storage: message record store (MongoDB URI, database name)
//   - sender: this access point's control-area identity
//   - delivery: outbound channel defaults and credentials
//   - debug: opt-in full-message capture per direction
//
// # Example Configuration
//
//	server:
//	  port: 8080
//
//	storage:
//	  mongodb:
//	    uri: ${MONGODB_URI}
//	    database: oagis
//
//	sender:
//	  logicalId: ACME-ERP
//	  authId: ACME
//
//	delivery:
//	  sendToUrl: https://partner.example.com/oagis
//	  basicAuth:
//	    username: ${OAGIS_BASIC_USER}
//	    password: ${OAGIS_BASIC_PASS}
//
// See [Load] for loading configuration from a file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Sender   SenderConfig   `yaml:"sender"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Debug    DebugConfig    `yaml:"debug"`
}

// ServerConfig holds HTTP receiver settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"basePath"`
}

// StorageConfig holds message store settings.
type StorageConfig struct {
	MongoDB MongoDBConfig `yaml:"mongodb"`
}

// MongoDBConfig holds MongoDB connection settings.
type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// SenderConfig identifies this access point in outbound control areas.
type SenderConfig struct {
	LogicalID string `yaml:"logicalId"`
	AuthID    string `yaml:"authId"`
	// ConfirmBODTemplate names the renderer template for Confirm BODs.
	ConfirmBODTemplate string `yaml:"confirmBodTemplate"`
}

// DeliveryConfig holds outbound channel defaults and credentials.
type DeliveryConfig struct {
	// SendToURL is the default destination for outbound documents.
	SendToURL string `yaml:"sendToUrl"`

	// SaveToDirectory and SaveToFilenameBase configure the filesystem
	// channel used by test setups.
	SaveToDirectory    string `yaml:"saveToDirectory"`
	SaveToFilenameBase string `yaml:"saveToFilenameBase"`

	// Client certificate presented on HTTPS sends.
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`

	BasicAuth struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"basicAuth"`

	// InsecureSkipVerify relaxes server certificate validation on the
	// HTTP channel. Test/integration posture only; leave off in
	// production.
	InsecureSkipVerify bool `yaml:"insecureSkipVerify"`
}

// DebugConfig holds opt-in full-message capture flags. When set, the raw
// message text is retained on message records for the given direction.
type DebugConfig struct {
	CaptureInbound  bool `yaml:"captureInbound"`
	CaptureOutbound bool `yaml:"captureOutbound"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/oagis"
	}
	if c.Storage.MongoDB.Database == "" {
		c.Storage.MongoDB.Database = "oagis"
	}
	if c.Sender.ConfirmBODTemplate == "" {
		c.Sender.ConfirmBODTemplate = "ConfirmBod"
	}
}

func (c *Config) validate() error {
	if c.Storage.MongoDB.URI == "" {
		return fmt.Errorf("storage.mongodb.uri is required")
	}
	if c.Sender.LogicalID == "" {
		return fmt.Errorf("sender.logicalId is required")
	}
	if (c.Delivery.CertFile == "") != (c.Delivery.KeyFile == "") {
		return fmt.Errorf("delivery.certFile and delivery.keyFile must be set together")
	}
	return nil
}
