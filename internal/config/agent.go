package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvCommsProviderName = "DOCKET_COMMS_PROVIDER_NAME"
	EnvCommsBaseURL      = "DOCKET_COMMS_BASE_URL"
	EnvCommsToken        = "DOCKET_COMMS_TOKEN"
	EnvCommsDeployment   = "DOCKET_COMMS_DEPLOYMENT"
	EnvCommsAPIVersion   = "DOCKET_COMMS_API_VERSION"
	EnvCommsAuthType     = "DOCKET_COMMS_AUTH_TYPE"
	EnvCommsModelName    = "DOCKET_COMMS_MODEL_NAME"
)

// CommsConfig holds the correspondence agent configuration.
type CommsConfig struct {
	Agent gaconfig.AgentConfig `toml:"agent"`
}

// Merge overwrites non-zero fields from overlay.
func (c *CommsConfig) Merge(overlay *CommsConfig) {
	c.Agent.Merge(&overlay.Agent)
}

// Finalize applies the three-phase finalize pattern to the go-agents
// AgentConfig: defaults from go-agents DefaultAgentConfig, environment
// variable overrides, and validation.
func (c *CommsConfig) Finalize() error {
	loadAgentDefaults(&c.Agent)
	loadAgentEnv(&c.Agent)
	return validateAgent(&c.Agent)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}
	if v := os.Getenv(EnvCommsProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvCommsBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvCommsModelName); v != "" {
		c.Model.Name = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Provider.Options[key] = v
		}
	}

	setOption(EnvCommsToken, "token")
	setOption(EnvCommsDeployment, "deployment")
	setOption(EnvCommsAPIVersion, "api_version")
	setOption(EnvCommsAuthType, "auth_type")
}

func validateAgent(c *gaconfig.AgentConfig) error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider == nil {
		return fmt.Errorf("provider required")
	}
	if c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == nil {
		return fmt.Errorf("model required")
	}
	return nil
}
