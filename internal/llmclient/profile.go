package llmclient

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Profile binds a provider, a model, credentials, and an optional alternate
// endpoint. Fallback names another profile tried when this one is
// unavailable.
type Profile struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
	TokenCap int    `json:"token_cap,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// Config is the on-disk llm_config.json shape.
type Config struct {
	Providers      map[string]Profile `json:"providers"`
	DefaultProfile string             `json:"default_profile"`
}

var validProviders = map[string]bool{
	"gemini":     true,
	"glm":        true,
	"openrouter": true,
	"openai":     true,
}

// LoadConfig reads a profile config file and substitutes ${ENV_VAR}
// references in api_key and base_url fields.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("load llm config %s: %w", path, err)
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]Profile{}
	}
	for name, p := range cfg.Providers {
		p.APIKey = substituteEnv(p.APIKey)
		p.BaseURL = substituteEnv(p.BaseURL)
		cfg.Providers[name] = p
	}
	return &cfg, nil
}

func substituteEnv(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		name := v[2 : len(v)-1]
		if resolved := os.Getenv(name); resolved != "" {
			return resolved
		}
	}
	return v
}

// Resolve returns the named profile, or the default profile when name is
// empty.
func (c *Config) Resolve(name string) (Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		return Profile{}, fmt.Errorf("no profile specified and no default_profile configured")
	}
	p, ok := c.Providers[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found (available: %s)", name, strings.Join(c.ProfileNames(), ", "))
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", name, err)
	}
	return p, nil
}

// ProfileNames lists configured profile names in stable order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Providers))
	for n := range c.Providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (p Profile) Validate() error {
	provider := strings.ToLower(strings.TrimSpace(p.Provider))
	if !validProviders[provider] {
		return fmt.Errorf("unknown provider %q (supported: gemini, glm, openrouter, openai)", p.Provider)
	}
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("api_key is required")
	}
	return nil
}
