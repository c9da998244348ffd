// Package secrets resolves external credentials (Twitter bearer token, LLM
// API key, broker keys) from HashiCorp Vault when enabled, with environment
// fallback and a local read cache.
package secrets

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/vault/api"

	"signal-engine/config"
	"signal-engine/internal/logging"
)

// Source resolves named credentials
type Source struct {
	client *api.Client
	cfg    config.VaultConfig
	logger *logging.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewSource creates a credential source. When Vault is disabled the source
// serves environment variables only.
func NewSource(cfg config.VaultConfig, logger *logging.Logger) (*Source, error) {
	s := &Source{
		cfg:    cfg,
		logger: logger.WithComponent("secrets"),
		cache:  make(map[string]string),
	}
	if !cfg.Enabled {
		return s, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	s.client = client
	return s, nil
}

// Get resolves one credential by name. Resolution order: local cache, Vault
// (when enabled), then the named environment variable. A Vault failure
// degrades to the env fallback rather than failing the lookup.
func (s *Source) Get(ctx context.Context, name, envVar string) string {
	s.mu.RLock()
	if cached, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	if s.cfg.Enabled {
		if value, err := s.readVault(ctx, name); err != nil {
			s.logger.Warn("vault read failed, falling back to environment",
				"secret", name, "error", err)
		} else if value != "" {
			s.store(name, value)
			return value
		}
	}

	value := os.Getenv(envVar)
	if value != "" {
		s.store(name, value)
	}
	return value
}

// Health checks the Vault connection. Always healthy when disabled.
func (s *Source) Health(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	health, err := s.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}
	return nil
}

// ClearCache drops all cached credential values
func (s *Source) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

func (s *Source) readVault(ctx context.Context, name string) (string, error) {
	path := fmt.Sprintf("%s/data/%s/%s", s.cfg.MountPath, s.cfg.SecretPath, name)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", nil
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid secret format at %s", path)
	}
	value, _ := data["value"].(string)
	return value, nil
}

func (s *Source) store(name, value string) {
	s.mu.Lock()
	s.cache[name] = value
	s.mu.Unlock()
}
