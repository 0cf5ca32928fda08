package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"chainlog/logx"
)

// LoadChainConfig reads and parses the chain.yml file
func LoadChainConfig(path string) (*ChainConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if cfgFile.Config.ChainID == "" {
		return nil, fmt.Errorf("config %s: chain_id is required", path)
	}
	logx.Info("CONFIG", fmt.Sprintf("Loaded chain config: chain_id=%s backend=%s peers=%d",
		cfgFile.Config.ChainID, cfgFile.Config.Storage.Backend, len(cfgFile.Config.Peers)))
	return &cfgFile.Config, nil
}

// LoadSigningSecret loads the shared room secret from a file (expects hex
// encoding). The secret is distributed out-of-band by the room layer.
func LoadSigningSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret file %s: %w", path, err)
	}
	secret, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("secret file %s is not valid hex: %w", path, err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret file %s is empty", path)
	}
	return secret, nil
}

// DefaultSyncConfig returns the compile-time tuning defaults.
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		ChunkSize:         ChunkSize,
		BatchSize:         BatchSize,
		MinSyncIntervalMs: int(MinSyncInterval.Milliseconds()),
		SyncTimeoutMs:     int(SyncTimeout.Milliseconds()),
	}
}

// LoadSyncConfig reads sync tuning from an .ini file
func LoadSyncConfig(path string) (*SyncConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	syncCfg := DefaultSyncConfig()
	if err := cfg.Section("sync").MapTo(syncCfg); err != nil {
		return nil, err
	}
	if syncCfg.ChunkSize == 0 || syncCfg.BatchSize <= 0 {
		return nil, fmt.Errorf("sync config %s: chunk_size and batch_size must be positive", path)
	}
	return syncCfg, nil
}
