// Package tools implements the HTTP transport behind the uniform tool
// invocation boundary, plus the tool-backed event sources the watcher polls.
package tools

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServerConfig is one named tool server.
type ServerConfig struct {
	URL   string `json:"url"`
	Token string `json:"token,omitempty"`
}

// Config maps server names to endpoints.
type Config struct {
	Servers map[string]ServerConfig `json:"servers"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools config %s: %w", path, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tools config %s: %w", path, err)
	}

	for name, server := range config.Servers {
		if server.URL == "" {
			return nil, fmt.Errorf("tools config %s: server %q has no url", path, name)
		}
	}

	return &config, nil
}
