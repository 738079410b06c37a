// Package config assembles the agent's runtime configuration from the
// environment, with defaults matching the stock docker-compose topology.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	ucphttp "github.com/Rakinzi/UCP/http"
)

// Config is the agent's full runtime configuration.
type Config struct {
	// ListenAddr the API server binds to.
	ListenAddr string

	// KeyFile is the path of the persisted identity keypair.
	KeyFile string

	// Stores are the merchant base URLs queried by search.
	Stores []string

	// HostRewrites remaps outside merchant addresses to in-network ones.
	HostRewrites map[string]string

	// OllamaEnabled switches best-effort search ranking on.
	OllamaEnabled bool
	OllamaBaseURL string
	OllamaModel   string
	OllamaTimeout time.Duration

	// MCPEnabled mounts the MCP tool surface on /mcp.
	MCPEnabled bool
}

// FromEnv reads configuration from the environment. Unset variables fall
// back to the defaults the compose setup expects.
func FromEnv() Config {
	cfg := Config{
		ListenAddr:    envOr("LISTEN_ADDR", ":8000"),
		KeyFile:       envOr("KEY_FILE", "private_key.pem"),
		Stores:        splitList(envOr("STORE_FRONTENDS", os.Getenv("STORE_URLS"))),
		HostRewrites:  parseRewrites(os.Getenv("HOST_REWRITES")),
		OllamaEnabled: parseBool(os.Getenv("OLLAMA_ENABLED")),
		OllamaBaseURL: envOr("OLLAMA_BASE_URL", "http://ollama:11434"),
		OllamaModel:   envOr("OLLAMA_MODEL", "llama3.2:1b"),
		OllamaTimeout: parseSeconds(os.Getenv("OLLAMA_TIMEOUT"), 3*time.Second),
		MCPEnabled:    parseBool(os.Getenv("MCP_ENABLED")),
	}
	if len(cfg.Stores) == 0 {
		cfg.Stores = []string{
			"http://store1-frontend:3000",
			"http://store2-frontend:3000",
			"http://store3-frontend:3000",
		}
	}
	if cfg.HostRewrites == nil {
		cfg.HostRewrites = ucphttp.DefaultHostRewrites()
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRewrites parses "from=to,from=to" pairs. Malformed pairs are skipped.
func parseRewrites(value string) map[string]string {
	if value == "" {
		return nil
	}
	rules := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		from, to, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && from != "" && to != "" {
			rules[from] = to
		}
	}
	if len(rules) == 0 {
		return nil
	}
	return rules
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// parseSeconds accepts a float number of seconds, mirroring the variables
// the compose setup already uses.
func parseSeconds(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs * float64(time.Second))
}
