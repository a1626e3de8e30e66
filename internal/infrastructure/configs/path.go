package configs

import (
	"flag"
	"os"

	"github.com/korlin/auditorium/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file location: --config flag,
// then AUDITORIUM_CONFIG, then the usual candidates. An empty result
// means run on defaults and env overrides alone.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("AUDITORIUM_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/auditorium/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
