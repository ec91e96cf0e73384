package main

import (
	"log"

	corecmd "github.com/m3rciful/gatebot/core/cmd"
	"github.com/m3rciful/gatebot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("gatebot: %v", err)
	}
}
