package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads .env files into the process environment. ENV_FILE, when
// set, is the only file read. Otherwise .env.local is read before .env, so
// its values win. Missing files are not an error, and variables already set
// in the environment are never overwritten.
func LoadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}
