package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv applies variables from a .env file without overriding the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = ".env"
	}
	if errLoad := godotenv.Load(path); errLoad != nil {
		if errors.Is(errLoad, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, errLoad)
	}
	return nil
}
