//go:build dev

package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// dotEnvFiles are merged in order; earlier files win since godotenv never
// overrides a variable that is already set.
var dotEnvFiles = []string{".env.local", ".env"}

func loadDotEnv() error {
	present := make([]string, 0, len(dotEnvFiles))
	for _, name := range dotEnvFiles {
		if _, err := os.Stat(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		present = append(present, name)
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}
