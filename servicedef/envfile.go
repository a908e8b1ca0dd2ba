package servicedef

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// WriteEnvFile writes the environment of p to path, one sorted KEY=VALUE line per variable.
func WriteEnvFile(path string, p UnitParams) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory for %s: %w", path, err)
	}
	if err := godotenv.Write(p.Environment(), path); err != nil {
		return fmt.Errorf("cannot write service environment to %s: %w", path, err)
	}
	return nil
}

// ReadEnvFile reads back a file written by WriteEnvFile.
func ReadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read service environment from %s: %w", path, err)
	}
	return env, nil
}
