package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from an optional .env style file. A missing
// file is not an error; a malformed one is.
func LoadDotEnv(filename string) error {
	if err := godotenv.Load(filename); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
