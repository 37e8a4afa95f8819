package cliutil

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Loads environment variables from the user config dotfile ($XDG_CONFIG_HOME/<app>/.env), if it
// exists. Variables already set in the environment are not overridden, so the process environment
// and a working-directory .env (loaded earlier via godotenv/autoload) take priority.
//
// Returns the path loaded, or an empty string if there was no dotfile.
func LoadConfigDotenv(app string) (string, error) {
	p, err := xdg.SearchConfigFile(filepath.Join(app, ".env"))
	if err != nil {
		// not found in any config dir
		return "", nil
	}
	if err := godotenv.Load(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return p, nil
}
