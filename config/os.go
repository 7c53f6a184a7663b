package config

import "os"

// colorsDisabled honors https://no-color.org and dumb terminals.
func colorsDisabled() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return true
	}
	return os.Getenv("TERM") == "dumb"
}
