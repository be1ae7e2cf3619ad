package config

// Version is the release version reported by /health and the startup log
const Version = "0.3.0"

// GetVersion returns the current version
func GetVersion() string {
	return Version
}
