package repoindex

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultCacheDir resolves the directory Helm caches downloaded repository
// indexes in, following the same precedence Helm itself uses:
// HELM_REPOSITORY_CACHE, then HELM_CACHE_HOME, then an OS-specific default
// under the user's home directory.
func DefaultCacheDir() string {
	if dir := os.Getenv("HELM_REPOSITORY_CACHE"); dir != "" {
		return dir
	}

	if dir := os.Getenv("HELM_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "repository")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "helm", "repository")
		}
	} else if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "helm", "repository")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "Roaming", "helm", "repository")
	}

	return filepath.Join(home, ".cache", "helm", "repository")
}

// DefaultConfigDir resolves the directory holding Helm's repositories.yaml,
// following HELM_CONFIG_HOME then an OS-specific default.
func DefaultConfigDir() string {
	if dir := os.Getenv("HELM_CONFIG_HOME"); dir != "" {
		return dir
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "helm")
		}
	} else if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "helm")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "Roaming", "helm")
	}

	return filepath.Join(home, ".config", "helm")
}
