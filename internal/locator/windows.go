//go:build windows

package locator

import (
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

// Windows reads the install path the game's installer stores under
// HKLM\SOFTWARE\Westwood\<product>.
type Windows struct{}

func (Windows) Locate(p Product) (string, bool) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Westwood\`+string(p), registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer k.Close()

	// InstallPath points at the game executable
	exe, _, err := k.GetStringValue("InstallPath")
	if err != nil || exe == "" {
		return "", false
	}
	return filepath.Dir(exe), true
}

// Platform returns the locator backed by the system registry.
func Platform() Locator { return Windows{} }
