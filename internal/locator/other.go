//go:build !windows

package locator

// Platform returns None: there is no system-wide record of install paths.
func Platform() Locator { return None{} }
