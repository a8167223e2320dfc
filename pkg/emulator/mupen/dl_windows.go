//go:build windows

package mupen

import "fmt"

// The plugin set is loaded with dlopen semantics that purego only
// provides on unix-like systems.
func openLibrary(path string) (uintptr, error) {
	return 0, fmt.Errorf("native plugin loading is not supported on windows (%s)", path)
}

func closeLibrary(uintptr) error { return nil }
