// Package locator finds game install directories.
package locator

import (
	"fmt"
	"strings"

	"github.com/ossyrian/mixvfs/internal/vfs"
)

// Product names a game as its installer registers it.
type Product string

const (
	RedAlert2   Product = "Red Alert 2"
	TiberianSun Product = "Tiberian Sun"
)

// ParseProduct accepts product names and their abbreviations, ignoring case and separators.
func ParseProduct(s string) (Product, error) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	switch key {
	case "ra2", "redalert2":
		return RedAlert2, nil
	case "ts", "tiberiansun":
		return TiberianSun, nil
	default:
		return "", fmt.Errorf("unknown product %q", s)
	}
}

// ForEngine returns the product whose install directory holds the containers of e.
func ForEngine(e vfs.Engine) Product {
	if e == vfs.TiberianSun || e == vfs.Firestorm {
		return TiberianSun
	}
	return RedAlert2
}

// Locator resolves the install directory of a product.
type Locator interface {
	Locate(p Product) (dir string, ok bool)
}

// None never finds anything.
type None struct{}

func (None) Locate(Product) (string, bool) { return "", false }

// Static serves directories from configuration.
type Static map[Product]string

func (s Static) Locate(p Product) (string, bool) {
	dir, ok := s[p]
	return dir, ok && dir != ""
}

// Chain asks each locator in turn and returns the first hit.
type Chain []Locator

func (c Chain) Locate(p Product) (string, bool) {
	for _, l := range c {
		if dir, ok := l.Locate(p); ok {
			return dir, true
		}
	}
	return "", false
}
