package extensions

import (
	"fmt"
	"regexp"

	"github.com/canonical/lxd/shared"
)

var extensionRegex = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// Extensions represents a registry of API extensions reported by the server.
//
// Built-in extensions describe what this server offers. Embedders serving extra endpoints
// register their own names after them.
type Extensions []string

// Populate built-in extensions here.
var builtinExtensions = Extensions{
	"shortcuts",
	"shortcut_html",
	"relations",
	"render_config",
	"metrics",
}

// validateExtension validates the given extension name.
func validateExtension(extension string) error {
	if extension == "" {
		return fmt.Errorf("Extension cannot be empty")
	}

	if !extensionRegex.MatchString(extension) {
		return fmt.Errorf("Extension name %q is invalid: Extension name must contain only lowercase letters, digits and underscores, and must not begin or end with an underscore", extension)
	}

	return nil
}

// HasExtension reports whether the extension set supports the given extension.
func (e Extensions) HasExtension(ext string) bool {
	return shared.ValueInSlice[string](ext, e)
}

// Version returns the number of extensions in the set, representing its version number.
func (e Extensions) Version() int {
	return len(e)
}

// NewExtensionRegistry returns a registry holding the built-in extensions.
func NewExtensionRegistry() Extensions {
	extensions := make(Extensions, len(builtinExtensions))
	copy(extensions, builtinExtensions)

	return extensions
}

// Register registers new extensions. Nothing is registered if any of them is invalid or already present.
func (e *Extensions) Register(newExtensions []string) error {
	registered := make(Extensions, len(*e), len(*e)+len(newExtensions))
	copy(registered, *e)

	for _, extension := range newExtensions {
		if shared.ValueInSlice[string](extension, registered) {
			return fmt.Errorf("Extension %q already registered", extension)
		}

		err := validateExtension(extension)
		if err != nil {
			return err
		}

		registered = append(registered, extension)
	}

	*e = registered

	return nil
}
