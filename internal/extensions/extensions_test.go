package extensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateExtension(t *testing.T) {
	cases := []struct {
		name      string
		extension string
		wantError bool
	}{
		{"Valid Extension", "valid_extension", false},
		{"Valid Extension with multiple underscores", "a_0_a_0_a_0", false},
		{"Valid single-character Extension", "a", false},
		{"Valid Start Numeric", "123_valid", false},
		{"Empty Extension", "", true},
		{"Invalid Characters", "Invalid-Extension!", true},
		{"Invalid Start Underscore", "_invalidextension", true},
		{"Invalid End Underscore", "invalidextension_", true},
		{"Invalid sequential underscores", "a__0", true},
		{"Invalid only underscore", "_", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateExtension(c.extension)
			if c.wantError {
				assert.Error(t, err, "Expected an error for invalid extension")
			} else {
				assert.NoError(t, err, "Expected no error for valid extension")
			}
		})
	}
}

func TestBuiltinExtensions(t *testing.T) {
	for _, extension := range builtinExtensions {
		assert.NoError(t, validateExtension(extension))
	}

	registry := NewExtensionRegistry()
	assert.Equal(t, len(builtinExtensions), registry.Version())
	assert.True(t, registry.HasExtension("shortcuts"))
	assert.False(t, registry.HasExtension("plot"))

	// The registry is a copy.
	registry[0] = "changed"
	assert.Equal(t, "shortcuts", builtinExtensions[0])
}

func TestRegister(t *testing.T) {
	registry := NewExtensionRegistry()

	require.NoError(t, registry.Register([]string{"plot", "row_count"}))
	assert.True(t, registry.HasExtension("plot"))
	assert.Equal(t, len(builtinExtensions)+2, registry.Version())

	cases := []struct {
		name       string
		extensions []string
	}{
		{"Duplicate built-in", []string{"shortcuts"}},
		{"Duplicate registered", []string{"plot"}},
		{"Duplicate in request", []string{"chart", "chart"}},
		{"Invalid name", []string{"chart", "Bad-Name"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			before := append(Extensions{}, registry...)
			assert.Error(t, registry.Register(c.extensions))
			assert.Equal(t, before, registry, "A failed registration leaves the registry unchanged")
		})
	}
}
