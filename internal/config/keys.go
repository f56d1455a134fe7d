package config

import (
	"fmt"
	"strconv"
)

// Keys lists the option names accepted by SetKey, in display order.
var Keys = []string{"max_display_rows", "explain_verbose"}

// SetKey sets a single option from its string form.
func (c *Config) SetKey(key string, value string) error {
	switch key {
	case "max_display_rows":
		rows, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("Invalid value %q for %q: %w", value, key, err)
		}

		return c.SetMaxDisplayRows(rows)
	case "explain_verbose":
		verbose, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("Invalid value %q for %q: %w", value, key, err)
		}

		c.SetExplainVerbose(verbose)

		return nil
	}

	return fmt.Errorf("Unknown config key %q", key)
}

// Values returns the options as key/value strings in the order of Keys.
func (c RenderConfig) Values() [][]string {
	return [][]string{
		{"max_display_rows", strconv.Itoa(c.MaxDisplayRows)},
		{"explain_verbose", strconv.FormatBool(c.ExplainVerbose)},
	}
}
