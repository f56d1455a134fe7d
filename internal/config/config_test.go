package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type configSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(configSuite))
}

func (t *configSuite) Test_defaults() {
	c := NewConfig("")
	t.Equal(RenderConfig{MaxDisplayRows: 50, ExplainVerbose: true}, c.Get())
	t.NoError(c.Load())
	t.Error(c.Write())
}

func (t *configSuite) Test_loadWrite() {
	path := filepath.Join(t.T().TempDir(), "sqlmagic.yaml")

	c := NewConfig(path)
	t.NoError(c.Load(), "A missing file keeps the defaults")
	t.Equal(DefaultRenderConfig(), c.Get())

	t.NoError(c.Set(RenderConfig{MaxDisplayRows: 7, ExplainVerbose: false}))
	t.NoError(c.Write())

	other := NewConfig(path)
	t.NoError(other.Load())
	t.Equal(RenderConfig{MaxDisplayRows: 7, ExplainVerbose: false}, other.Get())
}

func (t *configSuite) Test_loadPartial() {
	path := filepath.Join(t.T().TempDir(), "sqlmagic.yaml")
	require.NoError(t.T(), os.WriteFile(path, []byte("max_display_rows: 3\n"), 0644))

	c := NewConfig(path)
	t.NoError(c.Load())
	t.Equal(RenderConfig{MaxDisplayRows: 3, ExplainVerbose: true}, c.Get())
}

func (t *configSuite) Test_loadInvalid() {
	tests := []struct {
		name string
		data string
	}{
		{name: "Negative row cap", data: "max_display_rows: -1\n"},
		{name: "Malformed yaml", data: "max_display_rows: [\n"},
		{name: "Wrong type", data: "explain_verbose: sometimes\n"},
	}

	for i, test := range tests {
		t.T().Logf("%s (case %d)", test.name, i)

		path := filepath.Join(t.T().TempDir(), "sqlmagic.yaml")
		require.NoError(t.T(), os.WriteFile(path, []byte(test.data), 0644))

		c := NewConfig(path)
		t.Error(c.Load())
		t.Equal(DefaultRenderConfig(), c.Get(), "A failed load leaves the options untouched")
	}
}

func (t *configSuite) Test_setKey() {
	tests := []struct {
		name      string
		key       string
		value     string
		expectErr bool
		expect    RenderConfig
	}{
		{name: "Row cap", key: "max_display_rows", value: "10", expect: RenderConfig{MaxDisplayRows: 10, ExplainVerbose: true}},
		{name: "Zero row cap", key: "max_display_rows", value: "0", expect: RenderConfig{MaxDisplayRows: 0, ExplainVerbose: true}},
		{name: "Verbose off", key: "explain_verbose", value: "false", expect: RenderConfig{MaxDisplayRows: 50, ExplainVerbose: false}},
		{name: "Negative row cap", key: "max_display_rows", value: "-5", expectErr: true, expect: DefaultRenderConfig()},
		{name: "Not a number", key: "max_display_rows", value: "many", expectErr: true, expect: DefaultRenderConfig()},
		{name: "Not a bool", key: "explain_verbose", value: "perhaps", expectErr: true, expect: DefaultRenderConfig()},
		{name: "Unknown key", key: "color", value: "red", expectErr: true, expect: DefaultRenderConfig()},
	}

	for i, test := range tests {
		t.T().Logf("%s (case %d)", test.name, i)

		c := NewConfig("")
		err := c.SetKey(test.key, test.value)
		if test.expectErr {
			t.Error(err)
		} else {
			t.NoError(err)
		}

		t.Equal(test.expect, c.Get())
	}
}

func (t *configSuite) Test_concurrentAccess() {
	c := NewConfig("")

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(rows int) {
			defer wg.Done()
			_ = c.SetMaxDisplayRows(rows)
		}(i)

		go func() {
			defer wg.Done()
			_ = c.Get()
		}()
	}

	wg.Wait()
	t.GreaterOrEqual(c.Get().MaxDisplayRows, 0)
}
