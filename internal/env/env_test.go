package env

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Host    string        `env:"TEST_HOST" default:"localhost"`
	Port    int           `env:"TEST_PORT" default:"8080"`
	Enabled bool          `env:"TEST_ENABLED" default:"true"`
	Wait    time.Duration `env:"TEST_WAIT" default:"30s"`
	NoDef   string        `env:"TEST_NO_DEF"`
}

func TestLoad(t *testing.T) {
	os.Clearenv()
	t.Setenv("TEST_HOST", "example.com")
	t.Setenv("TEST_PORT", "9090")
	t.Setenv("TEST_ENABLED", "false")
	t.Setenv("TEST_WAIT", "1m30s")
	t.Setenv("TEST_NO_DEF", "foo")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "example.com", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Wait)
	assert.Equal(t, "foo", cfg.NoDef)
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Wait)
	assert.Empty(t, cfg.NoDef)
}

func TestLoad_EmptyStringRespected(t *testing.T) {
	os.Clearenv()
	t.Setenv("TEST_HOST", "")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	// An explicitly empty variable wins over the default.
	assert.Equal(t, "", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_InvalidValue(t *testing.T) {
	os.Clearenv()
	t.Setenv("TEST_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)
	require.Error(t, err)

	var invalid ErrInvalidValue
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "TEST_PORT", invalid.EnvVar)
}

func TestLoad_NotStructPointer(t *testing.T) {
	var s string
	err := Load(&s)
	require.Error(t, err)

	err = Load(testConfig{})
	require.Error(t, err)
}

type nestedLeaf struct {
	DSN string `env:"TEST_NESTED_DSN"`
}

func (n *nestedLeaf) Validate() error {
	if n.DSN == "" {
		return assert.AnError
	}
	return nil
}

type nestedRoot struct {
	Leaf nestedLeaf
}

func TestLoad_NestedValidation(t *testing.T) {
	os.Clearenv()

	var cfg nestedRoot
	require.Error(t, Load(&cfg))

	t.Setenv("TEST_NESTED_DSN", "postgres://localhost/test")
	require.NoError(t, Load(&cfg))
	assert.Equal(t, "postgres://localhost/test", cfg.Leaf.DSN)
}
