package utils

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.False(t, IsEmpty(" "))
	assert.False(t, IsEmpty("x"))
}

func TestEncodeString(t *testing.T) {
	assert.Equal(t, "YWRtaW5pc3RyYXRvcjo=", EncodeString("administrator:"))
	assert.Equal(t, "", EncodeString(""))
}

func TestParseStructEnv(t *testing.T) {
	type testConfig struct {
		Name  string `mapstructure:"NAME"`
		Count int    `mapstructure:"COUNT"`
	}
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.SetEnvPrefix("utilstest")
	viper.AutomaticEnv()
	viper.SetDefault("COUNT", "3")
	t.Setenv("UTILSTEST_NAME", "alpha")

	var cfg testConfig
	require.NoError(t, ParseStructEnv(&cfg))

	assert.Equal(t, "alpha", cfg.Name)
	assert.Equal(t, 3, cfg.Count)
}

func TestFormatConfigErrors_ListsFieldsAndRules(t *testing.T) {
	type testConfig struct {
		URL     string `validate:"required,url"`
		Timeout int    `validate:"min=1"`
	}
	cfg := testConfig{URL: "not a url"}
	err := validator.New().Struct(&cfg)
	require.Error(t, err)

	formatted := FormatConfigErrors(zap.NewNop(), err, cfg)

	require.Error(t, formatted)
	assert.Contains(t, formatted.Error(), "invalid configuration")
	assert.Contains(t, formatted.Error(), "URL (url)")
	assert.Contains(t, formatted.Error(), "Timeout (min)")
}

func TestFormatConfigErrors_PassesThroughOtherErrors(t *testing.T) {
	err := fmt.Errorf("boom")

	assert.Same(t, err, FormatConfigErrors(zap.NewNop(), err, nil))
}
