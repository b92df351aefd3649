package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/trainload/internal/config"
)

func TestConfigValidate_Defaults(t *testing.T) {
	setupCLITest(t)

	output, err := execute(t, "config", "validate", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, output, "Configuration is valid")
	assert.Contains(t, output, "Store driver: firestore")
	assert.Contains(t, output, "Batch size: 500")
}

func TestConfigValidate_ReportsEnvOverride(t *testing.T) {
	setupCLITest(t)
	t.Setenv(config.EnvBatchSize, "900")

	_, err := execute(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload.batch_size")
}

func TestConfigShow_PrintsEffectiveConfig(t *testing.T) {
	setupCLITest(t)
	t.Setenv(config.EnvBatchSize, "250")
	t.Setenv(config.EnvDriver, "memory")

	output, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, output, "batch_size: 250")
	assert.Contains(t, output, "driver: memory")
}
