package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Short(t *testing.T) {
	assert.Equal(t, "Print the version number", versionCmd.Short)
}

func TestVersionCmd_Executes(t *testing.T) {
	// Save and restore version
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := executeCommand("version")

	assert.NoError(t, err)
	assert.Contains(t, out, "docstruct version test-version-1.0.0")
}

func TestVersionCmd_DisplaysDevByDefault(t *testing.T) {
	// Save and restore version
	originalVersion := version
	version = "dev"
	defer func() { version = originalVersion }()

	out, err := executeCommand("version")

	assert.NoError(t, err)
	assert.Contains(t, out, "docstruct version dev")
}

func TestVersionCmd_SkipsBootstrap(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	called := false
	bootstrap = func(Options) (*Services, func(), error) {
		called = true
		return &Services{}, nil, nil
	}

	_, err := executeCommand("version")

	assert.NoError(t, err)
	assert.False(t, called)
}
