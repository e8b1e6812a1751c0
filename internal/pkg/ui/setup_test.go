package ui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitcoach/commitcoach/internal/pkg/config"
)

func TestValidateServerURL(t *testing.T) {
	assert.NoError(t, ValidateServerURL("https://commitcoach-proxy.onrender.com"))
	assert.NoError(t, ValidateServerURL(" http://localhost:8080 "))
	assert.Error(t, ValidateServerURL("localhost:8080"))
	assert.Error(t, ValidateServerURL("ftp://example.com"))
	assert.Error(t, ValidateServerURL(""))
}

func TestApplySetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	mgr, err := config.NewManager(path)
	require.NoError(t, err)
	require.NoError(t, mgr.Init())

	err = ApplySetup(mgr, SetupAnswers{Style: "Casual", Server: "http://localhost:8080", Acknowledged: true})
	require.NoError(t, err)

	reloaded, err := config.NewManager(path)
	require.NoError(t, err)
	cfg, err := reloaded.Load()
	require.NoError(t, err)
	assert.Equal(t, "casual", cfg.Commit.Style)
	assert.Equal(t, "http://localhost:8080", cfg.Server.URL)
	assert.True(t, cfg.Security.WarningAcknowledged)
}

func TestApplySetup_NotAcknowledged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	mgr, err := config.NewManager(path)
	require.NoError(t, err)
	require.NoError(t, mgr.Init())

	require.NoError(t, ApplySetup(mgr, SetupAnswers{Style: "formal", Server: config.DefaultServer}))

	reloaded, err := config.NewManager(path)
	require.NoError(t, err)
	assert.False(t, reloaded.IsSecurityWarningAcknowledged(), "notice is shown again on first commit")
}

func TestEnsureConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	mgr, err := config.NewManager(path)
	require.NoError(t, err)

	require.NoError(t, ensureConfigFile(mgr))
	assert.True(t, mgr.ConfigExists())
	require.NoError(t, ensureConfigFile(mgr), "an existing file is kept")

	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	bad, err := config.NewManager(filepath.Join(blocker, "config.yaml"))
	require.NoError(t, err)
	assert.Error(t, ensureConfigFile(bad), "errors other than an existing file are returned")
}

func TestApplySetup_Invalid(t *testing.T) {
	mgr, err := config.NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, mgr.Init())

	assert.Error(t, ApplySetup(mgr, SetupAnswers{Style: "pirate", Server: config.DefaultServer}))
	assert.Error(t, ApplySetup(mgr, SetupAnswers{Style: "formal", Server: "not a url"}))
}
