package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigValidityValid(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("data_dir", "/tmp/docman")

	require.NoError(t, CheckConfigValidity(v))
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "")
	v.Set("api.base_url", "not a url")
	v.Set("api.timeout", "soon")
	v.Set("auth.token_store", "vault")
	v.Set("search.page_size", 0)
	v.Set("dashboard.recent", -1)
	v.Set("output", "xml")
	v.Set("log.level", "loud")

	err := CheckConfigValidity(v)
	require.Error(t, err)

	msg := err.Error()
	expected := []string{
		"data_dir is required",
		"api.base_url must be an absolute URL",
		"api.timeout must be a positive duration",
		`auth.token_store "vault"`,
		"search.page_size must be greater than 0",
		"dashboard.recent must be greater than 0",
		`output "xml"`,
		`log.level "loud"`,
	}
	for _, want := range expected {
		assert.Contains(t, msg, want)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("user_id = \"from-file\"\n[search]\npage_size = 25\n[api]\nbase_url = \"http://file.example/\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOCMAN_DASHBOARD_RECENT=7\n"), 0o600))
	t.Setenv("DOCMAN_USER_ID", "from-env")
	t.Setenv("DOCMAN_DASHBOARD_RECENT", "")
	os.Unsetenv("DOCMAN_DASHBOARD_RECENT")

	v := viper.New()
	v.SetConfigFile(cfg)
	require.NoError(t, Load(context.Background(), v))

	assert.Equal(t, "from-env", v.GetString("user_id"))
	assert.Equal(t, 25, v.GetInt("search.page_size"))
	assert.Equal(t, 7, v.GetInt("dashboard.recent"))
	assert.Equal(t, "http://file.example", v.GetString("api.base_url"))
	assert.Equal(t, "auto", v.GetString("auth.token_store"))
	assert.NotEmpty(t, v.GetString("data_dir"))
}

func TestRenderDefaultTOMLParses(t *testing.T) {
	out := RenderDefaultTOML()
	assert.Contains(t, out, "[search]\n# Results per page\npage_size = 10")

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)))
	assert.Equal(t, 10, v.GetInt("search.page_size"))
	assert.Equal(t, "auto", v.GetString("auth.token_store"))
}

func TestUpdateTOML(t *testing.T) {
	existing := "user_id = \"alice\"\nlegacy = 1\n[search]\npage_size = 20\n"
	out, changed := UpdateTOML(existing)
	require.True(t, changed)
	assert.Contains(t, out, "user_id = \"alice\"")
	assert.Contains(t, out, "# OUTDATED: option removed from config schema\n# legacy = 1")
	assert.Contains(t, out, "page_size = 20")
	assert.Contains(t, out, "# Added by config update")
	assert.Contains(t, out, "token_store = \"auto\"")
	assert.Equal(t, 1, strings.Count(out, "page_size ="))

	again, changed := UpdateTOML(out)
	assert.False(t, changed)
	assert.Equal(t, out, again)
}
