package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ifc-pages/pkg/types"
)

func newSiteCmd(t *testing.T) *cobra.Command {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	cmd := &cobra.Command{Use: "build"}
	addSiteFlags(cmd)
	return cmd
}

func TestSiteConfig_Defaults(t *testing.T) {
	cmd := newSiteCmd(t)
	require.NoError(t, bindFlags(cmd, siteFlags))

	cfg := siteConfig()
	assert.Equal(t, "ifc", cfg.IFCDir)
	assert.Equal(t, "site", cfg.SiteDir)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "IFC models", cfg.Title)
	assert.False(t, cfg.Incremental)
	assert.Equal(t, types.BackendLocal, conversionConfig().Backend)
}

func TestSiteConfig_FlagsOverrideConfig(t *testing.T) {
	cmd := newSiteCmd(t)
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(strings.NewReader("site:\n  title: From config\n  workers: 3\n")))

	require.NoError(t, cmd.Flags().Parse([]string{
		"--site-dir", "public",
		"--workers", "4",
		"--exclude", "draft-*,*-old.ifc",
		"--backend", "container",
		"--image", "ifcopenshell:latest",
		"--convert-timeout", "2m",
	}))
	require.NoError(t, bindFlags(cmd, siteFlags))

	cfg := siteConfig()
	assert.Equal(t, "public", cfg.SiteDir)
	assert.Equal(t, 4, cfg.Workers, "changed flags win over the config file")
	assert.Equal(t, "From config", cfg.Title, "unchanged flags fall back to the config file")
	assert.Equal(t, []string{"draft-*", "*-old.ifc"}, cfg.Exclude)

	conv := conversionConfig()
	assert.Equal(t, types.BackendContainer, conv.Backend)
	assert.Equal(t, "ifcopenshell:latest", conv.Image)
	assert.Equal(t, 2*time.Minute, conv.Timeout)
}

func TestBindFlags_UnknownFlag(t *testing.T) {
	cmd := newSiteCmd(t)
	err := bindFlags(cmd, map[string]string{"nope": "site.nope"})
	assert.ErrorContains(t, err, "unknown flag --nope")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"much longer than ten", 10, "much lo..."},
		{"Térreo Pavimento", 8, "Térre..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), tt.in)
	}
}
