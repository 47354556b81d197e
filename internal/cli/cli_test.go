package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/idelchi/dutree/internal/du"
	"github.com/idelchi/dutree/internal/fsys"
	"github.com/idelchi/dutree/internal/logging"
	"github.com/idelchi/dutree/internal/report"
	"github.com/idelchi/dutree/internal/testutil"
)

func defaults(output string) Options {
	return Options{
		Path:     ".",
		Strategy: "parallel",
		Depth:    1,
		Top:      10,
		Tick:     time.Millisecond,
		Output:   output,
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cmd := New("test").Command()
	require.NoError(t, cmd.Flags().Parse([]string{"--depth", "3", "-s", "sequential", "-o", "JSON"}))

	options, err := load(viper.New(), cmd.Flags(), "")
	require.NoError(t, err)

	assert.Equal(t, 3, options.Depth)
	assert.Equal(t, "sequential", options.Strategy)
	assert.Equal(t, "json", options.Output)
	assert.Equal(t, 10, options.Top)
	assert.Equal(t, du.DefaultTick, options.Tick)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	config := filepath.Join(testutil.OSDir(t, testutil.Tree{}), "dutree.yaml")
	require.NoError(t, os.WriteFile(config, []byte("top: 4\nverify: true\n"), 0o600))

	cmd := New("test").Command()
	require.NoError(t, cmd.Flags().Parse([]string{"--top", "2"}))

	options, err := load(viper.New(), cmd.Flags(), config)
	require.NoError(t, err)

	assert.Equal(t, 2, options.Top, "flags win over the config file")
	assert.True(t, options.Verify)

	_, err = load(viper.New(), cmd.Flags(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Options)
		errMsg string
	}{
		{"valid", func(*Options) {}, ""},
		{"output", func(o *Options) { o.Output = "xml" }, "invalid output format"},
		{"strategy", func(o *Options) { o.Strategy = "magic" }, "invalid strategy"},
		{"depth", func(o *Options) { o.Depth = -1 }, "depth cannot be negative"},
		{"top", func(o *Options) { o.Top = -1 }, "top cannot be negative"},
		{"workers", func(o *Options) { o.Workers = -1 }, "workers cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			options := defaults("table")
			tt.modify(&options)

			err := options.validate()
			if tt.errMsg == "" {
				require.NoError(t, err)

				return
			}

			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	for _, strategy := range allowedStrategies {
		t.Run(strategy, func(t *testing.T) {
			t.Parallel()

			mem, root := testutil.MemFS(t, testutil.Scenario())

			options := defaults("json")
			options.Strategy = strategy
			options.Path = root

			rep, err := scan(context.Background(), options, fsys.NewBilly(mem), logging.Discard(), nil)
			require.NoError(t, err)

			assert.Equal(t, du.Info{Kind: du.KindDir, Size: 15, Files: 2, Dirs: 2}, rep.Root.Info)
			assert.Equal(t, strategy, rep.Strategy)
			require.Len(t, rep.Root.Children, 2)
			assert.Equal(t, "a.txt", rep.Root.Children[0].Info.Name)
		})
	}
}

func TestScanVerify(t *testing.T) {
	t.Parallel()

	options := defaults("table")
	options.Path = testutil.OSDir(t, testutil.Wide(2, 2, 2))
	options.Verify = true

	var buf bytes.Buffer

	rep, err := scan(context.Background(), options, fsys.OS{}, logging.New(logging.Options{Output: &buf}), nil)
	require.NoError(t, err)

	require.NotNil(t, rep.Census)
	assert.Empty(t, rep.Mismatch)
	assert.Empty(t, buf.String(), "nothing to warn about")
}

func TestScanWarnsAboutErrors(t *testing.T) {
	t.Parallel()

	mem, root := testutil.MemFS(t, testutil.Scenario())

	options := defaults("table")
	options.Path = root

	var buf bytes.Buffer

	rep, err := scan(context.Background(), options,
		fsys.NewBilly(testutil.NewFaulty(mem, "/root/sub")), logging.New(logging.Options{Output: &buf}), nil)
	require.NoError(t, err)

	assert.Len(t, rep.Errors, 1)
	assert.Contains(t, buf.String(), "permission denied")
}

func TestRender(t *testing.T) {
	t.Parallel()

	stats := du.NewStats()
	sub := stats.Push(du.Root, du.NewInfo("sub", du.KindDir, 0))
	stats.Push(sub, du.NewInfo("b.txt", du.KindFile, 2048))

	rep := report.Build(stats, nil, report.Options{Root: "top", Depth: 2})
	rep.Strategy = "sequential"

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, render(rep, "table", &buf))

		out := buf.String()
		assert.Contains(t, out, "2.0 KiB")
		assert.Contains(t, out, "100.0%")
		assert.Contains(t, out, "    "+filepath.Join("top", "sub", "b.txt"))
		assert.Contains(t, out, "(sequential)")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, render(rep, "json", &buf))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "dir", decoded["root"].(map[string]any)["info"].(map[string]any)["kind"])
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, render(rep, "yaml", &buf))

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 3, decoded["entries"])
		assert.Equal(t, "sequential", decoded["strategy"])
	})

	t.Run("paths", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, render(rep, "paths", &buf))

		assert.Equal(t, []string{"top", filepath.Join("top", "sub")}, strings.Fields(buf.String()))
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		require.Error(t, render(rep, "xml", &bytes.Buffer{}))
	})
}
