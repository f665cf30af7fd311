package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rep-ingest/internal/config"
	"github.com/sells-group/rep-ingest/internal/fetcher"
	"github.com/sells-group/rep-ingest/internal/fixture"
	"github.com/sells-group/rep-ingest/internal/geography"
	"github.com/sells-group/rep-ingest/internal/model"
	"github.com/sells-group/rep-ingest/internal/pipeline"
	"github.com/sells-group/rep-ingest/internal/source"
)

func TestSelectZIPs_Single(t *testing.T) {
	zips, err := selectZIPs(ingestOptions{ZIP: "11354"})
	require.NoError(t, err)
	assert.Equal(t, []string{"11354"}, zips)
}

func TestSelectZIPs_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zips.txt")
	require.NoError(t, os.WriteFile(path, []byte("11354\n\n  90210 \n00000\n"), 0o644))

	zips, err := selectZIPs(ingestOptions{ZIPFile: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"11354", "90210", "00000"}, zips)
}

func TestSelectZIPs_MissingFile(t *testing.T) {
	_, err := selectZIPs(ingestOptions{ZIPFile: filepath.Join(t.TempDir(), "nope.txt")})
	require.Error(t, err)
	assert.True(t, fetcher.IsListNotFound(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestSelectZIPs_Demo(t *testing.T) {
	zips, err := selectZIPs(ingestOptions{Demo: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"11354", "20301", "90210"}, zips)
}

func TestSelectZIPs_NoMode(t *testing.T) {
	_, err := selectZIPs(ingestOptions{})
	assert.ErrorIs(t, err, errNoMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c, err := config.Load()
	require.NoError(t, err)
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "ingest.db")
	c.Sources.Enabled = []string{"fixture"}
	c.Sources.House.Live = false
	c.Batch.PauseMs = 0
	return c
}

func TestRunIngest_Report(t *testing.T) {
	c := testConfig(t)
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })

	env, err := initEnv(context.Background(), c, "ingest", true)
	require.NoError(t, err)
	defer env.Close()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	prevVerbose := verbose
	verbose = true
	t.Cleanup(func() { verbose = prevVerbose })

	err = runIngest(context.Background(), cmd, env.Orchestrator, []string{"11354", "00000"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Processing 2 ZIP codes")
	assert.Contains(t, out.String(), "Successful: 1")
	assert.Contains(t, out.String(), "✓ 11354: 3 representatives")
	assert.Contains(t, out.String(), "✗ 00000: 0 representatives")
}

func TestRunIngest_Interrupted(t *testing.T) {
	c := testConfig(t)
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })

	env, err := initEnv(context.Background(), c, "ingest", true)
	require.NoError(t, err)
	defer env.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err = runIngest(ctx, cmd, env.Orchestrator, []string{"11354"})
	assert.ErrorIs(t, err, errInterrupted)
	assert.Contains(t, errOut.String(), "interrupted")
}

// signalAdapter stands in for a SIGINT arriving mid-fetch.
type signalAdapter struct {
	source.Adapter
	cancel context.CancelFunc
}

func (a signalAdapter) Fetch(ctx context.Context, zip string, geo *model.Geography) (source.Result, error) {
	a.cancel()
	return a.Adapter.Fetch(ctx, zip, geo)
}

func TestRunIngest_InterruptedDuringSingleZIP(t *testing.T) {
	c := testConfig(t)
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })

	env, err := initEnv(context.Background(), c, "ingest", true)
	require.NoError(t, err)
	defer env.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	set := fixture.Default()
	o := pipeline.New(
		geography.NewFixtureResolver(set),
		[]source.Adapter{signalAdapter{Adapter: source.NewFixtureAdapter(set), cancel: cancel}},
		env.Store,
	)

	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err = runIngest(ctx, cmd, o, []string{"11354"})
	assert.ErrorIs(t, err, errInterrupted)
	assert.Contains(t, out.String(), "Successful: 1")
	assert.Contains(t, errOut.String(), "Ingestion interrupted by user")
}
