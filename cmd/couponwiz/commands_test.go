package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/couponwiz/internal/config"
	"github.com/muurk/couponwiz/internal/coupon"
	"github.com/muurk/couponwiz/internal/coupon/coupontest"
	"github.com/muurk/couponwiz/internal/draft"
	"github.com/muurk/couponwiz/internal/storage/sqlite"
	"github.com/muurk/couponwiz/internal/wizard"
)

// useConfigDir points the configuration, database and draft at a temp dir.
func useConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.ConfigDirEnvVar, dir)
	t.Setenv("COUPONWIZ_LOG_LEVEL", "")
	t.Setenv("COUPONWIZ_STORE", "")
	t.Setenv("COUPONWIZ_DB_PATH", "")
	t.Setenv("COUPONWIZ_DRAFT_PATH", "")
	return dir
}

// execute runs the root command and returns its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	// Flag variables outlive a single Execute
	logLevel, logFile, storeBackend, dbPath = "", "", "", ""
	outputFormat, forceInit, assumeYes = "detailed", false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedCoupon(t *testing.T, dir string, c *coupon.Coupon) *coupon.Coupon {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(dir, "coupons.db"))
	require.NoError(t, err)
	defer store.Close()

	saved, err := store.Save(ctx, c, coupon.StatusDraft)
	require.NoError(t, err)
	return saved
}

func getCoupon(t *testing.T, dir, id string) *coupon.Coupon {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(dir, "coupons.db"))
	require.NoError(t, err)
	defer store.Close()

	c, err := store.Get(ctx, id)
	require.NoError(t, err)
	return c
}

func TestPublishCommand(t *testing.T) {
	dir := useConfigDir(t)
	saved := seedCoupon(t, dir, coupontest.Valid())

	out, err := execute(t, "", "publish", saved.ID)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Publish coupon complete")
	assert.Contains(t, out, "20% off")
	assert.Equal(t, coupon.StatusLive, getCoupon(t, dir, saved.ID).Status)
}

func TestPublishCommandRejectsIncomplete(t *testing.T) {
	dir := useConfigDir(t)
	saved := seedCoupon(t, dir, coupontest.Essentials())

	out, err := execute(t, "", "publish", saved.ID)
	require.ErrorIs(t, err, wizard.ErrNotCompletable)

	assert.Contains(t, out, "Publish coupon failed")
	assert.Contains(t, out, "Lifecycle")
	assert.Equal(t, coupon.StatusDraft, getCoupon(t, dir, saved.ID).Status)
}

func TestPublishCommandMissingCoupon(t *testing.T) {
	useConfigDir(t)

	_, err := execute(t, "", "publish", "does-not-exist")
	require.Error(t, err)
	assert.True(t, coupon.IsNotFound(err))
}

func TestListCommand(t *testing.T) {
	dir := useConfigDir(t)

	out, err := execute(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No coupons stored")

	seedCoupon(t, dir, coupontest.Valid())
	out, err = execute(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Spring Sale")
	assert.Contains(t, out, "SPRING20")
	assert.Contains(t, out, "1 coupon(s)")
}

func TestShowCommand(t *testing.T) {
	dir := useConfigDir(t)
	saved := seedCoupon(t, dir, coupontest.Valid())

	out, err := execute(t, "", "show", saved.ID)
	require.NoError(t, err)
	for _, s := range wizard.SectionOrder {
		assert.Contains(t, out, s.Title())
	}
	assert.Contains(t, out, "20% off")
	assert.Contains(t, out, "Mar 31, 2026")

	out, err = execute(t, "", "show", saved.ID, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "code: SPRING20")

	_, err = execute(t, "", "show", saved.ID, "--format", "xml")
	assert.Error(t, err)
}

func TestDraftCommands(t *testing.T) {
	dir := useConfigDir(t)
	drafts := draft.NewFileStore(filepath.Join(dir, "draft.yaml"))

	out, err := execute(t, "", "draft", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No draft saved")

	require.NoError(t, drafts.Save(context.Background(), coupontest.Essentials()))

	out, err = execute(t, "", "draft", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Spring Sale")
	assert.Contains(t, out, "couponwiz resume")

	// Declined
	out, err = execute(t, "n\n", "draft", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Operation cancelled")
	d, err := drafts.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)

	out, err = execute(t, "", "draft", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Draft cleared")
	d, err = drafts.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestConfigCommands(t *testing.T) {
	dir := useConfigDir(t)

	out, err := execute(t, "", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written")
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	_, err = execute(t, "", "config", "init")
	assert.Error(t, err, "init must not overwrite without --force")

	_, err = execute(t, "", "config", "init", "--force")
	require.NoError(t, err)

	out, err = execute(t, "", "config", "show", "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: memory")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "couponwiz "), out)
}
