package draft

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muurk/couponwiz/internal/coupon"
)

func sampleCoupon() *coupon.Coupon {
	return &coupon.Coupon{
		Name:      "Spring Sale",
		Type:      coupon.TypePercentage,
		Value:     20,
		StartDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Channels:  []coupon.Channel{coupon.ChannelEmail},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "draft.yaml")
	store := NewFileStore(path)
	fixed := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	if err := store.Save(ctx, sampleCoupon()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	d, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d == nil {
		t.Fatal("Load() returned nil draft after Save()")
	}
	if !d.SavedAt.Equal(fixed) {
		t.Errorf("SavedAt = %v, want %v", d.SavedAt, fixed)
	}
	if d.Coupon.Name != "Spring Sale" || d.Coupon.Value != 20 || d.Coupon.Type != coupon.TypePercentage {
		t.Errorf("Load() coupon = %+v", d.Coupon)
	}
	if !d.Coupon.StartDate.Equal(sampleCoupon().StartDate) {
		t.Errorf("StartDate = %v", d.Coupon.StartDate)
	}
	if len(d.Coupon.Channels) != 1 || d.Coupon.Channels[0] != coupon.ChannelEmail {
		t.Errorf("Channels = %v", d.Coupon.Channels)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat draft: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("draft permissions = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# couponwiz draft") {
		t.Error("draft file should start with header comment")
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "draft.yaml"))
	d, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d != nil {
		t.Errorf("Load() = %+v, want nil", d)
	}
}

func TestFileStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "draft.yaml"))

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() on missing draft error = %v", err)
	}
	if err := store.Save(ctx, sampleCoupon()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if d, _ := store.Load(ctx); d != nil {
		t.Error("draft still present after Clear()")
	}
}

func TestFileStoreRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "version: [1"},
		{"wrong version", "version: 7\ncoupon:\n  name: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "draft.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := NewFileStore(path).Load(context.Background()); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewFileStore(filepath.Join(t.TempDir(), "draft.yaml"))
	if err := store.Save(ctx, sampleCoupon()); err == nil {
		t.Error("Save() with cancelled context should fail")
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	c := sampleCoupon()
	if err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	c.Name = "mutated after save"

	d, err := store.Load(ctx)
	if err != nil || d == nil {
		t.Fatalf("Load() = %v, %v", d, err)
	}
	if d.Coupon.Name != "Spring Sale" {
		t.Errorf("stored draft aliased caller's coupon: %q", d.Coupon.Name)
	}
	d.Coupon.Channels[0] = coupon.ChannelSMS
	again, _ := store.Load(ctx)
	if again.Coupon.Channels[0] != coupon.ChannelEmail {
		t.Error("Load() returned shared slice")
	}

	if store.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", store.Saves())
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if d, _ := store.Load(ctx); d != nil {
		t.Error("draft present after Clear()")
	}
}
