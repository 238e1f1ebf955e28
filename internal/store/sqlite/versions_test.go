package sqlite

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/iconcommons/iconcommons-server/internal/domain"
	"github.com/iconcommons/iconcommons-server/internal/errors"
)

// makeIcon creates a collection and icon for version tests.
func makeIcon(t *testing.T, s *Store, name string) *domain.Icon {
	t.Helper()
	col := makeCollection(t, s, "default")
	i, _, err := s.FindOrCreateIcon(context.Background(), name, col.ID, "")
	if err != nil {
		t.Fatalf("create icon %q: %v", name, err)
	}
	return i
}

func TestCommitNewVersion_Sequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	icon := makeIcon(t, s, "icon")

	d1, err := s.CommitNewVersion(ctx, icon.ID, []byte("hi"), "")
	if err != nil {
		t.Fatalf("commit 1: %v", err)
	}
	if d1.Version != 1 {
		t.Errorf("first version: got %d, want 1", d1.Version)
	}
	if string(d1.SVG) != "hi" {
		t.Errorf("content: got %q, want %q", d1.SVG, "hi")
	}

	d2, err := s.CommitNewVersion(ctx, icon.ID, []byte("bye"), "")
	if err != nil {
		t.Fatalf("commit 2: %v", err)
	}
	if d2.Version != 2 {
		t.Errorf("second version: got %d, want 2", d2.Version)
	}

	versions, err := s.ListVersions(ctx, icon.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("expected 2 versions, got %d", len(versions))
	}
}

func TestCommitNewVersion_TouchesIcon(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	icon := makeIcon(t, s, "icon")

	before, err := s.GetIconByID(ctx, icon.ID)
	if err != nil {
		t.Fatalf("get icon: %v", err)
	}

	if _, err := s.CommitNewVersion(ctx, icon.ID, []byte("hi"), ""); err != nil {
		t.Fatalf("commit: %v", err)
	}

	after, err := s.GetIconByID(ctx, icon.ID)
	if err != nil {
		t.Fatalf("get icon: %v", err)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("commit must touch the icon's updated_at")
	}
}

func TestCommitNewVersion_UnknownIcon(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CommitNewVersion(ctx, "icon-missing", []byte("hi"), "")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLatestVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	icon := makeIcon(t, s, "icon")

	_, err := s.LatestVersion(ctx, icon.ID)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("icon without versions: expected ErrNotFound, got %v", err)
	}

	if _, err := s.CommitNewVersion(ctx, icon.ID, []byte("hi"), ""); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := s.CommitNewVersion(ctx, icon.ID, []byte("bye"), "second"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	latest, err := s.LatestVersion(ctx, icon.ID)
	if err != nil {
		t.Fatalf("LatestVersion: %v", err)
	}
	if latest.Version != 2 {
		t.Errorf("Version: got %d, want 2", latest.Version)
	}
	if !bytes.Equal(latest.SVG, []byte("bye")) {
		t.Errorf("SVG: got %q, want %q", latest.SVG, "bye")
	}
	if latest.ChangeLog != "second" {
		t.Errorf("ChangeLog: got %q, want %q", latest.ChangeLog, "second")
	}
}

func TestVersionAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	icon := makeIcon(t, s, "icon")

	if _, err := s.CommitNewVersion(ctx, icon.ID, []byte("v1"), ""); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := s.CommitNewVersion(ctx, icon.ID, []byte("v2"), ""); err != nil {
		t.Fatalf("commit: %v", err)
	}

	v, err := s.VersionAt(ctx, icon.ID, 1)
	if err != nil {
		t.Fatalf("VersionAt: %v", err)
	}
	if string(v.SVG) != "v1" {
		t.Errorf("content: got %q, want %q", v.SVG, "v1")
	}

	_, err = s.VersionAt(ctx, icon.ID, 3)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing version, got %v", err)
	}
}

func TestCommitNewVersion_ConcurrentSameIcon(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	icon := makeIcon(t, s, "contested")

	const commits = 8
	var wg sync.WaitGroup
	for n := 0; n < commits; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			content := []byte(fmt.Sprintf("content-%d", n))
			if _, err := s.CommitNewVersion(ctx, icon.ID, content, ""); err != nil {
				t.Errorf("commit %d: %v", n, err)
			}
		}(n)
	}
	wg.Wait()

	// Version numbers must be exactly 1..commits with no gaps or duplicates.
	versions, err := s.ListVersions(ctx, icon.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != commits {
		t.Fatalf("expected %d versions, got %d", commits, len(versions))
	}
	for n, v := range versions {
		if v.Version != n+1 {
			t.Errorf("versions[%d]: got %d, want %d", n, v.Version, n+1)
		}
	}
}

func TestCommitNewVersion_ConcurrentAcrossIcons(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	col := makeCollection(t, s, "many")
	const icons = 4
	const perIcon = 3

	iconIDs := make([]string, icons)
	for n := 0; n < icons; n++ {
		i, _, err := s.FindOrCreateIcon(ctx, fmt.Sprintf("icon-%d", n), col.ID, "")
		if err != nil {
			t.Fatalf("create icon: %v", err)
		}
		iconIDs[n] = i.ID
	}

	var wg sync.WaitGroup
	for n := 0; n < icons; n++ {
		for k := 0; k < perIcon; k++ {
			wg.Add(1)
			go func(n, k int) {
				defer wg.Done()
				content := []byte(fmt.Sprintf("icon-%d-commit-%d", n, k))
				if _, err := s.CommitNewVersion(ctx, iconIDs[n], content, ""); err != nil {
					t.Errorf("icon %d commit %d: %v", n, k, err)
				}
			}(n, k)
		}
	}
	wg.Wait()

	// Each icon's sequence is independently gap-free.
	for n := 0; n < icons; n++ {
		versions, err := s.ListVersions(ctx, iconIDs[n])
		if err != nil {
			t.Fatalf("ListVersions: %v", err)
		}
		if len(versions) != perIcon {
			t.Fatalf("icon %d: expected %d versions, got %d", n, perIcon, len(versions))
		}
		for k, v := range versions {
			if v.Version != k+1 {
				t.Errorf("icon %d versions[%d]: got %d, want %d", n, k, v.Version, k+1)
			}
		}
	}
}
