package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenzone/guardian/internal/config"
	"github.com/zenzone/guardian/internal/types"
)

func testOptions(root string) Options {
	return Options{
		Roots:              []string{root},
		MaxAge:             30 * 24 * time.Hour,
		MaxSingleFileBytes: 1 << 20,
		MaxItems:           100,
		MaxTotalBytes:      1 << 30,
		VisitQuota:         1000,
		DeletesPerSecond:   1000, // keep tests fast
		Weights:            config.CleanupWeights{Age: 0.4, Size: 0.3, Category: 0.2, Risk: 0.1},
	}
}

// writeAged creates a file with the given content age.
func writeAged(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestDiscoverAgeGate(t *testing.T) {
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "fresh.tmp"), 10, days(1))
	writeAged(t, filepath.Join(root, "borderline.tmp"), 10, days(30))
	writeAged(t, filepath.Join(root, "ancient.tmp"), 10, days(400))

	p := New(testOptions(root))
	plan, err := p.Discover(context.Background())
	require.NoError(t, err)

	paths := candidatePaths(plan)
	assert.NotContains(t, paths, filepath.Join(root, "fresh.tmp"), "young files are excluded before scoring")
	assert.Contains(t, paths, filepath.Join(root, "borderline.tmp"))
	assert.Contains(t, paths, filepath.Join(root, "ancient.tmp"))
	assert.Len(t, plan.Candidates, 2)
}

func TestProtectedPrefixNeverSafe(t *testing.T) {
	root := t.TempDir()
	protected := filepath.Join(root, "protected")
	writeAged(t, filepath.Join(protected, "old.tmp"), 10, days(60))
	writeAged(t, filepath.Join(root, "free", "old.tmp"), 10, days(60))

	opts := testOptions(root)
	opts.ProtectedPrefixes = []string{protected}
	p := New(opts)
	plan, err := p.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Candidates, 2)

	for _, c := range plan.Candidates {
		under := strings.HasPrefix(c.Path, protected)
		if under {
			assert.False(t, c.Safe, "candidate under protected prefix must never be safe: %s", c.Path)
			assert.Contains(t, c.RejectReason, "protected prefix")
		} else {
			assert.True(t, c.Safe, "candidate outside protected prefix should pass: %s", c.Path)
		}
	}
}

func TestProtectedPrefixBoundary(t *testing.T) {
	// A sibling directory whose name merely starts with the protected
	// prefix is not protected: /etc shields /etc/passwd, not /etc2/foo.
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "etc", "old.tmp"), 10, days(60))
	writeAged(t, filepath.Join(root, "etc2", "old.tmp"), 10, days(60))

	opts := testOptions(root)
	opts.ProtectedPrefixes = []string{filepath.Join(root, "etc")}
	plan, err := New(opts).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Candidates, 2)

	for _, c := range plan.Candidates {
		switch c.Path {
		case filepath.Join(root, "etc", "old.tmp"):
			assert.False(t, c.Safe)
			assert.Contains(t, c.RejectReason, "protected prefix")
		case filepath.Join(root, "etc2", "old.tmp"):
			assert.True(t, c.Safe, "sibling of a protected prefix must stay deletable")
		}
	}
}

func TestProtectedExtensionRejected(t *testing.T) {
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "driver.SYS"), 10, days(60))

	opts := testOptions(root)
	opts.ProtectedExtensions = []string{".sys"}
	p := New(opts)
	plan, err := p.Discover(context.Background())
	require.NoError(t, err)

	require.Len(t, plan.Candidates, 1)
	assert.False(t, plan.Candidates[0].Safe, "extension match must be case-insensitive")
}

func TestSymlinkRejected(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target.tmp")
	writeAged(t, target, 10, days(60))
	link := filepath.Join(root, "link.tmp")
	require.NoError(t, os.Symlink(target, link))
	// Symlink mtime can't be set portably; exclude it from the age gate
	// by scanning with no minimum age.
	opts := testOptions(root)
	opts.MaxAge = 0
	p := New(opts)
	plan, err := p.Discover(context.Background())
	require.NoError(t, err)

	var linkCand *types.CleanupCandidate
	for i := range plan.Candidates {
		if plan.Candidates[i].Path == link {
			linkCand = &plan.Candidates[i]
		}
	}
	require.NotNil(t, linkCand, "symlink should appear in the plan for visibility")
	assert.False(t, linkCand.Safe)
	assert.Contains(t, linkCand.RejectReason, "not a regular file")
}

func TestOversizeRejectedUnlessOverridden(t *testing.T) {
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "big.tmp"), 4096, days(60))

	opts := testOptions(root)
	opts.MaxSingleFileBytes = 1024
	plan, err := New(opts).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Candidates, 1)
	assert.False(t, plan.Candidates[0].Safe)

	opts.AllowOversize = true
	plan, err = New(opts).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Candidates, 1)
	assert.True(t, plan.Candidates[0].Safe, "per-call override lifts the size cap")
}

func TestPriorityMonotonicInAge(t *testing.T) {
	p := New(testOptions(t.TempDir()))
	prev := -1.0
	for _, age := range []time.Duration{days(1), days(10), days(20), days(30), days(60), days(365)} {
		score := p.score(age, 1024, types.CategoryTemp, 0.1)
		assert.GreaterOrEqual(t, score, prev, "age %v", age)
		prev = score
	}
}

func TestPlanOrderingAndTieBreak(t *testing.T) {
	root := t.TempDir()
	// Same size, category, and location: same score, so lexical order
	// must decide. A larger file gets a strictly higher score.
	writeAged(t, filepath.Join(root, "b.tmp"), 10, days(60))
	writeAged(t, filepath.Join(root, "a.tmp"), 10, days(60))
	writeAged(t, filepath.Join(root, "z.tmp"), 100000, days(60))

	plan, err := New(testOptions(root)).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Candidates, 3)

	assert.Equal(t, filepath.Join(root, "z.tmp"), plan.Candidates[0].Path)
	assert.Equal(t, filepath.Join(root, "a.tmp"), plan.Candidates[1].Path)
	assert.Equal(t, filepath.Join(root, "b.tmp"), plan.Candidates[2].Path)
}

func TestPlanTruncationByItems(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.tmp", "b.tmp", "c.tmp", "d.tmp"} {
		writeAged(t, filepath.Join(root, name), 10, days(60))
	}

	opts := testOptions(root)
	opts.MaxItems = 2
	plan, err := New(opts).Discover(context.Background())
	require.NoError(t, err)

	assert.Len(t, plan.Candidates, 2)
	assert.True(t, plan.Truncated)
}

func TestPlanTruncationByBytes(t *testing.T) {
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "a.tmp"), 600, days(60))
	writeAged(t, filepath.Join(root, "b.tmp"), 600, days(60))

	opts := testOptions(root)
	opts.MaxTotalBytes = 1000
	plan, err := New(opts).Discover(context.Background())
	require.NoError(t, err)

	assert.Len(t, plan.Candidates, 1)
	assert.True(t, plan.Truncated)
	assert.Equal(t, int64(600), plan.TotalReclaimableBytes)
}

func TestScanBoundedSteps(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 25; i++ {
		writeAged(t, filepath.Join(root, "dir", "f"+string(rune('a'+i))+".tmp"), 10, days(60))
	}

	p := New(testOptions(root))
	scan := p.NewScan()

	steps := 0
	for !scan.Done() {
		before := scan.Visited()
		require.NoError(t, scan.Step(context.Background(), 5))
		assert.LessOrEqual(t, scan.Visited()-before, 5, "a step must honor its quota")
		steps++
	}
	assert.Greater(t, steps, 1, "traversal should take several bounded slices")
	assert.Len(t, scan.Plan().Candidates, 25)
}

func TestScanHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "a.tmp"), 10, days(60))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scan := New(testOptions(root)).NewScan()
	err := scan.Step(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteRefusesUnsafe(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.tmp")
	writeAged(t, path, 10, days(60))

	p := New(testOptions(root))
	_, err := p.Delete(types.CleanupCandidate{Path: path, Safe: false}, true)
	assert.ErrorIs(t, err, types.ErrSafetyViolation)
	assert.FileExists(t, path)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.tmp")
	writeAged(t, path, 10, days(60))

	p := New(testOptions(root)) // AutoCleanup off
	_, err := p.Delete(types.CleanupCandidate{Path: path, Safe: true}, false)
	assert.ErrorIs(t, err, types.ErrNotConfirmed)
	assert.FileExists(t, path)
}

func TestDeleteConfirmed(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.tmp")
	writeAged(t, path, 123, days(60))

	p := New(testOptions(root))
	bytes, err := p.Delete(types.CleanupCandidate{Path: path, Safe: true}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(123), bytes)
	assert.NoFileExists(t, path)
}

func TestDeleteAutoCleanup(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.tmp")
	writeAged(t, path, 10, days(60))

	opts := testOptions(root)
	opts.AutoCleanup = true
	_, err := New(opts).Delete(types.CleanupCandidate{Path: path, Safe: true}, false)
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}

func TestDeleteMissingFile(t *testing.T) {
	p := New(testOptions(t.TempDir()))
	_, err := p.Delete(types.CleanupCandidate{Path: filepath.Join(t.TempDir(), "gone.tmp"), Safe: true}, true)
	assert.True(t, errors.Is(err, os.ErrNotExist), "want wrapped not-exist, got %v", err)
}

func TestDeleteReverifiesSafety(t *testing.T) {
	// A candidate marked safe at discovery time must still be re-checked
	// at deletion time.
	root := t.TempDir()
	path := filepath.Join(root, "now-protected.tmp")
	writeAged(t, path, 10, days(60))

	opts := testOptions(root)
	opts.ProtectedPrefixes = []string{root}
	p := New(opts)
	_, err := p.Delete(types.CleanupCandidate{Path: path, Safe: true}, true)
	assert.ErrorIs(t, err, types.ErrSafetyViolation)
	assert.FileExists(t, path)
}

func TestExecutePlan(t *testing.T) {
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "a.tmp"), 100, days(60))
	writeAged(t, filepath.Join(root, "b.tmp"), 200, days(60))
	writeAged(t, filepath.Join(root, "keep.SYS"), 300, days(60))

	opts := testOptions(root)
	opts.ProtectedExtensions = []string{".sys"}
	p := New(opts)
	plan, err := p.Discover(context.Background())
	require.NoError(t, err)

	result, err := p.ExecutePlan(context.Background(), plan, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, int64(300), result.BytesReclaimed)
	assert.Equal(t, 1, result.SafetySkipped)
	assert.FileExists(t, filepath.Join(root, "keep.SYS"))
}

func TestExecutePlanMaxDeletes(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.tmp", "b.tmp", "c.tmp"} {
		writeAged(t, filepath.Join(root, name), 10, days(60))
	}

	p := New(testOptions(root))
	plan, err := p.Discover(context.Background())
	require.NoError(t, err)

	result, err := p.ExecutePlan(context.Background(), plan, true, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		path string
		want types.FileCategory
	}{
		{"/scratch/build.tmp", types.CategoryTemp},
		{"/scratch/editor.swp", types.CategoryTemp},
		{"/scratch/thumbs.cache", types.CategoryCache},
		{"/home/u/.cache/app/data", types.CategoryCache},
		{"/var/log/app.log", types.CategoryLog},
		{"/var/app/run.out", types.CategoryLog},
		{"/home/u/notes.bak", types.CategoryBackup},
		{"/home/u/notes.txt~", types.CategoryBackup},
		{"/home/u/report.pdf", types.CategoryUnknown},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, categorize(tt.path), "path %s", tt.path)
	}
}

func candidatePaths(plan *types.CleanupPlan) []string {
	out := make([]string, 0, len(plan.Candidates))
	for _, c := range plan.Candidates {
		out = append(out, c.Path)
	}
	return out
}
