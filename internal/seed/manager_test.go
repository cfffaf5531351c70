package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/metrics"
	"git.home.luguber.info/inful/pinningd/internal/project"
)

type countingRecorder struct {
	metrics.NoopRecorder
	created  atomic.Int32
	bootFail atomic.Int32
}

func (c *countingRecorder) IncSeedCreated(string)      { c.created.Add(1) }
func (c *countingRecorder) IncBootstrapFailure(string) { c.bootFail.Add(1) }

func testProject(t *testing.T) project.Project {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "alice.example")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return project.Project{Name: "alice", Domain: "alice.example", Dir: dir}
}

func TestGetOrCreate_CreatesOnceAndNeverRewrites(t *testing.T) {
	p := testProject(t)
	var boots atomic.Int32
	rec := &countingRecorder{}
	m := NewManager(WithRecorder(rec), WithBootstrap(func(_ context.Context, _ project.Project, purpose Purpose, _ Seed) error {
		require.Equal(t, PurposeWebsite, purpose)
		boots.Add(1)
		return nil
	}))

	first, err := m.GetOrCreate(context.Background(), p, PurposeWebsite)
	require.NoError(t, err)

	path := filepath.Join(p.PrivateDir(), "dat-seed-www")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, Size)
	require.Equal(t, first[:], data)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	di, err := os.Stat(p.PrivateDir())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o700), di.Mode().Perm())

	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, past, past))

	second, err := m.GetOrCreate(context.Background(), p, PurposeWebsite)
	require.NoError(t, err)
	require.Equal(t, first, second)

	fi, err = os.Stat(path)
	require.NoError(t, err)
	require.True(t, fi.ModTime().Equal(past))
	require.Equal(t, int32(1), boots.Load())
	require.Equal(t, int32(1), rec.created.Load())
	require.True(t, m.Exists(p, PurposeWebsite))
	require.False(t, m.Exists(p, PurposeAPI))
}

func TestGetOrCreate_PurposesAreIndependent(t *testing.T) {
	p := testProject(t)
	m := NewManager()

	www, err := m.GetOrCreate(context.Background(), p, PurposeWebsite)
	require.NoError(t, err)
	api, err := m.GetOrCreate(context.Background(), p, PurposeAPI)
	require.NoError(t, err)
	require.NotEqual(t, www, api)
	require.FileExists(t, filepath.Join(p.PrivateDir(), "dat-seed-api"))
}

func TestGetOrCreate_CorruptSeedIsNotReplaced(t *testing.T) {
	p := testProject(t)
	require.NoError(t, os.MkdirAll(p.PrivateDir(), 0o700))
	path := filepath.Join(p.PrivateDir(), "dat-seed-www")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))

	m := NewManager(WithBootstrap(func(context.Context, project.Project, Purpose, Seed) error {
		t.Fatal("bootstrap must not run for an existing seed")
		return nil
	}))
	_, err := m.GetOrCreate(context.Background(), p, PurposeWebsite)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategorySeed))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("short"), data)
}

func TestGetOrCreate_UnreadableSeedIsNotReplaced(t *testing.T) {
	p := testProject(t)
	// A directory in place of the file fails to read with something other than
	// "not exist", regardless of the user running the test.
	require.NoError(t, os.MkdirAll(filepath.Join(p.PrivateDir(), "dat-seed-api"), 0o700))

	_, err := NewManager().GetOrCreate(context.Background(), p, PurposeAPI)
	require.True(t, errors.HasCategory(err, errors.CategorySeed))
	fi, statErr := os.Stat(filepath.Join(p.PrivateDir(), "dat-seed-api"))
	require.NoError(t, statErr)
	require.True(t, fi.IsDir())
}

func TestGetOrCreate_BootstrapFailureKeepsSeed(t *testing.T) {
	p := testProject(t)
	rec := &countingRecorder{}
	m := NewManager(WithRecorder(rec), WithBootstrap(func(context.Context, project.Project, Purpose, Seed) error {
		return fmt.Errorf("dat-store unavailable")
	}))

	s, err := m.GetOrCreate(context.Background(), p, PurposeWebsite)
	require.NoError(t, err)
	again, err := m.Read(p, PurposeWebsite)
	require.NoError(t, err)
	require.Equal(t, s, again)
	require.Equal(t, int32(1), rec.bootFail.Load())
}

func TestGetOrCreate_ConcurrentCallersShareOneSeed(t *testing.T) {
	p := testProject(t)
	var boots atomic.Int32
	m := NewManager(WithBootstrap(func(context.Context, project.Project, Purpose, Seed) error {
		boots.Add(1)
		return nil
	}))

	const n = 8
	seeds := make([]Seed, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.GetOrCreate(context.Background(), p, PurposeAPI)
			require.NoError(t, err)
			seeds[i] = s
		}(i)
	}
	wg.Wait()
	for _, s := range seeds {
		require.Equal(t, seeds[0], s)
	}
	require.Equal(t, int32(1), boots.Load())
}

func TestGetOrCreate_DeterministicRandom(t *testing.T) {
	p := testProject(t)
	m := NewManager(WithRandom(bytes.NewReader(bytes.Repeat([]byte{7}, Size))))
	s, err := m.GetOrCreate(context.Background(), p, PurposeWebsite)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{7}, Size), s[:])
	require.Equal(t, "seed(redacted)", s.String())
}

func TestGetOrCreate_RandomFailure(t *testing.T) {
	p := testProject(t)
	m := NewManager(WithRandom(bytes.NewReader(nil)))
	_, err := m.GetOrCreate(context.Background(), p, PurposeWebsite)
	require.Error(t, err)
	require.False(t, m.Exists(p, PurposeWebsite))
}
