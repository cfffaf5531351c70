package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pinningd/internal/blockstore"
	"git.home.luguber.info/inful/pinningd/internal/config"
	"git.home.luguber.info/inful/pinningd/internal/project"
	"git.home.luguber.info/inful/pinningd/internal/publish"
)

// stubStore returns a fixed CID per tree, fails for trees under failDomain and
// blocks on gate when set.
type stubStore struct {
	failDomain string
	gate       chan struct{}
	mu         sync.Mutex
	roots      []string
}

func (s *stubStore) Add(ctx context.Context, root string, _ blockstore.AddOptions) (cid.Cid, error) {
	s.mu.Lock()
	s.roots = append(s.roots, root)
	s.mu.Unlock()
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return cid.Undef, ctx.Err()
		}
	}
	if s.failDomain != "" && filepath.Base(filepath.Dir(root)) == s.failDomain {
		return cid.Undef, fmt.Errorf("kubo unreachable")
	}
	mh, _ := multihash.Sum([]byte(root), multihash.SHA2_256, -1)
	return cid.NewCidV1(cid.DagProtobuf, mh), nil
}

type stubDNS struct {
	mu    sync.Mutex
	names map[string][]string
}

func (s *stubDNS) UpsertTXT(_ context.Context, domain, name, _ string, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.names == nil {
		s.names = map[string][]string{}
	}
	s.names[domain] = append(s.names[domain], name)
	return nil
}

func (s *stubDNS) get(domain string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names[domain]...)
}

type fixture struct {
	dataDir  string
	registry string
	store    *stubStore
	dns      *stubDNS
	runner   *Runner
}

func newFixture(t *testing.T, domains ...string) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		dataDir:  filepath.Join(base, "data"),
		registry: filepath.Join(base, "projects.json"),
		store:    &stubStore{},
		dns:      &stubDNS{},
	}
	projectsDir := filepath.Join(f.dataDir, "projects")
	require.NoError(t, os.MkdirAll(projectsDir, 0o755))

	reg := `{"active": [`
	for i, d := range domains {
		dir := filepath.Join(projectsDir, d)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "www"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"domain": "`+d+`"}`), 0o644))
		if i > 0 {
			reg += ","
		}
		reg += `{"domain": "` + d + `"}`
	}
	reg += `]}`
	require.NoError(t, os.WriteFile(f.registry, []byte(reg), 0o644))

	pipeline := publish.New(publish.Deps{BlockStore: f.store, DNS: f.dns}, publish.Options{MaxConcurrent: 4})
	f.runner = NewRunner(RunnerDeps{
		RegistryPath: f.registry,
		Iterator:     project.NewIterator(projectsDir, nil, nil),
		Pipeline:     pipeline,
	})
	return f
}

func (f *fixture) config() *config.Config {
	return &config.Config{
		DataDirectory: f.dataDir,
		Registry:      f.registry,
		Schedule:      config.ScheduleConfig{Interval: "1h"},
	}
}
