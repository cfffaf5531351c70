package publish

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pinningd/internal/blockstore"
	"git.home.luguber.info/inful/pinningd/internal/drive"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/metrics"
	"git.home.luguber.info/inful/pinningd/internal/notify"
	"git.home.luguber.info/inful/pinningd/internal/project"
	"git.home.luguber.info/inful/pinningd/internal/seed"
)

type syncCall struct {
	local   string
	remote  string
	timeout time.Duration
}

type fakeDrive struct {
	mu      sync.Mutex
	syncs   []syncCall
	creates int
	failOn  string
}

func (f *fakeDrive) Sync(_ context.Context, s seed.Seed, local, remote string, timeout time.Duration) (drive.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs = append(f.syncs, syncCall{local: local, remote: remote, timeout: timeout})
	if f.failOn != "" && filepath.Base(local) == f.failOn {
		return drive.SyncResult{}, errors.PublishError("swarm unreachable").Build()
	}
	return drive.SyncResult{URL: drive.URLFor(s), Diff: []drive.Change{{Type: "add", Name: "/index.html"}}}, nil
}

func (f *fakeDrive) Create(_ context.Context, s seed.Seed) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	return drive.URLFor(s), nil
}

func (f *fakeDrive) URL(s seed.Seed) string { return drive.URLFor(s) }

func (f *fakeDrive) syncCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.syncs)
}

type addCall struct {
	root string
	opts blockstore.AddOptions
}

type fakeStore struct {
	mu       sync.Mutex
	adds     []addCall
	hangOn   string
	panicOn  string
	delay    time.Duration
	inflight atomic.Int32
	maxSeen  atomic.Int32
}

func testCID(data string) cid.Cid {
	mh, _ := multihash.Sum([]byte(data), multihash.SHA2_256, -1)
	return cid.NewCidV0(mh)
}

func (f *fakeStore) Add(ctx context.Context, root string, opts blockstore.AddOptions) (cid.Cid, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.adds = append(f.adds, addCall{root: root, opts: opts})
	f.mu.Unlock()

	name := filepath.Base(root)
	if name == f.panicOn {
		panic("kubo client exploded")
	}
	if name == f.hangOn {
		ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
		<-ctx.Done()
		return cid.Undef, errors.PublishError("block store add timed out").WithCause(ctx.Err()).Build()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return testCID(root), nil
}

func (f *fakeStore) addCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adds)
}

type upsert struct {
	domain string
	name   string
	data   string
	ttl    int
}

type fakeDNS struct {
	mu      sync.Mutex
	upserts []upsert
}

func (f *fakeDNS) UpsertTXT(_ context.Context, domain, name, data string, ttl int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, upsert{domain: domain, name: name, data: data, ttl: ttl})
	return nil
}

func (f *fakeDNS) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.upserts))
	for _, u := range f.upserts {
		out = append(out, u.name)
	}
	sort.Strings(out)
	return out
}

func (f *fakeDNS) dataFor(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, u := range f.upserts {
		if u.name == name {
			out = append(out, u.data)
		}
	}
	return out
}

type fakeRegistrar struct {
	mu    sync.Mutex
	added []string
}

func (f *fakeRegistrar) Login(context.Context, string, string) error { return nil }
func (f *fakeRegistrar) Add(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, url)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	pubs []notify.Publication
}

func (f *fakeNotifier) Announce(_ context.Context, p notify.Publication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pubs = append(f.pubs, p)
	return nil
}

func (f *fakeNotifier) Close() error { return nil }

type publishRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[string]metrics.ResultLabel
}

func (r *publishRecorder) ObservePublish(tree, backend string, _ time.Duration, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = map[string]metrics.ResultLabel{}
	}
	r.results[tree+"/"+backend] = result
}

func newProject(t *testing.T, domain string, trees ...string) project.Project {
	t.Helper()
	dir := filepath.Join(t.TempDir(), domain)
	for _, tr := range trees {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, tr), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, tr, "index.html"), []byte(domain), 0o644))
	}
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return project.Project{Name: domain, Domain: domain, Dir: dir}
}

func writeFile(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o600)
}
