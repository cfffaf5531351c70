package blockstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

// fakeKubo answers /api/v0/add by echoing one ndjson event per uploaded part.
type fakeKubo struct {
	t        *testing.T
	mu       sync.Mutex
	query    url.Values
	parts    map[string]string
	types    map[string]string
	rootHash string
}

func (f *fakeKubo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v0/add" || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	mr, err := r.MultipartReader()
	require.NoError(f.t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = r.URL.Query()
	f.parts = map[string]string{}
	f.types = map[string]string{}
	var names []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(f.t, err)
		name, err := url.QueryUnescape(p.FileName())
		require.NoError(f.t, err)
		body, _ := io.ReadAll(p)
		f.parts[name] = string(body)
		f.types[name] = p.Header.Get("Content-Type")
		names = append(names, name)
	}

	enc := json.NewEncoder(w)
	for i := len(names) - 1; i >= 0; i-- {
		hash := "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy"
		if i == 0 {
			hash = f.rootHash
		}
		_ = enc.Encode(addEvent{Name: names[i], Hash: hash, Size: "1"})
	}
}

func TestHTTPClient_Add(t *testing.T) {
	root := makeTree(t)
	mh := testHash(t, "tree")
	rootV0 := cid.NewCidV0(mh)

	fake := &fakeKubo{t: t, rootHash: rootV0.String()}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := NewHTTPClient(srv.Client(), srv.URL, nil)
	got, err := c.Add(context.Background(), root, DefaultAddOptions())
	require.NoError(t, err)
	require.True(t, got.Equals(rootV0))

	require.Equal(t, "true", fake.query.Get("recursive"))
	require.Equal(t, "1", fake.query.Get("cid-version"))
	require.Equal(t, "true", fake.query.Get("pin"))

	require.Equal(t, map[string]string{
		"www":              "",
		"www/css":          "",
		"www/css/site.css": "body{}",
		"www/index.html":   "<h1>hi</h1>",
	}, fake.parts)
	require.Equal(t, "application/x-directory", fake.types["www/css"])
	require.Equal(t, "application/octet-stream", fake.types["www/index.html"])
}

func TestHTTPClient_Timeout(t *testing.T) {
	root := makeTree(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	opts := DefaultAddOptions()
	opts.Timeout = 100 * time.Millisecond
	start := time.Now()
	_, err := NewHTTPClient(srv.Client(), srv.URL, nil).Add(context.Background(), root, opts)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryPublish))
	require.True(t, stderrors.Is(err, context.DeadlineExceeded))
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestHTTPClient_Errors(t *testing.T) {
	root := makeTree(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		switch r.URL.Query().Get("pin") {
		case "false":
			_, _ = io.WriteString(w, `{"Name":"other","Hash":"bafy"}`+"\n")
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"Message":"repo locked","Code":0,"Type":"error"}`)
		}
	}))
	defer srv.Close()
	c := NewHTTPClient(srv.Client(), srv.URL, nil)

	_, err := c.Add(context.Background(), root, DefaultAddOptions())
	require.True(t, errors.HasCategory(err, errors.CategoryPublish))

	_, err = c.Add(context.Background(), root, AddOptions{CIDVersion: 1})
	require.True(t, errors.HasCategory(err, errors.CategoryPublish))

	_, err = c.Add(context.Background(), root+"/missing", DefaultAddOptions())
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}
