package blockstore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/httpapi"
	"git.home.luguber.info/inful/pinningd/internal/logfields"
)

// DefaultAPI is the default Kubo RPC address.
const DefaultAPI = "http://127.0.0.1:5001"

// HTTPClient adds trees through the Kubo RPC API (/api/v0/add).
type HTTPClient struct {
	client *httpapi.Client
	logger *slog.Logger
}

// NewHTTPClient creates a client for the Kubo RPC API at apiURL. The http.Client
// should carry no timeout of its own; AddOptions.Timeout bounds each add.
func NewHTTPClient(httpClient *http.Client, apiURL string, logger *slog.Logger) *HTTPClient {
	if apiURL == "" {
		apiURL = DefaultAPI
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		client: httpapi.New(httpClient, apiURL, "", errors.CategoryPublish),
		logger: logger,
	}
}

type addEvent struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Add uploads root as a multipart directory and returns the CID Kubo reports for it.
func (c *HTTPClient) Add(ctx context.Context, root string, opts AddOptions) (cid.Cid, error) {
	root = filepath.Clean(root)
	if err := checkRoot(root); err != nil {
		return cid.Undef, err
	}
	entries, err := Walk(root, opts.Hidden)
	if err != nil {
		return cid.Undef, errors.FileSystemError("failed to walk tree").
			WithCause(err).
			WithContext("path", root).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	q := url.Values{}
	q.Set("recursive", "true")
	q.Set("cid-version", strconv.Itoa(opts.CIDVersion))
	q.Set("pin", strconv.FormatBool(opts.Pin))
	q.Set("progress", "false")
	q.Set("stream-channels", "true")

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, entries))
	}()
	defer func() { _ = pr.Close() }()

	req, err := c.client.NewStreamRequest(ctx, http.MethodPost, "/api/v0/add?"+q.Encode(), mw.FormDataContentType(), pr)
	if err != nil {
		return cid.Undef, err
	}
	resp, err := c.client.Send(req)
	if err != nil {
		if ctx.Err() != nil {
			return cid.Undef, timeoutError(ctx.Err(), root)
		}
		return cid.Undef, err
	}
	defer func() { _ = resp.Body.Close() }()

	rootName := filepath.Base(root)
	var rootHash string
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev addEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return cid.Undef, errors.PublishError("malformed add response").
				WithCause(err).
				WithContext("line", line).
				Build()
		}
		if ev.Name == rootName {
			rootHash = ev.Hash
		}
	}
	if err := sc.Err(); err != nil {
		if ctx.Err() != nil {
			return cid.Undef, timeoutError(ctx.Err(), root)
		}
		return cid.Undef, errors.PublishError("add response interrupted").WithCause(err).Build()
	}
	if msg := resp.Trailer.Get("X-Stream-Error"); msg != "" {
		return cid.Undef, errors.PublishError("add failed").
			WithCause(fmt.Errorf("%s", msg)).
			WithContext("path", root).
			Build()
	}
	if rootHash == "" {
		return cid.Undef, errors.PublishError("add response did not include the root").
			WithContext("path", root).
			Build()
	}

	id, err := Parse(rootHash)
	if err != nil {
		return cid.Undef, err
	}
	c.logger.Debug("Tree added to block store", logfields.Path(root), slog.Int("entries", len(entries)), logfields.Locator(id.String()))
	return id, nil
}

// writeParts streams entries in the layout Kubo expects: one part per node,
// directories typed application/x-directory, names URL-escaped.
func writeParts(mw *multipart.Writer, entries []Entry) error {
	for _, e := range entries {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, url.QueryEscape(e.Rel)))
		if e.IsDir {
			h.Set("Content-Type", "application/x-directory")
			if _, err := mw.CreatePart(h); err != nil {
				return err
			}
			continue
		}
		h.Set("Content-Type", "application/octet-stream")
		w, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if err := copyFile(w, e.Abs); err != nil {
			return err
		}
	}
	return mw.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}

func checkRoot(root string) error {
	fi, err := os.Lstat(root)
	if err != nil {
		return errors.FileSystemError("tree not accessible").
			WithCause(err).
			WithContext("path", root).
			Build()
	}
	if !fi.IsDir() {
		return errors.FileSystemError("tree is not a directory").
			WithContext("path", root).
			Build()
	}
	return nil
}

func timeoutError(cause error, root string) error {
	return errors.PublishError("block store add timed out").
		WithCause(cause).
		WithContext("path", root).
		Build()
}
