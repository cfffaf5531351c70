package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

func TestStoreClient_LoginThenAdd(t *testing.T) {
	var added []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/user/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["username"] != "pin" || body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
		case "/v1/dats/add":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			added = append(added, body["url"])
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewStoreClient(srv.Client(), srv.URL)
	ctx := context.Background()

	err := c.Add(ctx, "hyper://abc")
	require.True(t, errors.HasCategory(err, errors.CategoryAuth))

	err = c.Login(ctx, "pin", "wrong")
	require.True(t, errors.HasCategory(err, errors.CategoryAuth))

	require.NoError(t, c.Login(ctx, "pin", "secret"))
	require.NoError(t, c.Add(ctx, "hyper://abc"))
	require.Equal(t, []string{"hyper://abc"}, added)
}
