package abra_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrachat/abrachat/abra"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...abra.ClientOption) (*abra.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := abra.NewClient(srv.URL, "Demo", "u", "p", opts...)
	require.NoError(t, err)
	return c, srv
}

func Test_NewClient_Validation(t *testing.T) {
	_, err := abra.NewClient("", "Demo", "u", "p")
	assert.EqualError(t, err, "abra: host is required")

	_, err = abra.NewClient("http://localhost:699", "", "u", "p")
	assert.EqualError(t, err, "abra: database is required")

	c, err := abra.NewClient("http://localhost:699/", "Demo", "u", "p")
	require.NoError(t, err)
	assert.Contains(t, c.Collections(), "firms")
}

func Test_Query_RequestEncoding(t *testing.T) {
	var urls []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urls = append(urls, r.URL.String())
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "u", user)
		require.Equal(t, "p", pass)
		_, _ = w.Write([]byte(`[]`))
	}))

	intent := abra.QueryIntent{
		Collection: "issuedinvoices",
		Select:     "ID,Amount",
		Where:      "Amount gt 10000",
		OrderBy:    "Amount desc",
		Expand:     "Firm_ID",
		Skip:       10,
		Take:       20,
	}
	_, err := c.Query(context.Background(), intent)
	require.NoError(t, err)
	// same inputs encode to the identical request
	_, err = c.Query(context.Background(), intent)
	require.NoError(t, err)

	require.Len(t, urls, 2)
	assert.Equal(t, urls[0], urls[1])
	assert.Equal(t,
		"/Demo/issuedinvoices?expand=Firm_ID&orderby=Amount+desc&select=ID%2CAmount&skip=10&take=20&where=Amount+gt+10000",
		urls[0])
}

func Test_Query_DefaultAndClampedTake(t *testing.T) {
	var urls []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urls = append(urls, r.URL.String())
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := c.Query(context.Background(), abra.QueryIntent{Collection: "firms"})
	require.NoError(t, err)
	assert.Equal(t, "/Demo/firms?take=50", urls[0])

	_, err = c.Query(context.Background(), abra.QueryIntent{Collection: "firms", Take: 100000})
	require.NoError(t, err)
	assert.Equal(t, "/Demo/firms?take=1000", urls[1])
}

func Test_Query_DisallowedCollection(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := c.Query(context.Background(), abra.QueryIntent{Collection: "users"})
	var verr *abra.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "validation", verr.ErrorKind())

	_, err = c.Query(context.Background(), abra.QueryIntent{})
	require.ErrorAs(t, err, &verr)

	// zero HTTP requests were issued
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func Test_GetResource(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Demo/firms/1400000101":
			_, _ = w.Write([]byte(`{"ID":"1400000101","Name":"Acme Corp"}`))
		default:
			http.NotFound(w, r)
		}
	}))

	res, err := c.GetResource(context.Background(), "firms", "1400000101", "")
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Acme Corp", res.Items[0]["Name"])
	assert.Equal(t, 1, res.Total)

	// a missing id is NotFoundError, not a generic RemoteError
	_, err = c.GetResource(context.Background(), "firms", "nope", "")
	var nferr *abra.NotFoundError
	require.ErrorAs(t, err, &nferr)
	var rerr *abra.RemoteError
	assert.False(t, errors.As(err, &rerr))

	_, err = c.GetResource(context.Background(), "firms", "", "")
	var verr *abra.ValidationError
	require.ErrorAs(t, err, &verr)
}

func Test_Query_Timeout(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}), abra.WithTimeout(50*time.Millisecond))

	res, err := c.Query(context.Background(), abra.QueryIntent{Collection: "firms"})
	var terr *abra.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "transport", terr.ErrorKind())
	// never a silent empty result
	assert.Nil(t, res)
}

func Test_Query_ConnectionRefused(t *testing.T) {
	c, err := abra.NewClient("http://127.0.0.1:1", "Demo", "u", "p")
	require.NoError(t, err)

	_, err = c.Query(context.Background(), abra.QueryIntent{Collection: "firms"})
	var terr *abra.TransportError
	require.ErrorAs(t, err, &terr)
}

func Test_Query_RemoteError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"title":"Unauthorized"}`))
	}))

	_, err := c.Query(context.Background(), abra.QueryIntent{Collection: "firms"})
	var rerr *abra.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusUnauthorized, rerr.StatusCode)
	assert.Contains(t, rerr.Body, "Unauthorized")
	assert.Equal(t, "remote", rerr.ErrorKind())
}

func Test_ListFirms(t *testing.T) {
	var gotURL string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		require.Equal(t, "/Demo/firms", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Acme Corp"}]`))
	}))

	res, err := c.ListFirms(context.Background(), "Acme", 0, 0)
	require.NoError(t, err)

	assert.Contains(t, gotURL, "Acme")
	assert.Equal(t, 1, res.Total)
	assert.False(t, res.Err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Acme Corp", res.Items[0]["name"])
	assert.Equal(t, float64(1), res.Items[0]["id"])
}

func Test_ListInvoices(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Demo/issuedinvoices", r.URL.Path)
		gotQuery = r.URL.Query().Get("where")
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := c.ListInvoices(context.Background(), "2024-01-01", "2024-12-31", "42", 10, 0)
	require.NoError(t, err)
	assert.Equal(t,
		"DocDate ge timestamp'2024-01-01' and DocDate le timestamp'2024-12-31' and Firm_ID eq '42'",
		gotQuery)
}

func Test_ListProducts(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Demo/storecards", r.URL.Path)
		require.Contains(t, r.URL.Query().Get("where"), "screw")
		_, _ = w.Write([]byte(`[{"Code":"S1","Name":"screw M4"}]`))
	}))

	res, err := c.ListProducts(context.Background(), "screw", 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}

func Test_Query_SingleObjectNormalized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ID":1}`))
	}))

	res, err := c.Query(context.Background(), abra.QueryIntent{Collection: "accounts"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Items, 1)
}

func Test_Query_MalformedJSON(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ID":`))
	}))

	_, err := c.Query(context.Background(), abra.QueryIntent{Collection: "accounts"})
	var rerr *abra.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Body, "malformed JSON")
}
