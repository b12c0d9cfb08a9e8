package testutils

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestServer wraps an httptest server with a cookie-jar client so session
// cookies survive across requests, the way a browser keeps them.
type TestServer struct {
	*httptest.Server
	Client *http.Client
	t      *testing.T
}

func NewTestServer(t *testing.T, handler http.Handler) *TestServer {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &TestServer{
		Server: server,
		Client: &http.Client{Jar: jar},
		t:      t,
	}
}

// GET follows redirects, like a browser would
func (ts *TestServer) GET(path string) *http.Response {
	resp, err := ts.Client.Get(ts.URL + path)
	require.NoError(ts.t, err)
	return resp
}

// GETNoRedirect stops at the first response so redirect targets can be
// asserted
func (ts *TestServer) GETNoRedirect(path string) *http.Response {
	client := &http.Client{
		Jar: ts.Client.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(ts.URL + path)
	require.NoError(ts.t, err)
	return resp
}

// PostForm submits a form-encoded body, following redirects
func (ts *TestServer) PostForm(path string, form url.Values) *http.Response {
	resp, err := ts.Client.PostForm(ts.URL+path, form)
	require.NoError(ts.t, err)
	return resp
}

// Login signs the client's cookie jar in through the real login form
func (ts *TestServer) Login(username, password string) *http.Response {
	return ts.PostForm("/login", url.Values{
		"username": {username},
		"password": {password},
	})
}

// ReadBody drains and closes the response body
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
