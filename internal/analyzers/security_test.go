package analyzers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestSecurityOverTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Content-Security-Policy", "default-src 'self'")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Server", "Apache/2.4.57")
		h.Add("Set-Cookie", "sid=1; Path=/; Secure; HttpOnly")
		h.Add("Set-Cookie", "pref=dark; Path=/")
	}))
	defer srv.Close()

	page := `<html><head>
<script src="http://cdn.example.com/a.js"></script>
<link rel="stylesheet" href="http://cdn.example.com/a.css">
</head><body>
<img src="https://acme.test/logo.png">
<a href="http://example.org/">plain links are not mixed content</a>
</body></html>`

	a := &Security{Client: srv.Client(), Timeout: 2 * time.Second}
	out, err := a.Run(context.Background(), pageContext(srv.URL+"/", page))
	require.NoError(t, err)
	res := out.Result

	assert.True(t, res.Available)
	assert.True(t, res.HTTPS)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, res.HSTS)
	assert.Equal(t, 31536000, res.HSTSMaxAge)
	assert.Equal(t, []string{"Content-Security-Policy", "X-Frame-Options"}, res.PresentHeaders)
	assert.Len(t, res.MissingHeaders, 3)
	assert.Equal(t, 2, res.CookieCount)
	assert.Equal(t, 1, res.InsecureCookies)
	assert.False(t, res.SecureCookies)
	assert.Equal(t, "Apache/2.4.57", res.ServerDisclosure)
	assert.Equal(t, []string{"http://cdn.example.com/a.js", "http://cdn.example.com/a.css"}, res.MixedContent)
	assert.False(t, res.HTTPSRedirect, "the TLS listener rejects plain HTTP")

	ids := issueIDs(out.Issues)
	assert.Contains(t, ids, "security.mixed-content")
	assert.Contains(t, ids, "security.no-https-redirect")
	assert.Contains(t, ids, "security.insecure-cookies")
	assert.Contains(t, ids, "security.server-disclosure")
	assert.NotContains(t, ids, "security.missing-hsts")
	assert.NotContains(t, ids, "security.no-https")
}

func TestSecurityPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=600")
	}))
	defer srv.Close()

	out, err := (&Security{Client: srv.Client()}).Run(context.Background(), pageContext(srv.URL+"/", bareDoc))
	require.NoError(t, err)

	assert.False(t, out.Result.HTTPS)
	assert.False(t, out.Result.HSTS, "HSTS is ignored over plain HTTP")
	assert.Empty(t, out.Result.MixedContent)
	assert.Equal(t, "security.no-https", out.Issues[0].ID)
}

func TestSecurityDetectsRedirect(t *testing.T) {
	var seen []string
	client := doerFunc(func(req *http.Request) (*http.Response, error) {
		seen = append(seen, req.URL.String())
		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}
		if req.URL.Scheme == "http" {
			resp.StatusCode = http.StatusMovedPermanently
			resp.Header.Set("Location", "https://acme.test/")
		}
		for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy", "Permissions-Policy"} {
			resp.Header.Set(h, "x")
		}
		resp.Header.Set("Strict-Transport-Security", "max-age=63072000")
		return resp, nil
	})

	out, err := (&Security{Client: client}).Run(context.Background(), pageContext("https://acme.test/", bareDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://acme.test/", "http://acme.test/"}, seen)
	assert.True(t, out.Result.HTTPSRedirect)
	assert.Empty(t, out.Result.MissingHeaders)
	assert.False(t, out.Result.SecureCookies, "no cookies means nothing to reward")
	assert.Empty(t, out.Issues)
}

func TestSecurityFetchError(t *testing.T) {
	client := doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, io.ErrUnexpectedEOF
	})
	_, err := (&Security{Client: client}).Run(context.Background(), pageContext("https://acme.test/", bareDoc))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSecurityWithoutClientUsesPageHeaders(t *testing.T) {
	pc := pageContext("https://acme.test/", bareDoc)
	pc.Headers.Set("X-Content-Type-Options", "nosniff")

	out, err := (&Security{}).Run(context.Background(), pc)
	require.NoError(t, err)

	assert.Equal(t, []string{"X-Content-Type-Options"}, out.Result.PresentHeaders)
	assert.Zero(t, out.Result.StatusCode)
}
