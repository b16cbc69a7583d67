//go:build integration

package capture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-extractor/internal/locate"
)

// Requires Chrome or Chromium on PATH.
func TestBrowser_CapturesConsoleLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><script>
			console.log("startups", [{"EntrepriseName":"Acme","EntrepriseSecteurActivite":"IT; Health"}]);
		</script></body></html>`))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.SettleDelay = 500 * time.Millisecond
	opts.Timeout = 30 * time.Second

	res, err := Browser(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Forest)

	found, err := locate.Locate(res.Forest)
	require.NoError(t, err)
	require.Len(t, found.Records, 1)
	name, _ := found.Records[0].Get("EntrepriseName")
	assert.Equal(t, "Acme", name.Text())
}

func TestBrowser_ResolvesObjectsFromConsoleInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><script>
			console.info("startups", [{"Name":"Acme"},{"Nom":"Beta"}]);
		</script></body></html>`))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.SettleDelay = 500 * time.Millisecond
	opts.Timeout = 30 * time.Second

	res, err := Browser(context.Background(), server.URL, opts)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Forest), 2)

	// Live event arguments come first, the array fetched by value
	assert.True(t, res.Forest[1].IsSequence())
	assert.Equal(t, 2, res.Forest[1].Len())
}
