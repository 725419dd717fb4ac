package httpclient

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendJSON(t *testing.T) {
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://scorer.local/ok",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			assert.Equal(t, "abc", req.Header.Get("X-Request-ID"))
			return httpmock.NewStringResponse(200, `{"ok":true}`), nil
		})
	httpmock.RegisterResponder(http.MethodPost, "http://scorer.local/fail",
		httpmock.NewStringResponder(503, `down`))

	raw, code, err := SendJSON(context.Background(), client, "http://scorer.local/ok", map[string]int{"a": 1}, map[string]string{"X-Request-ID": "abc"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, code)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	raw, code, err = SendJSON(context.Background(), client, "http://scorer.local/fail", nil, nil, nil)
	assert.Error(t, err)
	assert.Equal(t, 503, code)
	assert.Equal(t, "down", string(raw))
}

func TestFetch(t *testing.T) {
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://cdn.local/t.png", httpmock.NewBytesResponder(200, []byte{0x89, 'P', 'N', 'G'}))
	httpmock.RegisterResponder(http.MethodGet, "https://cdn.local/missing.png", httpmock.NewStringResponder(404, ""))

	b, err := Fetch(context.Background(), client, "https://cdn.local/t.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, b)

	_, err = Fetch(context.Background(), client, "https://cdn.local/missing.png")
	assert.ErrorContains(t, err, "404")
}
