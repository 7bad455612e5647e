package httputil

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", BearerToken(r))

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Bearer ")
	assert.Empty(t, BearerToken(r))
}

func TestPeekBody_LeavesBodyReadable(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"cost":4}`))

	peeked, err := PeekBody(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cost":4}`, string(peeked))

	// Downstream handler still sees the full body
	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cost":4}`, string(rest))
}

func TestParseJSON(t *testing.T) {
	var dest struct {
		Cost int `json:"cost"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"cost":2}`))
	require.NoError(t, ParseJSON(r, &dest))
	assert.Equal(t, 2, dest.Cost)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	assert.Error(t, ParseJSON(r, &dest))
}
