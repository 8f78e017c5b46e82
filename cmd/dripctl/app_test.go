package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drip/internal/attestation/jwtgateway"
	"drip/internal/client"
	faucethandler "drip/internal/faucet/handler"
	"drip/pkg/domain"
	"drip/pkg/platform/httputil"
	"drip/pkg/requestcontext"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"dripctl"}, args...))
	return out.String(), err
}

func keygenAt(t *testing.T, path string) domain.Address {
	t.Helper()
	out, err := run(t, "keygen", "--out", path)
	require.NoError(t, err)
	identity, err := domain.ParseAddress(strings.TrimSpace(out))
	require.NoError(t, err)
	return identity
}

func TestKeygenAndGatewayToken(t *testing.T) {
	dir := t.TempDir()
	networkPath := filepath.Join(dir, "network.key")
	network := keygenAt(t, networkPath)
	subject := keygenAt(t, filepath.Join(dir, "user.key"))

	out, err := run(t, "issue-gateway-token", "--network-key", networkPath, "--subject", subject.String(), "--ttl", "1h")
	require.NoError(t, err)

	ctx := requestcontext.WithTime(context.Background(), time.Now())
	token := strings.TrimSpace(out)
	assert.NoError(t, jwtgateway.NewVerifier().Verify(ctx, token, subject, network, nil))
}

func TestBalanceDefaultsToKeyIdentity(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "user.key")
	identity := keygenAt(t, keyPath)

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		httputil.WriteJSON(w, http.StatusOK, faucethandler.BalanceResponse{Identity: identity.String(), Amount: 5})
	}))
	defer srv.Close()

	out, err := run(t, "--server", srv.URL, "--key", keyPath, "balance")
	require.NoError(t, err)
	assert.Equal(t, "/v1/users/"+identity.String()+"/balance", gotPath)

	var bal faucethandler.BalanceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &bal))
	assert.Equal(t, uint64(5), bal.Amount)
}

func TestSignedCommandsRequireKey(t *testing.T) {
	_, err := run(t, "claim")
	assert.ErrorContains(t, err, "--key is required")
}

func TestSetExemptArguments(t *testing.T) {
	_, err := run(t, "set-exempt")
	assert.Error(t, err)

	keyPath := filepath.Join(t.TempDir(), "k")
	identity := keygenAt(t, keyPath)
	_, err = run(t, "--key", keyPath, "set-exempt", "--clear", identity.String())
	assert.ErrorContains(t, err, "exclusive")
}

func TestServerErrorsSurface(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "unavailable", Reason: "not_initialized"})
	}))
	defer srv.Close()

	_, err := run(t, "--server", srv.URL, "config")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not_initialized", apiErr.Reason)
}
