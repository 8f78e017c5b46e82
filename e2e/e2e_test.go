//go:build e2e

package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"

	"drip/internal/client"
)

// TestFeatures runs against DRIP_E2E_SERVER. DRIP_E2E_NETWORK_KEY names the
// key file of the attestation network the server trusts.
func TestFeatures(t *testing.T) {
	server := os.Getenv("DRIP_E2E_SERVER")
	if server == "" {
		t.Skip("DRIP_E2E_SERVER not set")
	}
	tc := NewTestContext(server, nil)
	if path := os.Getenv("DRIP_E2E_NETWORK_KEY"); path != "" {
		key, err := client.LoadKey(path)
		if err != nil {
			t.Fatalf("load network key: %v", err)
		}
		tc = NewTestContext(server, key)
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("e2e scenarios failed")
	}
}
