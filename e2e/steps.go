// Package e2e drives a running drip server through Gherkin scenarios.
package e2e

import (
	"github.com/cucumber/godog"

	"drip/e2e/steps/faucet"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	faucet.RegisterSteps(ctx, tc)
}
