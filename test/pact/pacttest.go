//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "orderflow-api"
	ConsumerName = "orderflow-portal"

	StateOrdersBaseline = "no orders exist"
	StateOrderExists    = "order ORD-001 exists"
	StateUsersBaseline  = "user d-1 exists"
)

const (
	ExistingOrderID = "ORD-001"
	MissingOrderID  = "ORD-404"

	DigitizerID   = "d-1"
	DigitizerName = "Dana"
	MissingUserID = "ghost"

	SalesUserID   = "s-1"
	SalesUserName = "Sam"
	TeamUserID    = "t-1"
	TeamUserName  = "Tia"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCreateOrderPayload is the body the portal sends for a manual order.
func ExampleCreateOrderPayload() map[string]any {
	return map[string]any{
		"customer":           map[string]any{"name": "Ada Lovelace", "email": "ada@example.com"},
		"productDescription": "2 x Mug, 1 x Hat",
		"priority":           "High",
	}
}

// ExampleTransitionPayload hands an order to the digitizer.
func ExampleTransitionPayload() map[string]any {
	return map[string]any{
		"status":      "AtDigitizer",
		"digitizerId": DigitizerID,
		"note":        "please vectorise the logo",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
