// Package containers starts throwaway backing services for integration
// tests. Every helper skips its test under -short.
package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

func start[C testcontainers.Container](t *testing.T, name string, run func(context.Context) (C, error)) C {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s integration test in short mode", name)
	}

	c, err := run(context.Background())
	if err != nil {
		t.Fatalf("%s container: %v", name, err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate %s container: %v", name, err)
		}
	})
	return c
}
