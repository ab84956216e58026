package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards everything. Suites hand it to every
// component so test output stays limited to assertion failures.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
