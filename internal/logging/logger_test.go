package logging_test

import (
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacesedan/aspectflow/internal/logging"
)

var _ = DescribeTable("ParseLevel",
	func(raw string, want slog.Level) {
		Expect(logging.ParseLevel(raw)).To(Equal(want))
	},
	Entry("debug", "debug", slog.LevelDebug),
	Entry("upper case warn", " WARN ", slog.LevelWarn),
	Entry("warning alias", "warning", slog.LevelWarn),
	Entry("error", "error", slog.LevelError),
	Entry("empty", "", slog.LevelInfo),
	Entry("unknown", "verbose", slog.LevelInfo),
)
