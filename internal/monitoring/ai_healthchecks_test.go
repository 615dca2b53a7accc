package monitoring_test

import (
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spacesedan/aspectflow/internal/monitoring"
)

type fakeChecker struct {
	healthy atomic.Bool
}

func (f *fakeChecker) HealthCheck(context.Context) bool {
	return f.healthy.Load()
}

var _ = Describe("MonitorInferenceHealth", func() {
	It("tracks the checker until cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		checker := &fakeChecker{}
		healthy := &atomic.Bool{}
		healthy.Store(true)

		done := make(chan struct{})
		go func() {
			defer close(done)
			monitoring.MonitorInferenceHealth(ctx, checker, healthy, 5*time.Millisecond)
		}()

		Eventually(healthy.Load).Should(BeFalse())
		checker.healthy.Store(true)
		Eventually(healthy.Load).Should(BeTrue())

		cancel()
		Eventually(done).Should(BeClosed())
	})
})
