package videosummarizer

import (
	"context"
	"fmt"
	"time"

	"video-summarizer/shared/metrics"
	"video-summarizer/shared/scheduler"
)

// ProxyCheck is the scheduled job that verifies the transcript proxy still
// reaches YouTube.
type ProxyCheck struct {
	checker ProxyChecker
	metrics *metrics.Metrics
}

func NewProxyCheck(checker ProxyChecker, m *metrics.Metrics) *ProxyCheck {
	if m == nil {
		m = metrics.New()
	}
	return &ProxyCheck{checker: checker, metrics: m}
}

func (p *ProxyCheck) Name() string {
	return "proxy check"
}

func (p *ProxyCheck) RunOnce(ctx context.Context, events *scheduler.Events) error {
	start := time.Now()

	diag, err := p.checker.Check(ctx)
	p.metrics.ObserveUpstream(metrics.ServiceProxy, err)
	if err != nil {
		p.metrics.ProxyCheckStatus.Set(0)
		return err
	}

	if !diag.YouTubeAccessible {
		p.metrics.ProxyCheckStatus.Set(0)
		events.OnFailure(fmt.Errorf("youtube not reachable through proxy (egress %s)", diag.ProxyIP), time.Since(start))
		return nil
	}

	p.metrics.ProxyCheckStatus.Set(1)
	events.OnSuccess(diag, time.Since(start))
	return nil
}
