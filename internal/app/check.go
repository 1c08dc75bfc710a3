package app

import (
	"context"
	"time"
)

// Check statuses.
const (
	StatusOK            = "ok"
	StatusNotConfigured = "not configured"
)

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Name   string
	Status string
	Err    error
}

// Healthy reports whether the dependency answered or is not in use.
func (r CheckResult) Healthy() bool {
	return r.Err == nil
}

// Check pings every configured dependency.
func (a *App) Check(ctx context.Context) ([]CheckResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	results := make([]CheckResult, 0, 2)

	// Storage
	storeName := "postgres"
	if a.repo == nil {
		storeName = "memory"
	}
	results = append(results, probe(ctx, storeName, a.store))

	// Redis
	if a.cache != nil {
		results = append(results, probe(ctx, "redis", a.cache))
	} else {
		results = append(results, CheckResult{Name: "redis", Status: StatusNotConfigured})
	}

	healthy := true
	for _, r := range results {
		if !r.Healthy() {
			healthy = false
		}
	}
	return results, healthy
}

type pinger interface {
	Ping(ctx context.Context) error
}

func probe(ctx context.Context, name string, p pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckResult{Name: name, Status: "error: " + err.Error(), Err: err}
	}
	return CheckResult{Name: name, Status: StatusOK}
}
