package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/DataDog/datadog-profiling-agent/agent"
)

var workloadOperations = []string{"GET /users", "POST /orders", "db.query", "cache.get"}

// runWorkload executes instrumented fake operations until ctx is done. The
// durations are exponential so that the samples spread over many buckets.
func runWorkload(ctx context.Context, a *agent.Agent, worker int) {
	r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
	for n := 0; ctx.Err() == nil; n++ {
		name := workloadOperations[r.Intn(len(workloadOperations))]
		_, end := a.StartOperation(ctx, name, fmt.Sprintf("w%d-%d", worker, n))
		d := time.Duration(r.ExpFloat64()*float64(5*time.Millisecond)) + 100*time.Microsecond
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}
		end()
	}
}
