package agent

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"codepilot/internal/logging"
	"codepilot/internal/tools"
)

// executeRequests runs one round of tool requests and returns results
// in the same order as the requests, regardless of completion order. A
// single request runs directly on the calling goroutine; multiple
// requests share a bounded worker pool.
func (l *Loop) executeRequests(ctx context.Context, requests []ToolRequest) []tools.Result {
	if len(requests) == 0 {
		return nil
	}
	if len(requests) == 1 {
		return []tools.Result{l.executeOne(ctx, requests[0])}
	}

	workers := l.cfg.MaxWorkers
	if len(requests) < workers {
		workers = len(requests)
	}

	results := make([]tools.Result, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			results[i] = l.executeOne(gctx, req)
			return nil
		})
	}
	// Workers never return errors; failures live in their result slot.
	_ = g.Wait()
	return results
}

// executeOne dispatches a single tool request with a per-tool timeout
// and panic recovery. A panicking tool yields a failed result, never a
// crashed loop.
func (l *Loop) executeOne(ctx context.Context, req ToolRequest) (result tools.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logging.LoopWarn("tool %s panicked: %v", req.Name, r)
			result = tools.Result{
				ID:       req.ID,
				ToolName: req.Name,
				Error:    fmt.Errorf("tool %s panicked: %v", req.Name, r),
				Duration: time.Since(start).Milliseconds(),
			}
		}
	}()

	toolCtx := ctx
	if l.cfg.ToolTimeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, l.cfg.ToolTimeout)
		defer cancel()
	}

	res, _ := l.registry.Execute(toolCtx, req.Name, req.Args)
	res.ID = req.ID
	return *res
}

// truncate caps a tool output at the result budget, appending a marker
// that records how much was dropped. The cut backs off to a rune
// boundary so the model never sees a split multi-byte character.
func truncate(s string, budget int) string {
	if budget <= 0 || len(s) <= budget {
		return s
	}
	cut := budget
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	dropped := len(s) - cut
	return s[:cut] + fmt.Sprintf("\n... [truncated %d bytes]", dropped)
}
