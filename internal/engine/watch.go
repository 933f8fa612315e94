package engine

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/kevin-cantwell/cqlparser/internal/ast"
	"github.com/kevin-cantwell/cqlparser/internal/source"
)

// specParser accepts standard five-field specs, an optional leading seconds
// field, and descriptors such as "@every 10s".
var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Watch re-runs stmt on the cron schedule spec until ctx is done. Static
// sources are loaded once; streaming sources keep being ingested between runs
// so each run sees everything received so far.
func (e *Engine) Watch(ctx context.Context, spec string, stmt ast.Statement) error {
	sel, err := selectOf(stmt)
	if err != nil {
		return err
	}
	schedule, err := specParser.Parse(spec)
	if err != nil {
		return errors.Wrapf(err, "watch schedule %q", spec)
	}

	plans, err := e.plan(sel)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, e.log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := e.attach(ctx, st, plans); err != nil {
		return err
	}
	if err := e.load(ctx, st, plans, source.Static); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, p := range plans {
		if p.Access != AccessLoaded || p.Source.Type() != source.Streaming {
			continue
		}
		name, p := name, p
		g.Go(func() error {
			return e.ingest(gctx, st, name, p.Source)
		})
	}

	// runs must not overlap: they share the output writer
	var running sync.Mutex
	c := cron.New(cron.WithParser(specParser))
	c.Schedule(schedule, cron.FuncJob(func() {
		if !running.TryLock() {
			e.log.Warn("skipping run, previous run still active", "schedule", spec)
			return
		}
		defer running.Unlock()
		if err := e.run(gctx, st, sel, plans); err != nil && gctx.Err() == nil {
			e.log.Error("watch run failed", "error", err)
		}
	}))

	e.log.Info("watching", "schedule", spec, "cql", sel.String())
	c.Start()
	defer func() { <-c.Stop().Done() }()

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// ingest inserts records from a streaming source as they arrive.
func (e *Engine) ingest(ctx context.Context, st *store, name string, src source.Source) error {
	ch, err := src.Records(ctx)
	if err != nil {
		return errors.Wrapf(err, "source %s", name)
	}
	n := 0
	for {
		select {
		case <-ctx.Done():
			e.log.Debug("stopped ingesting", "table", name, "records", n)
			return nil
		case rec, ok := <-ch:
			if !ok {
				if err := src.Err(); err != nil && ctx.Err() == nil {
					return err
				}
				e.log.Info("stream ended", "table", name, "records", n)
				return nil
			}
			if err := st.insert(ctx, name, rec); err != nil {
				return err
			}
			n++
		}
	}
}
