package observer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	vecshelf "github.com/vecshelf/vecshelf"
)

// ObservedEngine wraps a vector engine with OTEL instrumentation. Catalog
// operations get spans; inserts additionally record row counts and
// durations.
type ObservedEngine struct {
	inner vecshelf.Engine
	inst  *Instruments
}

// WrapEngine returns an instrumented engine.
func WrapEngine(inner vecshelf.Engine, inst *Instruments) *ObservedEngine {
	return &ObservedEngine{inner: inner, inst: inst}
}

func (o *ObservedEngine) CreateCollection(ctx context.Context, name string, schema vecshelf.CollectionSchema) error {
	return o.span(ctx, "create", name, func(ctx context.Context) error {
		return o.inner.CreateCollection(ctx, name, schema)
	})
}

func (o *ObservedEngine) HasCollection(ctx context.Context, name string) (bool, error) {
	var has bool
	err := o.span(ctx, "has", name, func(ctx context.Context) error {
		var err error
		has, err = o.inner.HasCollection(ctx, name)
		return err
	})
	return has, err
}

func (o *ObservedEngine) DropCollection(ctx context.Context, name string) error {
	return o.span(ctx, "drop", name, func(ctx context.Context) error {
		return o.inner.DropCollection(ctx, name)
	})
}

func (o *ObservedEngine) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	err := o.span(ctx, "list", "", func(ctx context.Context) error {
		var err error
		names, err = o.inner.ListCollections(ctx)
		return err
	})
	return names, err
}

func (o *ObservedEngine) Insert(ctx context.Context, name string, rows []vecshelf.Row) (int, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "engine.insert", trace.WithAttributes(
		AttrCollection.String(name),
		attribute.Int("engine.insert.submitted", len(rows)),
	))
	defer span.End()
	start := time.Now()

	inserted, err := o.inner.Insert(ctx, name, rows)

	durationMs := float64(time.Since(start).Milliseconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		o.inst.InsertRows.Add(ctx, int64(inserted), metric.WithAttributes(
			AttrCollection.String(name),
		))
	}
	o.inst.InsertDuration.Record(ctx, durationMs, metric.WithAttributes(
		AttrCollection.String(name),
	))
	return inserted, err
}

func (o *ObservedEngine) CollectionStats(ctx context.Context, name string) (map[string]any, error) {
	var stats map[string]any
	err := o.span(ctx, "stats", name, func(ctx context.Context) error {
		var err error
		stats, err = o.inner.CollectionStats(ctx, name)
		return err
	})
	return stats, err
}

func (o *ObservedEngine) Close() error { return o.inner.Close() }

func (o *ObservedEngine) span(ctx context.Context, op, name string, fn func(context.Context) error) error {
	attrs := []attribute.KeyValue{AttrOperation.String(op)}
	if name != "" {
		attrs = append(attrs, AttrCollection.String(name))
	}
	ctx, span := o.inst.Tracer.Start(ctx, "engine."+op, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.inst.EngineCalls.Add(ctx, 1, metric.WithAttributes(
		AttrOperation.String(op),
		attribute.String("status", status),
	))
	return err
}

var _ vecshelf.Engine = (*ObservedEngine)(nil)
