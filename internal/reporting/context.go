package reporting

import (
	"context"
	"maps"
	"time"
)

type metaKey struct{}

// ReportingMeta is attached to every Sentry event captured from a request context.
// Values stored in a context are never mutated; every update stores a copy.
type ReportingMeta struct {
	tags      map[string]string
	extras    map[string]string
	startedAt time.Time
}

func (m ReportingMeta) clone() ReportingMeta {
	tags := maps.Clone(m.tags)
	if tags == nil {
		tags = map[string]string{}
	}
	extras := maps.Clone(m.extras)
	if extras == nil {
		extras = map[string]string{}
	}
	return ReportingMeta{tags: tags, extras: extras, startedAt: m.startedAt}
}

func MetaFromContext(ctx context.Context) ReportingMeta {
	meta, _ := ctx.Value(metaKey{}).(ReportingMeta)
	return meta.clone()
}

func updateMeta(ctx context.Context, update func(meta *ReportingMeta)) context.Context {
	meta := MetaFromContext(ctx)
	update(&meta)
	return context.WithValue(ctx, metaKey{}, meta)
}

func setStartedAtInContext(ctx context.Context, startedAt time.Time) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		meta.startedAt = startedAt
	})
}

// AddExtrasToContext records request details such as the user email or notification id
func AddExtrasToContext(ctx context.Context, extras map[string]string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		maps.Copy(meta.extras, extras)
	})
}

func AddTagsToContext(ctx context.Context, tags map[string]string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		maps.Copy(meta.tags, tags)
	})
}
