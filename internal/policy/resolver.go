package policy

import "context"

// Resolver looks up a named reference (practice, trigger, exception,
// custom-response, source-identifier, trusted-sources) on demand, per
// spec.md §4.2 step 2: "first in an already-compiled in-memory map ...
// otherwise fetch via the external collaborator (Kubernetes API client or
// local in-memory policy object)". Compiler wraps whatever Resolver it is
// given with a deduplicating cache (see dedup.go) so repeated references
// across rules never re-fetch or re-emit.
type Resolver interface {
	ResolvePractice(ctx context.Context, name string) (Practice, bool, error)
	ResolveTrigger(ctx context.Context, name string) (Trigger, bool, error)
	ResolveException(ctx context.Context, name string) (Exception, bool, error)
	ResolveCustomResponse(ctx context.Context, name string) (CustomResponse, bool, error)
	ResolveSourceIdentifier(ctx context.Context, name string) (SourceIdentifier, bool, error)
	ResolveTrustedSources(ctx context.Context, name string) (TrustedSources, bool, error)
}

// MapResolver is an in-memory Resolver backed by plain maps, the
// "local in-memory policy object" collaborator the Linux ingestion path
// uses once it has decoded a policy file tree (see linux.go). Kubernetes
// mode builds one too (BuildV1beta1Resolver/BuildV1beta2Resolver), from the
// cluster objects internal/policy/k8s fetches up front through the
// messaging client.
type MapResolver struct {
	Practices       map[string]Practice
	Triggers        map[string]Trigger
	Exceptions      map[string]Exception
	CustomResponses map[string]CustomResponse
	SourceIdents    map[string]SourceIdentifier
	TrustedSources  map[string]TrustedSources
}

var _ Resolver = (*MapResolver)(nil)

func (r *MapResolver) ResolvePractice(_ context.Context, name string) (Practice, bool, error) {
	p, ok := r.Practices[name]
	return p, ok, nil
}

func (r *MapResolver) ResolveTrigger(_ context.Context, name string) (Trigger, bool, error) {
	t, ok := r.Triggers[name]
	return t, ok, nil
}

func (r *MapResolver) ResolveException(_ context.Context, name string) (Exception, bool, error) {
	e, ok := r.Exceptions[name]
	return e, ok, nil
}

func (r *MapResolver) ResolveCustomResponse(_ context.Context, name string) (CustomResponse, bool, error) {
	c, ok := r.CustomResponses[name]
	return c, ok, nil
}

func (r *MapResolver) ResolveSourceIdentifier(_ context.Context, name string) (SourceIdentifier, bool, error) {
	s, ok := r.SourceIdents[name]
	return s, ok, nil
}

func (r *MapResolver) ResolveTrustedSources(_ context.Context, name string) (TrustedSources, bool, error) {
	t, ok := r.TrustedSources[name]
	return t, ok, nil
}

// cachingResolver wraps a Resolver with the deduplicating in-memory maps
// spec §4.2 step 2/7 requires: "later references to the same name reuse the
// existing map entry without re-emission". Keyed with xxhash (see dedup.go)
// to avoid string-map overhead on the hot compilation path, per the
// xxhash DOMAIN STACK wiring.
type cachingResolver struct {
	inner Resolver
	cache dedupCache
}

func newCachingResolver(inner Resolver) *cachingResolver {
	return &cachingResolver{inner: inner, cache: newDedupCache()}
}

func (c *cachingResolver) ResolvePractice(ctx context.Context, name string) (Practice, bool, error) {
	if v, ok := c.cache.practices[dedupKey("practice", name)]; ok {
		return v, true, nil
	}
	v, ok, err := c.inner.ResolvePractice(ctx, name)
	if ok {
		c.cache.practices[dedupKey("practice", name)] = v
	}
	return v, ok, err
}

func (c *cachingResolver) ResolveTrigger(ctx context.Context, name string) (Trigger, bool, error) {
	if v, ok := c.cache.triggers[dedupKey("trigger", name)]; ok {
		return v, true, nil
	}
	v, ok, err := c.inner.ResolveTrigger(ctx, name)
	if ok {
		c.cache.triggers[dedupKey("trigger", name)] = v
	}
	return v, ok, err
}

func (c *cachingResolver) ResolveException(ctx context.Context, name string) (Exception, bool, error) {
	if v, ok := c.cache.exceptions[dedupKey("exception", name)]; ok {
		return v, true, nil
	}
	v, ok, err := c.inner.ResolveException(ctx, name)
	if ok {
		c.cache.exceptions[dedupKey("exception", name)] = v
	}
	return v, ok, err
}

func (c *cachingResolver) ResolveCustomResponse(ctx context.Context, name string) (CustomResponse, bool, error) {
	if v, ok := c.cache.customResponses[dedupKey("customresponse", name)]; ok {
		return v, true, nil
	}
	v, ok, err := c.inner.ResolveCustomResponse(ctx, name)
	if ok {
		c.cache.customResponses[dedupKey("customresponse", name)] = v
	}
	return v, ok, err
}

func (c *cachingResolver) ResolveSourceIdentifier(ctx context.Context, name string) (SourceIdentifier, bool, error) {
	if v, ok := c.cache.sourceIdents[dedupKey("sourceident", name)]; ok {
		return v, true, nil
	}
	v, ok, err := c.inner.ResolveSourceIdentifier(ctx, name)
	if ok {
		c.cache.sourceIdents[dedupKey("sourceident", name)] = v
	}
	return v, ok, err
}

func (c *cachingResolver) ResolveTrustedSources(ctx context.Context, name string) (TrustedSources, bool, error) {
	if v, ok := c.cache.trustedSources[dedupKey("trustedsources", name)]; ok {
		return v, true, nil
	}
	v, ok, err := c.inner.ResolveTrustedSources(ctx, name)
	if ok {
		c.cache.trustedSources[dedupKey("trustedsources", name)] = v
	}
	return v, ok, err
}
