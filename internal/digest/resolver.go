package digest

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownTag reports a tag missing from the execution-tags file.
var ErrUnknownTag = errors.New("unknown execution tag")

// Resolver turns a phase tag into a container digest.
type Resolver interface {
	Resolve(ctx context.Context, phase Phase, tag string) (string, error)
}

// PhaseError identifies which phase failed to resolve.
type PhaseError struct {
	Phase Phase
	Tag   string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("resolve %s tag %q: %v", e.Phase, e.Tag, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// ResolveAll resolves each phase tag exactly once, in pipeline order, and stops
// at the first failure.
func ResolveAll(ctx context.Context, r Resolver, tags PhaseTags) (Set, error) {
	var set Set
	for _, phase := range Phases() {
		if err := ctx.Err(); err != nil {
			return Set{}, &PhaseError{Phase: phase, Tag: tags.Get(phase), Err: err}
		}
		tag := tags.Get(phase)
		value, err := r.Resolve(ctx, phase, tag)
		if err == nil && value == "" {
			err = errors.New("empty digest")
		}
		if err != nil {
			return Set{}, &PhaseError{Phase: phase, Tag: tag, Err: err}
		}
		set.put(phase, Resolved{Tag: tag, Digest: value})
	}
	return set, nil
}

// Static resolves from a fixed table keyed by phase then tag.
type Static map[Phase]map[string]string

// Resolve implements Resolver.
func (s Static) Resolve(_ context.Context, phase Phase, tag string) (string, error) {
	if value, ok := s[phase][tag]; ok {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s/%s", ErrUnknownTag, phase, tag)
}

// StaticFromCatalog builds a Static resolver that answers every catalogued tag
// with its image reference instead of a registry digest.
func StaticFromCatalog(c *TagCatalog) Static {
	out := Static{}
	for _, phase := range Phases() {
		out[phase] = map[string]string{}
		for _, img := range c.Images(phase) {
			out[phase][img.Name] = img.Reference()
		}
	}
	return out
}
