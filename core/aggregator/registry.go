// ABOUTME: Registry resolving aggregator kinds to their Source implementations
// ABOUTME: Construction wires every built-in kind against the shared fetcher

package aggregator

import (
	"fmt"
	"sort"

	"yana/core/domain"
	coreerrors "yana/core/errors"
	"yana/core/fetch"
	"yana/core/images"
	"yana/core/interfaces"
)

// Registry holds the closed set of aggregator kinds
type Registry struct {
	sources map[domain.Kind]Source
}

// NewRegistry builds the registry with every built-in kind
func NewRegistry(fetcher *fetch.Fetcher, extractor *images.Extractor, logger interfaces.Logger) *Registry {
	r := &Registry{sources: make(map[domain.Kind]Source)}

	r.register(newRSSSource(rssPresets[domain.KindFeedContent], fetcher))
	r.register(newRSSSource(rssPresets[domain.KindFullWebsite], fetcher))
	r.register(newRSSSource(rssPresets[domain.KindPodcast], fetcher))
	r.register(newRSSSource(rssPresets[domain.KindHeise], fetcher))
	r.register(newRSSSource(rssPresets[domain.KindMerkur], fetcher))
	r.register(newRSSSource(rssPresets[domain.KindTagesschau], fetcher))
	r.register(newRSSSource(rssPresets[domain.KindCaschysBlog], fetcher))
	r.register(newRSSSource(rssPresets[domain.KindMacTechNews], fetcher))
	r.register(newYouTubeSource(fetcher, logger))
	r.register(newRedditSource(fetcher, extractor, logger))
	r.register(newMeinMMOSource(fetcher, logger))
	r.register(newComicSource(comicPresets[domain.KindExplosm], fetcher, logger))
	r.register(newComicSource(comicPresets[domain.KindOglaf], fetcher, logger))
	r.register(newComicSource(comicPresets[domain.KindDarkLegacy], fetcher, logger))

	return r
}

func (r *Registry) register(s Source) {
	r.sources[s.Descriptor().Kind] = s
}

// Get resolves a kind; unknown kinds are a fatal misconfiguration
func (r *Registry) Get(kind domain.Kind) (Source, error) {
	s, ok := r.sources[kind]
	if !ok {
		return nil, &coreerrors.FatalError{Message: fmt.Sprintf("unknown aggregator kind %q", kind)}
	}
	return s, nil
}

// Kinds lists every registered kind sorted by name
func (r *Registry) Kinds() []Descriptor {
	out := make([]Descriptor, 0, len(r.sources))
	for _, s := range r.sources {
		out = append(out, s.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
