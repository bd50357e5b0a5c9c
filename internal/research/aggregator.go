package research

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// gate decides whether a source is eligible for a given intent. Need flags
// alone are not enough for the keyword-driven sources: an adapter with
// nothing to query would only burn an upstream call on noise.
type gate func(intent QueryIntent, rawQuery string, triggers []string) bool

// dispatchGates is the routing policy, one predicate per source. The
// expression-study gates also pass when the raw query mentions a configured
// trigger word.
var dispatchGates = map[SourceID]gate{
	SourceLiterature: func(QueryIntent, string, []string) bool { return true },
	SourceTrials:     func(QueryIntent, string, []string) bool { return true },
	SourceGenomics: func(i QueryIntent, _ string, _ []string) bool {
		return len(i.GeneSymbols)+len(i.VariantIDs)+len(i.PhenotypeTerms) > 0
	},
	SourceProteins: func(i QueryIntent, _ string, _ []string) bool {
		return len(i.ProteinKeywords) > 0
	},
	SourceProteinAtlas: func(i QueryIntent, _ string, _ []string) bool {
		return len(i.GeneSymbols)+len(i.ProteinKeywords) > 0
	},
	SourceGEO:          expressionGate,
	SourceArrayExpress: expressionGate,
	SourceSequences: func(i QueryIntent, _ string, _ []string) bool {
		return len(i.SequenceKeywords) > 0
	},
}

func expressionGate(i QueryIntent, rawQuery string, triggers []string) bool {
	if len(i.ProteinKeywords)+len(i.GeneSymbols) > 0 {
		return true
	}
	return containsTrigger(rawQuery, triggers)
}

// Aggregator fans a classified query out to every eligible source adapter
// and merges the results into an ordered Bundle. Failures are isolated per
// source: one adapter going dark never empties another's section.
type Aggregator struct {
	adapters     map[SourceID]Adapter
	triggerWords []string
	callTimeout  time.Duration
	logger       *log.Logger
	observe      func(source SourceID, elapsed time.Duration, failed bool)
}

// NewAggregator indexes adapters by source id. triggerWords widen the
// expression-study gates: a raw query mentioning one of them qualifies even
// when no gene or protein keyword was extracted. callTimeout bounds each
// adapter invocation.
func NewAggregator(adapters []Adapter, triggerWords []string, callTimeout time.Duration, logger *log.Logger) *Aggregator {
	byID := make(map[SourceID]Adapter, len(adapters))
	for _, a := range adapters {
		byID[a.ID()] = a
	}
	if callTimeout <= 0 {
		callTimeout = 9 * time.Second
	}
	return &Aggregator{
		adapters:     byID,
		triggerWords: triggerWords,
		callTimeout:  callTimeout,
		logger:       logger,
		observe:      func(SourceID, time.Duration, bool) {},
	}
}

// OnCall registers an observer invoked after every adapter call. Used by the
// server wiring to record telemetry without this package importing it.
func (ag *Aggregator) OnCall(fn func(source SourceID, elapsed time.Duration, failed bool)) {
	if fn != nil {
		ag.observe = fn
	}
}

// Aggregate runs every eligible adapter concurrently and returns the merged
// bundle. Sections always appear in SectionOrder regardless of completion
// order; sources that were not eligible contribute no section at all. An
// empty intent dispatches nothing.
func (ag *Aggregator) Aggregate(ctx context.Context, intent QueryIntent, rawQuery string) Bundle {
	slots := make([]*Section, len(SectionOrder))
	var wg sync.WaitGroup
	for i, id := range SectionOrder {
		adapter, ok := ag.adapters[id]
		if !ok || !ag.eligible(id, intent, rawQuery) {
			continue
		}
		wg.Add(1)
		go func(i int, adapter Adapter) {
			defer wg.Done()
			slots[i] = ag.call(ctx, adapter, intent, rawQuery)
		}(i, adapter)
	}
	wg.Wait()

	var bundle Bundle
	for _, s := range slots {
		if s == nil {
			continue
		}
		bundle.Sections = append(bundle.Sections, *s)
		for _, r := range s.Records {
			if r.Ref.URL != "" {
				bundle.References = append(bundle.References, r.Ref)
			}
		}
	}
	// Fallback refs go after every record ref so the footer leads with
	// resolved evidence.
	for _, s := range bundle.Sections {
		if s.Failed && s.Fallback.URL != "" {
			bundle.References = append(bundle.References, s.Fallback)
		}
	}
	return bundle
}

// call runs one adapter under its own deadline and wraps the outcome in a
// Section. A panic inside an adapter is contained here: the section fails,
// the request survives.
func (ag *Aggregator) call(ctx context.Context, adapter Adapter, intent QueryIntent, rawQuery string) *Section {
	cctx, cancel := context.WithTimeout(ctx, ag.callTimeout)
	defer cancel()

	section := &Section{Source: adapter.ID(), Heading: adapter.Heading()}
	start := time.Now()
	func() {
		defer func() {
			if r := recover(); r != nil {
				ag.logger.Printf("[AGGREGATOR] adapter %s panicked: %v", adapter.ID(), r)
				section.Records = nil
			}
		}()
		section.Records = adapter.Search(cctx, intent, rawQuery)
	}()
	elapsed := time.Since(start)

	if len(section.Records) == 0 {
		section.Failed = true
		section.Note = "No results could be retrieved from this source."
		section.Fallback = adapter.FallbackRef(intent, rawQuery)
		ag.logger.Printf("[AGGREGATOR] %s returned nothing (%s)", adapter.ID(), elapsed.Round(time.Millisecond))
	}
	ag.observe(adapter.ID(), elapsed, section.Failed)
	return section
}

// eligible applies the dispatch policy for one source: the classifier's
// need flag AND the source's gate predicate.
func (ag *Aggregator) eligible(id SourceID, intent QueryIntent, rawQuery string) bool {
	if !intent.Needs(id) {
		return false
	}
	g, ok := dispatchGates[id]
	if !ok {
		return false
	}
	return g(intent, rawQuery, ag.triggerWords)
}

func containsTrigger(rawQuery string, triggers []string) bool {
	q := strings.ToLower(rawQuery)
	for _, t := range triggers {
		if t != "" && strings.Contains(q, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
