package style

import (
	"sort"

	"github.com/attunehealth/attune-backend/internal/normalization"
	"github.com/attunehealth/attune-backend/internal/platform/policy"
	"github.com/attunehealth/attune-backend/internal/types"
)

// AggregateConfig mirrors policy.Style; zero values fall back to the shipped
// defaults.
type AggregateConfig struct {
	SecondaryModalityFraction float64
	FrequentItemFraction      float64
	PhraseCap                 int
	ConfidenceSaturation      int
}

func AggregateConfigFromPolicy(p policy.Style) AggregateConfig {
	return AggregateConfig{
		SecondaryModalityFraction: p.SecondaryModalityFraction,
		FrequentItemFraction:      p.FrequentItemFraction,
		PhraseCap:                 p.PhraseCap,
		ConfidenceSaturation:      p.ConfidenceSaturation,
	}
}

func (c AggregateConfig) withDefaults() AggregateConfig {
	def := policy.Default().Style
	if c.SecondaryModalityFraction <= 0 || c.SecondaryModalityFraction > 1 {
		c.SecondaryModalityFraction = def.SecondaryModalityFraction
	}
	if c.FrequentItemFraction <= 0 || c.FrequentItemFraction > 1 {
		c.FrequentItemFraction = def.FrequentItemFraction
	}
	if c.PhraseCap <= 0 {
		c.PhraseCap = def.PhraseCap
	}
	if c.ConfidenceSaturation <= 0 {
		c.ConfidenceSaturation = def.ConfidenceSaturation
	}
	return c
}

// Aggregate folds per-session extractions into one profile. It recomputes
// from scratch on every call and is order-independent except where ties break
// by first occurrence in the input. Empty input yields an empty profile with
// zero confidence.
func Aggregate(extractions []types.StyleExtraction, cfg AggregateConfig) types.StyleProfile {
	cfg = cfg.withDefaults()
	n := len(extractions)
	profile := types.StyleProfile{
		SecondaryModalities: []string{},
		ModalityIndicators:  map[string][]string{},
		CommonInterventions: []string{},
		CommonPhrases:       []string{},
		FocusAreas:          []string{},
		ExtractionCount:     n,
	}
	if n == 0 {
		return profile
	}

	modalities := newCounter()
	tones := newCounter()
	pacings := newCounter()
	homeworkStyles := newCounter()
	interventions := newCounter()
	focusAreas := newCounter()
	phrases := newCounter()
	indicators := map[string]*orderedSet{}
	indicatorOrder := []string{}
	metaphorVotes := 0

	for _, ex := range extractions {
		// Primary modality counts double against the secondaries.
		if ex.PrimaryModality != "" {
			modalities.add(ex.PrimaryModality, 2)
			key := normalization.Fold(ex.PrimaryModality)
			set, ok := indicators[key]
			if !ok {
				set = newOrderedSet()
				indicators[key] = set
				indicatorOrder = append(indicatorOrder, ex.PrimaryModality)
			}
			for _, ind := range ex.Indicators {
				set.add(ind)
			}
		}
		for _, m := range ex.SecondaryModalities {
			modalities.add(m, 1)
		}

		tones.add(ex.Tone, 1)
		pacings.add(ex.Pacing, 1)
		homeworkStyles.add(ex.HomeworkStyle, 1)
		if ex.UsesMetaphors {
			metaphorVotes++
		}

		// Presence-based counting so one extraction repeating an item does
		// not inflate its frequency.
		for _, iv := range dedupe(ex.Interventions) {
			interventions.add(iv, 1)
		}
		for _, fa := range dedupe(ex.FocusAreas) {
			focusAreas.add(fa, 1)
		}
		for _, p := range ex.Phrases {
			phrases.add(normalization.Fold(p), 1)
		}
	}

	profile.PrimaryModality = modalities.top()
	primaryKey := normalization.Fold(profile.PrimaryModality)
	secondaryFloor := cfg.SecondaryModalityFraction * float64(n)
	for _, e := range modalities.entries() {
		if e.key == primaryKey || e.key == "" {
			continue
		}
		if float64(e.count) >= secondaryFloor {
			profile.SecondaryModalities = append(profile.SecondaryModalities, e.display)
		}
	}

	for _, display := range indicatorOrder {
		key := normalization.Fold(display)
		if vals := indicators[key].values(); len(vals) > 0 {
			profile.ModalityIndicators[display] = vals
		}
	}

	frequentFloor := int(cfg.FrequentItemFraction * float64(n))
	if frequentFloor < 1 {
		frequentFloor = 1
	}
	for _, e := range interventions.entries() {
		if e.count >= frequentFloor {
			profile.CommonInterventions = append(profile.CommonInterventions, e.display)
		}
	}
	for _, e := range focusAreas.entries() {
		if e.count >= frequentFloor {
			profile.FocusAreas = append(profile.FocusAreas, e.display)
		}
	}

	profile.Tone = tones.top()
	profile.Pacing = pacings.top()
	profile.HomeworkStyle = homeworkStyles.top()
	profile.UsesMetaphors = metaphorVotes*2 > n
	profile.CommonPhrases = recurringPhrases(phrases, cfg.PhraseCap)

	confidence := float64(n) / float64(cfg.ConfidenceSaturation)
	if confidence > 1 {
		confidence = 1
	}
	profile.ConfidenceScore = confidence
	return profile
}

func recurringPhrases(phrases *counter, limit int) []string {
	kept := make([]entry, 0)
	for _, e := range phrases.entries() {
		if e.count > 1 {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].count != kept[j].count {
			return kept[i].count > kept[j].count
		}
		return kept[i].order < kept[j].order
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]string, 0, len(kept))
	for _, e := range kept {
		out = append(out, e.display)
	}
	return out
}

func dedupe(items []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(items))
	for _, it := range items {
		key := normalization.Fold(it)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// counter tallies case-folded keys while remembering first-seen display form
// and insertion order so ties resolve deterministically by input order.
type counter struct {
	counts map[string]*entry
	order  []string
}

type entry struct {
	key     string
	display string
	count   int
	order   int
}

func newCounter() *counter {
	return &counter{counts: map[string]*entry{}}
}

func (c *counter) add(display string, weight int) {
	key := normalization.Fold(display)
	if key == "" {
		return
	}
	e, ok := c.counts[key]
	if !ok {
		e = &entry{key: key, display: display, order: len(c.order)}
		c.counts[key] = e
		c.order = append(c.order, key)
	}
	e.count += weight
}

func (c *counter) entries() []entry {
	out := make([]entry, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.counts[key])
	}
	return out
}

func (c *counter) top() string {
	best := ""
	bestCount := 0
	for _, key := range c.order {
		e := c.counts[key]
		if e.count > bestCount {
			best = e.display
			bestCount = e.count
		}
	}
	return best
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]bool{}}
}

func (s *orderedSet) add(item string) {
	key := normalization.Fold(item)
	if key == "" || s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, item)
}

func (s *orderedSet) values() []string {
	return s.items
}
