package knowledge

import (
	"strings"

	"github.com/attunehealth/attune-backend/internal/normalization"
	"github.com/attunehealth/attune-backend/internal/platform/policy"
	"github.com/attunehealth/attune-backend/internal/types"
)

// ChunkConfig mirrors policy.Chunking; zero values fall back to the shipped
// defaults so call sites without a loaded policy still behave.
type ChunkConfig struct {
	TargetSize       int
	Overlap          int
	LookbackFraction float64
	MaxSectionSize   int
}

func ChunkConfigFromPolicy(p policy.Chunking) ChunkConfig {
	return ChunkConfig{
		TargetSize:       p.TargetSize,
		Overlap:          p.Overlap,
		LookbackFraction: p.LookbackFraction,
		MaxSectionSize:   p.MaxSectionSize,
	}
}

func (c ChunkConfig) withDefaults() ChunkConfig {
	def := policy.Default().Chunking
	if c.TargetSize <= 0 {
		c.TargetSize = def.TargetSize
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.Overlap >= c.TargetSize {
		c.Overlap = def.Overlap
		if c.Overlap >= c.TargetSize {
			c.Overlap = c.TargetSize / 4
		}
	}
	if c.LookbackFraction <= 0 || c.LookbackFraction > 1 {
		c.LookbackFraction = def.LookbackFraction
	}
	if c.MaxSectionSize < c.TargetSize {
		c.MaxSectionSize = c.TargetSize + c.TargetSize/2
	}
	return c
}

// Chunk splits document text into overlapping, boundary-aware segments.
// Offsets are rune offsets into the normalized text. Work happens in runes so
// a window edge never cuts a UTF-8 sequence in half.
func Chunk(text string, cfg ChunkConfig) []types.Chunk {
	cfg = cfg.withDefaults()
	normalized := normalization.NormalizeText(text)
	if strings.TrimSpace(normalized) == "" {
		return []types.Chunk{}
	}
	r := []rune(normalized)
	if len(r) <= cfg.TargetSize {
		return []types.Chunk{{Index: 0, Content: normalized, StartOffset: 0, EndOffset: len(r)}}
	}
	return reindex(windowSpan(r, 0, len(r), cfg))
}

// ChunkSemantic first splits on structural boundaries (blank lines and
// heading-like lines) and accumulates whole sections up to MaxSectionSize.
// Only a single section that alone exceeds the max falls back to windowing.
// Each chunk's offsets slice the normalized text back to its Content exactly,
// but unlike Chunk the chunks are not contiguous: separator runes between two
// emitted chunks belong to neither, so the gaps hold only whitespace.
func ChunkSemantic(text string, cfg ChunkConfig) []types.Chunk {
	cfg = cfg.withDefaults()
	normalized := normalization.NormalizeText(text)
	if strings.TrimSpace(normalized) == "" {
		return []types.Chunk{}
	}
	r := []rune(normalized)
	if len(r) <= cfg.MaxSectionSize {
		return []types.Chunk{{Index: 0, Content: normalized, StartOffset: 0, EndOffset: len(r)}}
	}

	out := make([]types.Chunk, 0, len(r)/cfg.TargetSize+1)
	accStart := -1
	accEnd := 0
	flush := func() {
		if accStart < 0 {
			return
		}
		out = append(out, types.Chunk{
			Content:     string(r[accStart:accEnd]),
			StartOffset: accStart,
			EndOffset:   accEnd,
		})
		accStart = -1
	}

	for _, sec := range splitSections(r) {
		if sec.end-sec.start > cfg.MaxSectionSize {
			flush()
			out = append(out, windowSpan(r, sec.start, sec.end, cfg)...)
			continue
		}
		if accStart < 0 {
			accStart, accEnd = sec.start, sec.end
			continue
		}
		// Accumulated range spans the separators between sections, so the
		// offset invariant holds for the emitted slice.
		if sec.end-accStart > cfg.MaxSectionSize {
			flush()
			accStart, accEnd = sec.start, sec.end
		} else {
			accEnd = sec.end
		}
	}
	flush()
	return reindex(out)
}

// windowSpan runs the overlapping-window algorithm over r[start:end].
// Returned chunks carry absolute offsets and unset indices.
func windowSpan(r []rune, start, end int, cfg ChunkConfig) []types.Chunk {
	lookback := int(float64(cfg.TargetSize) * cfg.LookbackFraction)
	if lookback < 1 {
		lookback = 1
	}

	out := make([]types.Chunk, 0, (end-start)/cfg.TargetSize+1)
	pos := start
	for pos < end {
		cut := pos + cfg.TargetSize
		if cut >= end {
			cut = end
		} else {
			cut = boundaryCut(r, pos, cut, lookback)
		}
		out = append(out, types.Chunk{
			Content:     string(r[pos:cut]),
			StartOffset: pos,
			EndOffset:   cut,
		})
		if cut == end {
			break
		}
		next := cut - cfg.Overlap
		if next <= pos {
			// Overlap would rewind to or before the previous start; advance
			// without overlap for this step rather than loop forever.
			next = cut
		}
		pos = next
	}
	return out
}

// boundaryCut searches backward from the window edge, no further than
// lookback runes, for the best cut position in priority order: paragraph
// break, sentence end, plain space. No boundary found means a hard cut.
func boundaryCut(r []rune, start, edge, lookback int) int {
	limit := edge - lookback
	if limit <= start {
		limit = start + 1
	}

	for p := edge; p >= limit; p-- {
		if p >= start+2 && r[p-1] == '\n' && r[p-2] == '\n' {
			return p
		}
	}
	for p := edge; p >= limit; p-- {
		if isSentenceEnd(r[p-1]) && p < len(r) && isSpace(r[p]) {
			return p
		}
	}
	for p := edge; p >= limit; p-- {
		if isSpace(r[p-1]) {
			return p
		}
	}
	return edge
}

func isSentenceEnd(c rune) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

type section struct {
	start int
	end   int
}

// splitSections yields the non-blank line runs of r, starting a new section
// at every heading-like line. Separator runes between sections stay covered
// by whichever chunk later spans across them.
func splitSections(r []rune) []section {
	var sections []section
	var cur *section

	lineStart := 0
	for lineStart <= len(r) {
		lineEnd := lineStart
		for lineEnd < len(r) && r[lineEnd] != '\n' {
			lineEnd++
		}
		line := strings.TrimSpace(string(r[lineStart:lineEnd]))

		switch {
		case line == "":
			if cur != nil {
				sections = append(sections, *cur)
				cur = nil
			}
		case headingLike(line):
			if cur != nil {
				sections = append(sections, *cur)
			}
			cur = &section{start: lineStart, end: lineEnd}
		default:
			if cur == nil {
				cur = &section{start: lineStart, end: lineEnd}
			} else {
				cur.end = lineEnd
			}
		}

		if lineEnd >= len(r) {
			break
		}
		lineStart = lineEnd + 1
	}
	if cur != nil {
		sections = append(sections, *cur)
	}
	return sections
}

func headingLike(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	if len(line) > 80 {
		return false
	}
	hasLetter := false
	for _, c := range line {
		if c >= 'a' && c <= 'z' {
			return false
		}
		if c >= 'A' && c <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func reindex(chunks []types.Chunk) []types.Chunk {
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}
