package orchestration

import (
	"strings"
	"unicode"
)

const defaultMaxUnitLen = 240

// sentenceSegmenter folds streamed response fragments into sentence-sized
// units so synthesis can start before generation finishes. A unit ends at
// sentence-terminal punctuation followed by whitespace, or at the first word
// boundary past the size cap, whichever comes first.
type sentenceSegmenter struct {
	pending      strings.Builder
	terminalSeen bool
	maxUnitLen   int
}

func newSentenceSegmenter() *sentenceSegmenter {
	return &sentenceSegmenter{maxUnitLen: defaultMaxUnitLen}
}

// Write folds the next fragment in and returns the units it completed, in
// order. Fragments can split words and sentences arbitrarily.
func (s *sentenceSegmenter) Write(fragment string) []string {
	var units []string
	for _, r := range fragment {
		if unicode.IsSpace(r) {
			if s.terminalSeen || s.pending.Len() >= s.maxUnitLen {
				if unit := s.flush(); unit != "" {
					units = append(units, unit)
				}
				continue
			}
			if s.pending.Len() == 0 {
				continue
			}
			s.pending.WriteRune(r)
			continue
		}

		s.pending.WriteRune(r)
		s.terminalSeen = strings.ContainsRune(".?!", r)
	}
	return units
}

// Flush returns whatever text is still pending, for the end of the stream.
func (s *sentenceSegmenter) Flush() string {
	return s.flush()
}

func (s *sentenceSegmenter) flush() string {
	unit := strings.TrimSpace(s.pending.String())
	s.pending.Reset()
	s.terminalSeen = false
	return unit
}
