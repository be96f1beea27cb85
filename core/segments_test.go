package orchestration

import (
	"strings"
	"testing"
)

func TestSegmenterSplitsOnTerminalPunctuation(t *testing.T) {
	s := newSentenceSegmenter()

	var units []string
	for _, fragment := range []string{"Hello ", "there. ", "How are ", "you? ", "Fine"} {
		units = append(units, s.Write(fragment)...)
	}
	units = append(units, s.Flush())

	want := []string{"Hello there.", "How are you?", "Fine"}
	if len(units) != len(want) {
		t.Fatalf("expected units %v, got %v", want, units)
	}
	for i := range want {
		if units[i] != want[i] {
			t.Fatalf("expected unit %d to be %q, got %q", i, want[i], units[i])
		}
	}
}

func TestSegmenterKeepsPunctuationInsideWords(t *testing.T) {
	s := newSentenceSegmenter()

	units := s.Write("pi is 3.14159 which")
	if len(units) != 0 {
		t.Fatalf("expected no units for mid-number punctuation, got %v", units)
	}

	units = s.Write(" is neat. Right")
	if len(units) != 1 || units[0] != "pi is 3.14159 which is neat." {
		t.Fatalf("expected the sentence to stay whole, got %v", units)
	}

	if got := s.Flush(); got != "Right" {
		t.Fatalf("expected remainder %q, got %q", "Right", got)
	}
}

func TestSegmenterCapsUnboundedSentences(t *testing.T) {
	s := newSentenceSegmenter()

	word := strings.Repeat("a", 39) + " "
	var units []string
	for range 10 {
		units = append(units, s.Write(word)...)
	}

	if len(units) == 0 {
		t.Fatalf("expected the cap to force a unit before any terminal punctuation")
	}
	for _, unit := range units {
		if len(unit) > defaultMaxUnitLen+40 {
			t.Fatalf("expected units to break near the cap, got %d bytes", len(unit))
		}
		if strings.HasSuffix(unit, " ") || strings.HasPrefix(unit, " ") {
			t.Fatalf("expected trimmed units, got %q", unit)
		}
	}
}

func TestSegmenterFlushEmptyPending(t *testing.T) {
	s := newSentenceSegmenter()

	s.Write("Done. ")
	if got := s.Flush(); got != "" {
		t.Fatalf("expected empty flush after a completed sentence, got %q", got)
	}
}

func TestSegmenterHandlesFragmentSplitMidWord(t *testing.T) {
	s := newSentenceSegmenter()

	var units []string
	for _, fragment := range []string{"Wond", "erful wea", "ther today", ". Go out."} {
		units = append(units, s.Write(fragment)...)
	}
	units = append(units, s.Flush())

	want := []string{"Wonderful weather today.", "Go out."}
	if len(units) != len(want) || units[0] != want[0] || units[1] != want[1] {
		t.Fatalf("expected units %v, got %v", want, units)
	}
}
