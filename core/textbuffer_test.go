package orchestration

import (
	"testing"
	"time"
)

func TestTextBufferYieldsUnitsInOrder(t *testing.T) {
	b := newTextBuffer()
	b.AddUnit("one")
	b.AddUnit("two")
	b.Complete()

	var units []string
	for unit := range b.Units {
		units = append(units, unit)
	}

	if len(units) != 2 || units[0] != "one" || units[1] != "two" {
		t.Fatalf("expected units in order, got %v", units)
	}
}

func TestTextBufferSkipsEmptyUnits(t *testing.T) {
	b := newTextBuffer()
	b.AddUnit("")
	b.AddUnit("kept")
	b.Complete()

	var units []string
	for unit := range b.Units {
		units = append(units, unit)
	}

	if len(units) != 1 || units[0] != "kept" {
		t.Fatalf("expected empty units to be dropped, got %v", units)
	}
}

func TestTextBufferBlocksUntilMoreUnits(t *testing.T) {
	b := newTextBuffer()

	received := make(chan string, 2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for unit := range b.Units {
			received <- unit
		}
	}()

	b.AddUnit("first")
	select {
	case got := <-received:
		if got != "first" {
			t.Fatalf("expected %q, got %q", "first", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the first unit")
	}

	select {
	case <-done:
		t.Fatalf("expected the iterator to keep waiting before Complete")
	case <-time.After(50 * time.Millisecond):
	}

	b.AddUnit("second")
	b.Complete()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the iterator to finish")
	}

	if got := <-received; got != "second" {
		t.Fatalf("expected %q, got %q", "second", got)
	}
}

func TestTextBufferClearUnblocksIterator(t *testing.T) {
	b := newTextBuffer()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range b.Units {
		}
	}()

	time.Sleep(20 * time.Millisecond)
	b.Clear()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Clear to unblock the iterator")
	}
}
