// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"slices"
	"testing"
	"time"

	"github.com/gazelab/pursuit/lib/testutil"
)

func TestLineBufferEverySplit(t *testing.T) {
	t.Parallel()
	stream := []byte("a\nb\nc")

	// Every way of cutting the stream into three reads.
	for first := 0; first <= len(stream); first++ {
		for second := first; second <= len(stream); second++ {
			var buffer LineBuffer
			var lines []string
			lines = append(lines, buffer.Feed(stream[:first])...)
			lines = append(lines, buffer.Feed(stream[first:second])...)
			lines = append(lines, buffer.Feed(stream[second:])...)

			if !slices.Equal(lines, []string{"a", "b"}) {
				t.Fatalf("split %d/%d: lines = %q, want [a b]", first, second, lines)
			}
			if buffer.Pending() != "c" {
				t.Fatalf("split %d/%d: pending = %q, want c", first, second, buffer.Pending())
			}
			if got := buffer.Feed([]byte("\n")); !slices.Equal(got, []string{"c"}) {
				t.Fatalf("split %d/%d: final lines = %q, want [c]", first, second, got)
			}
			if buffer.Pending() != "" {
				t.Fatalf("split %d/%d: pending after flush = %q", first, second, buffer.Pending())
			}
		}
	}
}

func TestLineBufferEmptyAndMultibyte(t *testing.T) {
	t.Parallel()
	var buffer LineBuffer

	if got := buffer.Feed([]byte("\n\n")); !slices.Equal(got, []string{"", ""}) {
		t.Errorf("empty lines = %q", got)
	}

	// A multi-byte rune split across reads is reassembled intact.
	encoded := []byte("error:größe\n")
	if got := buffer.Feed(encoded[:9]); len(got) != 0 {
		t.Errorf("partial read produced %q", got)
	}
	if got := buffer.Feed(encoded[9:]); !slices.Equal(got, []string{"error:größe"}) {
		t.Errorf("lines = %q", got)
	}
}

func TestQueueKeepsOrderAndDrainsOnClose(t *testing.T) {
	t.Parallel()
	queue := NewQueue[int]()

	for i := range 1000 {
		if !queue.Push(i) {
			t.Fatalf("Push(%d) refused", i)
		}
	}
	queue.Close()
	if queue.Push(1000) {
		t.Error("Push accepted after Close")
	}

	for want := range 1000 {
		got := testutil.RequireReceive(t, queue.Out(), 5*time.Second, "item %d", want)
		if got != want {
			t.Fatalf("item = %d, want %d", got, want)
		}
	}
	testutil.RequireClosed(t, queue.Out(), 5*time.Second, "queue output")
}

func TestQueueConcurrentProducer(t *testing.T) {
	t.Parallel()
	queue := NewQueue[int]()
	go func() {
		for i := range 500 {
			queue.Push(i)
		}
		queue.Close()
	}()

	next := 0
	for got := range queue.Out() {
		if got != next {
			t.Fatalf("item = %d, want %d", got, next)
		}
		next++
	}
	if next != 500 {
		t.Errorf("received %d items, want 500", next)
	}
}
