package dedup

import (
	"fmt"
	"sync"
	"testing"
)

func TestAcceptFirstTitle(t *testing.T) {
	d := New()
	if !d.Accept("OpenAI launches GPT-5") {
		t.Error("expected first title to be accepted")
	}
	if d.Len() != 1 {
		t.Errorf("expected 1 accepted title, got %d", d.Len())
	}
}

func TestRejectExactKeyCaseInsensitive(t *testing.T) {
	d := New()
	d.Accept("OpenAI launches GPT-5")
	if d.Accept("OPENAI LAUNCHES GPT-5") {
		t.Error("expected case-variant duplicate to be rejected")
	}
	if d.Accept("  OpenAI launches GPT-5  ") {
		t.Error("expected padded duplicate to be rejected")
	}
}

func TestRejectContainment(t *testing.T) {
	d := New()
	d.Accept("OpenAI launches GPT-5")
	if d.Accept("Breaking: OpenAI launches GPT-5 today") {
		t.Error("expected containing title to be rejected")
	}
	if d.Accept("GPT-5") {
		t.Error("expected contained title to be rejected")
	}
}

func TestRejectCharsetOverlap(t *testing.T) {
	d := New()
	d.Accept("abcdefghij")
	// Same character set in a different order: overlap ratio 1.0.
	if d.Accept("jihgfedcba x") {
		t.Error("expected high-overlap title to be rejected")
	}
}

func TestAcceptDistinctTitles(t *testing.T) {
	d := New()
	d.Accept("Mars rover lands")
	if !d.Accept("EU budget off") {
		t.Error("expected unrelated title to be accepted")
	}
}

func TestRejectEmptyTitle(t *testing.T) {
	d := New()
	if d.Accept("") {
		t.Error("expected empty title to be rejected")
	}
	if d.Accept("   ") {
		t.Error("expected whitespace-only title to be rejected")
	}
	if d.Len() != 0 {
		t.Errorf("expected no accepted titles, got %d", d.Len())
	}
}

func TestConcurrentAccept(t *testing.T) {
	d := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.Accept(fmt.Sprintf("title number %d with padding %d", n, n*7))
		}(i)
	}
	wg.Wait()
	if d.Len() == 0 {
		t.Error("expected at least one accepted title")
	}
}

func TestSimilarThresholdBoundary(t *testing.T) {
	// 10-char set vs 10-char set sharing exactly 7 chars: 0.70 is not > 0.70.
	a := "abcdefghij"
	b := "abcdefgxyz"
	if similar(normalize(a), normalize(b)) {
		t.Error("expected overlap of exactly 0.70 to not be a duplicate")
	}
	// Sharing 8 of 10: 0.80 > 0.70.
	c := "abcdefghxy"
	if !similar(normalize(a), normalize(c)) {
		t.Error("expected overlap of 0.80 to be a duplicate")
	}
}
