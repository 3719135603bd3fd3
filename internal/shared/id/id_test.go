package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
	if id2.Compare(id1) <= 0 {
		t.Error("Monotonic IDs should sort in generation order")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{TabPrefix, PanePrefix, BranchPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}

		parts := strings.Split(id, "_")
		if len(parts) != 2 {
			t.Fatalf("Prefixed ID should have format 'prefix_ulid', got: %s", id)
		}
		if !IsValid(parts[1]) {
			t.Errorf("ULID part should be valid: %s", parts[1])
		}
	}
}

func TestTypedIDGeneration(t *testing.T) {
	ids := map[string]string{
		TabPrefix:     NewTabID().String(),
		PanePrefix:    NewPaneID().String(),
		BranchPrefix:  NewBranchID().String(),
		RequestPrefix: NewRequestID().String(),
	}

	for prefix, id := range ids {
		if !HasPrefix(id, prefix) {
			t.Errorf("Expected prefix '%s' in ID: %s", prefix, id)
		}
		if len(strings.TrimPrefix(id, prefix+"_")) != 26 {
			t.Errorf("ULID should be 26 characters in ID: %s", id)
		}
	}
}

func TestIsValid(t *testing.T) {
	gen := NewGenerator()

	if !IsValid(gen.GenerateString()) {
		t.Error("Generated ULID should be valid")
	}

	for _, id := range []string{"", "invalid", "1234567890", "zzzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		if IsValid(id) {
			t.Errorf("ID should be invalid: %s", id)
		}
	}
}

func TestParsePrefixed(t *testing.T) {
	pane := NewPaneID()

	parsed, err := Parse(pane.String())
	if err != nil {
		t.Fatalf("Failed to parse prefixed ID: %v", err)
	}
	if PanePrefix+"_"+parsed.String() != pane.String() {
		t.Errorf("Parsed ULID doesn't match original: %s", pane)
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now()
	id := NewTabID()
	after := time.Now()

	ts, err := Timestamp(id.String())
	if err != nil {
		t.Fatalf("Failed to extract timestamp: %v", err)
	}

	// ULID timestamps have millisecond precision
	if ts.UnixMilli() < before.UnixMilli() || ts.UnixMilli() > after.UnixMilli() {
		t.Errorf("Timestamp %d outside [%d, %d]", ts.UnixMilli(), before.UnixMilli(), after.UnixMilli())
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const goroutines = 50
	const idsPerGoroutine = 100

	var wg sync.WaitGroup
	idChan := make(chan PaneID, goroutines*idsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				idChan <- NewPaneID()
			}
		}()
	}

	wg.Wait()
	close(idChan)

	seen := make(map[PaneID]bool)
	for id := range idChan {
		if seen[id] {
			t.Fatalf("Duplicate ID found: %s", id)
		}
		seen[id] = true
	}
}
