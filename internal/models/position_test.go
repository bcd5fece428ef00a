package models

import "testing"

func TestUnrealizedPnLAt(t *testing.T) {
	long := &Position{Side: SideLong, EntryPrice: 100, Quantity: 2}
	if got := long.UnrealizedPnLAt(110); got != 20 {
		t.Fatalf("LONG pnl at 110: got %f, want 20", got)
	}
	if got := long.UnrealizedPnLAt(95); got != -10 {
		t.Fatalf("LONG pnl at 95: got %f, want -10", got)
	}

	short := &Position{Side: SideShort, EntryPrice: 100, Quantity: 2}
	if got := short.UnrealizedPnLAt(90); got != 20 {
		t.Fatalf("SHORT pnl at 90: got %f, want 20", got)
	}
	if got := short.UnrealizedPnLAt(105); got != -10 {
		t.Fatalf("SHORT pnl at 105: got %f, want -10", got)
	}
}

func TestSideValid(t *testing.T) {
	if !SideLong.Valid() || !SideShort.Valid() {
		t.Fatal("LONG and SHORT must be valid")
	}
	if Side("long").Valid() {
		t.Fatal("lowercase side must be invalid")
	}
	if Side("").Valid() {
		t.Fatal("empty side must be invalid")
	}
}
