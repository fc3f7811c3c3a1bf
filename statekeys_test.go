package forge

import (
	"context"
	"testing"
)

func TestCommitActionResponseOrdersARBeforeLTA(t *testing.T) {
	st := newMemState()
	ctx := context.Background()

	resp := ActionResponse{Status: "OK", Data: StringValue("hello")}
	if err := commitActionResponse(ctx, st, "a1", resp); err != nil {
		t.Fatalf("commitActionResponse: %v", err)
	}

	loaded, ok := loadActionResponse(ctx, st, "a1")
	if !ok {
		t.Fatal("loadActionResponse: not found")
	}
	if loaded.Status != "OK" || loaded.Data.Str != "hello" {
		t.Errorf("loaded = %+v, want Status=OK Data.Str=hello", loaded)
	}

	lta, ok := getState(ctx, st, keyLTA)
	if !ok || lta.Str != "a1" {
		t.Errorf("LTA = %v, %v, want a1, true", lta, ok)
	}
}

func TestRepairLastTreeActionIfAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("repairs when LTA absent", func(t *testing.T) {
		st := newMemState()
		if err := repairLastTreeActionIfAbsent(ctx, st, "a1"); err != nil {
			t.Fatalf("repair: %v", err)
		}
		lta, ok := getState(ctx, st, keyLTA)
		if !ok || lta.Str != "a1" {
			t.Errorf("LTA = %v, %v, want a1, true", lta, ok)
		}
	})

	t.Run("does not overwrite existing LTA", func(t *testing.T) {
		st := newMemState()
		if err := commitLastTreeAction(ctx, st, "earlier"); err != nil {
			t.Fatalf("commit: %v", err)
		}
		if err := repairLastTreeActionIfAbsent(ctx, st, "a1"); err != nil {
			t.Fatalf("repair: %v", err)
		}
		lta, _ := getState(ctx, st, keyLTA)
		if lta.Str != "earlier" {
			t.Errorf("LTA = %v, want earlier (unchanged)", lta.Str)
		}
	})
}

func TestGetStateSwallowsErrorsWriteStatePropagates(t *testing.T) {
	ctx := context.Background()
	st := newMemState()
	st.failGet = true

	if _, ok := getState(ctx, st, "anything"); ok {
		t.Error("getState with failing backend returned ok=true, want false (errors swallowed on read)")
	}

	st.failGet = false
	st.failSet = true
	if err := setState(ctx, st, "k", StringValue("v")); err == nil {
		t.Error("setState with failing backend returned nil, want propagated error")
	}
}
