package kernelerr

import "testing"

func TestErrorFormatsMessageTag(t *testing.T) {
	err := NewArgumentCount("Plus", "argx", "Plus called with 0 arguments")
	if got := err.Error(); got != "Plus::argx: Plus called with 0 arguments\n" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestDivisionByZeroIsRecognized(t *testing.T) {
	err := NewDivisionByZero()
	if !Is(err, DivisionByZero) {
		t.Fatalf("expected Is(err, DivisionByZero)")
	}
	if Is(err, NumericException) {
		t.Fatalf("expected DivisionByZero to not match NumericException")
	}
}

func TestInterruptKindsRejectNonInterruptConstruction(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic constructing a non-interrupt Kind via NewInterrupt")
		}
	}()
	NewInterrupt(ArgumentCount)
}

func TestCallStackAccumulates(t *testing.T) {
	err := NewRecursionLimit(256).AddFrame("f", 1).AddFrame("g", 2)
	if len(err.CallStack) != 2 {
		t.Fatalf("expected 2 stack frames, got %d", len(err.CallStack))
	}
	if err.CallStack[1].Head != "g" || err.CallStack[1].Depth != 2 {
		t.Fatalf("unexpected frame: %+v", err.CallStack[1])
	}
}
