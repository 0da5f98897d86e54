package outsink

import "testing"

func TestExpandSubstitutesNumberedPlaceholders(t *testing.T) {
	tests := []struct {
		template string
		args     []string
		want     string
	}{
		{"Objects of unequal length in `1` cannot be combined.", []string{"Plus[{1,2},{3}]"},
			"Objects of unequal length in Plus[{1,2},{3}] cannot be combined."},
		{"`1` and `2`", []string{"a", "b"}, "a and b"},
		{"`2` before `1`", []string{"a", "b"}, "b before a"},
		{"no placeholders", nil, "no placeholders"},
		{"missing arg `3` stays", []string{"a"}, "missing arg `3` stays"},
		{"stray ` backtick", nil, "stray ` backtick"},
		{"``", nil, "``"},
	}
	for _, tt := range tests {
		if got := Expand(tt.template, tt.args...); got != tt.want {
			t.Errorf("Expand(%q, %v) = %q, want %q", tt.template, tt.args, got, tt.want)
		}
	}
}

func TestCaptureSinkRecordsInOrder(t *testing.T) {
	var s CaptureSink
	s.Write("Thread", "tdlen", "first")
	s.Write("Power", "infy", "second")
	got := s.Messages()
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Symbol != "Thread" || got[0].Tag != "tdlen" || got[0].Text != "first" {
		t.Errorf("first message wrong: %+v", got[0])
	}
	if got[1].Symbol != "Power" {
		t.Errorf("second message wrong: %+v", got[1])
	}
	s.Reset()
	if len(s.Messages()) != 0 {
		t.Error("Reset did not clear the buffer")
	}
}
