package agent

import "testing"

func TestParseKey(t *testing.T) {
	tests := []struct {
		key  string
		want Event
	}{
		{"7", Label("7")},
		{"+", Operation(Add)},
		{"-", Operation(Sub)},
		{"x", Operation(Mul)},
		{"÷", Operation(Div)},
		{"btnsum", Event{}},
		{".", Dot()},
		{"±", Sign()},
		{"AC", Clear()},
		{"=", Equals()},
		{"Enter", Equals()},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.key)
		if tt.want == (Event{}) {
			if err == nil {
				t.Errorf("ParseKey(%q) = %+v, want error", tt.key, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKey(%q) error: %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKey(%q) = %+v, want %+v", tt.key, got, tt.want)
		}
	}
}

func TestParseKeys(t *testing.T) {
	got, err := ParseKeys("12 + 3.5 =")
	if err != nil {
		t.Fatal(err)
	}
	want := []Event{Label("1"), Label("2"), Operation(Add), Label("3"), Dot(), Label("5"), Equals()}
	if len(got) != len(want) {
		t.Fatalf("ParseKeys = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseKeysErrors(t *testing.T) {
	for _, line := range []string{"1 + q", `"1 +`, "12a"} {
		if _, err := ParseKeys(line); err == nil {
			t.Errorf("ParseKeys(%q) expected error", line)
		}
	}
}

func TestOperatorText(t *testing.T) {
	for _, op := range []Operator{Add, Sub, Mul, Div} {
		b, err := op.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Operator
		if err := back.UnmarshalText(b); err != nil || back != op {
			t.Errorf("round trip %v -> %q -> %v (%v)", op, b, back, err)
		}
	}
	var op Operator = Add
	if err := op.UnmarshalText(nil); err != nil || op != None {
		t.Errorf("UnmarshalText(empty) = %v, %v", op, err)
	}
}
