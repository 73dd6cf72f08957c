package jsonwire

import "testing"

func TestParseScalars(t *testing.T) {
	for _, test := range []struct {
		input string
		want  Kind
	}{
		{"null", KindNull},
		{"true", KindBool},
		{"false", KindBool},
		{"0", KindNumber},
		{"-1", KindNumber},
		{"1.5", KindNumber},
		{"1e10", KindNumber},
		{`"hi"`, KindString},
		{"[]", KindArray},
		{"{}", KindObject},
	} {
		t.Run(test.input, func(t *testing.T) {
			v, err := Parse([]byte(test.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Kind() != test.want {
				t.Errorf("kind = %v, want %v", v.Kind(), test.want)
			}
		})
	}
}

func TestParseNumberRejectsInvalid(t *testing.T) {
	for _, input := range []string{
		"-", "00", "1.", "1e", "1e+", ".5", "1..2",
	} {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse([]byte(input)); err == nil {
				t.Errorf("expected parse error for %q", input)
			}
		})
	}
}

func TestParseStringRejectsRawControlBytes(t *testing.T) {
	if _, err := Parse([]byte("\"a\nb\"")); err == nil {
		t.Errorf("expected raw newline in string to fail")
	}
}

func TestParseStringAcceptsEscapedNewline(t *testing.T) {
	v, err := Parse([]byte(`"a\nb"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := v.String()
	if !ok || s != "a\nb" {
		t.Errorf("got %q, %v", s, ok)
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	if _, err := Parse([]byte(`{"a":1} garbage`)); err == nil {
		t.Errorf("expected trailing garbage to fail")
	}
}

func TestParseObjectDuplicateKeysKeepFirst(t *testing.T) {
	v, err := Parse([]byte(`{"a":1,"a":2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := v.Get("a")
	if !ok {
		t.Fatalf("expected key a")
	}
	n, _ := got.Number()
	if n != 1 {
		t.Errorf("got %v, want 1 (first match)", n)
	}
}

func TestParseObjectRejectsLeadingAndTrailingComma(t *testing.T) {
	for _, input := range []string{`{,"a":1}`, `{"a":1,}`, `{"a":1 "b":2}`} {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse([]byte(input)); err == nil {
				t.Errorf("expected error for %q", input)
			}
		})
	}
}

func TestParseArrayRejectsLeadingAndTrailingComma(t *testing.T) {
	for _, input := range []string{`[,1]`, `[1,]`, `[1 2]`} {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse([]byte(input)); err == nil {
				t.Errorf("expected error for %q", input)
			}
		})
	}
}

func TestParseRejectsExcessiveNesting(t *testing.T) {
	input := make([]byte, 0, maxDepth*2+8)
	for i := 0; i < maxDepth+4; i++ {
		input = append(input, '[')
	}
	for i := 0; i < maxDepth+4; i++ {
		input = append(input, ']')
	}
	if _, err := Parse(input); err == nil {
		t.Errorf("expected max-depth error")
	}
}

func TestParseUTF8Passthrough(t *testing.T) {
	// "café" encoded as literal UTF-8 bytes, not an escape.
	input := []byte("\"caf\xc3\xa9\"")
	v, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, _ := v.String()
	if s != "caf\xc3\xa9" {
		t.Errorf("got %q", s)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	for _, input := range []string{
		`null`, `true`, `false`, `0`, `-17`, `3.5`,
		`"hello"`, `[1,2,3]`, `{"i":"q1","c":10}`,
	} {
		t.Run(input, func(t *testing.T) {
			v, err := Parse([]byte(input))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			out := Serialize(v)
			v2, err := Parse(out)
			if err != nil {
				t.Fatalf("re-parse of %q: %v", out, err)
			}
			if Serialize(v2) == nil {
				t.Fatalf("nil re-serialize")
			}
		})
	}
}

func TestSerializeIntegerHasNoDecimalPoint(t *testing.T) {
	got := string(Serialize(Number(42)))
	if got != "42" {
		t.Errorf("got %q, want %q", got, "42")
	}
}

func TestSerializeEscapesControlBytes(t *testing.T) {
	got := string(Serialize(String("a\x01b")))
	want := `"a\u0001b"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
