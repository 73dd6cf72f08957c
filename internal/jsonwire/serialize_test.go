package jsonwire

import "testing"

func TestSerializeScalars(t *testing.T) {
	for _, test := range []struct {
		v    *Value
		want string
	}{
		{Null(), "null"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Number(100), "100"},
		{Number(-1), "-1"},
		{Number(1.5), "1.5"},
		{String("hi"), `"hi"`},
	} {
		t.Run(test.want, func(t *testing.T) {
			got := string(Serialize(test.v))
			if got != test.want {
				t.Errorf("Serialize() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestSerializeArrayAndObjectPreserveOrder(t *testing.T) {
	arr := Array(Number(1), Number(2), Number(3))
	if got := string(Serialize(arr)); got != "[1,2,3]" {
		t.Errorf("Serialize(array) = %q", got)
	}

	obj := Object()
	obj.Set("i", String("1"))
	obj.Set("c", Number(10))
	if got := string(Serialize(obj)); got != `{"i":"1","c":10}` {
		t.Errorf("Serialize(object) = %q", got)
	}
}

func TestSerializeObjectPreservesDuplicateKeys(t *testing.T) {
	obj := Object()
	obj.Set("a", Number(1))
	obj.Set("a", Number(2))
	if got := string(Serialize(obj)); got != `{"a":1,"a":2}` {
		t.Errorf("Serialize(duplicate keys) = %q", got)
	}
}

func TestSerializeNilValueIsNull(t *testing.T) {
	if got := string(Serialize(nil)); got != "null" {
		t.Errorf("Serialize(nil) = %q, want null", got)
	}
}
