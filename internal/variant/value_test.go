package variant_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"fetchd/internal/variant"
)

func TestAccessorsRejectWrongKind(t *testing.T) {
	cases := []struct {
		name string
		call func() error
		want variant.Kind
		got  variant.Kind
	}{
		{"int from text", func() error { _, err := variant.Text("1").AsInt(); return err }, variant.KindInt, variant.KindText},
		{"text from int", func() error { _, err := variant.Int(1).AsText(); return err }, variant.KindText, variant.KindInt},
		{"list from map", func() error { _, err := variant.Map().AsList(); return err }, variant.KindList, variant.KindMap},
		{"map from null", func() error { _, err := variant.Null().AsMap(); return err }, variant.KindMap, variant.KindNull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if !errors.Is(err, variant.ErrTypeMismatch) {
				t.Fatalf("expected type mismatch, got %v", err)
			}
			var typeErr *variant.TypeError
			if !errors.As(err, &typeErr) {
				t.Fatalf("expected *TypeError, got %T", err)
			}
			if typeErr.Want != tc.want || typeErr.Got != tc.got {
				t.Fatalf("unexpected kinds: want=%s got=%s", typeErr.Want, typeErr.Got)
			}
		})
	}
}

func TestListAppendAndInsert(t *testing.T) {
	list := variant.List(variant.Text("b"))
	if err := list.Append(variant.Text("d")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := list.Insert(0, variant.Text("a")); err != nil {
		t.Fatalf("Insert head: %v", err)
	}
	if err := list.Insert(2, variant.Text("c")); err != nil {
		t.Fatalf("Insert middle: %v", err)
	}
	if err := list.Insert(99, variant.Text("e")); err != nil {
		t.Fatalf("Insert clamped: %v", err)
	}
	want := []string{"a", "b", "c", "d", "e"}
	if list.Len() != len(want) {
		t.Fatalf("unexpected length %d", list.Len())
	}
	for i, w := range want {
		got, err := list.Index(i).AsText()
		if err != nil || got != w {
			t.Fatalf("index %d: got %q (%v), want %q", i, got, err, w)
		}
	}
	text := variant.Text("x")
	if err := text.Append(variant.Int(1)); !errors.Is(err, variant.ErrTypeMismatch) {
		t.Fatalf("expected append on text to fail, got %v", err)
	}
}

func TestMapSetGetAndKeys(t *testing.T) {
	m := variant.Map()
	m.MustSet("faultString", variant.Text("boom")).MustSet("faultCode", variant.Int(1))
	if got := m.Keys(); len(got) != 2 || got[0] != "faultCode" || got[1] != "faultString" {
		t.Fatalf("unexpected keys %v", got)
	}
	code, ok := m.Get("faultCode")
	if !ok {
		t.Fatal("expected faultCode")
	}
	if n, err := code.AsInt(); err != nil || n != 1 {
		t.Fatalf("unexpected faultCode %v (%v)", n, err)
	}
	if _, ok := m.Get("missing"); ok {
		t.Fatal("expected missing key to be absent")
	}
	if m.String() != `{faultCode: 1, faultString: "boom"}` {
		t.Fatalf("unexpected String(): %s", m.String())
	}
}

func TestParseJSONKeepsIntegers(t *testing.T) {
	v, err := variant.ParseJSON([]byte(`[["http://localhost/"], {"split": "4"}, 9007199254740993]`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if v.Len() != 3 {
		t.Fatalf("expected 3 params, got %d", v.Len())
	}
	n, err := v.Index(2).AsInt()
	if err != nil || n != 9007199254740993 {
		t.Fatalf("expected exact integer, got %d (%v)", n, err)
	}
	opts, err := v.Index(1).AsMap()
	if err != nil {
		t.Fatalf("AsMap: %v", err)
	}
	if s, _ := opts["split"].AsText(); s != "4" {
		t.Fatalf("unexpected split %q", s)
	}
}

func TestParseJSONRejectsUnsupported(t *testing.T) {
	for _, doc := range []string{`[true]`, `[1.5]`, `{"a": false}`, `[1] [2]`} {
		if _, err := variant.ParseJSON([]byte(doc)); err == nil {
			t.Fatalf("expected %s to be rejected", doc)
		}
	}
}

func TestFromNativeRejectsOutOfRangeFloats(t *testing.T) {
	for _, f := range []float64{math.Ldexp(1, 63), float64(math.MaxInt64), 1e19, -1e19} {
		if v, err := variant.FromNative(f); err == nil {
			t.Fatalf("expected %v to be rejected, got %s", f, v)
		}
	}
	v, err := variant.FromNative(float64(math.MinInt64))
	if err != nil {
		t.Fatalf("FromNative(MinInt64): %v", err)
	}
	if n, _ := v.AsInt(); n != math.MinInt64 {
		t.Fatalf("unexpected value %d", n)
	}
}

func TestMarshalJSONUsesNativeForm(t *testing.T) {
	m := variant.Map()
	m.MustSet("gid", variant.Text("1")).MustSet("followedBy", variant.TextList("3", "4"))
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"followedBy":["3","4"],"gid":"1"}` {
		t.Fatalf("unexpected json %s", data)
	}
}
