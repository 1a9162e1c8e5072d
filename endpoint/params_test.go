package endpoint

import (
	"reflect"
	"testing"
)

func TestParams_OrderAndReplace(t *testing.T) {
	p := NewParams()
	p.Set("b", "1")
	p.Set("a", "2")
	p.Set("b", "3")

	if got, want := p.Keys(), []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if got, want := p.Values(), []string{"3", "2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
}

func TestParams_Delete(t *testing.T) {
	p := NewParams()
	p.Set("a", 1)
	p.Set("b", 2)
	p.Set("c", 3)
	p.Delete("b")
	p.Delete("missing")

	if got, want := p.Keys(), []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if p.Has("b") {
		t.Fatal("b should be gone")
	}
}

func TestParams_ValuesStringify(t *testing.T) {
	p := NewParams()
	p.Set("s", "text")
	p.Set("f", float64(123))
	p.Set("frac", 1.5)
	p.Set("i", 7)
	p.Set("t", true)
	p.Set("n", nil)
	p.Set("f0", false)
	p.Set("list", []any{"x", float64(1)})

	want := []string{"text", "123", "1.5", "7", "1", "", "", `["x",1]`}
	if got := p.Values(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %q, want %q", got, want)
	}
}

func TestParams_CloneIsIndependent(t *testing.T) {
	p := NewParams()
	p.Set("a", "1")
	c := p.Clone()
	c.Set("a", "2")
	c.Set("b", "3")

	if p.String("a") != "1" || p.Has("b") {
		t.Fatalf("clone mutated original: %v", p.Map())
	}
}

func TestParams_MarshalJSONKeepsOrder(t *testing.T) {
	p := NewParams()
	p.Set("zeta", "z")
	p.Set("alpha", float64(1))

	data, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if got, want := string(data), `{"zeta":"z","alpha":1}`; got != want {
		t.Fatalf("MarshalJSON = %s, want %s", got, want)
	}
}
