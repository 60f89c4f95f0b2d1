package exr

import "testing"

// TestHeaderAttributeOrderPreservesInsertion verifies Header.Attributes
// returns attributes in first-seen order, not alphabetical order: this
// core never writes EXR files, so there is no serialization order to
// make deterministic, only the in-memory order a reader observed them.
func TestHeaderAttributeOrderPreservesInsertion(t *testing.T) {
	h := NewHeader()
	h.Set(&Attribute{Name: "zOwner", Type: AttrTypeString, Value: "Test"})
	h.Set(&Attribute{Name: "customFloat", Type: AttrTypeFloat, Value: float32(1.5)})
	h.Set(&Attribute{Name: "anotherAttr", Type: AttrTypeInt, Value: int32(42)})

	attrs := h.Attributes()
	if len(attrs) != 3 {
		t.Fatalf("Attributes() returned %d entries, want 3", len(attrs))
	}
	want := []string{"zOwner", "customFloat", "anotherAttr"}
	for i, w := range want {
		if attrs[i].Name != w {
			t.Errorf("Attributes()[%d].Name = %q, want %q", i, attrs[i].Name, w)
		}
	}
}

// TestHeaderSetReplacesExistingAttributeInPlace verifies that re-setting
// an already-present attribute name updates its value without moving it
// to the end of the order.
func TestHeaderSetReplacesExistingAttributeInPlace(t *testing.T) {
	h := NewHeader()
	h.Set(&Attribute{Name: "a", Type: AttrTypeInt, Value: int32(1)})
	h.Set(&Attribute{Name: "b", Type: AttrTypeInt, Value: int32(2)})
	h.Set(&Attribute{Name: "a", Type: AttrTypeInt, Value: int32(99)})

	attrs := h.Attributes()
	if len(attrs) != 2 {
		t.Fatalf("Attributes() returned %d entries, want 2", len(attrs))
	}
	if attrs[0].Name != "a" || attrs[0].Value.(int32) != 99 {
		t.Errorf("Attributes()[0] = %+v, want a=99 at original position", attrs[0])
	}
	if attrs[1].Name != "b" {
		t.Errorf("Attributes()[1].Name = %q, want b", attrs[1].Name)
	}
}

// TestHeaderRemoveDeletesFromOrderAndMap verifies Remove drops an
// attribute from both lookup and iteration order.
func TestHeaderRemoveDeletesFromOrderAndMap(t *testing.T) {
	h := NewHeader()
	h.Set(&Attribute{Name: "a", Type: AttrTypeInt, Value: int32(1)})
	h.Set(&Attribute{Name: "b", Type: AttrTypeInt, Value: int32(2)})
	h.Remove("a")

	if h.Has("a") {
		t.Error("Has(\"a\") = true after Remove")
	}
	if h.Get("a") != nil {
		t.Error("Get(\"a\") != nil after Remove")
	}
	attrs := h.Attributes()
	if len(attrs) != 1 || attrs[0].Name != "b" {
		t.Errorf("Attributes() = %+v, want only \"b\"", attrs)
	}

	// Removing an absent name is a no-op, not an error.
	h.Remove("nonexistent")
	if len(h.Attributes()) != 1 {
		t.Errorf("Remove of absent name changed attribute count")
	}
}

// TestHeaderCustomAttributeValuesPreserved verifies a variety of custom
// attribute value types round-trip through Set/Get unchanged, since
// this package only ever stores attributes in memory (it never
// serializes a header back to bytes).
func TestHeaderCustomAttributeValuesPreserved(t *testing.T) {
	h := NewHeader()
	h.Set(&Attribute{Name: "customV2d", Type: AttrTypeV2d, Value: V2d{1.234567890123, 9.876543210987}})
	h.Set(&Attribute{Name: "customFV", Type: AttrTypeFloatVector, Value: FloatVector{0.1, 0.2, 0.3}})
	h.Set(&Attribute{Name: "timecode", Type: AttrTypeTimecode, Value: MustNewTimeCode(1, 30, 45, 12, true)})

	v2dAttr := h.Get("customV2d")
	if v2dAttr == nil {
		t.Fatal("customV2d attribute not found")
	}
	if got, want := v2dAttr.Value.(V2d), (V2d{1.234567890123, 9.876543210987}); got != want {
		t.Errorf("customV2d value = %v, want %v", got, want)
	}

	fvAttr := h.Get("customFV")
	if fvAttr == nil {
		t.Fatal("customFV attribute not found")
	}
	fv := fvAttr.Value.(FloatVector)
	if len(fv) != 3 || fv[0] != 0.1 || fv[1] != 0.2 || fv[2] != 0.3 {
		t.Errorf("customFV value = %v", fv)
	}

	tcAttr := h.Get("timecode")
	if tcAttr == nil {
		t.Fatal("timecode attribute not found")
	}
	tc := tcAttr.Value.(TimeCode)
	if tc.Hours() != 1 || tc.Minutes() != 30 || tc.Seconds() != 45 || tc.Frames() != 12 {
		t.Errorf("timecode value = %+v", tc)
	}
}
