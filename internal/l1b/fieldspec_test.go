package l1b

import "testing"

// Strides hand-computed from the format document; the Stride method
// must reproduce them from the field specs alone, without data.
func TestGroupStrides(t *testing.T) {
	tests := []struct {
		group  Group
		stride int
	}{
		{TimeOrbitGroup(), 84},
		{MeasurementGroup(), 94},
		{MultilookedGroup(), 624},
	}
	for _, tt := range tests {
		if got := tt.group.Stride(); got != tt.stride {
			t.Errorf("group %s stride = %d, want %d", tt.group.Name, got, tt.stride)
		}
	}
}

func TestStrideEqualsFieldWidthSum(t *testing.T) {
	for _, g := range []Group{TimeOrbitGroup(), MeasurementGroup(), MultilookedGroup()} {
		sum := 0
		for _, f := range g.Fields {
			w := f.ByteWidth()
			if w <= 0 {
				t.Errorf("group %s field %s has non-positive width %d", g.Name, f.Name, w)
			}
			sum += w
		}
		if sum != g.Stride() {
			t.Errorf("group %s: field width sum %d != stride %d", g.Name, sum, g.Stride())
		}
	}
}

func TestColumnsExcludeFillerAndKeepArrayCounts(t *testing.T) {
	cols := Columns(TimeOrbitGroup(), MeasurementGroup(), MultilookedGroup())

	for _, c := range cols {
		if c.Name == SkipField {
			t.Fatalf("filler field leaked into column list")
		}
	}

	// 13 time/orbit + 22 measurement + 6 multilooked materialized fields.
	if len(cols) != 41 {
		t.Fatalf("column count = %d, want 41", len(cols))
	}

	byName := make(map[string]Column)
	for _, c := range cols {
		byName[c.Name] = c
	}
	if c := byName["ml_power_echo"]; c.Count != 256 {
		t.Errorf("ml_power_echo count = %d, want 256", c.Count)
	}
	if c := byName["beam_behaviour"]; c.Count != 50 {
		t.Errorf("beam_behaviour count = %d, want 50", c.Count)
	}
	if c := byName["velocity_xyz"]; c.Count != 3 {
		t.Errorf("velocity_xyz count = %d, want 3", c.Count)
	}
	if c := byName["latitude"]; c.Count != 1 || c.Type != WriteFloat {
		t.Errorf("latitude column = %+v, want scalar %s", c, WriteFloat)
	}
}

func TestColumnOrderFollowsGroupOrder(t *testing.T) {
	cols := Columns(TimeOrbitGroup(), MeasurementGroup(), MultilookedGroup())
	if cols[0].Name != "days" {
		t.Errorf("first column = %s, want days", cols[0].Name)
	}
	if last := cols[len(cols)-1]; last.Name != "beam_behaviour" {
		t.Errorf("last column = %s, want beam_behaviour", last.Name)
	}
}
