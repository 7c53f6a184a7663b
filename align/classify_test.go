package align

import (
	"testing"
)

func TestStripSuffix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"foo", "foo"},
		{"foo1", "foo"},
		{"foo123", "foo"},
		{"foo_123", "foo"},
		{"foo_", "foo"},
		{"f_oo_", "f_oo"},
		{"title_left_2", "title_left"},
		{"foo__1", "foo_"},
		{"12345", ""},
		{"_7", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripSuffix(tt.in); got != tt.want {
				t.Errorf("StripSuffix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		id     string
		want   Alignment
		wantOK bool
	}{
		{"title_left", AlignmentLeft, true},
		{"title_left_2", AlignmentLeft, true},
		{"far_left_12", AlignmentLeft, true},
		{"label_center_3", AlignmentCenter, true},
		{"label_right", AlignmentRight, true},
		{"label_right_", AlignmentRight, true},
		{"title_left2", AlignmentLeft, true},
		{"center", AlignmentCenter, true},
		{"upright", AlignmentRight, true},
		{"footer_99", AlignmentLeft, false},
		{"label_Right", AlignmentLeft, false},
		{"LEFT", AlignmentLeft, false},
		{"leftover", AlignmentLeft, false},
		{"left_side", AlignmentLeft, false},
		{"aligned_right__3", AlignmentLeft, false},
		{"12345", AlignmentLeft, false},
		{"", AlignmentLeft, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := Classify(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestClassify_StableUnderStripping(t *testing.T) {
	prefixes := []string{"a", "title_", "far_", "x_y_z_"}
	keywords := []string{"left", "center", "right"}
	suffixes := []string{"", "_", "7", "_42", "0001"}

	for _, p := range prefixes {
		for _, k := range keywords {
			for _, s := range suffixes {
				id := p + k + s
				want, wantOK := Classify(id)
				got, gotOK := Classify(StripSuffix(id))
				if got != want || gotOK != wantOK {
					t.Errorf("Classify(StripSuffix(%q)) = %v/%v, Classify(%q) = %v/%v", id, got, gotOK, id, want, wantOK)
				}
				if !wantOK {
					t.Errorf("Classify(%q) found no alignment", id)
				}
				if want.String() != k {
					t.Errorf("Classify(%q) = %v, want %s", id, want, k)
				}
			}
		}
	}
}

func TestAlignment_AnchorAndOffset(t *testing.T) {
	tests := []struct {
		align  Alignment
		anchor string
		offset float32
	}{
		{AlignmentLeft, "start", 0},
		{AlignmentCenter, "middle", 5},
		{AlignmentRight, "end", 10},
	}

	for _, tt := range tests {
		t.Run(tt.align.String(), func(t *testing.T) {
			if got := tt.align.Anchor(); got != tt.anchor {
				t.Errorf("Anchor() = %q, want %q", got, tt.anchor)
			}
			if got := tt.align.Offset(10); got != tt.offset {
				t.Errorf("Offset(10) = %g, want %g", got, tt.offset)
			}
		})
	}
}

func TestAlignmentString(t *testing.T) {
	for a, want := range map[Alignment]string{
		AlignmentLeft:   "left",
		AlignmentCenter: "center",
		AlignmentRight:  "right",
		Alignment(7):    "Alignment(7)",
	} {
		if got := a.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
