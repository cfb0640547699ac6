package gpucore

import (
	"errors"
	"testing"
)

func TestPlanWorkGroups(t *testing.T) {
	tests := []struct {
		name       string
		w, h, max  int
		wantLocal  Size2
		wantGlobal Size2
	}{
		{"square fits", 10, 10, 64, Size2{8, 8}, Size2{16, 16}},
		{"exact multiple", 32, 16, 64, Size2{8, 8}, Size2{32, 16}},
		{"halve x first", 10, 10, 128, Size2{8, 16}, Size2{16, 16}},
		{"256", 100, 50, 256, Size2{16, 16}, Size2{112, 64}},
		{"512", 33, 7, 512, Size2{16, 32}, Size2{48, 32}},
		{"1024", 1, 1, 1024, Size2{32, 32}, Size2{32, 32}},
		{"single item", 3, 5, 1, Size2{1, 1}, Size2{3, 5}},
		{"two items", 3, 3, 2, Size2{1, 2}, Size2{3, 4}},
		{"not power of two", 20, 20, 48, Size2{4, 8}, Size2{20, 24}},
		{"not power of two 100", 20, 20, 100, Size2{8, 8}, Size2{24, 24}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PlanWorkGroups(tt.w, tt.h, tt.max)
			if err != nil {
				t.Fatalf("PlanWorkGroups: %v", err)
			}
			if p.Local != tt.wantLocal {
				t.Errorf("Local = %v, want %v", p.Local, tt.wantLocal)
			}
			if p.Global != tt.wantGlobal {
				t.Errorf("Global = %v, want %v", p.Global, tt.wantGlobal)
			}
		})
	}
}

func TestPlanWorkGroupsPowerOfTwoLimits(t *testing.T) {
	for max := 1; max <= 4096; max *= 2 {
		p, err := PlanWorkGroups(17, 9, max)
		if err != nil {
			t.Fatalf("max=%d: %v", max, err)
		}
		if n := p.Local.Count(); n > max {
			t.Errorf("max=%d: tile %v holds %d items", max, p.Local, n)
		}
		for d, l := range p.Local {
			if l <= 0 || l&(l-1) != 0 {
				t.Errorf("max=%d: local[%d]=%d is not a power of two", max, d, l)
			}
		}
		// For power-of-two limits the tile uses the full work-group.
		if n := p.Local.Count(); n != max {
			t.Errorf("max=%d: tile %v holds %d items, want %d", max, p.Local, n, max)
		}
	}
}

func TestPlanWorkGroupsPadding(t *testing.T) {
	for _, max := range []int{1, 3, 16, 48, 64, 100, 256, 1000} {
		for w := 1; w <= 40; w++ {
			for h := 1; h <= 40; h += 3 {
				p, err := PlanWorkGroups(w, h, max)
				if err != nil {
					t.Fatalf("%dx%d max=%d: %v", w, h, max, err)
				}
				for d, n := range []int{w, h} {
					g, l := p.Global[d], p.Local[d]
					if g%l != 0 {
						t.Errorf("%dx%d max=%d: global[%d]=%d not a multiple of %d", w, h, max, d, g, l)
					}
					if g < n || g-n >= l {
						t.Errorf("%dx%d max=%d: global[%d]=%d does not tightly cover %d (tile %d)", w, h, max, d, g, n, l)
					}
				}
				if p.Local.Count() > max {
					t.Errorf("%dx%d max=%d: tile %v too large", w, h, max, p.Local)
				}
			}
		}
	}
}

func TestPlanWorkGroupsDeterministic(t *testing.T) {
	a, _ := PlanWorkGroups(123, 77, 192)
	b, _ := PlanWorkGroups(123, 77, 192)
	if a != b {
		t.Fatalf("plans differ: %v vs %v", a, b)
	}
	if got := a.Groups(); got != (a.Global[0]/a.Local[0])*(a.Global[1]/a.Local[1]) {
		t.Errorf("Groups() = %d", got)
	}
}

func TestPlanWorkGroupsInvalid(t *testing.T) {
	cases := [][3]int{{0, 1, 64}, {1, 0, 64}, {-1, 4, 64}, {4, 4, 0}, {4, 4, -8}}
	for _, c := range cases {
		if _, err := PlanWorkGroups(c[0], c[1], c[2]); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("PlanWorkGroups(%v) error = %v, want ErrInvalidSize", c, err)
		}
	}
}
