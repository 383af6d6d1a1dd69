package segments

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func ivs(pairs ...[2]float64) []Interval {
	out := make([]Interval, len(pairs))
	for i, p := range pairs {
		out[i] = Interval{Start: p[0], End: p[1]}
	}
	return out
}

func TestMergeExamples(t *testing.T) {
	tests := []struct {
		name string
		in   []Interval
		want SkipSet
	}{
		{"empty", nil, SkipSet{}},
		{"single", ivs([2]float64{2, 4}), SkipSet(ivs([2]float64{2, 4}))},
		{"disjoint reordered", ivs([2]float64{0, 3}, [2]float64{7, 8}, [2]float64{5, 6}), SkipSet(ivs([2]float64{0, 3}, [2]float64{5, 6}, [2]float64{7, 8}))},
		{"touching and overlapping", ivs([2]float64{0, 5}, [2]float64{6, 8}, [2]float64{4, 6}), SkipSet(ivs([2]float64{0, 8}))},
		{"gap prevents merge", ivs([2]float64{0, 6}, [2]float64{7, 8}, [2]float64{4, 6}), SkipSet(ivs([2]float64{0, 6}, [2]float64{7, 8}))},
		{"contained", ivs([2]float64{0, 10}, [2]float64{2, 3}), SkipSet(ivs([2]float64{0, 10}))},
		{"same start ties by end", ivs([2]float64{1, 9}, [2]float64{1, 2}), SkipSet(ivs([2]float64{1, 9}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Merge(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	in := ivs([2]float64{4, 6}, [2]float64{0, 5})
	snapshot := append([]Interval(nil), in...)
	_ = Merge(in)
	if !reflect.DeepEqual(in, snapshot) {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestMergeDropsInvalidIntervals(t *testing.T) {
	in := ivs(
		[2]float64{5, 3},
		[2]float64{-1, 2},
		[2]float64{math.NaN(), 4},
		[2]float64{1, math.Inf(1)},
		[2]float64{10, 12},
	)
	got := Merge(in)
	want := SkipSet(ivs([2]float64{10, 12}))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge = %v, want %v", got, want)
	}
}

func TestMergeOutputIsSortedAndDisjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := rng.Intn(30)
		in := make([]Interval, n)
		for i := range in {
			start := float64(rng.Intn(100))
			in[i] = Interval{Start: start, End: start + float64(rng.Intn(10))}
		}
		out := Merge(in)
		for i := 1; i < len(out); i++ {
			if out[i-1].Start > out[i].Start {
				t.Fatalf("round %d: not sorted: %v", round, out)
			}
			if !(out[i-1].End < out[i].Start) {
				t.Fatalf("round %d: not strictly disjoint: %v", round, out)
			}
		}
		for _, iv := range in {
			mid := iv.Start + iv.Duration()/2
			if iv.Duration() > 0 {
				if _, ok := out.Containing(mid); !ok {
					t.Fatalf("round %d: %v not covered by %v", round, iv, out)
				}
			}
		}
		if again := Merge(out); !reflect.DeepEqual(again, out) {
			t.Fatalf("round %d: merge not idempotent: %v vs %v", round, again, out)
		}
	}
}

func TestSortByCategoryKeepsOverlaps(t *testing.T) {
	in := []CategorizedInterval{
		{Interval{0, 5}, CategorySponsor},
		{Interval{4, 6}, CategoryIntro},
		{Interval{6, 8}, CategoryOutro},
	}
	got := SortByCategory(in)
	want := DisplaySet(in)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SortByCategory = %v, want %v", got, want)
	}
}

func TestSortByCategoryOrdersAndIsStable(t *testing.T) {
	in := []CategorizedInterval{
		{Interval{0, 3}, CategorySponsor},
		{Interval{7, 8}, CategoryIntro},
		{Interval{5, 6}, CategoryOutro},
		{Interval{5, 6}, "custom"},
		{Interval{5, 6}, CategoryOutro},
	}
	got := SortByCategory(in)
	want := DisplaySet{
		{Interval{0, 3}, CategorySponsor},
		{Interval{5, 6}, CategoryOutro},
		{Interval{5, 6}, "custom"},
		{Interval{5, 6}, CategoryOutro},
		{Interval{7, 8}, CategoryIntro},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SortByCategory = %v, want %v", got, want)
	}
	if again := SortByCategory(got); !reflect.DeepEqual(again, got) {
		t.Fatalf("resort changed order: %v", again)
	}
	if in[1].Category != CategoryIntro {
		t.Fatal("input mutated")
	}
}

func TestSkipSetContaining(t *testing.T) {
	set := SkipSet(ivs([2]float64{0, 3}, [2]float64{5, 6}, [2]float64{7, 8}))
	tests := []struct {
		pos  float64
		want Interval
		ok   bool
	}{
		{0, Interval{0, 3}, true},
		{2.99, Interval{0, 3}, true},
		{3, Interval{}, false},
		{4, Interval{}, false},
		{5, Interval{5, 6}, true},
		{7.5, Interval{7, 8}, true},
		{8, Interval{}, false},
		{-1, Interval{}, false},
	}
	for _, tt := range tests {
		got, ok := set.Containing(tt.pos)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Containing(%v) = %v,%v want %v,%v", tt.pos, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBuildSplitsViews(t *testing.T) {
	res := Build([]CategorizedInterval{
		{Interval{4, 6}, CategoryIntro},
		{Interval{0, 5}, CategorySponsor},
		{Interval{6, 8}, CategoryOutro},
	})
	if !reflect.DeepEqual(res.Skip, SkipSet(ivs([2]float64{0, 8}))) {
		t.Fatalf("skip = %v", res.Skip)
	}
	if len(res.Display) != 3 || res.Display[0].Category != CategorySponsor {
		t.Fatalf("display = %v", res.Display)
	}
	if res.Empty() {
		t.Fatal("expected non-empty result")
	}
	if !(Result{}).Empty() {
		t.Fatal("zero result should be empty")
	}
}
