package segments

import "testing"

type recordingSink struct {
	renders [][]Marker
}

func (r *recordingSink) Render(markers []Marker) {
	r.renders = append(r.renders, markers)
}

func TestMarkersLayout(t *testing.T) {
	display := DisplaySet{
		{Interval{10, 20}, CategorySponsor},
		{Interval{50, 100}, "mystery"},
	}
	got := Markers(display, 200)
	if len(got) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(got))
	}
	if got[0].LeftPercent != 5 || got[0].WidthPercent != 5 {
		t.Fatalf("unexpected layout %+v", got[0])
	}
	if got[0].Color != "#00d400" {
		t.Fatalf("unexpected color %q", got[0].Color)
	}
	if got[0].Title != "sponsor: 10.0s - 20.0s" {
		t.Fatalf("unexpected title %q", got[0].Title)
	}
	if got[1].Color != DefaultColor {
		t.Fatalf("unknown category should use default color, got %q", got[1].Color)
	}
	if got[1].LeftPercent != 25 || got[1].WidthPercent != 25 {
		t.Fatalf("unexpected layout %+v", got[1])
	}
}

func TestMarkersWithoutDuration(t *testing.T) {
	display := DisplaySet{{Interval{1, 2}, CategoryIntro}}
	if got := Markers(display, 0); got != nil {
		t.Fatalf("expected nil markers, got %v", got)
	}
}

func TestIndicatorsRenderAfterMetadataLoad(t *testing.T) {
	sink := &recordingSink{}
	ind := NewIndicators(sink)

	ind.SetSegments(DisplaySet{{Interval{0, 30}, CategoryIntro}})
	if last := sink.renders[len(sink.renders)-1]; len(last) != 0 {
		t.Fatalf("expected empty render before duration known, got %v", last)
	}

	ind.SetDuration(300)
	last := sink.renders[len(sink.renders)-1]
	if len(last) != 1 || last[0].WidthPercent != 10 {
		t.Fatalf("unexpected render after duration: %v", last)
	}

	count := len(sink.renders)
	ind.SetDuration(300)
	if len(sink.renders) != count {
		t.Fatal("same duration should not re-render")
	}

	ind.SetDuration(600)
	if last := sink.renders[len(sink.renders)-1]; last[0].WidthPercent != 5 {
		t.Fatalf("expected re-render on duration change, got %v", last)
	}

	ind.Clear()
	if last := sink.renders[len(sink.renders)-1]; len(last) != 0 {
		t.Fatalf("expected cleared render, got %v", last)
	}
	if cur := ind.Current(); len(cur) != 0 {
		t.Fatalf("expected no current markers, got %v", cur)
	}
}

func TestCategoryLabelAndColor(t *testing.T) {
	if got := CategoryMusicOffTopic.Label(); got != "Music Offtopic" {
		t.Fatalf("Label = %q", got)
	}
	if got := Category("").Label(); got != "Unknown" {
		t.Fatalf("Label = %q", got)
	}
	if Category("nope").Known() {
		t.Fatal("unexpected known category")
	}
	for _, c := range KnownCategories() {
		if !c.Known() || c.Color() == DefaultColor {
			t.Fatalf("category %q missing from palette", c)
		}
	}
}
