package db

import "testing"

func TestBuildFTSQuery_StopwordRemoval(t *testing.T) {
	got := BuildFTSQuery("the plan for the second floor")
	want := `"plan" OR "second" OR "floor"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_ShortWords(t *testing.T) {
	got := BuildFTSQuery("L2 of new wing")
	want := `"new" OR "wing"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_PunctuationTrimming(t *testing.T) {
	got := BuildFTSQuery("(level-2) tower, \"annex\"")
	want := `"level-2" OR "tower" OR "annex"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_AllStopwords(t *testing.T) {
	got := BuildFTSQuery("the a an in on at")
	if got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestBuildFTSQuery_MixedCase(t *testing.T) {
	got := BuildFTSQuery("The AND From THIS Basement")
	want := `"Basement"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFTSQuery_Empty(t *testing.T) {
	got := BuildFTSQuery("")
	if got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
