package repo

import (
	"testing"

	"github.com/jholt/papers/internal/paper"
)

func filterFixture() *LoadedPaper {
	file := "Deep Learning.pdf"
	m := paper.Meta{
		Title:    "Deep Learning for Coders",
		Filename: &file,
		Tags:     []string{"dl", "ml"},
		Authors:  []string{"Jeremy Howard", "Sylvain Gugger"},
		Labels:   map[string]any{"priority": 3, "done": false},
	}
	return &LoadedPaper{Path: "Deep Learning for Coders.md", Meta: m}
}

func TestFilterMatch(t *testing.T) {
	lp := filterFixture()

	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"zero filter matches", Filter{}, true},
		{"title substring case-insensitive", Filter{Title: "deep learning"}, true},
		{"title miss", Filter{Title: "reinforcement"}, false},
		{"file substring case-insensitive", Filter{File: "learning.PDF"}, true},
		{"file miss", Filter{File: "other.pdf"}, false},
		{"single tag", Filter{Tags: []string{"ml"}}, true},
		{"all tags must hold", Filter{Tags: []string{"ml", "nlp"}}, false},
		{"author exact", Filter{Authors: []string{"Jeremy Howard"}}, true},
		{"author miss", Filter{Authors: []string{"Jeremy"}}, false},
		{"label match", Filter{Labels: map[string]any{"priority": 3}}, true},
		{"label value mismatch", Filter{Labels: map[string]any{"priority": 4}}, false},
		{"label key missing", Filter{Labels: map[string]any{"urgency": 3}}, false},
		{
			"conjunction of every part",
			Filter{Title: "coders", File: "pdf", Tags: []string{"dl"}, Authors: []string{"Sylvain Gugger"}, Labels: map[string]any{"done": false}},
			true,
		},
		{
			"one failing part fails the whole filter",
			Filter{Title: "coders", Tags: []string{"dl"}, Labels: map[string]any{"done": true}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Match(lp); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterFileRequiresDocument(t *testing.T) {
	lp := &LoadedPaper{Meta: paper.Meta{Title: "No Doc"}}
	f := Filter{File: "anything"}
	if f.Match(lp) {
		t.Error("file filter matched a paper without a document")
	}
}

func TestFilterLabelValueFormatting(t *testing.T) {
	// A filter parsed from "priority=3" carries an int; a stored "3"
	// string still compares equal through the rendered form.
	lp := filterFixture()
	lp.Meta.Labels["rating"] = "5"
	if !(Filter{Labels: map[string]any{"rating": 5}}).Match(lp) {
		t.Error("string-stored label did not match int filter value")
	}
}
