package textutil

import (
	"reflect"
	"testing"
)

func TestSameText(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "films with Brad Pitt", "films with Brad Pitt", true},
		{"case", "Films With Brad Pitt", "films with brad pitt", true},
		{"whitespace", "  films   with\tbrad pitt ", "films with brad pitt", true},
		{"different", "christmas movie", "christmas movies", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameText(tt.a, tt.b); got != tt.want {
				t.Errorf("SameText(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestHasWordMatchesWholeWordsOnly(t *testing.T) {
	if !HasWord("movies with Tom Hanks", "with") {
		t.Error("expected whole word match")
	}
	if HasWord("something witty", "with") {
		t.Error("did not expect substring match")
	}
	if HasWord("anything", "") {
		t.Error("empty word should never match")
	}
}

func TestDropStopWords(t *testing.T) {
	stop := NewStopWords("find", "a", "the", "an", "for", "me", "give")
	got := DropStopWords("Find me a good heist film for the weekend please now", stop, 5)
	want := []string{"good", "heist", "film", "weekend", "please"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DropStopWords() = %v, want %v", got, want)
	}
}

func TestLeadingWordSetAndIntersects(t *testing.T) {
	stop := NewStopWords("the", "of")
	a := LeadingWordSet("The Lord of the Rings: The Return of the King", 4, stop)
	if _, ok := a["lord"]; !ok {
		t.Fatalf("expected lord in %v", a)
	}
	if _, ok := a["rings:"]; ok {
		t.Fatalf("window should stop after four words: %v", a)
	}
	b := LeadingWordSet("Lord of War", 4, stop)
	if !Intersects(a, b) {
		t.Error("expected shared word")
	}
	if Intersects(a, LeadingWordSet("Heat", 4, stop)) {
		t.Error("expected no shared word")
	}
}
