package titles

import (
	"reflect"
	"testing"
)

func TestBaseTitle(t *testing.T) {
	tests := map[string]string{
		"Wonder Woman (2017)":                  "Wonder Woman",
		"Wonder Woman 1984":                    "Wonder Woman",
		"Dune: Part Two":                       "Dune",
		"John Wick: Chapter 3 - Parabellum":    "John Wick",
		"Toy Story 3":                          "Toy Story",
		"The Godfather Part II":                "The Godfather",
		"Frozen II":                            "Frozen",
		"28 Days Later":                        "28 Days Later",
		"Blade Runner 2049":                    "Blade Runner",
		"  Oldboy  ":                           "Oldboy",
		"1917":                                 "1917",
		"Mission: Impossible - Fallout (2018)": "Mission",
	}
	for in, want := range tests {
		if got := BaseTitle(in); got != want {
			t.Fatalf("BaseTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseQualified(t *testing.T) {
	tests := []struct {
		in   string
		want Qualified
	}{
		{"Oldboy 2003", Qualified{Base: "Oldboy", Year: 2003}},
		{"Oldboy (2013)", Qualified{Base: "Oldboy", Year: 2013}},
		{"Heat with Al Pacino", Qualified{Base: "Heat", Actor: "Al Pacino"}},
		{"recent Mission Impossible", Qualified{Base: "Mission Impossible", Recent: true}},
		{"the latest Dune", Qualified{Base: "Dune", Recent: true}},
		{"Inception", Qualified{Base: "Inception"}},
		{"1917", Qualified{Base: "1917"}},
	}
	for _, tt := range tests {
		if got := ParseQualified(tt.in); got != tt.want {
			t.Fatalf("ParseQualified(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestIsDirectSpecific(t *testing.T) {
	tests := map[string]bool{
		"Dune 2021":                true,
		"The Thing (1982)":         true,
		"Heat with Robert De Niro": true,
		"Inception":                false,
		"1917":                     false,
		"Blade Runner 2049":        true,
		"":                         false,
	}
	for in, want := range tests {
		if got := IsDirectSpecific(in); got != want {
			t.Fatalf("IsDirectSpecific(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNextSequelUsesStaticMap(t *testing.T) {
	got, ok := NextSequel("Wonder Woman", nil)
	if !ok || got != "Wonder Woman 1984" {
		t.Fatalf("expected Wonder Woman 1984, got %q ok=%v", got, ok)
	}
	if generic := GenericSequels("Wonder Woman", 0); generic[0] != "Wonder Woman 2" {
		t.Fatalf("generic generator should propose Wonder Woman 2, got %v", generic)
	}
}

func TestNextSequelSkipsDiscussed(t *testing.T) {
	discussed := map[string]bool{"28 Weeks Later": true}
	got, ok := NextSequel("28 Days Later", func(title string) bool { return discussed[title] })
	if !ok || got != "28 Years Later" {
		t.Fatalf("expected 28 Years Later, got %q ok=%v", got, ok)
	}
	if _, ok := NextSequel("Dune: Part Two", nil); ok {
		t.Fatalf("expected no sequel after the last entry")
	}
	if _, ok := NextSequel("Some Unknown Film", nil); ok {
		t.Fatalf("expected unknown franchise")
	}
}

func TestFranchiseMatchesVariants(t *testing.T) {
	for _, title := range []string{"The Terminator", "Terminator 2: Judgment Day", "terminator"} {
		entries, ok := Franchise(title)
		if !ok || entries[0] != "The Terminator" {
			t.Fatalf("Franchise(%q) = %v ok=%v", title, entries, ok)
		}
	}
	if first, ok := FirstInFranchise("Aliens"); !ok || first != "Alien" {
		t.Fatalf("expected Alien, got %q", first)
	}
}

func TestGenericSequelsWithYear(t *testing.T) {
	got := GenericSequels("Paddington (2014)", 2014)
	want := []string{"Paddington 2", "Paddington II", "Paddington: Part 2", "Paddington Part II", "Paddington Returns", "Paddington Rises", "Paddington 2015"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GenericSequels = %v, want %v", got, want)
	}
}

func TestValidCandidate(t *testing.T) {
	tests := map[string]bool{
		"it":           false,
		"Up":           false,
		"the sequel":   false,
		"That Movie?":  false,
		"Inception":    true,
		"  \"Heat\"  ": true,
	}
	for in, want := range tests {
		if got := ValidCandidate(in); got != want {
			t.Fatalf("ValidCandidate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOnlyGenericAndGenres(t *testing.T) {
	if !OnlyGeneric("some good horror movies") {
		t.Fatalf("expected generic request")
	}
	if OnlyGeneric("movies like Inception") {
		t.Fatalf("expected specific request")
	}
	got := GenresIn("I love scary movies and sci-fi, also horror")
	want := []string{"Horror", "Sci-Fi"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GenresIn = %v, want %v", got, want)
	}
}

func TestCountryIn(t *testing.T) {
	adj, ok := CountryIn("no, the Korean one")
	if !ok || adj != "korean" {
		t.Fatalf("expected korean, got %q", adj)
	}
	if c, _ := Country(adj); c != "South Korea" {
		t.Fatalf("unexpected country %q", c)
	}
}

func TestStripLookupPhrasing(t *testing.T) {
	tests := map[string]string{
		"How is 28 Days Later?":            "28 Days Later",
		"is Dune 2021 worth watching":      "Dune 2021",
		"tell me about the movie Heat":     "Heat",
		"Oldboy":                           "Oldboy",
		"should I watch The Batman movie?": "The Batman",
	}
	for in, want := range tests {
		if got := StripLookupPhrasing(in); got != want {
			t.Fatalf("StripLookupPhrasing(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKnownTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Hell or High Water", "Hell or High Water", true},
		{"how is hell or high water?", "Hell or High Water", true},
		{"is Scary Movie worth watching", "Scary Movie", true},
		{"scary movie 3", "Scary Movie 3", true},
		{"freddy vs jason", "Freddy vs. Jason", true},
		{"recommend a scary movie", "", false},
		{"alien or aliens", "", false},
		{"is hell or high water better than sicario", "", false},
	}
	for _, tt := range tests {
		got, ok := KnownTitle(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("KnownTitle(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
