package titles

import (
	"strconv"
	"strings"
)

// franchises lists known series in release order.
var franchises = [][]string{
	{"Wonder Woman", "Wonder Woman 1984"},
	{"Toy Story", "Toy Story 2", "Toy Story 3", "Toy Story 4"},
	{"The Matrix", "The Matrix Reloaded", "The Matrix Revolutions", "The Matrix Resurrections"},
	{"Batman Begins", "The Dark Knight", "The Dark Knight Rises"},
	{"The Godfather", "The Godfather Part II", "The Godfather Part III"},
	{"John Wick", "John Wick: Chapter 2", "John Wick: Chapter 3 - Parabellum", "John Wick: Chapter 4"},
	{"Alien", "Aliens", "Alien 3", "Alien: Resurrection"},
	{"The Terminator", "Terminator 2: Judgment Day", "Terminator 3: Rise of the Machines"},
	{"Dune", "Dune: Part Two"},
	{"Top Gun", "Top Gun: Maverick"},
	{"Blade Runner", "Blade Runner 2049"},
	{"28 Days Later", "28 Weeks Later", "28 Years Later"},
	{"Deadpool", "Deadpool 2", "Deadpool & Wolverine"},
	{"Frozen", "Frozen II"},
	{"Avatar", "Avatar: The Way of Water"},
	{"Gladiator", "Gladiator II"},
	{"A Quiet Place", "A Quiet Place Part II"},
	{"Back to the Future", "Back to the Future Part II", "Back to the Future Part III"},
	{"The Lord of the Rings: The Fellowship of the Ring", "The Lord of the Rings: The Two Towers", "The Lord of the Rings: The Return of the King"},
	{"Shrek", "Shrek 2", "Shrek the Third", "Shrek Forever After"},
	{"Inside Out", "Inside Out 2"},
	{"Joker", "Joker: Folie à Deux"},
	{"Mad Max", "Mad Max 2", "Mad Max Beyond Thunderdome", "Mad Max: Fury Road"},
	{"The Hunger Games", "The Hunger Games: Catching Fire", "The Hunger Games: Mockingjay - Part 1", "The Hunger Games: Mockingjay - Part 2"},
	{"Mission: Impossible", "Mission: Impossible II", "Mission: Impossible III", "Mission: Impossible - Ghost Protocol", "Mission: Impossible - Rogue Nation", "Mission: Impossible - Fallout", "Mission: Impossible - Dead Reckoning Part One", "Mission: Impossible - The Final Reckoning"},
	{"Scream", "Scream 2", "Scream 3", "Scream 4"},
	{"The Conjuring", "The Conjuring 2", "The Conjuring: The Devil Made Me Do It"},
	{"Kill Bill: Vol. 1", "Kill Bill: Vol. 2"},
	{"Before Sunrise", "Before Sunset", "Before Midnight"},
	{"Paddington", "Paddington 2", "Paddington in Peru"},
	{"The Hangover", "The Hangover Part II", "The Hangover Part III"},
	{"Knives Out", "Glass Onion: A Knives Out Mystery", "Wake Up Dead Man: A Knives Out Mystery"},
	{"Jurassic Park", "The Lost World: Jurassic Park", "Jurassic Park III"},
	{"Rocky", "Rocky II", "Rocky III", "Rocky IV"},
}

// franchiseIndex maps the Key of every entry, and of its base title, to the
// franchise it belongs to. The first franchise to claim a key keeps it.
var franchiseIndex = func() map[string]int {
	idx := make(map[string]int)
	for i, entries := range franchises {
		for _, title := range entries {
			for _, k := range []string{Key(title), Key(BaseTitle(title))} {
				if _, taken := idx[k]; !taken && k != "" {
					idx[k] = i
				}
			}
		}
	}
	return idx
}()

// Franchise returns the known series containing title, in release order.
func Franchise(title string) ([]string, bool) {
	for _, k := range []string{Key(title), Key(BaseTitle(title))} {
		if i, ok := franchiseIndex[k]; ok {
			return franchises[i], true
		}
	}
	return nil, false
}

// NextSequel returns the first entry after title in its franchise that the
// skip predicate does not reject. When title is not itself listed, the search
// starts after the first entry.
func NextSequel(title string, skip func(string) bool) (string, bool) {
	entries, ok := Franchise(title)
	if !ok {
		return "", false
	}
	pos := 0
	for i, entry := range entries {
		if Key(entry) == Key(title) {
			pos = i
			break
		}
	}
	for _, entry := range entries[pos+1:] {
		if skip == nil || !skip(entry) {
			return entry, true
		}
	}
	return "", false
}

// FirstInFranchise returns the original entry of a known series.
func FirstInFranchise(title string) (string, bool) {
	entries, ok := Franchise(title)
	if !ok {
		return "", false
	}
	return entries[0], true
}

var sequelSuffixes = []string{" 2", " II", ": Part 2", " Part II", " Returns", " Rises"}

// GenericSequels proposes sequel titles for a series missing from the static
// table, most likely first. year is the original's release year, or 0.
func GenericSequels(title string, year int) []string {
	base := BaseTitle(title)
	out := make([]string, 0, len(sequelSuffixes)+1)
	for _, suffix := range sequelSuffixes {
		out = append(out, base+suffix)
	}
	if year > 0 {
		out = append(out, base+" "+strconv.Itoa(year+1))
	}
	return out
}

// IsSequelOf reports whether candidate belongs to the same series as title
// and is not title itself.
func IsSequelOf(candidate, title string) bool {
	if strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(title)) {
		return false
	}
	a, okA := Franchise(candidate)
	b, okB := Franchise(title)
	if okA && okB {
		return a[0] == b[0]
	}
	return Key(BaseTitle(candidate)) == Key(BaseTitle(title))
}
