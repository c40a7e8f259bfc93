package recommend

import (
	"fmt"
	"strings"

	"bingehouse/pkg/domain"
)

var genreExamples = map[string][]string{
	"action":      {"Mad Max: Fury Road", "John Wick", "Die Hard"},
	"adventure":   {"Raiders of the Lost Ark", "Jurassic Park", "The Lord of the Rings: The Fellowship of the Ring"},
	"animation":   {"Spirited Away", "Toy Story", "Up"},
	"biography":   {"The Social Network", "Catch Me If You Can", "Oppenheimer"},
	"comedy":      {"Superbad", "The Grand Budapest Hotel", "Groundhog Day"},
	"crime":       {"The Godfather", "Goodfellas", "Heat"},
	"documentary": {"Free Solo", "Man on Wire", "Won't You Be My Neighbor?"},
	"drama":       {"The Shawshank Redemption", "Forrest Gump", "Good Will Hunting"},
	"family":      {"Paddington 2", "Finding Nemo", "The Iron Giant"},
	"fantasy":     {"Pan's Labyrinth", "The Princess Bride", "Harry Potter and the Prisoner of Azkaban"},
	"horror":      {"Get Out", "The Shining", "Hereditary"},
	"mystery":     {"Knives Out", "Gone Girl", "Shutter Island"},
	"romance":     {"Before Sunrise", "Pride & Prejudice", "La La Land"},
	"sci-fi":      {"Blade Runner 2049", "Arrival", "Interstellar"},
	"thriller":    {"Se7en", "Prisoners", "No Country for Old Men"},
}

var defaultExamples = []string{"The Shawshank Redemption", "The Dark Knight", "Inception"}

// spareExamples fill the list when the movie is itself one of the examples.
var spareExamples = []string{"Pulp Fiction", "Parasite"}

// Fallback builds a complete recommendation without the model. The verdict
// follows the same rating threshold as WorthWatching.
func Fallback(movie domain.Movie) string {
	genre, examples := examplesFor(movie)

	header := fmt.Sprintf("%q", movie.Title)
	if movie.Year != "" && !strings.EqualFold(movie.Year, "N/A") {
		header += " (" + movie.Year + ")"
	}

	var quality string
	if domain.IsWorthWatching(movie.Rating) {
		quality = "is a highly rated pick that is well worth your time"
	} else {
		quality = "gets a more mixed reception, so go in with tempered expectations"
	}
	if rating, ok := domain.ParseRating(movie.Rating); ok {
		quality = fmt.Sprintf("%s with a %.1f/10 rating", quality, rating)
	}

	kind := "movie"
	if genre != "" {
		kind = strings.ToLower(genre) + " movie"
	}
	return Truncate(fmt.Sprintf("%s %s. It should appeal to anyone in the mood for a %s. %s %s.",
		header, quality, kind, similarMarker, strings.Join(examples, ", ")))
}

// examplesFor returns the first listed genre with a table entry and three
// comparable titles other than the movie itself.
func examplesFor(movie domain.Movie) (string, []string) {
	for _, raw := range strings.Split(movie.Genre, ",") {
		genre := strings.TrimSpace(raw)
		key := strings.ToLower(genre)
		if key == "science fiction" {
			key = "sci-fi"
		}
		if examples, ok := genreExamples[key]; ok {
			return genre, pickThree(examples, movie.Title)
		}
	}
	return domain.PrimaryGenre(movie.Genre), pickThree(defaultExamples, movie.Title)
}

func pickThree(examples []string, exclude string) []string {
	out := make([]string, 0, 3)
	for _, title := range examples {
		if !strings.EqualFold(title, exclude) {
			out = append(out, title)
		}
	}
	for _, title := range append(append([]string(nil), defaultExamples...), spareExamples...) {
		if len(out) >= 3 {
			break
		}
		if !strings.EqualFold(title, exclude) && !contains(out, title) {
			out = append(out, title)
		}
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// Examples returns three comparable titles for a comma-separated genre
// list, never including exclude.
func Examples(genre, exclude string) []string {
	_, examples := examplesFor(domain.Movie{Title: exclude, Genre: genre})
	return examples
}
