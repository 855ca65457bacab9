package catalog

import "strings"

// genreIDs maps lower-cased genre names to TMDB genre ids. English names are
// TMDB's own; the Turkish ones are what older model prompts answered with.
var genreIDs = map[string]int{
	"action":          28,
	"adventure":       12,
	"animation":       16,
	"comedy":          35,
	"crime":           80,
	"documentary":     99,
	"drama":           18,
	"family":          10751,
	"fantasy":         14,
	"history":         36,
	"horror":          27,
	"music":           10402,
	"musical":         10402,
	"mystery":         9648,
	"romance":         10749,
	"science fiction": 878,
	"sci-fi":          878,
	"tv movie":        10770,
	"thriller":        53,
	"war":             10752,
	"western":         37,

	"aksiyon":     28,
	"macera":      12,
	"animasyon":   16,
	"komedi":      35,
	"suç":         80,
	"belgesel":    99,
	"dram":        18,
	"çocuk":       10751,
	"aile":        10751,
	"fantastik":   14,
	"tarih":       36,
	"korku":       27,
	"müzikal":     10402,
	"gizem":       9648,
	"romantizm":   10749,
	"romantik":    10749,
	"bilim kurgu": 878,
	"tv filmi":    10770,
	"gerilim":     53,
	"savaş":       10752,
	"eğitici":     99,
	"spor":        99,
}

// GenreIDs resolves names to ids, dropping unknown names and duplicates.
func GenreIDs(names []string) []int {
	out := make([]int, 0, len(names))
	seen := make(map[int]struct{}, len(names))
	for _, name := range names {
		id, ok := genreIDs[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
