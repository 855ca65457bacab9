package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Recommendation is one movie suggested for one question.
type Recommendation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Question   string    `json:"question"`
	MovieTitle string    `json:"movieTitle"`
	MovieID    int64     `json:"movieId"`
	Genres     []string  `json:"genres,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MovieID   int64     `json:"movieId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentView is a comment joined with its author for display.
type CommentView struct {
	ID        string    `json:"id"`
	MovieID   int64     `json:"movieId"`
	AuthorID  string    `json:"authorId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	DisplayAt string    `json:"displayAt"`
}

type Favorite struct {
	UserID    string    `json:"userId"`
	MovieID   int64     `json:"movieId"`
	CreatedAt time.Time `json:"createdAt"`
}

// MoodAnalysis is what the language model extracted from free text.
type MoodAnalysis struct {
	Genres   []string `json:"genres"`
	Keywords []string `json:"keywords"`
}

// Empty reports whether no genres were found.
func (m MoodAnalysis) Empty() bool {
	return len(m.Genres) == 0
}

// Movie is a catalog search result.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	VoteAverage float64 `json:"voteAverage"`
	VoteCount   int     `json:"voteCount"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genreIds,omitempty"`
}

type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	PhotoURL  string `json:"photoUrl,omitempty"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetail is the catalog detail record with credits.
type MovieDetail struct {
	Movie
	Tagline   string       `json:"tagline,omitempty"`
	Runtime   int          `json:"runtime,omitempty"`
	Genres    []Genre      `json:"genres"`
	Directors []string     `json:"directors,omitempty"`
	Cast      []CastMember `json:"cast"`
	Homepage  string       `json:"homepage,omitempty"`
}

// Provider is a streaming service offering a movie.
type Provider struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// HistoryEntry is one recommended movie inside a history group.
type HistoryEntry struct {
	Title     string    `json:"title"`
	MovieID   int64     `json:"movieId"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryGroup gathers every movie recommended for the same question.
type HistoryGroup struct {
	Question string         `json:"question"`
	LatestAt time.Time      `json:"latestAt"`
	Movies   []HistoryEntry `json:"movies"`
}
