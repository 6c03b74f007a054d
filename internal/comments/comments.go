// Package comments trae y arma los comentarios recientes de todo el sitio
// para mostrar en un panel. Vacío e inalcanzable se tratan igual: lista vacía.
package comments

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dropDatabas3/coralbridge/internal/coral"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

// DateLayout es el formato de fecha que se muestra ("6 May 2024").
const DateLayout = "2 Jan 2006"

// GraphQL es lo que el fetcher necesita del cliente de Coral.
type GraphQL interface {
	Call(ctx context.Context, ep coral.Endpoint, op coral.Operation) (*coral.Response, error)
}

// Comment es un comentario listo para mostrar.
type Comment struct {
	ID         string    `json:"id"`
	RevisionID string    `json:"revision_id,omitempty"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"author_id"`
	Username   string    `json:"username"`
	AvatarURL  string    `json:"avatar_url"`
	StoryURL   string    `json:"story_url"`
	StoryTitle string    `json:"story_title,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Date       string    `json:"date"`
}

// Fetcher consulta los comentarios recientes.
type Fetcher struct {
	gql    GraphQL
	exists func(path string) bool
}

type Option func(*Fetcher)

// WithFileCheck reemplaza el chequeo de existencia de fotos (tests).
func WithFileCheck(exists func(path string) bool) Option {
	return func(f *Fetcher) { f.exists = exists }
}

func NewFetcher(gql GraphQL, opts ...Option) *Fetcher {
	f := &Fetcher{gql: gql, exists: fileExists}
	for _, o := range opts {
		o(f)
	}
	return f
}

type recentData struct {
	Comments *struct {
		Nodes []coral.Comment `json:"nodes"`
	} `json:"comments"`
}

// FetchRecent devuelve hasta limit comentarios, del más nuevo al más viejo.
// limit <= 0 devuelve vacío sin llamar a Coral. Nunca devuelve nil.
// Se saltean los comentarios sin autor o sin username.
func (f *Fetcher) FetchRecent(ctx context.Context, s settings.Settings, limit int) []Comment {
	out := []Comment{}
	if limit <= 0 {
		return out
	}
	log := logger.From(ctx).With(logger.Component("comments"))

	resp, err := f.gql.Call(ctx, coral.EndpointFrom(s), coral.Operation{
		Name:      "recentComments",
		Query:     coral.RecentCommentsQuery,
		Variables: map[string]any{"first": limit},
	})
	if err != nil || resp == nil {
		log.Debug("recent comments unavailable", logger.Err(err))
		return out
	}
	if resp.HasErrors() {
		log.Debug("recent comments query returned errors", logger.String("first_error", coral.Truncate(resp.FirstError(), coral.MaxRemoteDetail)))
	}

	var data recentData
	if err := resp.Decode(&data); err != nil {
		log.Debug("recent comments decode failed", logger.Err(err))
		return out
	}
	if data.Comments == nil {
		return out
	}

	avatars := NewAvatars(s.Display, f.exists)
	for _, n := range data.Comments.Nodes {
		if n.Username() == "" {
			continue
		}
		out = append(out, Comment{
			ID:         n.ID,
			RevisionID: n.RevisionID(),
			Body:       StripHTML(n.Body),
			AuthorID:   n.Author.ID,
			Username:   n.Author.Username,
			AvatarURL:  avatars.URL(n.Author.ID),
			StoryURL:   n.StoryURL(),
			StoryTitle: n.StoryTitle(),
			CreatedAt:  n.CreatedAt,
			Date:       formatDate(n.CreatedAt),
		})
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseLimit convierte el límite crudo como un cast a entero: espacios al
// inicio, signo opcional y los dígitos iniciales ("7abc" → 7). Sin dígitos o
// negativo → 0. Se satura en MaxInt32 (Int de GraphQL).
func ParseLimit(raw string) int {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 || neg {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return math.MaxInt32
	}
	return int(n)
}
