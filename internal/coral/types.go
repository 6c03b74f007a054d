package coral

import "time"

// GraphQLError es un elemento del array "errors" de una respuesta GraphQL.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Author del comentario. Puede faltar (usuario borrado/anónimo).
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// StoryMetadata trae el título de la historia, opcional.
type StoryMetadata struct {
	Title string `json:"title"`
}

// Story a la que pertenece el comentario.
type Story struct {
	URL      string         `json:"url"`
	Metadata *StoryMetadata `json:"metadata"`
}

// Revision del comentario; su id es obligatorio para moderar.
type Revision struct {
	ID string `json:"id"`
}

// Comment es el nodo de comentario tal como lo devuelve la API GraphQL.
// Author, Story y Revision son opcionales en lectura.
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *Author   `json:"author"`
	Story     *Story    `json:"story"`
	Revision  *Revision `json:"revision"`
}

// RevisionID devuelve el id de revisión o "" si no vino.
func (c Comment) RevisionID() string {
	if c.Revision == nil {
		return ""
	}
	return c.Revision.ID
}

// Username devuelve el username del autor o "" si no hay autor.
func (c Comment) Username() string {
	if c.Author == nil {
		return ""
	}
	return c.Author.Username
}

// StoryTitle devuelve el título de la historia o "".
func (c Comment) StoryTitle() string {
	if c.Story == nil || c.Story.Metadata == nil {
		return ""
	}
	return c.Story.Metadata.Title
}

// StoryURL devuelve la URL de la historia o "".
func (c Comment) StoryURL() string {
	if c.Story == nil {
		return ""
	}
	return c.Story.URL
}
