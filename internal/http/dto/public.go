// Package dto contiene los cuerpos JSON de la API HTTP.
package dto

import (
	"github.com/dropDatabas3/coralbridge/internal/comments"
)

// RecentCommentsResponse es la respuesta de GET /v1/comments/recent.
type RecentCommentsResponse struct {
	BgColor       string             `json:"bg_color"`
	DefaultAvatar string             `json:"default_avatar"`
	Limit         int                `json:"limit"`
	Comments      []comments.Comment `json:"comments"`
}
