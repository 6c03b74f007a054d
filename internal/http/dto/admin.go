package dto

import "github.com/dropDatabas3/coralbridge/internal/settings"

// SettingsResponse es la vista de settings para el admin. Nunca incluye el token completo.
type SettingsResponse struct {
	Domain            string `json:"domain"`
	SSOSecretSet      bool   `json:"sso_secret_set"`
	TokenPreview      string `json:"token_preview"`
	TokenStatus       string `json:"token_status"`
	TokenStatusDetail string `json:"token_status_detail,omitempty"`
	RecentLimit       string `json:"recent_limit"`
	BgColor           string `json:"bg_color"`
	PhotoPath         string `json:"photo_path"`
	PhotoURL          string `json:"photo_url"`
	DefaultPhoto      string `json:"default_photo"`
	QueuePageSize     int    `json:"queue_page_size"`
}

// SettingsFrom arma la vista a partir de Settings.
func SettingsFrom(s settings.Settings) SettingsResponse {
	return SettingsResponse{
		Domain:            s.Domain,
		SSOSecretSet:      s.SSOSecret != "",
		TokenPreview:      s.TokenPreview(),
		TokenStatus:       string(s.TokenStatus),
		TokenStatusDetail: s.TokenStatus.Describe(),
		RecentLimit:       s.Display.RecentLimit,
		BgColor:           s.Display.BgColor,
		PhotoPath:         s.Display.PhotoPath,
		PhotoURL:          s.Display.PhotoURL,
		DefaultPhoto:      s.Display.DefaultPhoto,
		QueuePageSize:     s.QueuePageSize,
	}
}

// ProvisionRequest es el cuerpo de POST /v1/admin/token.
type ProvisionRequest struct {
	Domain   string `json:"domain"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProvisionResponse: el token nunca vuelve al cliente, solo su preview.
type ProvisionResponse struct {
	Status       string `json:"status"`
	TokenPreview string `json:"token_preview"`
}

// DecisionRequest es el cuerpo de POST /v1/admin/moderation/{action}.
type DecisionRequest struct {
	CommentID  string `json:"comment_id"`
	RevisionID string `json:"revision_id"`
}
