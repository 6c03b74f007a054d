package errors

import (
	stderrors "errors"

	"github.com/dropDatabas3/coralbridge/internal/coral"
	"github.com/dropDatabas3/coralbridge/internal/moderation"
	"github.com/dropDatabas3/coralbridge/internal/provisioning"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

// FromCoral mapea los errores del dominio a AppError.
// El texto remoto ya viene truncado a 200 caracteres.
func FromCoral(err error) *AppError {
	var (
		appErr  *AppError
		remote  *coral.RemoteError
		provErr *provisioning.Error
	)
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, moderation.ErrMissingIDs):
		return ErrMissingFields.WithDetail("comment_id and revision_id are required").WithCause(err)
	case stderrors.Is(err, moderation.ErrUnknownAction):
		return ErrInvalidParameter.WithDetail("action must be approve or reject").WithCause(err)
	case stderrors.As(err, &provErr) && provErr.Status == settings.StatusMissingFields:
		return ErrMissingFields.WithDetail("domain, email and password are required").WithCause(err)
	case stderrors.Is(err, coral.ErrNotConfigured):
		return ErrCoralNotConfigured.WithCause(err)
	case stderrors.Is(err, coral.ErrTransport):
		e := ErrCoralUnreachable.WithCause(err)
		if stderrors.Is(err, moderation.ErrDecisionUnavailable) {
			e = e.WithDetail(moderation.UnavailableMessage)
		}
		return e
	case stderrors.As(err, &remote):
		return ErrCoralRejected.WithDetail(coral.Truncate(remote.Message, coral.MaxRemoteDetail)).WithCause(err)
	case stderrors.As(err, &provErr):
		return ErrCoralRejected.WithDetail(provErr.Detail).WithCause(err)
	case stderrors.Is(err, moderation.ErrDecisionUnavailable):
		return ErrCoralUnreachable.WithDetail(moderation.UnavailableMessage).WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}
