package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coralbridge/internal/coral"
	"github.com/dropDatabas3/coralbridge/internal/moderation"
	"github.com/dropDatabas3/coralbridge/internal/provisioning"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, ErrMissingFields.WithDetail("x"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "MISSING_FIELDS", body["code"])
	assert.Equal(t, "x", body["detail"])

	// los predefinidos no se mutan
	assert.Empty(t, ErrMissingFields.Detail)
}

func TestWriteError_UnknownIs500(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, stderrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestFromCoral(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{coral.ErrNotConfigured, 503, "CORAL_NOT_CONFIGURED"},
		{&coral.TransportError{Op: "x", Err: stderrors.New("timeout")}, 502, "CORAL_UNREACHABLE"},
		{coral.NewRemoteError("approveComment", "revision mismatch"), 422, "CORAL_REJECTED"},
		{moderation.ErrMissingIDs, 400, "MISSING_FIELDS"},
		{fmt.Errorf("%w: %q", moderation.ErrUnknownAction, "x"), 400, "INVALID_PARAMETER"},
		{fmt.Errorf("%w: %w", moderation.ErrDecisionUnavailable, coral.ErrNotConfigured), 503, "CORAL_NOT_CONFIGURED"},
		{&provisioning.Error{Status: settings.StatusMissingFields}, 400, "MISSING_FIELDS"},
		{&provisioning.Error{Status: settings.StatusTokenFailed, Detail: "FORBIDDEN"}, 422, "CORAL_REJECTED"},
		{stderrors.New("other"), 500, "INTERNAL_SERVER_ERROR"},
	}
	for _, c := range cases {
		e := FromCoral(c.err)
		assert.Equal(t, c.status, e.HTTPStatus, c.err.Error())
		assert.Equal(t, c.code, e.Code, c.err.Error())
	}

	e := FromCoral(fmt.Errorf("%w: %w", moderation.ErrDecisionUnavailable, &coral.TransportError{Op: "x", Err: stderrors.New("t")}))
	assert.Equal(t, moderation.UnavailableMessage, e.Detail)
	assert.Equal(t, "revision mismatch", FromCoral(coral.NewRemoteError("a", "revision mismatch")).Detail)
	assert.Nil(t, FromCoral(nil))
}
