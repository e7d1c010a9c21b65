package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGateErrorsUseClientMessages(t *testing.T) {
	u := Unauthorized()
	require.Equal(t, http.StatusUnauthorized, u.Status)
	require.Equal(t, Body{Error: true, Message: "Unauthorized Access"}, u.Body())

	f := Forbidden()
	require.Equal(t, http.StatusForbidden, f.Status)
	require.Equal(t, "Forbidden Access", f.Body().Message)
}

func TestFrom(t *testing.T) {
	require.Nil(t, From(nil))

	wrapped := fmt.Errorf("insert room: %w", Conflict("room is already booked"))
	got := From(wrapped)
	require.Equal(t, http.StatusConflict, got.Status)
	require.True(t, Is(wrapped, KindConflict))

	timeout := From(fmt.Errorf("find: %w", context.DeadlineExceeded))
	require.Equal(t, http.StatusGatewayTimeout, timeout.Status)

	internal := From(errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, internal.Status)
	require.Equal(t, KindInternal, internal.Kind)
	require.ErrorContains(t, internal, "boom")
}

func TestUpstreamUnwraps(t *testing.T) {
	cause := errors.New("card_declined")
	err := Upstream("payment processor", cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusBadGateway, err.Status)
	require.Equal(t, "payment processor request failed", err.Message)
}
