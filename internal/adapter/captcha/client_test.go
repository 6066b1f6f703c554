package captcha

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVerifyURL = "https://captcha.test/siteverify"

func newMockedClient(t *testing.T) *Client {
	t.Helper()

	c := NewClient(testVerifyURL, "shh", time.Second)
	httpmock.ActivateNonDefault(c.http.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestVerifyAccepted(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, testVerifyURL,
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			assert.Equal(t, "shh", req.PostForm.Get("secret"))
			assert.Equal(t, "tok", req.PostForm.Get("response"))
			assert.Equal(t, "192.0.2.7", req.PostForm.Get("remoteip"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"success": true})
		})

	require.NoError(t, c.Verify(context.Background(), "tok", "192.0.2.7"))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestVerifyRejected(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, testVerifyURL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"success":     false,
			"error-codes": []string{"invalid-input-response"},
		}))

	err := c.Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "invalid-input-response")
}

func TestVerifyMissingTokenSkipsCall(t *testing.T) {
	c := newMockedClient(t)

	err := c.Verify(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestVerifyFailsClosed(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, "boom")},
		{"not json", httpmock.NewStringResponder(http.StatusOK, "<html>hi</html>")},
		{"transport error", httpmock.NewErrorResponder(errors.New("connection refused"))},
		{"timeout", httpmock.NewErrorResponder(context.DeadlineExceeded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMockedClient(t)
			httpmock.RegisterResponder(http.MethodPost, testVerifyURL, tt.responder)

			err := c.Verify(context.Background(), "tok", "")
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}
