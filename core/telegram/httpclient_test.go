package telegram

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRetryTransport(t *testing.T) {
	var bodies []string
	rt := &retryTransport{
		attempts: 3,
		backoff:  time.Millisecond,
		base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			b, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(b))
			if len(bodies) < 3 {
				return nil, &net.OpError{Op: "dial", Err: errors.New("refused")}
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("chat_id=1"))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"chat_id=1", "chat_id=1", "chat_id=1"}, bodies)
}

func TestRetryTransport_PermanentError(t *testing.T) {
	calls := 0
	boom := errors.New("malformed")
	rt := &retryTransport{
		attempts: 3,
		backoff:  time.Millisecond,
		base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, boom
		}),
	}
	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestBuildHTTPClient_CoversLongPoll(t *testing.T) {
	c := BuildHTTPClient(50 * time.Second)
	require.Greater(t, c.Timeout, 50*time.Second)

	c = BuildHTTPClient(0)
	require.Equal(t, defaultClientTimeout, c.Timeout)
}
