package line

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplyURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.line.me", "https://api.line.me/v2/bot/message/reply"},
		{"https://api.line.me/", "https://api.line.me/v2/bot/message/reply"},
		{"http://localhost:8080", "http://localhost:8080/v2/bot/message/reply"},
		{"", "https://api.line.me/v2/bot/message/reply"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, replyURL(tc.base), "base=%q", tc.base)
	}
}

func TestNewClient_EmptyToken(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "access token")
}

func TestReplyText_HappyPath(t *testing.T) {
	var gotReq replyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/bot/message/reply", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer channel-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient("channel-token", WithBaseURL(srv.URL))
	require.NoError(t, err)

	require.NoError(t, c.ReplyText(context.Background(), "tok-1", "你好！最近怎麼樣？"))
	require.Equal(t, "tok-1", gotReq.ReplyToken)
	require.Len(t, gotReq.Messages, 1)
	require.Equal(t, "text", gotReq.Messages[0].Type)
	require.Equal(t, "你好！最近怎麼樣？", gotReq.Messages[0].Text)
}

func TestReplyText_TruncatesLongText(t *testing.T) {
	var gotReq replyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient("channel-token", WithBaseURL(srv.URL))
	require.NoError(t, err)

	long := strings.Repeat("字", maxReplyTextLen+123)
	require.NoError(t, c.ReplyText(context.Background(), "tok-1", long))
	require.Equal(t, maxReplyTextLen, len([]rune(gotReq.Messages[0].Text)))
}

func TestReplyText_EmptyToken(t *testing.T) {
	c, err := NewClient("channel-token")
	require.NoError(t, err)
	err = c.ReplyText(context.Background(), " ", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "reply token")
}

func TestReplyText_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Invalid reply token"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient("channel-token", WithBaseURL(srv.URL))
	require.NoError(t, err)

	err = c.ReplyText(context.Background(), "tok-used", "hi")
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusBadRequest, statusErr.HTTPStatusCode())
	require.Contains(t, statusErr.Body, "Invalid reply token")
}
