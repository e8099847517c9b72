package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-service/logger"
)

func TestLoginMessage(t *testing.T) {
	assert.Contains(t, loginMessage("admin", "10.0.0.1", true), "Admin login for `admin` from 10.0.0.1")
	assert.Contains(t, loginMessage("root", "10.0.0.2", false), "Failed admin login for `root`")
}

func TestSlack_NotifyLogin(t *testing.T) {
	var gotChannel, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotChannel = r.FormValue("channel")
		gotText = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1.0"}`))
	}))
	defer srv.Close()

	s := NewSlack("xoxb-test", "C123", logger.NewNop(), slack.OptionAPIURL(srv.URL+"/"))

	err := s.NotifyLogin(context.Background(), "admin", "127.0.0.1", false)
	require.NoError(t, err)
	assert.Equal(t, "C123", gotChannel)
	assert.Contains(t, gotText, "Failed admin login")
}

func TestSlack_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	s := NewSlack("xoxb-test", "nope", logger.NewNop(), slack.OptionAPIURL(srv.URL+"/"))

	err := s.NotifyLogin(context.Background(), "admin", "127.0.0.1", true)
	assert.ErrorContains(t, err, "channel_not_found")
}
