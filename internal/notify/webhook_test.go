package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusbook/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestWebhookSender(t *testing.T) {
	var gotUID, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID = r.Header.Get("X-Notification-UID")
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(ts.Close)

	sender := NewWebhookSender(ts.URL, time.Second)
	err := sender.Send(context.Background(), &models.Notification{
		UID:     "uid-1",
		UserID:  1,
		Payload: `{"type":"booking_created"}`,
	})
	assert.NoError(t, err)
	assert.Equal(t, "uid-1", gotUID)
	assert.Contains(t, gotBody, "booking_created")
}

func TestWebhookSenderRejectsErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	sender := NewWebhookSender(ts.URL, time.Second)
	err := sender.Send(context.Background(), &models.Notification{UID: "uid-2", Payload: "{}"})
	assert.Error(t, err)
}
