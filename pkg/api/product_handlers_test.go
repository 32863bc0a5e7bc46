package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont-labs/memberhub/pkg/auth"
	"github.com/oakmont-labs/memberhub/pkg/observability"
	"github.com/oakmont-labs/memberhub/pkg/session"
	"github.com/oakmont-labs/memberhub/pkg/store"
	"github.com/oakmont-labs/memberhub/pkg/webhooks"
)

func TestProducts_AddForwardsToWorkflow(t *testing.T) {
	received := make(chan *webhooks.Event, 1)
	workflow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var event webhooks.Event
		require.NoError(t, json.Unmarshal(body, &event))
		received <- &event
		w.WriteHeader(http.StatusOK)
	}))
	defer workflow.Close()

	st := store.NewTestStore(t)
	mgr := session.NewManager(session.NewMemoryStore(), "memberhub_session", false, time.Hour)
	authenticator := auth.NewAuthenticator(st, auth.NewResolver(st), time.Hour)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	notifier := webhooks.NewNotifier(workflow.URL, "hook-secret", 5*time.Second, logger, nil)

	router := NewServer(st, mgr, authenticator, nil, notifier, nil, logger, nil).Router()

	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	cookie := login(t, router, "admin", "secret123")

	rr := doJSON(t, router, "POST", "/products/add", map[string]string{
		"name":        "Widget",
		"price":       "19.99",
		"description": "A fine widget",
	}, cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	env := decodeEnvelope(t, rr)
	assert.Equal(t, "Widget", env["name"])
	assert.Equal(t, 19.99, env["price"])

	select {
	case event := <-received:
		assert.Equal(t, webhooks.EventProductCreated, event.Type)
		assert.Equal(t, "Widget", event.Data["name"])
		assert.Equal(t, 19.99, event.Data["price"])
		assert.Equal(t, "admin", event.Data["submitted_by"])
	case <-time.After(5 * time.Second):
		t.Fatal("workflow endpoint never received the event")
	}
}

func TestProducts_AddValidation(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	cookie := login(t, router, "admin", "secret123")

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"price": "10"}},
		{"bad price", map[string]string{"name": "Widget", "price": "cheap"}},
		{"negative price", map[string]string{"name": "Widget", "price": "-1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, router, "POST", "/products/add", tc.body, cookie)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestProducts_Form(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "admin", "secret123", auth.RoleAdmin)
	cookie := login(t, router, "admin", "secret123")

	rr := doJSON(t, router, "GET", "/products", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decodeEnvelope(t, rr)["workflow_enabled"])
}

func TestProducts_AddRequiresGrant(t *testing.T) {
	router, st, _ := newTestServer(t)
	createUser(t, st, "bob", "secret123", auth.RoleMember)
	cookie := login(t, router, "bob", "secret123")

	rr := doJSON(t, router, "GET", "/products", nil, cookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doJSON(t, router, "POST", "/products/add", map[string]string{
		"name":  "Widget",
		"price": "10",
	}, cookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
