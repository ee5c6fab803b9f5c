package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/portalctl/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	return client, server
}

func TestCurrentUserUnwrapsEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/method/company_access_portal.api.user_api.get_current_user_info", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"email":"admin@example.com","roles":["Company Admin","Company Employee"]}}`))
	}))

	info, err := client.CurrentUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "admin@example.com", info.Email)
	assert.Equal(t, []string{"Company Admin", "Company Employee"}, info.Roles)
}

func TestAuthFailureClassification(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := client.ListUsers(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsAuthFailure(err), "status %d must map to an AUTHZ failure", status)
	}
}

func TestDomainFailureMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "plain message field",
			body: `{"message":"Role already exists"}`,
			want: "Role already exists",
		},
		{
			name: "nested server messages",
			body: `{"_server_messages":"[\"{\\\"message\\\": \\\"Cannot delete role: role is in use\\\"}\"]"}`,
			want: "Cannot delete role: role is in use",
		},
		{
			name: "server messages with plain string element",
			body: `{"_server_messages":"[\"\\\"Not permitted\\\"\"]"}`,
			want: "Not permitted",
		},
		{
			name: "absent message",
			body: `{}`,
			want: "request failed with status 417",
		},
		{
			name: "unparseable body",
			body: `<html>boom</html>`,
			want: "request failed with status 417",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusExpectationFailed)
				_, _ = w.Write([]byte(tt.body))
			}))

			err := client.CreateRole(context.Background(), "Task Manager")
			require.Error(t, err)

			assert.True(t, errors.IsDomainFailure(err))
			perr := &errors.PortalError{}
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.want, perr.Message)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client, err := NewClient(server.URL)
	require.NoError(t, err)
	server.Close()

	_, err = client.ListRoles(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransportFailure(err))
}

func TestLoginRejectionBecomesAuthenticationError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["usr"])
		assert.Equal(t, "secret", body["pwd"])

		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid login credentials"}`))
	}))

	err := client.Login(context.Background(), "user@example.com", "secret")
	require.Error(t, err)

	assert.True(t, errors.IsAuthentication(err))
	assert.False(t, errors.IsAuthFailure(err), "a rejected login is not a session-invalidation signal")

	perr := &errors.PortalError{}
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Invalid login credentials", perr.Message)
}

func TestRolePermissionsDecodesWireFormat(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Company Employee", r.URL.Query().Get("role"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":[
			{"parent":"Invoice","read":1,"write":0,"create":0,"delete":0,"submit":0},
			{"parent":"Purchase Order","read":1,"write":1,"create":1,"delete":0,"submit":1}
		]}`))
	}))

	rows, err := client.RolePermissions(context.Background(), "Company Employee")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, PermissionRow{DocType: "Invoice", Read: true}, rows[0])
	assert.Equal(t, PermissionRow{
		DocType: "Purchase Order",
		Read:    true, Write: true, Create: true, Submit: true,
	}, rows[1])
}

func TestUpdatePermissionSubmitsFullRow(t *testing.T) {
	var got PermissionUpdate

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Permissions updated successfully"}`))
	}))

	update := PermissionUpdate{
		Role:    "Company Employee",
		DocType: "Invoice",
		Read:    1,
		Write:   1,
	}
	require.NoError(t, client.UpdatePermission(context.Background(), update))

	assert.Equal(t, update, got)
}

func TestListTasksUsesResourceEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/resource/Company Task", r.URL.Path)
		assert.Equal(t, `["name","title","status"]`, r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"name":"TASK-0001","title":"File the report","status":"Open"}]}`))
	}))

	tasks, err := client.ListTasks(context.Background())
	require.NoError(t, err)

	require.Len(t, tasks, 1)
	assert.Equal(t, Task{Name: "TASK-0001", Title: "File the report", Status: "Open"}, tasks[0])
}

func TestMalformedSuccessPayload(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))

	_, err := client.ListRoles(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransportFailure(err))
}
