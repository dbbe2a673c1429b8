package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: "  "})
	assert.Error(t, err)
}

func TestClient_SendPostsPayload(t *testing.T) {
	var got Payload
	var auth, contentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	client, err := NewClient(Config{Endpoint: ts.URL, APIKey: "SG.key"})
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), Message{
		From:        "backup@example.com",
		To:          "ops@example.com, dba@example.com",
		Subject:     Subject("MongoDB Backup", "orders", "2024-01-01_00-00-00"),
		HTML:        "<p>hi</p>",
		Attachments: []Attachment{ArchiveAttachment("orders_backup_2024-01-01_00-00-00.zip", "UEsDBA==")},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.True(t, resp.OK())

	assert.Equal(t, "Bearer SG.key", auth)
	assert.Equal(t, "application/json", contentType)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, []Address{{Email: "ops@example.com"}, {Email: "dba@example.com"}}, got.Personalizations[0].To)
	assert.Equal(t, "backup@example.com", got.From.Email)
	assert.Equal(t, "MongoDB Backup: orders at 2024-01-01_00-00-00", got.Subject)
	assert.Equal(t, []Content{{Type: "text/html", Value: "<p>hi</p>"}}, got.Content)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "UEsDBA==", got.Attachments[0].Content)
	assert.Equal(t, ZipMIMEType, got.Attachments[0].Type)
	assert.Equal(t, "orders_backup_2024-01-01_00-00-00.zip", got.Attachments[0].Filename)
}

func TestClient_SendReturnsErrorStatusAndBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"errors":[{"message":"rate limited"}]}`)
	}))
	defer ts.Close()

	client, err := NewClient(Config{Endpoint: ts.URL, APIKey: "SG.key"})
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), Message{From: "a@example.com", To: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.Equal(t, `{"errors":[{"message":"rate limited"}]}`, string(resp.Body))
}

func TestClient_SendTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	client, err := NewClient(Config{Endpoint: url, APIKey: "SG.key"})
	require.NoError(t, err)

	_, err = client.Send(context.Background(), Message{From: "a@example.com", To: "b@example.com"})
	assert.Error(t, err)
}

func TestPayload_UntrustedValuesStayValidJSON(t *testing.T) {
	msg := Message{
		From:    "a@example.com",
		To:      "b@example.com",
		Subject: Subject(`Prefix "quoted"`, `orders","x":"y`, "ts"),
		HTML:    "<p>ok</p>",
	}
	data, err := json.Marshal(NewPayload(msg))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, `Prefix "quoted": orders","x":"y at ts`, decoded["subject"])
	assert.NotContains(t, decoded, "x")
}

func TestRenderHTML_EscapesValues(t *testing.T) {
	html, err := RenderHTML(BackupReport{
		Database:    `<script>alert("x")</script>`,
		Timestamp:   "2024-01-01_00-00-00",
		Address:     "localhost:27017",
		ArchiveName: "orders_backup_2024-01-01_00-00-00.zip",
		SizeBytes:   2048,
		SHA256:      "abc123",
		RunID:       "run-1",
	})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "localhost:27017")
	assert.Contains(t, html, "2.0 KiB")
	assert.Contains(t, html, "abc123")
	assert.NotContains(t, html, "Auth database")
}

func TestRenderHTML_ShowsAuthDatabase(t *testing.T) {
	html, err := RenderHTML(BackupReport{Database: "orders", AuthDatabase: "admin"})
	require.NoError(t, err)
	assert.Contains(t, html, "Auth database")
	assert.True(t, strings.Contains(html, ">admin<"))
}
