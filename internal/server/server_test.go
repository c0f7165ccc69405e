package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/receipt"
	"github.com/billed-dev/billed/internal/remote"
	"github.com/billed-dev/billed/internal/server/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestServer starts the service on a temp database with seeded accounts.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ts := httptest.NewUnstartedServer(nil)
	srv, err := New(store, Options{
		PublicURL: "http://" + ts.Listener.Addr().String(),
		UploadDir: filepath.Join(dir, "uploads"),
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, srv.Seed(context.Background(), []Account{
		{Email: "employee@test.com", Password: "employee", Type: model.RoleEmployee},
		{Email: "other@test.com", Password: "other", Type: model.RoleEmployee},
		{Email: "admin@test.com", Password: "admin", Type: model.RoleAdmin},
	}))

	ts.Config.Handler = srv.Handler()
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

func login(t *testing.T, base, email, password string) *remote.HTTPStore {
	t.Helper()
	user, err := remote.NewHTTPStore(base, "").Login(context.Background(), email, password)
	require.NoError(t, err)
	require.NotEmpty(t, user.Token)
	return remote.NewHTTPStore(base, user.Token)
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	anon := remote.NewHTTPStore(ts.URL, "")

	user, err := anon.Login(context.Background(), "admin@test.com", "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Type)
	assert.Equal(t, "admin@test.com", user.Email)

	_, err = anon.Login(context.Background(), "admin@test.com", "wrong")
	assert.Equal(t, remote.KindUnauthorized, remote.Classify(err))

	_, err = anon.Login(context.Background(), "nobody@test.com", "x")
	assert.Equal(t, remote.KindUnauthorized, remote.Classify(err))
}

func TestBillsRequireToken(t *testing.T) {
	ts := setupTestServer(t)

	_, err := remote.NewHTTPStore(ts.URL, "").List(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Erreur 401", err.Error())

	_, err = remote.NewHTTPStore(ts.URL, "forged").List(context.Background())
	assert.Equal(t, remote.KindUnauthorized, remote.Classify(err))
}

func TestCreateUpdateList(t *testing.T) {
	ts := setupTestServer(t)
	store := login(t, ts.URL, "employee@test.com", "employee")
	ctx := context.Background()

	created, err := store.Create(ctx, remote.CreateRequest{
		Data:    &remote.Form{Email: "employee@test.com", File: &receipt.File{Name: "Ticket.JPG", Data: []byte("jpeg-bytes")}},
		Headers: remote.Headers{NoContentType: true},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ticket.JPG", created.FileName)
	assert.True(t, strings.HasPrefix(created.FileURL, ts.URL+"/files/"))
	assert.True(t, strings.HasSuffix(created.Key, ".jpg"))

	resp, err := http.Get(created.FileURL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jpeg-bytes", string(body))

	bill := model.Bill{
		ID: created.ID, Email: "someone-else@test.com", Type: model.CategoryTransports, Name: "Taxi",
		Amount: 30, Date: "2023-01-10", Pct: 20, FileURL: created.FileURL, FileName: created.FileName,
		Status: model.StatusAccepted,
	}
	data, err := json.Marshal(bill)
	require.NoError(t, err)
	updated, err := store.Update(ctx, remote.UpdateRequest{Data: data, Selector: created.ID})
	require.NoError(t, err)

	assert.Equal(t, "employee@test.com", updated.Email, "owner is immutable")
	assert.Equal(t, model.StatusPending, updated.Status, "employees cannot review their own bills")
	assert.Equal(t, "Taxi", updated.Name)

	bills, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "Taxi", bills[0].Name)
	assert.Equal(t, created.FileURL, bills[0].FileURL)
}

func TestCreateWithoutReceipt(t *testing.T) {
	ts := setupTestServer(t)
	store := login(t, ts.URL, "employee@test.com", "employee")

	created, err := store.Create(context.Background(), remote.CreateRequest{
		Data:    &remote.Form{Email: "employee@test.com"},
		Headers: remote.Headers{NoContentType: true},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, created.FileURL)
	assert.Equal(t, created.ID, created.Key)
}

func TestCreateRejectsBadReceipt(t *testing.T) {
	ts := setupTestServer(t)
	store := login(t, ts.URL, "employee@test.com", "employee")

	_, err := store.Create(context.Background(), remote.CreateRequest{
		Data:    &remote.Form{Email: "employee@test.com", File: &receipt.File{Name: "facture.pdf"}},
		Headers: remote.Headers{NoContentType: true},
	})
	require.Error(t, err)
	assert.Equal(t, "Erreur 400", err.Error())
}

func TestCreateForAnotherUserRejected(t *testing.T) {
	ts := setupTestServer(t)
	store := login(t, ts.URL, "employee@test.com", "employee")

	_, err := store.Create(context.Background(), remote.CreateRequest{
		Data:    &remote.Form{Email: "other@test.com"},
		Headers: remote.Headers{NoContentType: true},
	})
	assert.Equal(t, remote.KindUnauthorized, remote.Classify(err))
}

func TestListIsScopedAndAdminReviews(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	employee := login(t, ts.URL, "employee@test.com", "employee")
	other := login(t, ts.URL, "other@test.com", "other")
	admin := login(t, ts.URL, "admin@test.com", "admin")

	mine, err := employee.Create(ctx, remote.CreateRequest{Data: &remote.Form{}, Headers: remote.Headers{NoContentType: true}})
	require.NoError(t, err)
	_, err = other.Create(ctx, remote.CreateRequest{Data: &remote.Form{}, Headers: remote.Headers{NoContentType: true}})
	require.NoError(t, err)

	bills, err := employee.List(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, mine.ID, bills[0].ID)

	// Another employee cannot see or touch it.
	_, err = other.Update(ctx, remote.UpdateRequest{Data: []byte(`{"name":"x"}`), Selector: mine.ID})
	assert.Equal(t, remote.KindNotFound, remote.Classify(err))

	all, err := admin.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	reviewed, err := admin.Update(ctx, remote.UpdateRequest{
		Data:     []byte(`{"status":"refused","commentAdmin":"justificatif illisible"}`),
		Selector: mine.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRefused, reviewed.Status)
	assert.Equal(t, "employee@test.com", reviewed.Email)
}

func TestUpdateUnknownBill(t *testing.T) {
	ts := setupTestServer(t)
	store := login(t, ts.URL, "employee@test.com", "employee")

	_, err := store.Update(context.Background(), remote.UpdateRequest{Data: []byte(`{}`), Selector: "missing"})
	require.Error(t, err)
	assert.Equal(t, "Erreur 404", err.Error())
}

func TestMetrics(t *testing.T) {
	ts := setupTestServer(t)
	store := login(t, ts.URL, "employee@test.com", "employee")
	_, err := store.List(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(body), `billed_bills_total{op="list"} 1`)
	assert.Contains(t, string(body), `billed_http_requests_total{method="GET",route="/bills",status="200"} 1`)
}

func TestTokenManager(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Generate("employee@test.com", model.RoleEmployee)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "employee@test.com", claims.Email)
	assert.Equal(t, model.RoleEmployee, claims.Type)

	_, err = NewTokenManager("other", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewTokenManager("secret", -time.Minute).Generate("e@test.com", model.RoleEmployee)
	require.NoError(t, err)
	_, err = m.Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("employee")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "employee"))
	assert.ErrorIs(t, CheckPassword(hash, "nope"), ErrInvalidCredentials)
}
