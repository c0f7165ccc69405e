package remote

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

	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/receipt"
)

func TestHTTPStore_Create(t *testing.T) {
	var gotAuth, gotEmail, gotFileName, gotFileBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bills", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotEmail = r.FormValue("email")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotFileName = hdr.Filename
		gotFileBody = string(data)

		_ = json.NewEncoder(w).Encode(CreateResult{ID: "b1", FileURL: "http://files/k1", FileName: hdr.Filename, Key: "k1"})
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL+"/", "tok")
	res, err := s.Create(context.Background(), CreateRequest{
		Data:    &Form{Email: "a@b.c", File: &receipt.File{Name: "r.jpg", Data: []byte("jpegdata")}},
		Headers: Headers{NoContentType: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "b1", res.ID)
	assert.Equal(t, "http://files/k1", res.FileURL)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "a@b.c", gotEmail)
	assert.Equal(t, "r.jpg", gotFileName)
	assert.Equal(t, "jpegdata", gotFileBody)
}

func TestHTTPStore_Update(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/bills/b1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var b model.Bill
		require.NoError(t, json.NewDecoder(r.Body).Decode(&b))
		b.ID = "b1"
		_ = json.NewEncoder(w).Encode(b)
	}))
	defer srv.Close()

	data, err := json.Marshal(model.Bill{Name: "Taxi", Amount: 42})
	require.NoError(t, err)

	got, err := NewHTTPStore(srv.URL, "").Update(context.Background(), UpdateRequest{Data: data, Selector: "b1"})
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)
	assert.Equal(t, "Taxi", got.Name)
	assert.Equal(t, 42, got.Amount)
}

func TestHTTPStore_UpdateRequiresSelector(t *testing.T) {
	_, err := NewHTTPStore("http://unused", "").Update(context.Background(), UpdateRequest{Data: []byte("{}")})
	require.Error(t, err)
}

func TestHTTPStore_ListErrorsCarryStatusToken(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusUnauthorized} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := NewHTTPStore(srv.URL, "").List(context.Background())
		srv.Close()

		require.Error(t, err)
		var re *Error
		require.ErrorAs(t, err, &re)
		assert.Equal(t, status, re.Status)
		assert.Contains(t, err.Error(), "Erreur ")
	}
}

func TestHTTPStore_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode([]model.Bill{{ID: "1", Date: "2023-01-10"}, {ID: "2", Date: "2023-09-25"}})
	}))
	defer srv.Close()

	bills, err := NewHTTPStore(srv.URL, "").List(context.Background())
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "2023-09-25", bills[1].Date)
}

func TestFormEncodeWithoutFile(t *testing.T) {
	f := &Form{Email: "a@b.c"}
	body, ct, err := f.Encode()
	require.NoError(t, err)
	assert.Contains(t, ct, "multipart/form-data")
	assert.Contains(t, string(body), "a@b.c")
	assert.NotContains(t, string(body), `name="file"`)
}
