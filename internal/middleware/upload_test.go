package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pet-registry/internal/domain/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

type memStore struct {
	saved   map[string][]byte
	deleted []string
	err     error
}

func (m *memStore) Save(_ context.Context, originalName string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	name := "stored-" + originalName
	m.saved[name] = b
	return name, nil
}

func (m *memStore) Delete(_ context.Context, name string) error {
	delete(m.saved, name)
	m.deleted = append(m.deleted, name)
	return nil
}

// splitCoordinates es un parser fijo: el parseo real se prueba en cats.
func splitCoordinates(raw string) (float64, float64, error) {
	known := map[string][2]float64{"24.95, 60.18": {24.95, 60.18}, "1,2": {1, 2}}
	if p, ok := known[raw]; ok {
		return p[0], p[1], nil
	}
	failures := map[string]string{
		"1,north": "coordinates latitude is not a number",
		"NaN,NaN": "coordinates longitude is not a number",
	}
	if msg, ok := failures[raw]; ok {
		return 0, 0, errors.New(msg)
	}
	return 0, 0, errors.New(`coordinates must be "longitude,latitude"`)
}

func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("cat", "tom.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/cats", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(WithPrincipal(req.Context(), &access.Principal{ID: "u-1", Role: access.RoleUser}))
}

type uploadResult struct {
	code   int
	body   string
	called bool
	up     Upload
	ok     bool
}

func runUpload(opts UploadOptions, req *http.Request) uploadResult {
	return runUploadWithStatus(opts, req, http.StatusNoContent)
}

// runUploadWithStatus simula una operación que responde status.
func runUploadWithStatus(opts UploadOptions, req *http.Request, status int) uploadResult {
	if opts.ParseCoordinates == nil {
		opts.ParseCoordinates = splitCoordinates
	}
	var res uploadResult
	h := Uploads(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res.called = true
		res.up, res.ok = GetUpload(r.Context())
		w.WriteHeader(status)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res.code = rec.Code
	res.body = rec.Body.String()
	return res
}

func TestUploads_SavesImageAndCoordinates(t *testing.T) {
	store := &memStore{}
	req := multipartRequest(t, map[string]string{"coordinates": "24.95, 60.18"}, pngBytes)

	res := runUpload(UploadOptions{Store: store, DefaultLon: 1, DefaultLat: 2}, req)
	require.True(t, res.called)
	require.True(t, res.ok)
	assert.Equal(t, "stored-tom.png", res.up.Filename)
	assert.Equal(t, 24.95, res.up.Lon)
	assert.Equal(t, 60.18, res.up.Lat)
	assert.Equal(t, pngBytes, store.saved["stored-tom.png"])
}

func TestUploads_DefaultLocation(t *testing.T) {
	req := multipartRequest(t, nil, pngBytes)

	res := runUpload(UploadOptions{Store: &memStore{}, DefaultLon: 24.94, DefaultLat: 60.17}, req)
	require.True(t, res.ok)
	assert.Equal(t, 24.94, res.up.Lon)
	assert.Equal(t, 60.17, res.up.Lat)
}

func TestUploads_PassThrough(t *testing.T) {
	store := &memStore{}

	// sin archivo
	res := runUpload(UploadOptions{Store: store}, multipartRequest(t, map[string]string{"cat_name": "Tom"}, nil))
	assert.True(t, res.called)
	assert.False(t, res.ok)

	// no multipart
	req := httptest.NewRequest(http.MethodPost, "/cats", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	res = runUpload(UploadOptions{Store: store}, req)
	assert.True(t, res.called)
	assert.False(t, res.ok)

	// sin principal no se guarda
	req = multipartRequest(t, nil, pngBytes)
	req = req.WithContext(context.Background())
	res = runUpload(UploadOptions{Store: store}, req)
	assert.True(t, res.called)
	assert.False(t, res.ok)

	assert.Empty(t, store.saved)
}

func TestUploads_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		opts   UploadOptions
		fields map[string]string
		file   []byte
		status int
		msg    string
	}{
		{"not an image", UploadOptions{Store: &memStore{}}, nil, []byte("plain text"), http.StatusBadRequest, "file must be an image"},
		{"bad coordinates", UploadOptions{Store: &memStore{}}, map[string]string{"coordinates": "1;2"}, pngBytes, http.StatusBadRequest, "longitude,latitude"},
		{"bad latitude", UploadOptions{Store: &memStore{}}, map[string]string{"coordinates": "1,north"}, pngBytes, http.StatusBadRequest, "latitude is not a number"},
		{"nan coordinates", UploadOptions{Store: &memStore{}}, map[string]string{"coordinates": "NaN,NaN"}, pngBytes, http.StatusBadRequest, "coordinates longitude is not a number"},
		{"too large", UploadOptions{Store: &memStore{}, MaxBytes: 16}, nil, pngBytes, http.StatusBadRequest, "invalid multipart form"},
		{"store failure", UploadOptions{Store: &memStore{err: errors.New("disk full")}}, nil, pngBytes, http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runUpload(tc.opts, multipartRequest(t, tc.fields, tc.file))
			assert.False(t, res.called)
			assert.Equal(t, tc.status, res.code)
			assert.Contains(t, res.body, tc.msg)
		})
	}
}

func TestUploads_FailedOperationRemovesFile(t *testing.T) {
	store := &memStore{}

	res := runUploadWithStatus(UploadOptions{Store: store}, multipartRequest(t, nil, pngBytes), http.StatusBadRequest)
	require.True(t, res.ok)
	assert.Equal(t, []string{"stored-tom.png"}, store.deleted)
	assert.Empty(t, store.saved)
}

func TestUploads_SuccessfulOperationKeepsFile(t *testing.T) {
	store := &memStore{}

	res := runUploadWithStatus(UploadOptions{Store: store}, multipartRequest(t, nil, pngBytes), http.StatusOK)
	require.True(t, res.ok)
	assert.Empty(t, store.deleted)
	assert.Contains(t, store.saved, "stored-tom.png")
}

func TestUploads_CoordinatesIgnoredWithoutParser(t *testing.T) {
	h := Uploads(UploadOptions{Store: &memStore{}, DefaultLon: 3, DefaultLat: 4})
	var up Upload
	h(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up, _ = GetUpload(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), multipartRequest(t, map[string]string{"coordinates": "1,2"}, pngBytes))

	assert.Equal(t, 3.0, up.Lon)
	assert.Equal(t, 4.0, up.Lat)
}
