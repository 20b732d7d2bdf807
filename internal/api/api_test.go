package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torvik/snapvault/internal/recordstore"
	"github.com/torvik/snapvault/internal/storage"
	"github.com/torvik/snapvault/internal/testutil"
)

// testEnv sets up a temp vault, store, and router for testing.
// authToken="" means disabled mode.
func testEnv(t *testing.T, authToken string) (*recordstore.Store, http.Handler) {
	t.Helper()
	store, router, _ := testEnvWithVault(t, authToken)
	return store, router
}

func testEnvWithVault(t *testing.T, authToken string) (*recordstore.Store, http.Handler, storage.Provider) {
	t.Helper()
	_, files := testutil.TestVault(t)
	store := recordstore.New(files, nil, testutil.Logger())
	router := NewRouter(store, authToken != "", authToken, nil, files)
	return store, router, files
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createNote(t *testing.T, router http.Handler, text string) RecordDTO {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/records", map[string]string{"note": text})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec RecordDTO
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode created record: %v", err)
	}
	return rec
}

func TestCreateAndListRecords(t *testing.T) {
	_, router := testEnv(t, "")

	rec := createNote(t, router, "first")
	if rec.MetadataPath == "" {
		t.Fatal("created record has no metadataPath")
	}
	if rec.Note.Text != "first" {
		t.Fatalf("note text = %q", rec.Note.Text)
	}
	createNote(t, router, "second")

	w := doJSON(t, router, http.MethodGet, "/records", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list RecordListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 2 || len(list.Records) != 2 {
		t.Fatalf("total = %d, records = %d", list.Total, len(list.Records))
	}
	if list.Records[0].Note.Text != "second" {
		t.Fatalf("newest record should come first, got %q", list.Records[0].Note.Text)
	}
}

func TestCreateNoteRequiresText(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodPost, "/records", map[string]string{"note": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListFilterByStatus(t *testing.T) {
	_, router := testEnv(t, "")

	done := createNote(t, router, "finished")
	createNote(t, router, "pending")

	name := filepath.Base(done.MetadataPath)
	w := doJSON(t, router, http.MethodPatch, "/records/"+name+"/status", map[string]string{"status": "done"})
	if w.Code != http.StatusOK {
		t.Fatalf("status update = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/records?filter=done", nil)
	var list RecordListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || list.Records[0].Note.Text != "finished" {
		t.Fatalf("done filter returned %+v", list)
	}

	w = doJSON(t, router, http.MethodGet, "/records?filter=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bogus filter status = %d", w.Code)
	}
}

func TestUpdateStatusRejectsInvalid(t *testing.T) {
	_, router := testEnv(t, "")
	rec := createNote(t, router, "note")
	name := filepath.Base(rec.MetadataPath)

	w := doJSON(t, router, http.MethodPatch, "/records/"+name+"/status", map[string]string{"status": "archived"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("error body = %+v", resp)
	}
}

func TestUpdateNoteAndOrder(t *testing.T) {
	store, router := testEnv(t, "")
	rec := createNote(t, router, "draft")
	name := filepath.Base(rec.MetadataPath)

	w := doJSON(t, router, http.MethodPatch, "/records/"+name+"/note",
		map[string]any{"note": "final", "editMode": false})
	if w.Code != http.StatusOK {
		t.Fatalf("note update = %d, body = %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, http.MethodPatch, "/records/"+name+"/order", map[string]int64{"order": 7})
	if w.Code != http.StatusOK {
		t.Fatalf("order update = %d", w.Code)
	}

	got, err := store.Get(context.Background(), name)
	if err != nil {
		t.Fatal(err)
	}
	if got.Note.Text != "final" || got.Order != 7 {
		t.Fatalf("record = %+v", got)
	}
}

func TestUpdateMissingRecordReturns404(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodPatch, "/records/ghost.json/note",
		map[string]any{"note": "x"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestBatchUpdateOrderPartialFailure(t *testing.T) {
	_, router := testEnv(t, "")
	a := createNote(t, router, "a")
	b := createNote(t, router, "b")

	items := []map[string]any{
		{"metadataPath": filepath.Base(a.MetadataPath), "order": 1},
		{"metadataPath": "ghost.json", "order": 2},
		{"metadataPath": filepath.Base(b.MetadataPath), "order": 3},
	}
	w := doJSON(t, router, http.MethodPut, "/records/order", map[string]any{"items": items})
	if w.Code != http.StatusOK {
		t.Fatalf("batch status = %d, body = %s", w.Code, w.Body.String())
	}
	var res BatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Success || res.SuccessCount != 2 || res.TotalCount != 3 || len(res.Errors) != 1 {
		t.Fatalf("batch result = %+v", res)
	}
}

func TestCreateClipboardRecord(t *testing.T) {
	_, router, files := testEnvWithVault(t, "")

	img := base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))
	w := doJSON(t, router, http.MethodPost, "/records/clipboard",
		map[string]string{"note": "copied", "imageBase64": img})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec RecordDTO
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.Clipboard.Types) != 2 {
		t.Fatalf("clipboard types = %v", rec.Clipboard.Types)
	}
	if !files.Exists(filepath.Base(rec.Clipboard.ImagePath)) {
		t.Fatalf("clipboard image %s not written", rec.Clipboard.ImagePath)
	}

	w = doJSON(t, router, http.MethodPost, "/records/clipboard", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty clipboard status = %d", w.Code)
	}
}

func TestCreateCaptureMultipart(t *testing.T) {
	_, router, files := testEnvWithVault(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "shot.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("\x89PNG fake screenshot"))
	mw.WriteField("clipboardText", "copied at capture")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/captures", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("capture status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec RecordDTO
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ImagePath == "" || !files.Exists(filepath.Base(rec.ImagePath)) {
		t.Fatalf("screenshot %q not written", rec.ImagePath)
	}
	if rec.Clipboard.Text != "copied at capture" {
		t.Fatalf("clipboard text = %q", rec.Clipboard.Text)
	}

	// Missing image field is rejected.
	var empty bytes.Buffer
	mw = multipart.NewWriter(&empty)
	mw.WriteField("clipboardText", "no image")
	mw.Close()
	req = httptest.NewRequest(http.MethodPost, "/captures", &empty)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing image status = %d", w.Code)
	}
}

func TestDeleteRecordCascades(t *testing.T) {
	_, router, files := testEnvWithVault(t, "")

	img := base64.StdEncoding.EncodeToString([]byte("img"))
	w := doJSON(t, router, http.MethodPost, "/records/clipboard",
		map[string]string{"note": "to delete", "imageBase64": img})
	var rec RecordDTO
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	name := filepath.Base(rec.MetadataPath)

	w = doJSON(t, router, http.MethodDelete, "/records/"+name, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}
	if _, err := os.Stat(rec.MetadataPath); !os.IsNotExist(err) {
		t.Fatal("metadata still on disk")
	}
	if files.Exists(filepath.Base(rec.Clipboard.ImagePath)) {
		t.Fatal("clipboard image survived cascade delete")
	}

	w = doJSON(t, router, http.MethodDelete, "/records/"+name, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", w.Code)
	}
}

func TestDeleteKeepsImagesOnRequest(t *testing.T) {
	_, router, files := testEnvWithVault(t, "")

	img := base64.StdEncoding.EncodeToString([]byte("img"))
	w := doJSON(t, router, http.MethodPost, "/records/clipboard",
		map[string]string{"note": "keep assets", "imageBase64": img})
	var rec RecordDTO
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	name := filepath.Base(rec.MetadataPath)

	w = doJSON(t, router, http.MethodDelete, "/records/"+name+"?deleteImages=false", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if !files.Exists(filepath.Base(rec.Clipboard.ImagePath)) {
		t.Fatal("clipboard image deleted despite deleteImages=false")
	}
}

func TestServeAsset(t *testing.T) {
	_, router := testEnv(t, "")

	img := base64.StdEncoding.EncodeToString([]byte("pixels"))
	w := doJSON(t, router, http.MethodPost, "/records/clipboard",
		map[string]string{"imageBase64": img})
	var rec RecordDTO
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/assets/"+filepath.Base(rec.Clipboard.ImagePath), nil)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("asset status = %d", rw.Code)
	}
	if rw.Body.String() != "pixels" {
		t.Fatalf("asset body = %q", rw.Body.String())
	}

	// Metadata documents are not served as assets.
	req = httptest.NewRequest(http.MethodGet, "/assets/"+filepath.Base(rec.MetadataPath), nil)
	rw = httptest.NewRecorder()
	router.ServeHTTP(rw, req)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("json asset status = %d", rw.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/assets/missing.png", nil)
	rw = httptest.NewRecorder()
	router.ServeHTTP(rw, req)
	if rw.Code != http.StatusNotFound {
		t.Fatalf("missing asset status = %d", rw.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "\"records\"") {
		t.Fatalf("list body = %s", w.Body.String())
	}
}
