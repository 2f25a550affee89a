package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/storage/memory"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/aanand-mishra/student-registry/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var importCfg = config.Import{MaxBytes: 1 << 20}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var resp response.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, response.StatusError, resp.Status)
	return resp
}

func TestCreateAndGet(t *testing.T) {
	h := New(memory.New(), importCfg)

	rec := do(t, h, http.MethodPost, "/api/students", `{"id":"S1","name":"Alice","age":20,"grade":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/students/S1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.Student
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, types.Student{ID: "S1", Name: "Alice", Age: 20, Grade: "A"}, got)
}

func TestCreateValidation(t *testing.T) {
	h := New(memory.New(), importCfg)

	rec := do(t, h, http.MethodPost, "/api/students", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is empty", decodeError(t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/students", `{"id":"S1","age":150,"grade":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "field Name is required, field Age must be at most 100", decodeError(t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/students", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDuplicate(t *testing.T) {
	h := New(memory.New(), importCfg)

	body := `{"id":"S1","name":"Alice","age":20,"grade":"A"}`
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/students", body).Code)

	rec := do(t, h, http.MethodPost, "/api/students", `{"id":"S1","name":"Bob","age":21,"grade":"B"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "duplicate id")
}

func TestListCountAndSearch(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Add(types.Student{ID: "S2", Name: "Bob", Age: 21, Grade: "B"}))
	require.NoError(t, store.Add(types.Student{ID: "S1", Name: "Alice", Age: 20, Grade: "A"}))
	h := New(store, importCfg)

	rec := do(t, h, http.MethodGet, "/api/students", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []types.Student
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "S2", list[0].ID)
	assert.Equal(t, "S1", list[1].ID)

	rec = do(t, h, http.MethodGet, "/api/students/count", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":2}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/students/search?id=S1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"S1","name":"Alice","age":20,"grade":"A"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/students/search?id=S9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/students/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmptyListIsArray(t *testing.T) {
	h := New(memory.New(), importCfg)

	rec := do(t, h, http.MethodGet, "/api/students", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUpdate(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Add(types.Student{ID: "S1", Name: "Alice", Age: 20, Grade: "A"}))
	h := New(store, importCfg)

	rec := do(t, h, http.MethodPut, "/api/students/S1", `{"name":"Alicia","age":21,"grade":"A+"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := store.Get("S1")
	require.NoError(t, err)
	assert.Equal(t, types.Student{ID: "S1", Name: "Alicia", Age: 21, Grade: "A+"}, got)

	rec = do(t, h, http.MethodPut, "/api/students/S9", `{"name":"X","age":21,"grade":"A"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/students/S1", `{"name":"X","age":0,"grade":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// An unknown id wins over a bad body, matching the store.
	rec = do(t, h, http.MethodPut, "/api/students/S9", `{"name":"X","age":0,"grade":"A"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCarriageReturnRejected(t *testing.T) {
	h := New(memory.New(), importCfg)

	rec := do(t, h, http.MethodPost, "/api/students", `{"id":"S1","name":"Line1\r\nLine2","age":20,"grade":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "field Name must not contain a carriage return", decodeError(t, rec).Error)
}

func TestIDWithSlash(t *testing.T) {
	store := memory.New()
	h := New(store, importCfg)

	rec := do(t, h, http.MethodPost, "/api/students", `{"id":"class/7","name":"Alice","age":20,"grade":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/students/class/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"class/7","name":"Alice","age":20,"grade":"A"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/students/class%2F7", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/students/class/7", `{"name":"Alicia","age":21,"grade":"B"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := store.Get("class/7")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.Name)

	rec = do(t, h, http.MethodDelete, "/api/students/class/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = store.Get("class/7")
	assert.Error(t, err)

	// Fixed routes still win over the catch-all.
	rec = do(t, h, http.MethodGet, "/api/students/count", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())
}

func TestDelete(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Add(types.Student{ID: "S1", Name: "Alice", Age: 20, Grade: "A"}))
	h := New(store, importCfg)

	rec := do(t, h, http.MethodDelete, "/api/students/S1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/students/S1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/students/S1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport(t *testing.T) {
	store := memory.New()
	h := New(store, importCfg)

	rec := do(t, h, http.MethodGet, "/api/students/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID,name,age,grade", rec.Body.String())

	require.NoError(t, store.Add(types.Student{ID: "S1", Name: "Smith, Alice", Age: 20, Grade: "A"}))
	rec = do(t, h, http.MethodGet, "/api/students/export", "")
	assert.Equal(t, "ID,name,age,grade\nS1,\"Smith, Alice\",20,A", rec.Body.String())
}

func TestImportRawBody(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Add(types.Student{ID: "S1", Name: "Alice", Age: 20, Grade: "A"}))
	h := New(store, importCfg)

	rec := do(t, h, http.MethodPost, "/api/students/import", "ID,name,age,grade\nS1,Alicia,21,A\nS2,Bob,22,B\n")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary types.ImportSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Updated)
	assert.NotEmpty(t, summary.BatchID)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportMultipart(t *testing.T) {
	store := memory.New()
	h := New(store, importCfg)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "students.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("ID,name,age,grade\nS1,Alice,20,A\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err = store.Get("S1")
	assert.NoError(t, err)
}

func TestImportBadRowAborts(t *testing.T) {
	store := memory.New()
	h := New(store, importCfg)

	rec := do(t, h, http.MethodPost, "/api/students/import", "ID,name,age,grade\nS1,Alice,20,A\nS2,Bob,abc,B\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "line 3")

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportSkipInvalid(t *testing.T) {
	store := memory.New()
	h := New(store, config.Import{SkipInvalid: true, MaxBytes: 1 << 20})

	rec := do(t, h, http.MethodPost, "/api/students/import", "ID,name,age,grade\nS1,Alice,20,A\nS2,Bob,abc,B\n")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary types.ImportSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Failed)
}

func TestImportBadHeader(t *testing.T) {
	h := New(memory.New(), importCfg)

	rec := do(t, h, http.MethodPost, "/api/students/import", "id,name\nS1,Alice\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "malformed input")
}

func TestImportTooLarge(t *testing.T) {
	h := New(memory.New(), config.Import{MaxBytes: 16})

	rec := do(t, h, http.MethodPost, "/api/students/import", "ID,name,age,grade\nS1,Alice,20,A\n")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
