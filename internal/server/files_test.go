package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"smanager/internal/files"
	"smanager/internal/metrics"
)

func filesGateway(t *testing.T) *Gateway {
	t.Helper()
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/srv/data", 0755); err != nil {
		t.Fatal(err)
	}
	return newGateway(metrics.NewStore(), Options{
		Token: "T",
		Files: files.NewManagerWithFs(fsys, "/srv/data"),
	})
}

func postFile(g *Gateway, op, body string) (*httptest.ResponseRecorder, fileResult) {
	req := httptest.NewRequest(http.MethodPost, "/api/files/"+op+"?token=T", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	var res fileResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	return rec, res
}

func getFile(g *Gateway, op, path string) (*httptest.ResponseRecorder, fileResult) {
	rec := serve(g.Handler(), http.MethodGet, "/api/files/"+op+"?token=T&path="+path, nil)
	var res fileResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	return rec, res
}

func TestFilesWorkflow(t *testing.T) {
	g := filesGateway(t)

	rec, res := postFile(g, "create", `{"path":"/notes","isDirectory":true}`)
	if rec.Code != http.StatusOK || !res.Success {
		t.Fatalf("Create directory failed: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = postFile(g, "write", `{"path":"/notes/todo.txt","content":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Write failed: %d %s", rec.Code, rec.Body.String())
	}

	rec, res = getFile(g, "read", "/notes/todo.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("Read failed: %d %s", rec.Code, rec.Body.String())
	}
	if res.File == nil || res.File.Content != "hello" {
		t.Errorf("Expected content hello, got %+v", res.File)
	}

	rec, res = postFile(g, "rename", `{"path":"/notes/todo.txt","newName":"done.txt"}`)
	if rec.Code != http.StatusOK || res.Path != "/notes/done.txt" {
		t.Errorf("Expected rename to /notes/done.txt, got %d %q", rec.Code, res.Path)
	}

	_, res = getFile(g, "list", "/notes")
	if len(res.Files) != 1 || res.Files[0].Name != "done.txt" {
		t.Errorf("Expected one entry done.txt, got %+v", res.Files)
	}

	rec, _ = postFile(g, "delete", `{"path":"/notes"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("Delete failed: %d", rec.Code)
	}
	rec, _ = getFile(g, "list", "/notes")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestFilesErrors(t *testing.T) {
	g := filesGateway(t)
	postFile(g, "write", `{"path":"/a.txt","content":"x"}`)

	rec, _ := getFile(g, "read", "../../etc/passwd")
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for escape, got %d", rec.Code)
	}

	rec, _ = postFile(g, "create", `{"path":"/a.txt"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for existing path, got %d", rec.Code)
	}

	rec, _ = postFile(g, "write", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad body, got %d", rec.Code)
	}

	rec, _ = getFile(g, "read", "/missing.txt")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing file, got %d", rec.Code)
	}

	rec = serve(g.Handler(), http.MethodGet, "/api/files/list?path=/", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}
}

func TestFilesDisabled(t *testing.T) {
	g := newGateway(metrics.NewStore(), Options{})

	rec := serve(g.Handler(), http.MethodGet, "/api/files/list?path=/", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when files are disabled, got %d", rec.Code)
	}
}
