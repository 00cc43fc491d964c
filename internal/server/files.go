package server

import (
	"encoding/json"
	"errors"
	"net/http"

	constants "smanager/config"
	"smanager/internal/files"
)

// fileResult is the envelope of every /api/files response
type fileResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Path    string         `json:"path,omitempty"`
	Files   []files.Entry  `json:"files,omitempty"`
	File    *files.Content `json:"file,omitempty"`
}

type fileRequest struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	IsDirectory bool   `json:"isDirectory"`
	NewName     string `json:"newName"`
}

func (g *Gateway) mountFiles(mux *http.ServeMux) {
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, g.requireToken("files", g.instruments.instrument(name, h)))
	}

	route("GET "+constants.ROUTE_FILES+"list", "files_list", g.handleFileList)
	route("GET "+constants.ROUTE_FILES+"read", "files_read", g.handleFileRead)
	route("POST "+constants.ROUTE_FILES+"write", "files_write", g.handleFileWrite)
	route("POST "+constants.ROUTE_FILES+"create", "files_create", g.handleFileCreate)
	route("POST "+constants.ROUTE_FILES+"delete", "files_delete", g.handleFileDelete)
	route("POST "+constants.ROUTE_FILES+"rename", "files_rename", g.handleFileRename)
}

func (g *Gateway) handleFileList(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	entries, err := g.opts.Files.List(p)
	if err != nil {
		g.fileError(w, "list", p, err)
		return
	}
	writeJSON(w, http.StatusOK, fileResult{Success: true, Message: "ok", Path: p, Files: entries})
}

func (g *Gateway) handleFileRead(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	content, err := g.opts.Files.Read(p)
	if err != nil {
		g.fileError(w, "read", p, err)
		return
	}
	writeJSON(w, http.StatusOK, fileResult{Success: true, Message: "ok", Path: content.Path, File: content})
}

func (g *Gateway) handleFileWrite(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeFileRequest(w, r)
	if !ok {
		return
	}
	if err := g.opts.Files.Write(req.Path, req.Content); err != nil {
		g.fileError(w, "write", req.Path, err)
		return
	}
	g.log.Info("File written: %s", req.Path)
	writeJSON(w, http.StatusOK, fileResult{Success: true, Message: "file saved", Path: req.Path})
}

func (g *Gateway) handleFileCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeFileRequest(w, r)
	if !ok {
		return
	}
	if err := g.opts.Files.Create(req.Path, req.IsDirectory); err != nil {
		g.fileError(w, "create", req.Path, err)
		return
	}
	msg := "file created"
	if req.IsDirectory {
		msg = "directory created"
	}
	g.log.Info("Created %s", req.Path)
	writeJSON(w, http.StatusOK, fileResult{Success: true, Message: msg, Path: req.Path})
}

func (g *Gateway) handleFileDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeFileRequest(w, r)
	if !ok {
		return
	}
	if err := g.opts.Files.Delete(req.Path); err != nil {
		g.fileError(w, "delete", req.Path, err)
		return
	}
	g.log.Info("Deleted %s", req.Path)
	writeJSON(w, http.StatusOK, fileResult{Success: true, Message: "deleted", Path: req.Path})
}

func (g *Gateway) handleFileRename(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeFileRequest(w, r)
	if !ok {
		return
	}
	newPath, err := g.opts.Files.Rename(req.Path, req.NewName)
	if err != nil {
		g.fileError(w, "rename", req.Path, err)
		return
	}
	g.log.Info("Renamed %s to %s", req.Path, newPath)
	writeJSON(w, http.StatusOK, fileResult{Success: true, Message: "renamed", Path: newPath})
}

func decodeFileRequest(w http.ResponseWriter, r *http.Request) (fileRequest, bool) {
	var req fileRequest
	body := http.MaxBytesReader(w, r.Body, constants.MAX_READ_BYTES+64*1024)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, fileResult{Message: "invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

func (g *Gateway) fileError(w http.ResponseWriter, op, path string, err error) {
	code := http.StatusBadRequest
	switch {
	case errors.Is(err, files.ErrOutsideRoot):
		code = http.StatusForbidden
		g.log.Warning("Refused %s outside root: %q", op, path)
	case errors.Is(err, files.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, files.ErrExists):
		code = http.StatusConflict
	case errors.Is(err, files.ErrTooLarge):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, files.ErrBinary):
		code = http.StatusUnsupportedMediaType
	}
	writeJSON(w, code, fileResult{Message: op + " failed: " + err.Error(), Path: path})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(`{"success":false,"message":"encoding failed"}`)
		code = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", constants.CONTENT_TYPE_JSON)
	w.WriteHeader(code)
	w.Write(data)
}
