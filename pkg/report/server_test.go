package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const sourceID = "source/5143a51a37203f2cf7000972"

func TestServer(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "session")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "log"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "source"), []byte(sourceID+"\niris.csv\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "evaluation.json"), []byte(`{"result": {}}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "log", "bigmler.log"), []byte("{}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "outside.txt"), []byte("secret"), 0644))

	s := NewServer(ServerConfig{Port: 8085, Dir: dir}, "https://bigml.com/dashboard/", nil)

	t.Run("health", testHealthHandlerFunc(s))
	t.Run("apiGetFilesHandler()", testGetFilesHandlerFunc(s))
	t.Run("apiGetResourcesHandler()", testGetResourcesHandlerFunc(s))
	t.Run("fileHandler()", testFileHandlerFunc(s))
	t.Run("resolve() - stays in the directory", testResolveFunc(s))
	t.Run("Start() - missing directory", testStartMissingDirFunc(root))
}

func get(s *server, path string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI(path)
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	s.Handler()(ctx)
	return ctx
}

func testHealthHandlerFunc(s *server) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := get(s, "/health")
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "ok", string(ctx.Response.Body()))
		assert.Equal(t, "http://localhost:8085/", s.Address())
	}
}

func testGetFilesHandlerFunc(s *server) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := get(s, "/api/v1/files")
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

		var files []ReportFile
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &files))
		paths := make([]string, 0, len(files))
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		assert.ElementsMatch(t, []string{"evaluation.json", "log/bigmler.log", "source"}, paths)
	}
}

func testGetResourcesHandlerFunc(s *server) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := get(s, "/api/v1/resources")
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

		var resources []ReportResource
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resources))
		assert.Equal(t, []ReportResource{{
			ID:   sourceID,
			Type: "source",
			Log:  "source",
			URL:  "https://bigml.com/dashboard/" + sourceID,
		}}, resources)
	}
}

func testFileHandlerFunc(s *server) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := get(s, "/files/evaluation.json")
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, `{"result": {}}`, string(ctx.Response.Body()))
		assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

		ctx = get(s, "/files/log/bigmler.log")
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

		ctx = get(s, "/files/missing.csv")
		assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

		ctx = get(s, "/files/log")
		assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	}
}

func testResolveFunc(s *server) func(t *testing.T) {
	return func(t *testing.T) {
		_, ok := s.resolve("../outside.txt")
		assert.False(t, ok)
		_, ok = s.resolve("../../session/../outside.txt")
		assert.False(t, ok)

		path, ok := s.resolve("source")
		assert.True(t, ok)
		assert.Equal(t, "source", filepath.Base(path))
	}
}

func testStartMissingDirFunc(root string) func(t *testing.T) {
	return func(t *testing.T) {
		s := NewServer(ServerConfig{Port: 8086, Dir: filepath.Join(root, "missing")}, "", nil)
		assert.Error(t, s.Start())
		assert.NoError(t, s.Shutdown())
	}
}
