package report

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/reader"
	"github.com/bigmler/bigmler/pkg/util"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Port uint
	Dir  string
}

// ReportFile describes a file of the served output directory.
type ReportFile struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ReportResource is a resource id found in one of the id logs.
type ReportResource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Log  string `json:"log"`
	URL  string `json:"url"`
}

type server struct {
	config     ServerConfig
	logger     *zap.Logger
	dashboard  string
	fastServer *fasthttp.Server
}

// NewServer serves the files of an output directory read-only. Resource ids
// link to the dashboard when dashboardURL is set.
func NewServer(config ServerConfig, dashboardURL string, logger *zap.Logger) *server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &server{
		config:    config,
		logger:    logger,
		dashboard: strings.TrimRight(dashboardURL, "/"),
	}
}

func (server *server) Address() string {
	return fmt.Sprintf("http://localhost:%d/", server.config.Port)
}

func healthHandler(ctx *fasthttp.RequestCtx) {
	fmt.Fprintf(ctx, "ok")
}

func (server *server) indexHandler(ctx *fasthttp.RequestCtx) {
	tree, err := util.PrintTree(server.config.Dir, " ")
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString(err.Error())
		return
	}
	ctx.Response.Header.SetContentType("text/plain; charset=utf-8")
	ctx.Response.SetBodyString(tree)
}

func (server *server) apiGetFilesHandler(ctx *fasthttp.RequestCtx) {
	files := []ReportFile{}
	err := filepath.WalkDir(server.config.Dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		files = append(files, ReportFile{
			Path:     filepath.ToSlash(util.Relative(server.config.Dir, path)),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString(err.Error())
		return
	}
	server.writeJSON(ctx, files)
}

// apiGetResourcesHandler lists the ids found in the id logs, the files
// with no extension.
func (server *server) apiGetResourcesHandler(ctx *fasthttp.RequestCtx) {
	resources := []ReportResource{}
	entries, err := os.ReadDir(server.config.Dir)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString(err.Error())
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != "" || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ids, err := reader.ReadResources(filepath.Join(server.config.Dir, entry.Name()))
		if err != nil {
			server.logger.Warn("unreadable id log", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		for _, id := range ids {
			resource := ReportResource{ID: id, Type: string(bigml.TypeOf(id)), Log: entry.Name()}
			if server.dashboard != "" {
				resource.URL = server.dashboard + "/" + id
			}
			resources = append(resources, resource)
		}
	}
	sort.SliceStable(resources, func(i, j int) bool {
		return resources[i].Log < resources[j].Log
	})
	server.writeJSON(ctx, resources)
}

func (server *server) fileHandler(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("filepath").(string)
	path, ok := server.resolve(name)
	if !ok {
		ctx.Response.SetStatusCode(http.StatusNotFound)
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusNotFound)
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	ctx.Response.Header.SetContentType(contentType)
	ctx.Response.SetBody(content)
}

// resolve maps a request path to a regular file inside the directory.
func (server *server) resolve(name string) (string, bool) {
	root, err := filepath.Abs(server.config.Dir)
	if err != nil {
		return "", false
	}
	path := filepath.Join(root, filepath.FromSlash(filepath.Clean("/"+name)))
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

func (server *server) writeJSON(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString(err.Error())
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetBody(response)
}

func (server *server) Handler() fasthttp.RequestHandler {
	r := router.New()
	r.GET("/health", healthHandler)
	r.GET("/", server.indexHandler)

	api := r.Group("/api/v1")
	{
		api.GET("/files", server.apiGetFilesHandler)
		api.GET("/resources", server.apiGetResourcesHandler)
	}

	r.GET("/files/{filepath:*}", server.fileHandler)
	return r.Handler
}

// Start listens in the background. Shutdown stops the server.
func (server *server) Start() error {
	if !util.DirExists(server.config.Dir) {
		return fmt.Errorf("directory %s not found", server.config.Dir)
	}
	serverLogger, err := zap.NewStdLogAt(server.logger, zap.DebugLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	server.fastServer = &fasthttp.Server{
		Handler: server.Handler(),
		Logger:  serverLogger,
	}

	go func() {
		if err := server.fastServer.ListenAndServe(fmt.Sprintf(":%d", server.config.Port)); err != nil {
			server.logger.Fatal("report server failed", zap.Error(err))
		}
	}()

	return nil
}

func (server *server) Shutdown() error {
	if server.fastServer == nil {
		return nil
	}
	return server.fastServer.Shutdown()
}
