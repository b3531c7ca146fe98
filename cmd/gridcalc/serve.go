package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crhntr/gridcalc"
	"github.com/crhntr/gridcalc/expression"
)

//go:embed index.html.template
var indexHTMLTemplate string

func (c *cli) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an editable spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sheet := gridcalc.NewSheet(c.config.Columns, c.config.Rows)
			sheet.MaxDepth = c.config.MaxDepth
			s := newServer(sheet, c.log)

			srv := &http.Server{
				Addr:              c.config.Addr,
				Handler:           s.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()

			c.log.WithFields(logrus.Fields{
				"addr":    c.config.Addr,
				"columns": c.config.Columns,
				"rows":    c.config.Rows,
			}).Info("starting server")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().Int("columns", gridcalc.DefaultColumns, "the number of table columns")
	cmd.Flags().Int("rows", gridcalc.DefaultRows, "the number of table rows")
	cmd.Flags().String("addr", defaultAddr, "address to listen on")
	return cmd
}

type server struct {
	sheet *gridcalc.Sheet
	mut   sync.RWMutex

	templates *template.Template
	log       logrus.FieldLogger
}

func newServer(sheet *gridcalc.Sheet, log logrus.FieldLogger) *server {
	return &server{
		sheet:     sheet,
		templates: template.Must(template.New("index.html.template").Parse(indexHTMLTemplate)),
		log:       log,
	}
}

func (server *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", server.index)
	mux.HandleFunc("GET /cell/{id}", server.getCellEdit)
	mux.HandleFunc("PATCH /table", server.patchTable)

	return server.logRequests(mux)
}

func (server *server) render(res http.ResponseWriter, _ *http.Request, name string, status int, data any) {
	var buf bytes.Buffer
	if err := server.templates.ExecuteTemplate(&buf, name, data); err != nil {
		server.log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	header := res.Header()
	header.Set("content-type", "text/html")
	res.WriteHeader(status)
	_, _ = res.Write(buf.Bytes())
}

func (server *server) index(res http.ResponseWriter, req *http.Request) {
	server.mut.RLock()
	defer server.mut.RUnlock()

	grid, err := server.sheet.Render(req.Context())
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	server.render(res, req, "index.html.template", http.StatusOK, grid)
}

// getCellEdit makes the requested cell the active cell and renders its edit
// input. The active cell is sheet state, so this takes the write lock.
func (server *server) getCellEdit(res http.ResponseWriter, req *http.Request) {
	server.mut.Lock()
	defer server.mut.Unlock()

	pos, err := expression.ParsePosition(req.PathValue("id"))
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	if err := server.sheet.StartEdit(pos); err != nil {
		http.Error(res, err.Error(), http.StatusNotFound)
		return
	}

	grid, err := server.sheet.Render(req.Context())
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	server.render(res, req, "edit-cell", http.StatusOK, grid.Cell(pos.Column, pos.Row))
}

// patchTable stores every cell-<ID> form field. When the advance field is true
// the cell below the edited one becomes active, as pressing enter does.
// Otherwise editing stops, as leaving the input does.
func (server *server) patchTable(res http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	server.mut.Lock()
	defer server.mut.Unlock()

	updates := make(map[expression.Position]string)
	for key, value := range req.Form {
		if !strings.HasPrefix(key, "cell-") {
			continue
		}
		pos, err := expression.ParsePosition(key)
		if err != nil {
			http.Error(res, err.Error(), http.StatusBadRequest)
			return
		}
		if err := server.sheet.CheckBounds(pos); err != nil {
			http.Error(res, err.Error(), http.StatusBadRequest)
			return
		}
		updates[pos] = value[0]
	}
	for pos, text := range updates {
		if err := server.sheet.Set(pos, text); err != nil {
			http.Error(res, err.Error(), http.StatusBadRequest)
			return
		}
		server.log.WithFields(logrus.Fields{"cell": pos.String(), "text": text}).Debug("cell updated")
	}
	if req.Form.Get("advance") == "true" {
		server.sheet.Advance()
	} else {
		server.sheet.StopEdit()
	}

	grid, err := server.sheet.Render(req.Context())
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, failed := range grid.Failed() {
		server.log.WithError(failed.Err).WithField("cell", failed.Position.String()).Debug("cell evaluation failed")
	}
	server.render(res, req, "table", http.StatusOK, grid)
}

func (server *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		id := uuid.NewString()
		res.Header().Set("X-Request-Id", id)
		rec := &statusRecorder{ResponseWriter: res, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, req)
		server.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     req.Method,
			"path":       req.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}
