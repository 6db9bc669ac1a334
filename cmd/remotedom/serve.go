package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"github.com/spf13/cobra"

	"github.com/remotedom/remotedom/config"
	"github.com/remotedom/remotedom/dispatch"
	"github.com/remotedom/remotedom/markup"
	"github.com/remotedom/remotedom/pkg/logger"
	"github.com/remotedom/remotedom/response"
	"github.com/remotedom/remotedom/session"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo page and the remote-call endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			lggr, err := newLogger(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, lggr, cfg)
		},
	}
}

func serve(ctx context.Context, lggr logger.Logger, cfg *config.Config) error {
	store, closeStore, err := newSessionStore(cfg, lggr)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer func() {
			if cerr := closeStore(); cerr != nil {
				lggr.Errorw("closing session store failed", "err", cerr)
			}
		}()
	}

	manager := session.NewManager(store,
		session.WithCookieName(cfg.Session.CookieName),
		session.WithLogger(lggr),
	)

	d := dispatch.New(
		dispatch.WithLogger(lggr),
		dispatch.WithSessions(manager),
		dispatch.WithConfig(dispatchConfig(cfg)),
	)
	registerDemo(d)

	mux := http.NewServeMux()
	mux.HandleFunc("/", demoPageHandler(lggr, manager, cfg))
	mux.Handle("/remote", d.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lggr.Infow("listening", "addr", cfg.Addr, "csrf", cfg.CSRF, "backend", cfg.Session.Backend)
		if serr := srv.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
		}
	}()

	select {
	case serr := <-errCh:
		return serr
	case <-ctx.Done():
	}

	lggr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func dispatchConfig(cfg *config.Config) dispatch.Config {
	return dispatch.Config{
		CSRF:           cfg.CSRF,
		ErrorReporting: cfg.ErrorReporting,
		AutoTypecast:   cfg.AutoTypecast,
		Compress:       cfg.Compress,
		AllowGet:       cfg.AllowGet,
		Encoding:       cfg.Encoding,
	}
}

func newSessionStore(cfg *config.Config, lggr logger.Logger) (gsessions.Store, func() error, error) {
	key := []byte(cfg.Session.AuthKey)
	if len(key) == 0 {
		lggr.Warn("no session auth key configured, using a random key; sessions reset on restart")
		key = securecookie.GenerateRandomKey(32)
	}

	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		return session.NewMemoryStore(), nil, nil
	case config.SessionBackendSQL:
		db, err := session.Open(cfg.Session.DSN, lggr)
		if err != nil {
			return nil, nil, err
		}

		store := session.NewSQLStore(db, key)
		if err := store.CreateSchema(); err != nil {
			_ = db.Close()

			return nil, nil, err
		}

		return store, db.Close, nil
	default:
		return session.NewCookieStore(key), nil, nil
	}
}

// registerDemo fills the dispatcher with the sample handlers the demo
// page calls. The routes command lists the same set.
func registerDemo(d *dispatch.Dispatcher) {
	d.MustSet("greet", func(_ *dispatch.Context, args dispatch.Args) (*response.Response, error) {
		name := args.String("name")
		if name == "" {
			name = "stranger"
		}

		resp := response.New()
		resp.Select("#greeting").Text("hi " + name)

		return resp, nil
	})

	d.MustSet("clock.tick", func(_ *dispatch.Context, _ dispatch.Args) (*response.Response, error) {
		resp := response.New()
		resp.Select("#clock").Text(time.Now().Format("15:04:05"))

		return resp, nil
	})

	d.MustSet("counter.add", func(ctx *dispatch.Context, _ dispatch.Args) (*response.Response, error) {
		count := 1
		if ctx.Session != nil {
			// The SQL store round-trips values through JSON, so a count
			// written as int can come back as float64.
			if prev, ok := ctx.Session.Get("count"); ok {
				switch n := prev.(type) {
				case int:
					count = n + 1
				case float64:
					count = int(n) + 1
				}
			}
			ctx.Session.Set("count", count)
		}

		resp := response.New()
		resp.Select("#count").Text(strconv.Itoa(count))

		return resp, nil
	})

	d.MustSet("theme.set", func(ctx *dispatch.Context, args dispatch.Args) (*response.Response, error) {
		theme := args.String("to")
		if theme == "" {
			return nil, errors.New("missing theme")
		}
		ctx.Globals.Set("theme", theme)

		resp := response.New()
		resp.Select("body").Attr("data-theme", theme)

		return resp, nil
	})

	d.MustSetView("#panel", func(_ *dispatch.Context, view dispatch.View) (*response.Response, error) {
		resp := response.New()
		resp.RenderView("<p>panel loaded</p>", map[string]any{"container": view.Container})

		return resp, nil
	})
}

const demoPage = `<!doctype html>
<html>
<head>
  <meta charset="{{.Charset}}">
  <title>remotedom demo</title>
  {{.Meta}}
</head>
<body>
  <h1>remotedom demo</h1>
  <p>The endpoint at /remote answers the calls below once a client runtime is loaded.</p>
  <div id="greeting">nobody greeted yet</div>
  <div id="clock">--:--:--</div>
  <div id="count">0</div>
  <nav>{{.Greet}} {{.Clock}} {{.Counter}}</nav>
  {{.Form}}
    <input type="text" name="name" placeholder="Your name">
    <button type="submit">Greet</button>
  </form>
  {{.Filter}}
</body>
</html>
`

type demoPageData struct {
	Charset string
	Meta    template.HTML
	Greet   template.HTML
	Clock   template.HTML
	Counter template.HTML
	Form    template.HTML
	Filter  template.HTML
}

func buildDemoPage(token, charset string) (*demoPageData, error) {
	data := &demoPageData{
		Charset: charset,
		Meta:    markup.CSRFMeta(token),
	}

	var err error
	data.Greet, err = markup.LinkTo("Greet Ann", "greet", markup.WithArgs(map[string]any{"name": "Ann"}))
	if err != nil {
		return nil, err
	}

	data.Clock, err = markup.LinkTo("Show time", "clock.tick")
	if err != nil {
		return nil, err
	}

	data.Counter, err = markup.LinkTo("Count", "counter.add", markup.WithConfirm("Count up?"))
	if err != nil {
		return nil, err
	}

	data.Form, err = markup.FormFor("/remote", "greet", markup.WithCSRF(token), markup.WithEncoding(charset))
	if err != nil {
		return nil, err
	}

	data.Filter, err = markup.SelectFor("theme.set", []markup.Item{
		{Value: "light", Label: "Light"},
		{Value: "dark", Label: "Dark"},
	}, markup.WithSelected("light"), markup.WithAttr("name", "to"))
	if err != nil {
		return nil, err
	}

	return data, nil
}

func demoPageHandler(lggr logger.Logger, manager *session.Manager, cfg *config.Config) http.HandlerFunc {
	tmpl := template.Must(template.New("demo").Parse(demoPage))

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)

			return
		}

		token, err := manager.CSRF(w, r)
		if err != nil {
			lggr.Errorw("csrf mint failed", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)

			return
		}

		data, err := buildDemoPage(token, cfg.Encoding)
		if err != nil {
			lggr.Errorw("building demo page failed", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset="+cfg.Encoding)
		if err := tmpl.Execute(w, data); err != nil {
			lggr.Errorw("rendering demo page failed", "err", err)
		}
	}
}
