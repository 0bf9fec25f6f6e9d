// Package serve provides the serve command.
package serve

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mediaserve/mediaserve/cmd"
	"github.com/mediaserve/mediaserve/fs"
	"github.com/mediaserve/mediaserve/fs/accounting"
	"github.com/mediaserve/mediaserve/fs/config/flags"
	"github.com/mediaserve/mediaserve/lib/env"
	libhttp "github.com/mediaserve/mediaserve/lib/http"
	"github.com/mediaserve/mediaserve/lib/http/serve"
	"github.com/mediaserve/mediaserve/lib/metrics"
	"github.com/mediaserve/mediaserve/lib/resource"
	"github.com/mediaserve/mediaserve/lib/systemd"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

// Options contains options for the media server
type Options struct {
	Audio        string         // file served on /audio
	Video        string         // file served on /video
	Media        []string       // extra routes as name=file[:mime]
	ChunkSize    fs.SizeSuffix  // window for ranges with no end
	StatCacheTTL time.Duration  // how long to cache file sizes
	HTTP         libhttp.Config // media server
	Metrics      libhttp.Config // metrics server, off unless it has an address
}

// DefaultOpt returns the default values used for Options
func DefaultOpt() Options {
	metricsCfg := libhttp.DefaultCfg()
	metricsCfg.ListenAddr = nil
	return Options{
		ChunkSize:    serve.DefaultChunkSize,
		StatCacheTTL: resource.DefaultOpt.StatCacheTTL,
		HTTP:         libhttp.DefaultCfg(),
		Metrics:      metricsCfg,
	}
}

// Opt is options set by command line flags
var Opt = DefaultOpt()

// AddFlags adds the serve flags to flagSet
func AddFlags(flagSet *pflag.FlagSet, opt *Options) {
	flags.StringVarP(flagSet, &opt.Audio, "audio", "", opt.Audio, "File to serve on /audio as audio/mp3")
	flags.StringVarP(flagSet, &opt.Video, "video", "", opt.Video, "File to serve on /video as video/mp4")
	flags.StringArrayVarP(flagSet, &opt.Media, "media", "", opt.Media, "Extra route as NAME=FILE[:MIME], may be repeated")
	flags.FVarP(flagSet, &opt.ChunkSize, "chunk-size", "", "Most bytes sent for a range with no end")
	flags.DurationVarP(flagSet, &opt.StatCacheTTL, "stat-cache-ttl", "", opt.StatCacheTTL, "Time to cache the size and modtime of media files (0 to disable)")
	opt.HTTP.AddFlagsPrefix(flagSet, "")
	opt.Metrics.AddFlagsPrefix(flagSet, "metrics-")
}

func init() {
	AddFlags(Command.Flags(), &Opt)
	cmd.Root.AddCommand(Command)
}

// Command definition for cobra
var Command = &cobra.Command{
	Use:   "serve",
	Short: `Serve audio and video files over HTTP.`,
	Long: `mediaserve serve serves media files over HTTP with support for byte
range requests so clients can seek, resume and partially fetch them.

Use --audio and --video to serve files on /audio and /video, and
--media NAME=FILE[:MIME] to add more routes. If the MIME type is left
off it is detected from the content of the file.` + env.ShellExpandHelp + `

A HEAD request reports the size of the file and that ranges are
accepted. A GET request with a Range header of the form
"bytes=START-END" is answered with 206 Partial Content. If END is left
off at most --chunk-size bytes past START are sent, so clients fetch
long files a chunk at a time.

GET / lists the routes being served.

Use --metrics-addr to serve prometheus metrics on /metrics.

--bwlimit will be respected for streamed bodies.  Use --stats to
control the stats printing.

` + libhttp.Help(""),
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func() error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			s, err := newServer(ctx, &Opt)
			if err != nil {
				return err
			}
			return s.Run(ctx)
		})
	},
}

// route is one media file to serve
type route struct {
	name     string
	path     string
	mimeType string
}

var mimeTypeRe = regexp.MustCompile(`^[\w.+-]+/[\w.+-]+$`)

// parseMedia parses NAME=FILE[:MIME]
func parseMedia(s string) (r route, err error) {
	equals := strings.IndexRune(s, '=')
	if equals <= 0 {
		return r, errors.Errorf("--media %q: expecting NAME=FILE[:MIME]", s)
	}
	r.name, r.path = s[:equals], s[equals+1:]
	if colon := strings.LastIndex(r.path, ":"); colon >= 0 && mimeTypeRe.MatchString(r.path[colon+1:]) {
		r.path, r.mimeType = r.path[:colon], r.path[colon+1:]
	}
	if r.path == "" {
		return r, errors.Errorf("--media %q: empty file name", s)
	}
	return r, nil
}

// routes returns all the routes asked for in opt
func (opt *Options) routes() (routes []route, err error) {
	if opt.Audio != "" {
		routes = append(routes, route{name: "audio", path: opt.Audio, mimeType: "audio/mp3"})
	}
	if opt.Video != "" {
		routes = append(routes, route{name: "video", path: opt.Video, mimeType: "video/mp4"})
	}
	for _, s := range opt.Media {
		r, err := parseMedia(s)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	for i := range routes {
		routes[i].path = env.ShellExpand(routes[i].path)
	}
	if len(routes) == 0 {
		return nil, errors.New("nothing to serve: use --audio, --video or --media")
	}
	return routes, nil
}

// server contains everything to run the server
type server struct {
	opt      *Options
	registry *resource.Registry
	serveOpt serve.Options
	media    *libhttp.Server
	metrics  *libhttp.Server // nil if not serving metrics
}

func newServer(ctx context.Context, opt *Options) (*server, error) {
	routes, err := opt.routes()
	if err != nil {
		return nil, err
	}
	registry := resource.NewRegistry(resource.Options{StatCacheTTL: opt.StatCacheTTL})
	for _, r := range routes {
		if err := registry.Register(r.name, r.path, r.mimeType); err != nil {
			return nil, err
		}
	}
	s := &server{
		opt:      opt,
		registry: registry,
		serveOpt: serve.Options{
			ChunkSize: opt.ChunkSize,
			Stats:     accounting.GlobalStats(),
		},
	}

	m := metrics.NewMetrics("mediaserve")
	s.media, err = libhttp.NewServer(ctx, libhttp.WithConfig(opt.HTTP), libhttp.WithMiddleware(m.Middleware))
	if err != nil {
		return nil, errors.Wrap(err, "failed to init media server")
	}
	s.addRoutes(s.media.Router())

	if len(opt.Metrics.ListenAddr) > 0 {
		s.metrics, err = libhttp.NewServer(ctx, libhttp.WithConfig(opt.Metrics))
		if err != nil {
			_ = s.media.Shutdown()
			return nil, errors.Wrap(err, "failed to init metrics server")
		}
		reg := metrics.NewRegistry(s.serveOpt.Stats, m.Collectors()...)
		s.metrics.Router().Handle(metrics.Path, metrics.Handler(reg))
	}
	return s, nil
}

// addRoutes adds a HEAD and GET route for each media file
func (s *server) addRoutes(router chi.Router) {
	router.Get("/", s.handleIndex)
	for _, name := range s.registry.Names() {
		handler := s.handleMedia(name)
		router.Get("/"+name, handler)
		router.Head("/"+name, handler)
	}
}

// indexPage lists the routes
var indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>mediaserve</title>
</head>
<body>
<h1>mediaserve</h1>
{{ range . }}<a href="{{ . }}">{{ . }}</a><br />
{{ end }}</body>
</html>
`

// indexTemplate is the instantiated indexPage
var indexTemplate = template.Must(template.New("index").Parse(indexPage))

// handleIndex lists the routes being served
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, s.registry.Names())
	if err != nil {
		fs.Errorf(nil, "Failed to render index: %v", fs.CountError(err))
	}
}

// handleMedia returns a handler serving the route name
func (s *server) handleMedia(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.registry.Lookup(name)
		if err != nil {
			code := http.StatusInternalServerError
			if resource.IsNotFound(err) {
				code = http.StatusNotFound
			}
			_ = s.serveOpt.Stats.Error(err)
			fs.Errorf(name, "Lookup failed: %v", err)
			http.Error(w, http.StatusText(code), code)
			return
		}
		serve.Object(w, r, res, s.serveOpt)
	}
}

// Run serves until ctx is cancelled or a server stops
func (s *server) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	servers := []*libhttp.Server{s.media}
	if s.metrics != nil {
		servers = append(servers, s.metrics)
	}
	for _, hs := range servers {
		hs := hs
		hs.Serve()
		g.Go(func() error {
			hs.Wait()
			if gCtx.Err() == nil {
				return errors.New("server stopped unexpectedly")
			}
			return nil
		})
	}
	for _, url := range s.media.URLs() {
		fs.Logf(nil, "Serving %s on %s", strings.Join(s.registry.Names(), ", "), url)
	}
	if s.metrics != nil {
		for _, url := range s.metrics.URLs() {
			fs.Logf(nil, "Serving metrics on %s%s", strings.TrimSuffix(url, "/"), metrics.Path)
		}
	}

	finalise := systemd.Notify()
	defer finalise()
	if err := systemd.UpdateStatus(fmt.Sprintf("Serving %d routes", len(s.registry.Names()))); err != nil {
		fs.Debugf(nil, "Failed to update systemd status: %v", err)
	}

	g.Go(func() error {
		<-gCtx.Done()
		fs.Logf(nil, "Shutting down")
		finalise()
		var err error
		for _, hs := range servers {
			if shutdownErr := hs.Shutdown(); shutdownErr != nil && err == nil {
				err = shutdownErr
			}
		}
		return err
	})
	return g.Wait()
}
