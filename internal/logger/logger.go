package logger

import (
	"net/http"
	"os"
	"time"

	httpmiddleware "github.com/orionpulse/orionpulse/internal/http"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	// stores and background code log through the global logger
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	return logger
}

// NewRequestLogger returns a middleware that attaches a request-scoped logger
// to the request context (retrieve it with zerolog.Ctx) and logs one line per
// request once the response is written.
func NewRequestLogger(logger zerolog.Logger) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			event := hlog.FromRequest(r).Info()
			if status >= http.StatusInternalServerError {
				event = hlog.FromRequest(r).Error()
			}
			event.
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("http request")
		})

		fields := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				l := zerolog.Ctx(r.Context())
				l.UpdateContext(func(c zerolog.Context) zerolog.Context {
					return c.
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Str("addr", httpmiddleware.ClientIPFromContext(r.Context()))
				})
				next.ServeHTTP(w, r)
			})
		}

		return hlog.NewHandler(logger)(fields(access(next)))
	}
}
