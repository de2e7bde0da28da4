package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mithrel/docman/internal/auth"
	"github.com/mithrel/docman/internal/client"
	"github.com/mithrel/docman/internal/logger"
	"github.com/mithrel/docman/internal/search"
	"github.com/mithrel/docman/internal/tokenstore"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg     *viper.Viper
	Log     *zap.Logger
	Client  *client.Client
	Tokens  tokenstore.Store
	Metrics *prometheus.Registry
}

// Options tweak BuildApp for callers that already own some dependencies.
type Options struct {
	LogOutput io.Writer
	Tokens    tokenstore.Store
}

// BuildApp wires dependencies with the provided config.
func BuildApp(ctx context.Context, v *viper.Viper, opts Options) (*App, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	log, err := logger.New(v.GetString("log.level"), out)
	if err != nil {
		return nil, err
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens, err = tokenstore.Open(v.GetString("auth.token_store"), v.GetString("data_dir"), v.GetString("auth.keyring_service"))
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
	}

	timeout, err := time.ParseDuration(v.GetString("api.timeout"))
	if err != nil {
		return nil, fmt.Errorf("api.timeout: %w", err)
	}

	app := &App{Cfg: v, Log: log, Tokens: tokens}
	copts := []client.Option{
		client.WithTimeout(timeout),
		client.WithLogger(log.Named("client")),
		client.WithTokenSource(client.TokenFunc(app.token)),
	}
	if v.GetBool("metrics.enabled") {
		app.Metrics = prometheus.NewRegistry()
		copts = append(copts, client.WithPrometheus(app.Metrics))
	}
	app.Client, err = client.New(v.GetString("api.base_url"), copts...)
	if err != nil {
		return nil, err
	}
	log.Debug("app ready",
		zap.String("base_url", app.Client.BaseURL()),
		zap.String("token_store", tokens.Name()))
	return app, nil
}

// token reads the stored session on every call so a login in another
// process is picked up without restarting.
func (a *App) token(ctx context.Context) (string, error) {
	sess, err := a.Tokens.Load()
	if errors.Is(err, tokenstore.ErrNoToken) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// NewLoginFlow returns an OTP flow bound to the app's client.
func (a *App) NewLoginFlow() *auth.Flow {
	return auth.NewFlow(a.Client, auth.WithLogger(a.Log.Named("auth")))
}

// NewSearchSession returns a search session using the configured page size.
func (a *App) NewSearchSession(pageSize int) *search.Session {
	if pageSize <= 0 {
		pageSize = a.Cfg.GetInt("search.page_size")
	}
	return search.NewSession(a.Client, pageSize, search.WithSessionLogger(a.Log.Named("search")))
}

// SaveSession persists a freshly issued token.
func (a *App) SaveSession(token, mobile string) error {
	return a.Tokens.Save(tokenstore.Session{Token: token, Mobile: mobile, CreatedAt: time.Now().UTC()})
}

// Close releases stores that hold open handles.
func (a *App) Close() error {
	a.logMetrics()
	a.Log.Debug("app closed")
	_ = a.Log.Sync()
	if c, ok := a.Tokens.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *App) logMetrics() {
	if a.Metrics == nil {
		return
	}
	mfs, err := a.Metrics.Gather()
	if err != nil {
		a.Log.Debug("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.String("metric", mf.GetName())}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			switch {
			case m.GetCounter() != nil:
				fields = append(fields, zap.Float64("value", m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fields = append(fields, zap.Uint64("count", h.GetSampleCount()), zap.Float64("sum", h.GetSampleSum()))
			}
			a.Log.Debug("metrics", fields...)
		}
	}
}
