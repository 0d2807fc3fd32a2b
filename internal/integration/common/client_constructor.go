// Package common builds the shared HTTP connector used by all
// outbound integrations.
package common

import (
	"github.com/geoscribe/report-backend/internal/config"
	pkgHTTP "github.com/geoscribe/report-backend/pkg/http"
	"go.uber.org/zap"
)

// NewBaseConnector maps HTTPClientConfig onto connector options.
// Request logging and bearer auth are always installed; an empty token
// makes the auth transport a no-op.
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	return pkgHTTP.NewConnector(
		&pkgHTTP.ConnectorConfig{
			Logger:  logger,
			BaseURL: cfg.Url,
		},
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
	)
}
