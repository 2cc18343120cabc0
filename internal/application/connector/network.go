package connector

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

// CheckNetworkStatus pings the gateway. Cualquier fallo que no sea
// cancelación explícita degrada a NOT_CONNECTED y se loguea — esta llamada
// nunca devuelve el error del ping. The error return is non-nil only when
// the caller's context was cancelled.
func (c *Connector) CheckNetworkStatus(ctx context.Context) (domain.NetworkStatus, error) {
	err := c.gateway.Ping(ctx)
	if err == nil {
		return domain.NetworkConnected, nil
	}

	if errors.Is(err, context.Canceled) {
		return domain.NetworkNotConnected, err
	}

	slog.Warn("connector: gateway ping failed", "err", err)
	return domain.NetworkNotConnected, nil
}
