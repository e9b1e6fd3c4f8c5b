package bootstrap

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// Retry runs op with exponential backoff until it succeeds, maxElapsed
// passes or ctx is done. Containers often start before their database.
func Retry(ctx context.Context, log *logrus.Logger, what string, maxElapsed time.Duration, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = maxElapsed

	return backoff.RetryNotify(op, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		log.WithError(err).WithField("retry_in", wait.String()).Warnf("%s not reachable", what)
	})
}
