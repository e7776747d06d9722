package db

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
)

// Retry runs fn up to attempts times, waiting backoff*n between tries. Only
// failures classified as ErrRemoteUnavailable are retried.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = apperr.Classify(fn(ctx))
		if err == nil || !errors.Is(err, apperr.ErrRemoteUnavailable) || i == attempts {
			return err
		}
		glog.Warningf("remote call failed (attempt %d/%d): %v", i, attempts, err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff * time.Duration(i)):
		}
	}
	return err
}
