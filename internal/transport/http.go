package transport

import (
	"context"
	"fmt"
	"log"
	"net/http"
)

// serveHTTP runs srv until ctx is cancelled or the listener fails
func serveHTTP(ctx context.Context, name string, srv *http.Server, url string, shutdown func() error) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("%s listening on %s", name, url)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return shutdown()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		return nil
	}
}
