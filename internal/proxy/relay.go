package proxy

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Relay splices client and upstream together until either side closes or
// ctx is canceled. It takes over both connections after a success reply
// and closes them before returning.
func Relay(ctx context.Context, client, upstream net.Conn, ioTimeout time.Duration) error {
	if ioTimeout > 0 {
		dl := time.Now().Add(ioTimeout)
		_ = client.SetDeadline(dl)
		_ = upstream.SetDeadline(dl)
	}

	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = client.Close()
			_ = upstream.Close()
		})
	}

	// Closing both sides is the only way to unblock an in-flight Copy.
	stop := context.AfterFunc(ctx, closeBoth)
	defer stop()

	g := errgroup.Group{}

	g.Go(func() error {
		_, err := io.Copy(client, upstream)
		closeBoth()
		return err
	})

	g.Go(func() error {
		_, err := io.Copy(upstream, client)
		closeBoth()
		return err
	})

	return g.Wait()
}
