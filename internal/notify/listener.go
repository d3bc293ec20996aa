package notify

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Notification channels. One per watched table; payloads carry no delta
// content, a notification only means "something changed".
const (
	ChannelResources  = "resources_changed"
	ChannelWorkOrders = "work_orders_changed"
)

// Listener subscribes to postgres LISTEN/NOTIFY channels over dedicated
// connections, one per subscription.
type Listener struct {
	dsn string
}

// NewListener creates a listener for the given postgres DSN.
func NewListener(dsn string) *Listener {
	return &Listener{dsn: dsn}
}

// Listen blocks, invoking fn once per notification on channel until ctx is
// cancelled. The connection is re-established after transient failures.
func (l *Listener) Listen(ctx context.Context, channel string, fn func()) error {
	for {
		if err := l.listenOnce(ctx, channel, fn); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Listener on %s lost connection: %v, reconnecting", channel, err)
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, channel string, fn func()) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return errors.Wrap(err, "connect for listen")
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return errors.Wrapf(err, "listen %s", channel)
	}
	log.Printf("Subscribed to change notifications on %s", channel)

	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			return err
		}
		fn()
	}
}
