package session

import (
	"context"
	"log"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/notify"
)

// Hub maps external change notifications onto session refreshes. Every
// notification triggers a full refresh, unconditionally and regardless of
// the active mode; notifications carry no delta payload to trust.
type Hub struct {
	session  *Session
	listener *notify.Listener
}

// NewHub wires a session to a notification listener.
func NewHub(session *Session, listener *notify.Listener) *Hub {
	return &Hub{session: session, listener: listener}
}

// Run subscribes to both watched tables and blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	go func() {
		err := h.listener.Listen(ctx, notify.ChannelResources, func() {
			if err := h.session.Refresh(ctx); err != nil {
				log.Printf("Refresh after resource change failed: %v", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("Resource change listener stopped: %v", err)
		}
	}()
	go func() {
		err := h.listener.Listen(ctx, notify.ChannelWorkOrders, func() {
			if err := h.session.Refresh(ctx); err != nil {
				log.Printf("Refresh after work order change failed: %v", err)
			}
			if err := h.session.ReloadWorkOrders(ctx); err != nil {
				log.Printf("Work order reload failed: %v", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("Work order change listener stopped: %v", err)
		}
	}()
	<-ctx.Done()
}
