package session

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/services"
)

// LoadAttachments fetches the selected resource's attachments, newest
// first, replacing the prior list wholesale. With no selection the panel
// empties. Attachments are never cached across selections.
func (s *Session) LoadAttachments(ctx context.Context) error {
	s.mu.Lock()
	sel := s.selection
	s.mu.Unlock()

	if sel == nil {
		s.mu.Lock()
		s.attachmentList = nil
		s.mu.Unlock()
		return nil
	}
	views, err := s.attachments.List(sel.ID)
	if err != nil {
		return errors.Wrap(err, "failed to load attachments")
	}
	s.mu.Lock()
	s.attachmentList = views
	s.mu.Unlock()
	return nil
}

// Attachments returns the attachment panel's current contents.
func (s *Session) Attachments() []services.AttachmentView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]services.AttachmentView, len(s.attachmentList))
	copy(out, s.attachmentList)
	return out
}

// UploadAttachments stores a batch against the selected resource, then
// reloads the panel. A failure partway through still surfaces the files
// already committed.
func (s *Session) UploadAttachments(ctx context.Context, files []services.IncomingFile) error {
	s.mu.Lock()
	sel := s.selection
	s.mu.Unlock()
	if sel == nil {
		return fmt.Errorf("no resource selected")
	}
	saved, err := s.attachments.UploadBatch(ctx, sel.ID, files)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("error").Inc()
		if reloadErr := s.LoadAttachments(ctx); reloadErr == nil && len(saved) > 0 {
			return fmt.Errorf("%d of %d files uploaded: %v", len(saved), len(files), err)
		}
		return err
	}
	s.metrics.UploadsTotal.WithLabelValues("ok").Add(float64(len(saved)))
	return s.LoadAttachments(ctx)
}

// ReloadWorkOrders refetches the full work order list. Work orders load
// independently of the selection; scoping happens at display time.
func (s *Session) ReloadWorkOrders(ctx context.Context) error {
	orders, err := s.workorders.List()
	if err != nil {
		return errors.Wrap(err, "failed to load work orders")
	}
	s.mu.Lock()
	s.workOrderList = orders
	s.mu.Unlock()
	return nil
}

// WorkOrders returns all loaded work orders.
func (s *Session) WorkOrders() []models.WorkOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WorkOrder, len(s.workOrderList))
	copy(out, s.workOrderList)
	return out
}

// WorkOrdersForSelection filters the loaded work orders to the selected
// resource for display.
func (s *Session) WorkOrdersForSelection() []models.WorkOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil
	}
	var out []models.WorkOrder
	for _, o := range s.workOrderList {
		if o.ResourceID != nil && *o.ResourceID == s.selection.ID {
			out = append(out, o)
		}
	}
	return out
}

// DeleteSelected deletes the selected resource (the store cascades its
// work orders), clears the selection, closes the panel and re-syncs.
func (s *Session) DeleteSelected(ctx context.Context) error {
	s.mu.Lock()
	sel := s.selection
	s.mu.Unlock()
	if sel == nil {
		return fmt.Errorf("no resource selected")
	}
	if err := s.resources.Delete(sel.ID); err != nil {
		return err
	}
	s.mu.Lock()
	s.cancelLocked()
	s.clearSelectionLocked()
	s.mu.Unlock()
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	return s.ReloadWorkOrders(ctx)
}
