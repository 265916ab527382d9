package domain

import (
	"fmt"
	"time"
)

// Attachment references a file held by the blob store.
type Attachment struct {
	ID          string
	Name        string
	URL         string
	UploadedBy  Role
	Timestamp   time.Time
	FromShopify bool
}

// AddAttachment appends an uploaded file.
func (o *Order) AddAttachment(id, name, url string, uploadedBy Role, now time.Time) Attachment {
	a := Attachment{ID: id, Name: name, URL: url, UploadedBy: uploadedBy, Timestamp: now}
	o.Attachments = append(o.Attachments, a)
	o.touch(now)
	return a
}

// AddExternalAttachment appends a file discovered in imported data. Such
// attachments can never be removed.
func (o *Order) AddExternalAttachment(id, name, url string, uploadedBy Role, now time.Time) Attachment {
	a := o.AddAttachment(id, name, url, uploadedBy, now)
	o.Attachments[len(o.Attachments)-1].FromShopify = true
	a.FromShopify = true
	return a
}

// Attachment looks up an attachment by id.
func (o *Order) Attachment(id string) (Attachment, bool) {
	for _, a := range o.Attachments {
		if a.ID == id {
			return a, true
		}
	}
	return Attachment{}, false
}

// RemoveAttachment deletes an attachment if the actor role may do so.
func (o *Order) RemoveAttachment(id string, actor Role, now time.Time) (Attachment, error) {
	idx := -1
	for i := range o.Attachments {
		if o.Attachments[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Attachment{}, fmt.Errorf("%w: %s", ErrAttachmentNotFound, id)
	}
	a := o.Attachments[idx]
	if a.FromShopify {
		return Attachment{}, ErrExternalAttachment
	}
	if !actor.Privileged() && actor != a.UploadedBy {
		return Attachment{}, ErrAttachmentDeleteForbidden
	}
	o.Attachments = append(o.Attachments[:idx:idx], o.Attachments[idx+1:]...)
	o.touch(now)
	o.record(AttachmentRemoved{
		BaseEvent:    BaseEvent{Timestamp: now},
		OrderID:      o.ID,
		AttachmentID: a.ID,
		URL:          a.URL,
		RemovedBy:    actor,
	})
	return a, nil
}
