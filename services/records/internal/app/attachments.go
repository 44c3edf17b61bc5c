package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"deptrecords/internal/util"
	"deptrecords/pkg/domain"
	"deptrecords/pkg/events"
)

const attachmentURLExpiry = 15 * time.Minute

// AttachNoteFile uploads a file for a note and records its object key.
// A second upload replaces the previous object.
func (a *App) AttachNoteFile(ctx context.Context, noteID string, r io.Reader, size int64, contentType string) (domain.Note, error) {
	if a.objects == nil {
		return domain.Note{}, ErrAttachmentsDisabled
	}
	note, ok, err := a.store.GetNoteByID(strings.TrimSpace(noteID))
	if err != nil {
		return domain.Note{}, fmt.Errorf("fetch note: %w", err)
	}
	if !ok {
		return domain.Note{}, ErrNoteNotFound
	}
	key := "notes/" + note.ID + "/" + util.NewID()
	if err := a.objects.Put(ctx, key, r, size, contentType); err != nil {
		return domain.Note{}, fmt.Errorf("store attachment: %w", err)
	}
	previous := note.AttachmentKey
	note.AttachmentKey = key
	note.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveNote(note); err != nil {
		return domain.Note{}, fmt.Errorf("save note: %w", err)
	}
	if previous != "" {
		if err := a.objects.Delete(ctx, previous); err != nil {
			util.LoggerFromContext(ctx).Warn("delete old attachment failed", "note", note.ID, "err", err)
		}
	}
	a.publish(ctx, "note", events.ActionUpdated, note.ID)
	return note, nil
}

// NoteAttachmentURL returns a short-lived download URL for a note's
// attachment.
func (a *App) NoteAttachmentURL(ctx context.Context, noteID string) (string, error) {
	if a.objects == nil {
		return "", ErrAttachmentsDisabled
	}
	note, ok, err := a.store.GetNoteByID(strings.TrimSpace(noteID))
	if err != nil {
		return "", fmt.Errorf("fetch note: %w", err)
	}
	if !ok {
		return "", ErrNoteNotFound
	}
	if note.AttachmentKey == "" {
		return "", ErrNoAttachment
	}
	url, err := a.objects.PresignGet(ctx, note.AttachmentKey, attachmentURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign attachment: %w", err)
	}
	return url, nil
}
