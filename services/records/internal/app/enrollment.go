package app

import (
	"context"
	"fmt"
	"strings"

	"deptrecords/pkg/events"
)

const replaceEnrollmentAttempts = 3

// ReplaceEnrollment overwrites a paper's enrollment set wholesale. The
// input is cleaned of blanks and duplicates but otherwise kept in order;
// the write is guarded by the paper's version counter so that two
// concurrent replacements cannot silently discard each other. The loser
// re-reads and retries, and gives up with ErrEnrollmentConflict after a
// few attempts.
func (a *App) ReplaceEnrollment(ctx context.Context, paperID string, studentIDs []string) error {
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return ErrIDMissing
	}
	ids := dedupeIDs(studentIDs)
	if len(ids) == 0 {
		return ErrFieldsMissing
	}

	for attempt := 0; attempt < replaceEnrollmentAttempts; attempt++ {
		paper, ok, err := a.store.GetPaperByID(paperID)
		if err != nil {
			return fmt.Errorf("fetch paper: %w", err)
		}
		if !ok {
			return ErrPaperNotFound
		}
		updated, err := a.store.ReplaceStudents(paperID, paper.Version, ids)
		if err != nil {
			return fmt.Errorf("replace students: %w", err)
		}
		if updated {
			a.publish(ctx, "paper", events.ActionUpdated, paperID)
			return nil
		}
		// Zero rows matched: either the paper vanished or the version
		// moved under us. Loop to re-read and tell the two apart.
	}
	return ErrEnrollmentConflict
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
