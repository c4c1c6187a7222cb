package database

import (
	"context"
	"slices"

	"github.com/nao1215/sitemaps/internal/model"
)

// Diff compares two runs of a target.
type Diff struct {
	Old Run
	New Run

	// Added and Removed list entry locations present in only one run.
	Added   []string
	Removed []string

	// Modified lists entries present in both runs whose lastmod,
	// changefreq or priority differ.
	Modified []string

	// ChangedDocuments lists documents fetched in both runs whose content differs.
	ChangedDocuments []string
}

// IsEmpty reports whether the runs are equivalent.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0 && len(d.ChangedDocuments) == 0
}

// DiffRuns compares the runs oldID and newID. All lists are sorted.
func (h *HistoryDB) DiffRuns(ctx context.Context, oldID, newID string) (*Diff, error) {
	oldRun, err := h.GetRun(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newRun, err := h.GetRun(ctx, newID)
	if err != nil {
		return nil, err
	}

	oldEntries, err := h.Entries(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newEntries, err := h.Entries(ctx, newID)
	if err != nil {
		return nil, err
	}
	oldDocs, err := h.Documents(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newDocs, err := h.Documents(ctx, newID)
	if err != nil {
		return nil, err
	}

	d := &Diff{Old: *oldRun, New: *newRun}

	before := make(map[string]model.Entry, len(oldEntries))
	for _, e := range oldEntries {
		before[e.Key()] = e
	}
	after := make(map[string]struct{}, len(newEntries))
	for _, e := range newEntries {
		key := e.Key()
		after[key] = struct{}{}
		prev, ok := before[key]
		switch {
		case !ok:
			d.Added = append(d.Added, key)
		case !sameMetadata(prev, e):
			d.Modified = append(d.Modified, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			d.Removed = append(d.Removed, key)
		}
	}

	for loc, digest := range newDocs {
		if prev, ok := oldDocs[loc]; ok && prev != digest {
			d.ChangedDocuments = append(d.ChangedDocuments, loc)
		}
	}

	slices.Sort(d.Added)
	slices.Sort(d.Removed)
	slices.Sort(d.Modified)
	slices.Sort(d.ChangedDocuments)
	return d, nil
}

// DiffLatest compares the two most recent runs of target.
func (h *HistoryDB) DiffLatest(ctx context.Context, target string) (*Diff, error) {
	runs, err := h.ListRuns(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(runs) < 2 {
		return nil, ErrNotEnoughRuns
	}
	return h.DiffRuns(ctx, runs[1].ID, runs[0].ID)
}

func sameMetadata(a, b model.Entry) bool {
	if a.ChangeFrequency != b.ChangeFrequency || a.Priority != b.Priority {
		return false
	}
	switch {
	case a.LastModified == nil && b.LastModified == nil:
		return true
	case a.LastModified == nil || b.LastModified == nil:
		return false
	default:
		return a.LastModified.Equal(*b.LastModified)
	}
}
