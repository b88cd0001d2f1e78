package lead

import (
	"strings"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// Deduper tracks identity keys across the persisted store and the
// in-flight batch. It distinguishes "already persisted" from "seen
// earlier in this batch" so the report can count them separately.
type Deduper struct {
	existing map[string]struct{}
	batch    map[string]struct{}
	validKey func(string) bool
}

// NewDeduper builds a Deduper seeded with keys already present in the
// store. validKey guards the batch set: keys that fail it are never
// recorded, so multiple invalid-identity leads do not dedup against
// each other. A nil validKey accepts any non-empty key.
func NewDeduper(existing []string, validKey func(string) bool) *Deduper {
	d := &Deduper{
		existing: make(map[string]struct{}, len(existing)),
		batch:    make(map[string]struct{}),
		validKey: validKey,
	}
	if d.validKey == nil {
		d.validKey = func(k string) bool { return k != "" }
	}
	for _, key := range existing {
		if k := normalizeKey(key); k != "" {
			d.existing[k] = struct{}{}
		}
	}
	return d
}

// NewEmailDeduper is a Deduper keyed by syntactically valid emails.
func NewEmailDeduper(existing []string) *Deduper {
	return NewDeduper(existing, model.ValidEmail)
}

// Check classifies key and, when it is novel and valid, records it in
// the batch set. The persisted set is consulted first so re-runs report
// stable duplicate_existing counts.
func (d *Deduper) Check(key string) *model.Rejection {
	k := normalizeKey(key)

	if _, ok := d.existing[k]; ok {
		return &model.Rejection{Reason: model.ReasonDuplicateExisting, Detail: k}
	}
	if _, ok := d.batch[k]; ok {
		return &model.Rejection{Reason: model.ReasonDuplicateInBatch, Detail: k}
	}
	if d.validKey(k) {
		d.batch[k] = struct{}{}
	}
	return nil
}

// BatchSize returns the number of novel keys recorded this batch.
func (d *Deduper) BatchSize() int {
	return len(d.batch)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
