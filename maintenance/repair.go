package maintenance

import (
	"gorm.io/gorm"

	"github.com/bagarji/library/models"
)

// ParentEdge is the minimal projection of a comment used by the scans.
type ParentEdge struct {
	ID       uint
	ParentID *uint
}

// LedgerRef is the minimal projection of a ledger entry used by the scans.
type LedgerRef struct {
	ID        uint
	CommentID uint
}

// Report carries per-kind and total counts out of one maintenance run.
type Report struct {
	PerKind map[models.CommentKind]int
	Total   int
}

func newReport() *Report {
	return &Report{PerKind: make(map[models.CommentKind]int, len(models.Kinds))}
}

func (r *Report) add(kind models.CommentKind, n int) {
	r.PerKind[kind] += n
	r.Total += n
}

// BadParentIDs returns the ids of comments whose parent reference does not
// resolve within the given id set. A parent id of 0 can never resolve and is
// reported too.
func BadParentIDs(existing map[uint]struct{}, edges []ParentEdge) []uint {
	var bad []uint
	for _, e := range edges {
		if e.ParentID == nil {
			continue
		}
		if _, ok := existing[*e.ParentID]; !ok {
			bad = append(bad, e.ID)
		}
	}
	return bad
}

// OrphanLedgerIDs returns ledger entry ids whose target comment is absent
// from the kind's id set.
func OrphanLedgerIDs(existing map[uint]struct{}, entries []LedgerRef) []uint {
	var orphans []uint
	for _, e := range entries {
		if _, ok := existing[e.CommentID]; !ok {
			orphans = append(orphans, e.ID)
		}
	}
	return orphans
}

func loadKindIDs(db *gorm.DB, kind models.CommentKind) (map[uint]struct{}, []ParentEdge, error) {
	var rows []models.Comment
	err := db.Select("id", "parent_id").
		Where("kind = ?", kind).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	existing := make(map[uint]struct{}, len(rows))
	edges := make([]ParentEdge, 0, len(rows))
	for _, c := range rows {
		existing[c.ID] = struct{}{}
		edges = append(edges, ParentEdge{ID: c.ID, ParentID: c.ParentID})
	}
	return existing, edges, nil
}

// RepairParents nulls every parent reference that does not resolve within its
// kind, demoting the comment to a root. Demoted rows keep whatever rating
// they had, which for former replies is none; that is reported, not patched.
func RepairParents(db *gorm.DB, logf func(format string, args ...interface{})) (*Report, error) {
	report := newReport()
	for _, kind := range models.Kinds {
		existing, edges, err := loadKindIDs(db, kind)
		if err != nil {
			return nil, err
		}
		bad := BadParentIDs(existing, edges)
		if len(bad) == 0 {
			continue
		}
		err = db.Model(&models.Comment{}).
			Where("kind = ? AND id IN ?", kind, bad).
			Update("parent_id", nil).Error
		if err != nil {
			return nil, err
		}
		for _, id := range bad {
			logf("repaired %s comment %d: dangling parent nulled, now a root without rating", kind, id)
		}
		report.add(kind, len(bad))
	}
	return report, nil
}

// FindBadParents runs the same scan as RepairParents without writing.
func FindBadParents(db *gorm.DB, logf func(format string, args ...interface{})) (*Report, error) {
	report := newReport()
	for _, kind := range models.Kinds {
		existing, edges, err := loadKindIDs(db, kind)
		if err != nil {
			return nil, err
		}
		bad := BadParentIDs(existing, edges)
		for _, id := range bad {
			logf("%s comment %d has a dangling parent reference", kind, id)
		}
		report.add(kind, len(bad))
	}
	return report, nil
}

// PurgeOrphans deletes ledger entries whose target comment no longer exists
// in the kind they claim.
func PurgeOrphans(db *gorm.DB, logf func(format string, args ...interface{})) (*Report, error) {
	report := newReport()
	for _, kind := range models.Kinds {
		existing, _, err := loadKindIDs(db, kind)
		if err != nil {
			return nil, err
		}

		var entries []models.CommentReply
		err = db.Select("id", "comment_id").
			Where("comment_kind = ?", kind).
			Find(&entries).Error
		if err != nil {
			return nil, err
		}
		refs := make([]LedgerRef, 0, len(entries))
		for _, e := range entries {
			refs = append(refs, LedgerRef{ID: e.ID, CommentID: e.CommentID})
		}

		orphans := OrphanLedgerIDs(existing, refs)
		if len(orphans) == 0 {
			continue
		}
		if err := db.Where("id IN ?", orphans).Delete(&models.CommentReply{}).Error; err != nil {
			return nil, err
		}
		logf("purged %d orphaned %s ledger entries", len(orphans), kind)
		report.add(kind, len(orphans))
	}
	return report, nil
}
