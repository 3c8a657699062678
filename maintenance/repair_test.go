package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bagarji/library/models"
)

func idSet(ids ...uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestBadParentIDs(t *testing.T) {
	p := func(v uint) *uint { return &v }

	existing := idSet(1, 2, 3)
	edges := []ParentEdge{
		{ID: 1, ParentID: nil},   // root, never flagged
		{ID: 2, ParentID: p(1)},  // resolves
		{ID: 3, ParentID: p(2)},  // resolves
		{ID: 4, ParentID: p(99)}, // dangling
		{ID: 5, ParentID: p(0)},  // zero can never resolve
	}

	assert.Equal(t, []uint{4, 5}, BadParentIDs(existing, edges))
}

func TestBadParentIDsEmptyInputs(t *testing.T) {
	assert.Empty(t, BadParentIDs(idSet(), nil))
	assert.Empty(t, BadParentIDs(idSet(1), []ParentEdge{{ID: 1}}))
}

func TestOrphanLedgerIDs(t *testing.T) {
	existing := idSet(10)
	entries := []LedgerRef{
		{ID: 1, CommentID: 10}, // target alive
		{ID: 2, CommentID: 11}, // target deleted
	}

	assert.Equal(t, []uint{2}, OrphanLedgerIDs(existing, entries))
}

func TestReportAdd(t *testing.T) {
	r := newReport()
	r.add(models.KindBook, 2)
	r.add(models.KindBook, 1)
	r.add(models.KindNews, 4)

	assert.Equal(t, 3, r.PerKind[models.KindBook])
	assert.Equal(t, 4, r.PerKind[models.KindNews])
	assert.Equal(t, 0, r.PerKind[models.KindBlog])
	assert.Equal(t, 7, r.Total)
}
