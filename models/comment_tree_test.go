package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }
func intPtr(v int) *int    { return &v }

func mkComment(id uint, parentID *uint, name string, createdAt time.Time) *Comment {
	return &Comment{
		ID:        id,
		Kind:      KindBook,
		ItemID:    1,
		Name:      name,
		Comment:   fmt.Sprintf("comment %d", id),
		ParentID:  parentID,
		IsActive:  true,
		CreatedAt: createdAt,
	}
}

func TestBuildCommentTree(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Input is chronologically ascending, the way the store loads it.
	all := []*Comment{
		mkComment(1, nil, "alice", base),
		mkComment(2, uintPtr(1), "bob", base.Add(1*time.Minute)),
		mkComment(3, uintPtr(1), "carol", base.Add(2*time.Minute)),
		mkComment(4, nil, "dave", base.Add(3*time.Minute)),
		mkComment(5, uintPtr(99), "eve", base.Add(4*time.Minute)), // dangling
	}

	roots := BuildCommentTree(all)
	require.Len(t, roots, 2)

	// Roots come out newest-first.
	assert.Equal(t, uint(4), roots[0].ID)
	assert.Equal(t, uint(1), roots[1].ID)

	// Children keep input order, oldest first.
	require.Len(t, roots[1].Replies, 2)
	assert.Equal(t, uint(2), roots[1].Replies[0].ID)
	assert.Equal(t, uint(3), roots[1].Replies[1].ID)

	// The dangling reply is dropped, not promoted to a root.
	for _, r := range roots {
		assert.NotEqual(t, uint(5), r.ID)
	}
}

func TestBuildCommentTreeResetsStaleLinks(t *testing.T) {
	base := time.Now()
	root := mkComment(1, nil, "alice", base)
	root.Replies = []*Comment{mkComment(77, uintPtr(1), "ghost", base)}

	roots := BuildCommentTree([]*Comment{root})
	require.Len(t, roots, 1)
	assert.Empty(t, roots[0].Replies)
}

func TestFlattenRepliesParentNames(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	root := mkComment(1, nil, "alice", base)
	a := mkComment(2, uintPtr(1), "bob", base.Add(time.Minute))
	b := mkComment(3, uintPtr(2), "carol", base.Add(2*time.Minute))
	roots := BuildCommentTree([]*Comment{root, a, b})
	require.Len(t, roots, 1)

	flat := FlattenReplies(roots[0])
	require.Len(t, flat, 2)

	assert.Equal(t, "bob", flat[0].Name)
	assert.Equal(t, "alice", flat[0].ParentName)
	assert.Equal(t, "carol", flat[1].Name)
	assert.Equal(t, "bob", flat[1].ParentName)
	assert.Equal(t, "2026-03-01 09:31", flat[0].Date)
}

func TestFlattenRepliesAdminAttribution(t *testing.T) {
	base := time.Now()
	root := mkComment(1, nil, "alice", base)
	reply := mkComment(2, uintPtr(1), "bob", base.Add(time.Minute))
	reply.ParentIsAdminReply = true

	roots := BuildCommentTree([]*Comment{root, reply})
	flat := FlattenReplies(roots[0])
	require.Len(t, flat, 1)
	assert.Equal(t, "Admin", flat[0].ParentName)
}

func TestFlattenRepliesSiblingsOldestFirst(t *testing.T) {
	base := time.Now()
	root := mkComment(1, nil, "alice", base)
	all := []*Comment{root}
	for i := uint(2); i <= 4; i++ {
		all = append(all, mkComment(i, uintPtr(1), "bob", base.Add(time.Duration(i)*time.Minute)))
	}

	roots := BuildCommentTree(all)
	flat := FlattenReplies(roots[0])
	require.Len(t, flat, 3)
	assert.Equal(t, uint(2), flat[0].ID)
	assert.Equal(t, uint(3), flat[1].ID)
	assert.Equal(t, uint(4), flat[2].ID)
}

func TestReplyCountDeepChain(t *testing.T) {
	base := time.Now()
	all := []*Comment{mkComment(1, nil, "alice", base)}
	for i := uint(2); i <= 51; i++ {
		parent := i - 1
		all = append(all, mkComment(i, &parent, "bob", base.Add(time.Duration(i)*time.Second)))
	}

	roots := BuildCommentTree(all)
	require.Len(t, roots, 1)
	assert.Equal(t, 50, roots[0].ReplyCount())
	assert.Len(t, FlattenReplies(roots[0]), 50)
}

func TestSubtreeIDs(t *testing.T) {
	all := []*Comment{
		mkComment(1, nil, "alice", time.Now()),
		mkComment(2, uintPtr(1), "bob", time.Now()),
		mkComment(3, uintPtr(2), "carol", time.Now()),
		mkComment(4, uintPtr(1), "dave", time.Now()),
		mkComment(5, nil, "eve", time.Now()), // unrelated root
		mkComment(6, uintPtr(5), "frank", time.Now()),
	}

	ids := SubtreeIDs(all, 1)
	assert.ElementsMatch(t, []uint{1, 2, 3, 4}, ids)

	// A leaf yields only itself.
	assert.Equal(t, []uint{3}, SubtreeIDs(all, 3))
}

func TestIsNoOpEdit(t *testing.T) {
	c := &Comment{Comment: "original", Rating: intPtr(4)}

	tests := []struct {
		name   string
		body   string
		rating *int
		want   bool
	}{
		{"identical body, no rating sent", "original", nil, true},
		{"identical body and rating", "original", intPtr(4), true},
		{"body changed", "edited", nil, false},
		{"rating changed", "original", intPtr(5), false},
		{"both changed", "edited", intPtr(5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNoOpEdit(c, tt.body, tt.rating))
		})
	}

	// A reply without a rating counts a matching nil as unchanged.
	reply := &Comment{Comment: "hi"}
	assert.True(t, IsNoOpEdit(reply, "hi", nil))
	assert.False(t, IsNoOpEdit(reply, "hi", intPtr(3)))
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(string(k))
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}

	got, ok := ParseKind("  Book ")
	assert.True(t, ok)
	assert.Equal(t, KindBook, got)

	_, ok = ParseKind("podcast")
	assert.False(t, ok)
	_, ok = ParseKind("")
	assert.False(t, ok)
}

func TestDisplayNamePrefersLiveUsername(t *testing.T) {
	c := &Comment{Name: "old-handle"}
	assert.Equal(t, "old-handle", c.DisplayName())

	c.User = &User{Username: "new-handle"}
	assert.Equal(t, "new-handle", c.DisplayName())

	c.User = &User{}
	assert.Equal(t, "old-handle", c.DisplayName())
}
