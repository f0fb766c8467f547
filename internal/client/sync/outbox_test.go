package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/zonesync/internal/models"
)

func TestOutbox_SnapshotOrder(t *testing.T) {
	o := newOutbox()
	o.save(newNote(t, "a", "a"), newNote(t, "b", "b"))
	o.remove("c")
	o.save(newNote(t, "a", "a2"))
	o.remove("b")

	set, revs := o.snapshot()
	assert.Equal(t, []models.RecordID{"a"}, models.RecordIDs(set.RecordsToSave))
	assert.Equal(t, "a2", titleOf(t, set.RecordsToSave[0]))
	assert.Equal(t, []models.RecordID{"c", "b"}, set.RecordIDsToDelete)
	assert.Len(t, revs, 3)
	assert.Equal(t, 3, o.len())
}

func TestOutbox_ConfirmByRevision(t *testing.T) {
	o := newOutbox()
	o.save(newNote(t, "a", "v1"), newNote(t, "b", "v1"))
	o.remove("c")
	_, revs := o.snapshot()

	// Запись изменена, пока шла выгрузка
	o.save(newNote(t, "a", "v2"))

	savedA := newNote(t, "a", "v1")
	savedA.SystemMetadata = []byte("etag-a")
	savedB := newNote(t, "b", "v1")
	savedB.SystemMetadata = []byte("etag-b")
	o.confirmSaved(revs, savedA, savedB)
	o.confirmDeleted(revs, "c")

	set, _ := o.snapshot()
	assert.Equal(t, 1, o.len())
	assert.Empty(t, set.RecordIDsToDelete)
	if assert.Len(t, set.RecordsToSave, 1) {
		rec := set.RecordsToSave[0]
		assert.Equal(t, "v2", titleOf(t, rec), "newer local change survives")
		assert.Equal(t, []byte("etag-a"), rec.SystemMetadata, "but adopts the confirmed version")
	}
}

func TestOutbox_ConfirmDeleteIgnoresResave(t *testing.T) {
	o := newOutbox()
	o.remove("a")
	_, revs := o.snapshot()
	o.save(newNote(t, "a", "back"))

	o.confirmDeleted(revs, "a")
	o.drop(revs, "a")
	assert.Equal(t, 1, o.len())

	o.clear()
	assert.Zero(t, o.len())
}
