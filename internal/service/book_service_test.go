package service

import (
	"context"
	"testing"

	"sosach/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *serviceFixture) createEntry(t *testing.T, book *model.Book, author *model.User) *model.BookEntry {
	t.Helper()
	entry, err := f.books.CreateEntry(context.Background(), author, CreateEntryRequest{
		BookID:    book.ID.String(),
		Title:     "Trực ban ngày 15/6",
		Content:   "Không có gì bất thường",
		EntryDate: f.now,
	})
	require.NoError(t, err)
	return entry
}

func TestCreateEntryStartsAsDraft(t *testing.T) {
	f := newServiceFixture(t)
	book := f.createBook(t)

	entry := f.createEntry(t, book, &f.member)
	assert.Equal(t, model.EntryStatusDraft, entry.Status)
	assert.Equal(t, f.member.ID, entry.CreatedBy)
	assert.Nil(t, entry.SubmittedAt)
}

func TestEntryLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	book := f.createBook(t)
	entry := f.createEntry(t, book, &f.member)

	submitted, err := f.books.SubmitEntry(context.Background(), &f.member, entry.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	// The book owner learns about the submission.
	pending := f.notifications.byType(model.NotificationTypeEntrySubmitted)
	require.Len(t, pending, 1)
	assert.Equal(t, f.commander.ID, pending[0].RecipientID)

	// A submitted entry is frozen until reviewed.
	_, err = f.books.UpdateEntry(context.Background(), &f.member, entry.ID.String(), UpdateEntryRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrEntryNotEditable)
	_, err = f.books.SubmitEntry(context.Background(), &f.member, entry.ID.String())
	assert.ErrorIs(t, err, ErrEntryNotSubmittable)

	approved, err := f.books.ApproveEntry(context.Background(), &f.commander, entry.ID.String(), "đầy đủ")
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, f.commander.ID, *approved.ReviewedBy)
	assert.Equal(t, "đầy đủ", approved.ReviewNotes)

	// The author learns the outcome.
	outcomes := f.notifications.byType(model.NotificationTypeEntryApproved)
	require.Len(t, outcomes, 1)
	assert.Equal(t, f.member.ID, outcomes[0].RecipientID)

	// An approved entry cannot be reviewed again.
	_, err = f.books.RejectEntry(context.Background(), &f.commander, entry.ID.String(), "")
	assert.ErrorIs(t, err, ErrEntryNotReviewable)
}

func TestRejectedEntryCanBeReworked(t *testing.T) {
	f := newServiceFixture(t)
	book := f.createBook(t)
	entry := f.createEntry(t, book, &f.member)

	_, err := f.books.SubmitEntry(context.Background(), &f.member, entry.ID.String())
	require.NoError(t, err)

	rejected, err := f.books.RejectEntry(context.Background(), &f.commander, entry.ID.String(), "thiếu số liệu")
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusRejected, rejected.Status)

	// The author may edit and resubmit; resubmission clears the old review.
	_, err = f.books.UpdateEntry(context.Background(), &f.member, entry.ID.String(), UpdateEntryRequest{Content: "bổ sung số liệu"})
	require.NoError(t, err)

	resubmitted, err := f.books.SubmitEntry(context.Background(), &f.member, entry.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusSubmitted, resubmitted.Status)
	assert.Nil(t, resubmitted.ReviewedBy)
	assert.Empty(t, resubmitted.ReviewNotes)
}

func TestDeleteEntryAuthorization(t *testing.T) {
	f := newServiceFixture(t)
	book := f.createBook(t)
	entry := f.createEntry(t, book, &f.member)

	other := model.User{Username: "khac", FullName: "Phạm Văn Cường", Email: "cuong@example.com", Password: "x", Role: model.RoleMember, IsActive: true}
	require.NoError(t, f.db.Create(&other).Error)

	assert.Error(t, f.books.DeleteEntry(context.Background(), &other, entry.ID.String()))
	assert.NoError(t, f.books.DeleteEntry(context.Background(), &f.member, entry.ID.String()))
}

func TestUpdateBook(t *testing.T) {
	f := newServiceFixture(t)
	book := f.createBook(t)

	inactive := false
	updated, err := f.books.UpdateBook(context.Background(), book.ID.String(), UpdateBookRequest{
		Name:      "Sổ trực chỉ huy",
		Frequency: model.BookFrequencyWeekly,
		IsActive:  &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sổ trực chỉ huy", updated.Name)
	assert.Equal(t, model.BookFrequencyWeekly, updated.Frequency)
	assert.False(t, updated.IsActive)
	assert.Equal(t, book.Code, updated.Code, "code is immutable")
}
