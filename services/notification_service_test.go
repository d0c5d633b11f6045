package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safety-compliance-api/models"
)

func TestDispatchStoresTemplatedRows(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, models.RoleEmployee)
	svc := testNotifier(db)

	svc.Dispatch([]Event{
		{
			Kind:      EventDocumentRejected,
			Recipient: 1,
			RefType:   RefTypeDocument,
			RefID:     7,
			Subject:   "Evacuation plan",
			Detail:    "missing signatures",
		},
	})

	rows := notificationsFor(t, db, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, "Document rejected", rows[0].Title)
	assert.Contains(t, rows[0].Message, "Evacuation plan")
	assert.Contains(t, rows[0].Message, "missing signatures")
	assert.Equal(t, "error", rows[0].Type)
	require.NotNil(t, rows[0].ReferenceType)
	assert.Equal(t, RefTypeDocument, *rows[0].ReferenceType)
	require.NotNil(t, rows[0].ReferenceID)
	assert.EqualValues(t, 7, *rows[0].ReferenceID)
	assert.False(t, rows[0].IsRead)
}

func TestDispatchSkipsUnknownKind(t *testing.T) {
	db := newTestDB(t)
	svc := testNotifier(db)

	svc.Dispatch([]Event{{Kind: "nonsense.event", Recipient: 1}})
	assert.Zero(t, notificationCount(t, db))
}

func TestDispatchMailFailureIsSwallowed(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, models.RoleEmployee)

	svc := &NotificationService{
		db:        db,
		emailSend: true,
		sendMail: func(to []string, subject, html string) error {
			return assert.AnError
		},
	}

	// A failing push must still leave the in-app row behind.
	svc.Dispatch([]Event{{
		Kind:      EventDocumentApproved,
		Recipient: 1,
		RefType:   RefTypeDocument,
		RefID:     1,
		Subject:   "x",
	}})
	assert.EqualValues(t, 1, notificationCount(t, db))
}
