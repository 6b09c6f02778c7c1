package storage

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/docdesk/internal/models"
	"go.uber.org/zap"
)

var leadRowColumns = []string{
	"id", "owner_id", "conversation_id", "name", "email", "phone", "company", "question", "interest",
	"best_time_to_call", "timezone", "priority", "status", "notes", "contacted_at", "scheduled_at", "created_at", "updated_at",
}

func newMockStorage(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStorageFromDB(db, zap.NewNop()), mock
}

func sampleLead(created time.Time) *models.Lead {
	return &models.Lead{
		ID:             "lead-1",
		OwnerID:        "owner-1",
		ConversationID: "conv-1",
		Name:           "Ada",
		Email:          "ada@example.com",
		Phone:          "+15550100",
		Question:       "What is your pricing?",
		Interest:       models.InterestPricing,
		BestTimeToCall: models.CallMorning,
		Timezone:       "UTC",
		Priority:       models.PriorityHigh,
		Status:         models.StatusNew,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func leadRow(l *models.Lead, contactedAt any) []driver.Value {
	return []driver.Value{
		l.ID, l.OwnerID, l.ConversationID, l.Name, l.Email, l.Phone, l.Company, l.Question, string(l.Interest),
		string(l.BestTimeToCall), l.Timezone, string(l.Priority), string(l.Status), l.Notes, contactedAt, nil, l.CreatedAt, l.UpdatedAt,
	}
}

func TestPostgresStorage_InsertLead(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()
	lead := sampleLead(time.Now())

	mock.ExpectExec(regexp.QuoteMeta(insertLeadQuery)).
		WithArgs(lead.ID, lead.OwnerID, lead.ConversationID, lead.Name, lead.Email, lead.Phone, lead.Company,
			lead.Question, lead.Interest, lead.BestTimeToCall, lead.Timezone, lead.Priority, lead.Status, lead.Notes,
			nil, nil, lead.CreatedAt, lead.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.InsertLead(ctx, lead))

	mock.ExpectExec(regexp.QuoteMeta(insertLeadQuery)).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "leads_dedup_key"})

	assert.ErrorIs(t, store.InsertLead(ctx, lead), ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_FindLead(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()
	lead := sampleLead(time.Now().UTC())

	mock.ExpectQuery(regexp.QuoteMeta(findLeadQuery)).
		WithArgs("owner-1", "conv-1", "ada@example.com").
		WillReturnRows(sqlmock.NewRows(leadRowColumns).AddRow(leadRow(lead, nil)...))

	found, err := store.FindLead(ctx, "owner-1", "conv-1", "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "lead-1", found.ID)
	assert.Equal(t, models.PriorityHigh, found.Priority)
	assert.Nil(t, found.ContactedAt)

	mock.ExpectQuery(regexp.QuoteMeta(findLeadQuery)).
		WithArgs("owner-1", "conv-2", "ada@example.com").
		WillReturnRows(sqlmock.NewRows(leadRowColumns))

	found, err = store.FindLead(ctx, "owner-1", "conv-2", "ada@example.com")
	assert.NoError(t, err)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_UpdateLead(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	lead := sampleLead(now.Add(-time.Hour))
	lead.Status = models.StatusContacted
	lead.Notes = "left voicemail"

	patch := models.LeadPatch{Status: models.StatusContacted, Notes: "left voicemail", ContactedAt: &now, UpdatedAt: now}
	mock.ExpectQuery(regexp.QuoteMeta(updateLeadQuery)).
		WithArgs("lead-1", patch.Status, patch.Notes, patch.ContactedAt, patch.UpdatedAt).
		WillReturnRows(sqlmock.NewRows(leadRowColumns).AddRow(leadRow(lead, now)...))

	updated, err := store.UpdateLead(ctx, "lead-1", patch)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, models.StatusContacted, updated.Status)
	require.NotNil(t, updated.ContactedAt)
	assert.True(t, now.Equal(*updated.ContactedAt))

	mock.ExpectQuery(regexp.QuoteMeta(updateLeadQuery)).
		WithArgs("missing", models.StatusScheduled, "", nil, now).
		WillReturnRows(sqlmock.NewRows(leadRowColumns))

	updated, err = store.UpdateLead(ctx, "missing", models.LeadPatch{Status: models.StatusScheduled, UpdatedAt: now})
	assert.NoError(t, err)
	assert.Nil(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_QueryLeads(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()
	lead := sampleLead(time.Now().UTC())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leads l WHERE l.status = $1 AND l.priority = $2")).
		WithArgs(models.StatusNew, models.PriorityHigh).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	columns := append(append([]string{}, leadRowColumns...), "name", "email")
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads l LEFT JOIN users u ON u.id = l.owner_id WHERE l.status = $1 AND l.priority = $2 ORDER BY l.created_at DESC, l.id DESC LIMIT $3 OFFSET $4")).
		WithArgs(models.StatusNew, models.PriorityHigh, 20, 20).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(append(leadRow(lead, nil), "Owner One", "owner@example.com")...))

	leads, total, err := store.QueryLeads(ctx,
		models.LeadFilter{Status: models.StatusNew, Priority: models.PriorityHigh},
		models.Page{Number: 2, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, leads, 1)
	assert.Equal(t, "Owner One", leads[0].Owner.Name)
	assert.Equal(t, "owner-1", leads[0].Owner.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_CreateUser(t *testing.T) {
	store, mock := newMockStorage(t)
	ctx := context.Background()
	user := &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", Role: models.RoleUser, CreatedAt: time.Now()}

	mock.ExpectExec(regexp.QuoteMeta(insertUserQuery)).
		WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.CreateUser(ctx, user))

	mock.ExpectExec(regexp.QuoteMeta(insertUserQuery)).
		WillReturnError(&pq.Error{Code: uniqueViolation})
	assert.ErrorIs(t, store.CreateUser(ctx, user), ErrDuplicate)

	mock.ExpectQuery(regexp.QuoteMeta(selectUserQuery + " WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}))
	found, err := store.GetUserByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
