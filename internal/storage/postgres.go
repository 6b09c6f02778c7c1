package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/xaenox/docdesk/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

const uniqueViolation = "23505"

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := NewPostgresStorageFromDB(db, logger)
	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("database", config.DBName))
	return storage, nil
}

// NewPostgresStorageFromDB wraps an open handle without running migrations.
func NewPostgresStorageFromDB(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

const (
	insertUserQuery = `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	selectUserQuery = `SELECT id, name, email, password_hash, role, created_at FROM users`
)

func (s *PostgresStorage) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, insertUserQuery,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, selectUserQuery+" WHERE id = $1", id)
}

func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, selectUserQuery+" WHERE email = $1", email)
}

func (s *PostgresStorage) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	return user, nil
}

const (
	insertDocumentQuery = `
		INSERT INTO documents (id, owner_id, filename, original_name, content, file_type, file_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	selectDocumentsQuery = `
		SELECT id, owner_id, filename, original_name, content, file_type, file_size, created_at
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC`
	deleteDocumentQuery = `
		DELETE FROM documents
		WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, filename, original_name, file_type, file_size, created_at`
)

func (s *PostgresStorage) SaveDocument(ctx context.Context, doc *models.Document) error {
	_, err := s.db.ExecContext(ctx, insertDocumentQuery,
		doc.ID, doc.OwnerID, doc.Filename, doc.OriginalName, doc.Content, doc.FileType, doc.FileSize, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving document: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetDocuments(ctx context.Context, ownerID string) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, selectDocumentsQuery, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		doc := &models.Document{}
		if err := rows.Scan(
			&doc.ID,
			&doc.OwnerID,
			&doc.Filename,
			&doc.OriginalName,
			&doc.Content,
			&doc.FileType,
			&doc.FileSize,
			&doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStorage) DeleteDocument(ctx context.Context, ownerID, id string) (*models.Document, error) {
	doc := &models.Document{}
	err := s.db.QueryRowContext(ctx, deleteDocumentQuery, id, ownerID).Scan(
		&doc.ID, &doc.OwnerID, &doc.Filename, &doc.OriginalName, &doc.FileType, &doc.FileSize, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error deleting document: %w", err)
	}
	return doc, nil
}

const (
	leadColumns = `id, owner_id, conversation_id, name, email, phone, company, question, interest, ` +
		`best_time_to_call, timezone, priority, status, notes, contacted_at, scheduled_at, created_at, updated_at`
	joinedLeadColumns = `l.id, l.owner_id, l.conversation_id, l.name, l.email, l.phone, l.company, l.question, l.interest, ` +
		`l.best_time_to_call, l.timezone, l.priority, l.status, l.notes, l.contacted_at, l.scheduled_at, l.created_at, l.updated_at`
)

const (
	insertLeadQuery = `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	findLeadQuery = `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE owner_id = $1 AND conversation_id = $2 AND email = $3`
	updateLeadQuery = `
		UPDATE leads
		SET status = $2, notes = $3, contacted_at = COALESCE($4, contacted_at), updated_at = $5
		WHERE id = $1
		RETURNING ` + leadColumns
	ownerLeadsQuery = `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func leadFields(lead *models.Lead, contactedAt, scheduledAt *sql.NullTime) []any {
	return []any{
		&lead.ID,
		&lead.OwnerID,
		&lead.ConversationID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.Question,
		&lead.Interest,
		&lead.BestTimeToCall,
		&lead.Timezone,
		&lead.Priority,
		&lead.Status,
		&lead.Notes,
		contactedAt,
		scheduledAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	}
}

func scanLead(row rowScanner, extra ...any) (*models.Lead, error) {
	lead := &models.Lead{}
	var contactedAt, scheduledAt sql.NullTime
	if err := row.Scan(append(leadFields(lead, &contactedAt, &scheduledAt), extra...)...); err != nil {
		return nil, err
	}
	lead.ContactedAt = timePtr(contactedAt)
	lead.ScheduledAt = timePtr(scheduledAt)
	return lead, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (s *PostgresStorage) FindLead(ctx context.Context, ownerID, conversationID, email string) (*models.Lead, error) {
	lead, err := scanLead(s.db.QueryRowContext(ctx, findLeadQuery, ownerID, conversationID, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding lead: %w", err)
	}
	return lead, nil
}

func (s *PostgresStorage) InsertLead(ctx context.Context, lead *models.Lead) error {
	_, err := s.db.ExecContext(ctx, insertLeadQuery,
		lead.ID,
		lead.OwnerID,
		lead.ConversationID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Question,
		lead.Interest,
		lead.BestTimeToCall,
		lead.Timezone,
		lead.Priority,
		lead.Status,
		lead.Notes,
		lead.ContactedAt,
		lead.ScheduledAt,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("error creating lead: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (*models.Lead, error) {
	lead, err := scanLead(s.db.QueryRowContext(ctx, updateLeadQuery,
		id, patch.Status, patch.Notes, patch.ContactedAt, patch.UpdatedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error updating lead: %w", err)
	}
	return lead, nil
}

func (s *PostgresStorage) GetOwnerLeads(ctx context.Context, ownerID string, limit int) ([]*models.Lead, error) {
	rows, err := s.db.QueryContext(ctx, ownerLeadsQuery, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying leads: %w", err)
	}
	defer rows.Close()

	leads := make([]*models.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// leadFilterClause renders filter as a WHERE clause over the leads alias l.
func leadFilterClause(filter models.LeadFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("l.status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conds = append(conds, fmt.Sprintf("l.priority = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStorage) QueryLeads(ctx context.Context, filter models.LeadFilter, page models.Page) ([]*models.LeadWithOwner, int, error) {
	where, args := leadFilterClause(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads l"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting leads: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s, u.name, u.email FROM leads l LEFT JOIN users u ON u.id = l.owner_id%s ORDER BY l.created_at DESC, l.id DESC LIMIT $%d OFFSET $%d`,
		joinedLeadColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying leads: %w", err)
	}
	defer rows.Close()

	result := make([]*models.LeadWithOwner, 0)
	for rows.Next() {
		var ownerName, ownerEmail sql.NullString
		lead, err := scanLead(rows, &ownerName, &ownerEmail)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning lead: %w", err)
		}
		result = append(result, &models.LeadWithOwner{
			Lead: *lead,
			Owner: models.Owner{
				ID:    lead.OwnerID,
				Name:  ownerName.String,
				Email: ownerEmail.String,
			},
		})
	}
	return result, total, rows.Err()
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
