package sqldb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/nutriagenda/internal/persistence"
)

type clientRow struct {
	ID             string `db:"id"`
	OwnerID        string `db:"owner_id"`
	PersonalInfo   string `db:"personal_info"`
	MedicalHistory string `db:"medical_history"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

func (r clientRow) toPersistence() (persistence.Client, error) {
	client := persistence.Client{ID: r.ID, OwnerID: r.OwnerID}
	if err := json.Unmarshal([]byte(r.PersonalInfo), &client.PersonalInfo); err != nil {
		return persistence.Client{}, fmt.Errorf("failed to decode personal_info: %w", err)
	}
	if err := json.Unmarshal([]byte(r.MedicalHistory), &client.MedicalHistory); err != nil {
		return persistence.Client{}, fmt.Errorf("failed to decode medical_history: %w", err)
	}
	var err error
	if client.CreatedAt, err = parseTime("created_at", r.CreatedAt); err != nil {
		return persistence.Client{}, err
	}
	if client.UpdatedAt, err = parseTime("updated_at", r.UpdatedAt); err != nil {
		return persistence.Client{}, err
	}
	return client, nil
}

func encodeClientDocuments(client persistence.Client) (string, string, error) {
	personal, err := json.Marshal(client.PersonalInfo)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode personal_info: %w", err)
	}
	medical, err := json.Marshal(client.MedicalHistory)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode medical_history: %w", err)
	}
	return string(personal), string(medical), nil
}

const clientColumns = `id, owner_id, personal_info, medical_history, created_at, updated_at`

// ClientRepository implements persistence.ClientRepository. Personal and
// medical sub-documents are stored as JSON text.
type ClientRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewClientRepository creates a new client repository.
func NewClientRepository(pool *ConnectionPool) *ClientRepository {
	return &ClientRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateClient inserts a client profile.
func (r *ClientRepository) CreateClient(ctx context.Context, client persistence.Client) error {
	if client.ID == "" {
		return persistence.ErrConstraintViolation
	}
	personal, medical, err := encodeClientDocuments(client)
	if err != nil {
		return err
	}

	query := `INSERT INTO clients (` + clientColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.helper.Exec(ctx, query,
		client.ID,
		client.OwnerID,
		personal,
		medical,
		formatTime(client.CreatedAt),
		formatTime(client.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqldb: create client: %w", r.mapper.MapError(err))
	}
	return nil
}

// UpdateClient replaces the sub-documents of a client profile. Owner and
// creation time are never rewritten.
func (r *ClientRepository) UpdateClient(ctx context.Context, client persistence.Client) error {
	personal, medical, err := encodeClientDocuments(client)
	if err != nil {
		return err
	}

	query := `UPDATE clients SET personal_info = ?, medical_history = ?, updated_at = ? WHERE id = ?`
	result, err := r.helper.Exec(ctx, query, personal, medical, formatTime(client.UpdatedAt), client.ID)
	if err != nil {
		return fmt.Errorf("sqldb: update client: %w", r.mapper.MapError(err))
	}
	return requireAffected(result)
}

// GetClient retrieves a client profile by ID.
func (r *ClientRepository) GetClient(ctx context.Context, id string) (persistence.Client, error) {
	if id == "" {
		return persistence.Client{}, persistence.ErrNotFound
	}
	var row clientRow
	if err := r.helper.Get(ctx, &row, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id); err != nil {
		return persistence.Client{}, r.mapper.MapError(err)
	}
	return row.toPersistence()
}

// ListClients returns client profiles ordered by creation time.
func (r *ClientRepository) ListClients(ctx context.Context, filter persistence.ClientFilter) ([]persistence.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	var args []interface{}
	if filter.OwnerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var rows []clientRow
	if err := r.helper.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sqldb: list clients: %w", r.mapper.MapError(err))
	}

	clients := make([]persistence.Client, 0, len(rows))
	for _, row := range rows {
		client, err := row.toPersistence()
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, nil
}

// DeleteClient removes a client profile without touching related records.
func (r *ClientRepository) DeleteClient(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqldb: delete client: %w", r.mapper.MapError(err))
	}
	return requireAffected(result)
}
