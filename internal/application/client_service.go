package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// ClientService manages client profiles on behalf of professionals.
type ClientService struct {
	clients     ClientRepository
	users       UserDirectory
	idGenerator func() string
	now         func() time.Time
	options     serviceOptions
}

// NewClientService wires dependencies for the client service. users may be
// nil, in which case linking a profile to an account is rejected.
func NewClientService(clients ClientRepository, users UserDirectory, idGenerator func() string, now func() time.Time, opts ...ServiceOption) *ClientService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClientService{
		clients:     clients,
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		options:     newServiceOptions(opts),
	}
}

func (s *ClientService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.options.logger, "ClientService", operation, attrs...)
}

// CreateClient stores a new profile owned by the acting professional.
func (s *ClientService) CreateClient(ctx context.Context, params CreateClientParams) (client ClientProfile, err error) {
	if s == nil || s.clients == nil {
		return ClientProfile{}, fmt.Errorf("client repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateClient", "principal_id", params.Principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "client creation", "client_id", client.ID)
	}()

	if !params.Principal.IsProfessional() {
		return ClientProfile{}, ErrUnauthorized
	}

	ownerID := strings.TrimSpace(params.OwnerID)
	if ownerID == "" {
		ownerID = params.Principal.UserID
	}
	if ownerID != params.Principal.UserID {
		return ClientProfile{}, ErrUnauthorized
	}

	vErr := validatePersonalInfo(params.PersonalInfo)

	id := strings.TrimSpace(params.AccountID)
	if id != "" {
		vErr.merge(s.validateAccountLink(ctx, id))
	}
	if vErr.HasErrors() {
		return ClientProfile{}, vErr
	}
	if id == "" {
		id = s.idGenerator()
	}

	now := s.now()
	profile := ClientProfile{
		ID:             id,
		OwnerID:        ownerID,
		PersonalInfo:   params.PersonalInfo,
		MedicalHistory: params.MedicalHistory,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	client, err = s.clients.CreateClient(storeCtx, profile)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) && params.AccountID != "" {
			linkErr := &ValidationError{}
			linkErr.add("account_id", "account already has a client profile")
			return ClientProfile{}, linkErr
		}
		return ClientProfile{}, storeError(err)
	}
	return client, nil
}

func (s *ClientService) validateAccountLink(ctx context.Context, accountID string) *ValidationError {
	vErr := &ValidationError{}
	if s.users == nil {
		vErr.add("account_id", "account linking is not available")
		return vErr
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	user, err := s.users.GetUser(storeCtx, accountID)
	switch {
	case errors.Is(err, ErrNotFound):
		vErr.add("account_id", "account does not exist")
	case err != nil:
		vErr.add("account_id", "account could not be verified")
	case user.Role != RoleClient:
		vErr.add("account_id", "account must have the client role")
	}
	return vErr
}

// ListClientsByOwner returns the profiles owned by ownerID, oldest first.
func (s *ClientService) ListClientsByOwner(ctx context.Context, principal Principal, ownerID string) (clients []ClientProfile, err error) {
	if s == nil || s.clients == nil {
		return nil, fmt.Errorf("client repository not configured")
	}

	logger := s.loggerWith(ctx, "ListClientsByOwner", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "client listing", "count", len(clients))
	}()

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		ownerID = principal.UserID
	}
	if !principal.IsProfessional() || ownerID != principal.UserID {
		return nil, ErrUnauthorized
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	clients, err = s.clients.ListClients(storeCtx, ownerID)
	if err != nil {
		return nil, storeError(err)
	}
	if clients == nil {
		clients = []ClientProfile{}
	}
	return clients, nil
}

// GetClient returns a profile owned by the principal.
func (s *ClientService) GetClient(ctx context.Context, principal Principal, clientID string) (ClientProfile, error) {
	if s == nil || s.clients == nil {
		return ClientProfile{}, fmt.Errorf("client repository not configured")
	}
	client, err := s.ownedClient(ctx, principal, clientID)
	if err != nil {
		s.loggerWith(ctx, "GetClient", "client_id", clientID).
			WarnContext(ctx, "client lookup failed", "error", err, "error_kind", ErrorKind(err))
	}
	return client, err
}

// UpdateClient applies a patch to a profile owned by the principal.
func (s *ClientService) UpdateClient(ctx context.Context, params UpdateClientParams) (client ClientProfile, err error) {
	if s == nil || s.clients == nil {
		return ClientProfile{}, fmt.Errorf("client repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateClient", "principal_id", params.Principal.UserID, "client_id", params.ClientID)
	defer func() {
		logOutcome(ctx, logger, err, "client update")
	}()

	if params.Patch.PersonalInfo == nil && params.Patch.MedicalHistory == nil {
		vErr := &ValidationError{}
		vErr.add("patch", "no updatable fields supplied")
		return ClientProfile{}, vErr
	}

	current, err := s.ownedClient(ctx, params.Principal, params.ClientID)
	if err != nil {
		return ClientProfile{}, err
	}

	if params.Patch.PersonalInfo != nil {
		if vErr := validatePersonalInfo(*params.Patch.PersonalInfo); vErr.HasErrors() {
			return ClientProfile{}, vErr
		}
		current.PersonalInfo = *params.Patch.PersonalInfo
	}
	if params.Patch.MedicalHistory != nil {
		current.MedicalHistory = *params.Patch.MedicalHistory
	}
	current.UpdatedAt = s.now()

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	client, err = s.clients.UpdateClient(storeCtx, current)
	if err != nil {
		return ClientProfile{}, storeError(err)
	}
	return client, nil
}

// DeleteClient removes a profile owned by the principal. Appointments and
// measurements referencing it are kept.
func (s *ClientService) DeleteClient(ctx context.Context, principal Principal, clientID string) (err error) {
	if s == nil || s.clients == nil {
		return fmt.Errorf("client repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteClient", "principal_id", principal.UserID, "client_id", clientID)
	defer func() {
		logOutcome(ctx, logger, err, "client deletion")
	}()

	if _, err = s.ownedClient(ctx, principal, clientID); err != nil {
		return err
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	if err = s.clients.DeleteClient(storeCtx, clientID); err != nil {
		return storeError(err)
	}
	return nil
}

// CountClients returns how many profiles the principal owns.
func (s *ClientService) CountClients(ctx context.Context, principal Principal) (int, error) {
	clients, err := s.ListClientsByOwner(ctx, principal, principal.UserID)
	if err != nil {
		return 0, err
	}
	return len(clients), nil
}

func (s *ClientService) ownedClient(ctx context.Context, principal Principal, clientID string) (ClientProfile, error) {
	if !principal.IsProfessional() {
		return ClientProfile{}, ErrUnauthorized
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return ClientProfile{}, ErrNotFound
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	client, err := s.clients.GetClient(storeCtx, clientID)
	if err != nil {
		return ClientProfile{}, storeError(err)
	}
	if client.OwnerID != principal.UserID {
		return ClientProfile{}, ErrUnauthorized
	}
	return client, nil
}

// Age returns the whole years between birthDate and today, decremented when
// this year's birthday has not happened yet.
func Age(birthDate, today time.Time) int {
	age := today.Year() - birthDate.Year()
	if today.Month() < birthDate.Month() || (today.Month() == birthDate.Month() && today.Day() < birthDate.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// validatePersonalInfo checks a trimmed view of info. Stored values are kept
// exactly as supplied.
func validatePersonalInfo(info PersonalInfo) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(info.Name) == "" {
		vErr.add("personal_info.name", "name is required")
	}
	if email := strings.TrimSpace(info.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			vErr.add("personal_info.email", "email is invalid")
		}
	}
	return vErr
}
