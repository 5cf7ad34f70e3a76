package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	professional      = Principal{UserID: "pro-1", Role: RoleProfessional}
	otherProfessional = Principal{UserID: "pro-2", Role: RoleProfessional}
	clientPrincipal   = Principal{UserID: "client-user", Role: RoleClient}
)

func newClientServiceForTest(clients *clientRepoStub, users UserDirectory) (*ClientService, *fixedClock) {
	clock := newFixedClock(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	return NewClientService(clients, users, sequentialIDs("client"), clock.Now, WithLogger(discardLogger)), clock
}

func sampleClientInput() (PersonalInfo, MedicalHistory) {
	birth := time.Date(2000, 3, 15, 0, 0, 0, 0, time.UTC)
	return PersonalInfo{
			Name:      "Lucía Gómez",
			Email:     "lucia@example.com",
			Phone:     "555-0101",
			BirthDate: &birth,
			Gender:    "female",
			Extra:     map[string]string{"occupation": "nurse"},
		}, MedicalHistory{
			Conditions:  []string{"hypothyroidism"},
			Allergies:   []string{"lactose"},
			Medications: []string{"levothyroxine"},
			Notes:       "prefers morning appointments",
		}
}

func TestAge(t *testing.T) {
	t.Parallel()

	birth := time.Date(2000, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 23, Age(birth, time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, Age(birth, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, Age(birth, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, Age(birth, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestClientService_CreateAndRoundTrip(t *testing.T) {
	t.Parallel()

	svc, clock := newClientServiceForTest(newClientRepoStub(), nil)
	personal, medical := sampleClientInput()

	created, err := svc.CreateClient(context.Background(), CreateClientParams{
		Principal:      professional,
		PersonalInfo:   personal,
		MedicalHistory: medical,
	})
	require.NoError(t, err)
	assert.Equal(t, "client-1", created.ID)
	assert.Equal(t, professional.UserID, created.OwnerID)
	assert.Equal(t, clock.Now(), created.CreatedAt)

	fetched, err := svc.GetClient(context.Background(), professional, created.ID)
	require.NoError(t, err)
	assert.Equal(t, personal, fetched.PersonalInfo)
	assert.Equal(t, medical, fetched.MedicalHistory)
	assert.Equal(t, professional.UserID, fetched.OwnerID)
}

func TestClientService_StoresFieldsAsSupplied(t *testing.T) {
	t.Parallel()

	svc, _ := newClientServiceForTest(newClientRepoStub(), nil)
	personal := PersonalInfo{Name: "Ana ", Email: "Ana@Example.com", Phone: " 555-0102"}
	medical := MedicalHistory{Allergies: []string{"gluten", ""}, Notes: " note "}

	created, err := svc.CreateClient(context.Background(), CreateClientParams{
		Principal:      professional,
		PersonalInfo:   personal,
		MedicalHistory: medical,
	})
	require.NoError(t, err)

	fetched, err := svc.GetClient(context.Background(), professional, created.ID)
	require.NoError(t, err)
	assert.Equal(t, personal, fetched.PersonalInfo)
	assert.Equal(t, medical, fetched.MedicalHistory)

	patchedInfo := PersonalInfo{Name: " Ana María", Email: " ANA@example.com "}
	patchedHistory := MedicalHistory{Conditions: []string{" celiac "}, Notes: "\tfollow-up"}
	_, err = svc.UpdateClient(context.Background(), UpdateClientParams{
		Principal: professional,
		ClientID:  created.ID,
		Patch:     ClientPatch{PersonalInfo: &patchedInfo, MedicalHistory: &patchedHistory},
	})
	require.NoError(t, err)

	fetched, err = svc.GetClient(context.Background(), professional, created.ID)
	require.NoError(t, err)
	assert.Equal(t, patchedInfo, fetched.PersonalInfo)
	assert.Equal(t, patchedHistory, fetched.MedicalHistory)

	blank := PersonalInfo{Name: "   "}
	_, err = svc.UpdateClient(context.Background(), UpdateClientParams{Principal: professional, ClientID: created.ID, Patch: ClientPatch{PersonalInfo: &blank}})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "personal_info.name")
}

func TestClientService_Authorization(t *testing.T) {
	t.Parallel()

	svc, _ := newClientServiceForTest(newClientRepoStub(), nil)
	personal, medical := sampleClientInput()

	_, err := svc.CreateClient(context.Background(), CreateClientParams{Principal: clientPrincipal, PersonalInfo: personal})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.CreateClient(context.Background(), CreateClientParams{Principal: professional, OwnerID: "pro-2", PersonalInfo: personal})
	assert.ErrorIs(t, err, ErrUnauthorized)

	created, err := svc.CreateClient(context.Background(), CreateClientParams{Principal: professional, PersonalInfo: personal, MedicalHistory: medical})
	require.NoError(t, err)

	_, err = svc.GetClient(context.Background(), otherProfessional, created.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = svc.DeleteClient(context.Background(), otherProfessional, created.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.ListClientsByOwner(context.Background(), otherProfessional, professional.UserID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.GetClient(context.Background(), professional, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientService_ListUpdateDelete(t *testing.T) {
	t.Parallel()

	svc, clock := newClientServiceForTest(newClientRepoStub(), nil)
	personal, medical := sampleClientInput()

	first, err := svc.CreateClient(context.Background(), CreateClientParams{Principal: professional, PersonalInfo: personal, MedicalHistory: medical})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := svc.CreateClient(context.Background(), CreateClientParams{Principal: professional, PersonalInfo: PersonalInfo{Name: "Pablo"}})
	require.NoError(t, err)
	_, err = svc.CreateClient(context.Background(), CreateClientParams{Principal: otherProfessional, PersonalInfo: PersonalInfo{Name: "Other"}})
	require.NoError(t, err)

	clients, err := svc.ListClientsByOwner(context.Background(), professional, "")
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, first.ID, clients[0].ID)
	assert.Equal(t, second.ID, clients[1].ID)

	count, err := svc.CountClients(context.Background(), professional)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	clock.Advance(time.Hour)
	updatedHistory := MedicalHistory{Notes: "  new plan  "}
	updated, err := svc.UpdateClient(context.Background(), UpdateClientParams{
		Principal: professional,
		ClientID:  first.ID,
		Patch:     ClientPatch{MedicalHistory: &updatedHistory},
	})
	require.NoError(t, err)
	assert.Equal(t, "new plan", updated.MedicalHistory.Notes)
	assert.Equal(t, personal, updated.PersonalInfo)
	assert.Equal(t, clock.Now(), updated.UpdatedAt)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)

	_, err = svc.UpdateClient(context.Background(), UpdateClientParams{Principal: professional, ClientID: first.ID})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	require.NoError(t, svc.DeleteClient(context.Background(), professional, first.ID))
	_, err = svc.GetClient(context.Background(), professional, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientService_AccountLink(t *testing.T) {
	t.Parallel()

	users := newUserRepoStub()
	_, _ = users.CreateUser(context.Background(), User{ID: "client-user", Email: "c@test.com", Role: RoleClient})
	_, _ = users.CreateUser(context.Background(), User{ID: "pro-9", Email: "p@test.com", Role: RoleProfessional})

	svc, _ := newClientServiceForTest(newClientRepoStub(), users)

	linked, err := svc.CreateClient(context.Background(), CreateClientParams{
		Principal:    professional,
		PersonalInfo: PersonalInfo{Name: "María"},
		AccountID:    "client-user",
	})
	require.NoError(t, err)
	assert.Equal(t, "client-user", linked.ID)

	var vErr *ValidationError
	_, err = svc.CreateClient(context.Background(), CreateClientParams{Principal: professional, PersonalInfo: PersonalInfo{Name: "Again"}, AccountID: "client-user"})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "account_id")

	_, err = svc.CreateClient(context.Background(), CreateClientParams{Principal: professional, PersonalInfo: PersonalInfo{Name: "Pro"}, AccountID: "pro-9"})
	require.ErrorAs(t, err, &vErr)

	_, err = svc.CreateClient(context.Background(), CreateClientParams{Principal: professional, PersonalInfo: PersonalInfo{Name: "Ghost"}, AccountID: "ghost"})
	require.ErrorAs(t, err, &vErr)
}

func TestClientService_ValidationAndStoreFailures(t *testing.T) {
	t.Parallel()

	repo := newClientRepoStub()
	svc, _ := newClientServiceForTest(repo, nil)

	_, err := svc.CreateClient(context.Background(), CreateClientParams{Principal: professional, PersonalInfo: PersonalInfo{Email: "bad"}})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "personal_info.name")
	assert.Contains(t, vErr.FieldErrors, "personal_info.email")

	repo.listErr = assert.AnError
	_, err = svc.ListClientsByOwner(context.Background(), professional, "")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
