package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"familytree/internal/models"
	"familytree/internal/security"
)

// --- in-memory fakes -------------------------------------------------------

type fakeRequestStore struct {
	requests     map[string]*models.OnboardingRequest
	insertErr    error
	markApproveErr error
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[string]*models.OnboardingRequest)}
}

func (f *fakeRequestStore) Insert(req *models.OnboardingRequest) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	clone := *req
	f.requests[req.ID] = &clone
	return nil
}

func (f *fakeRequestStore) GetByID(id string) (*models.OnboardingRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRequestStore) HasPendingForEmail(email string) (bool, error) {
	for _, req := range f.requests {
		if req.Email == email && req.Status == models.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestStore) ListPending() ([]models.OnboardingRequest, error) {
	var pending []models.OnboardingRequest
	for _, req := range f.requests {
		if req.Status == models.StatusPending {
			pending = append(pending, *req)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestedAt.After(pending[j].RequestedAt)
	})
	return pending, nil
}

func (f *fakeRequestStore) MarkApproved(id, userID, reviewedBy string, reviewedAt time.Time) error {
	if f.markApproveErr != nil {
		return f.markApproveErr
	}
	req := f.requests[id]
	req.Status = models.StatusApproved
	req.UserID = &userID
	req.ReviewedBy = &reviewedBy
	req.ReviewedAt = &reviewedAt
	return nil
}

func (f *fakeRequestStore) MarkRejected(id, reviewedBy, reason string, reviewedAt time.Time) error {
	req := f.requests[id]
	req.Status = models.StatusRejected
	req.RejectionReason = &reason
	req.ReviewedBy = &reviewedBy
	req.ReviewedAt = &reviewedAt
	return nil
}

type fakeFamilyStore struct {
	families  map[string]*models.Family
	insertErr error
	deleted   []string
}

func newFakeFamilyStore() *fakeFamilyStore {
	return &fakeFamilyStore{families: make(map[string]*models.Family)}
}

func (f *fakeFamilyStore) Insert(family *models.Family) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.families {
		if existing.FamilyName == family.FamilyName {
			return fmt.Errorf("failed to insert family: %w", ErrDuplicate)
		}
	}
	clone := *family
	f.families[family.ID] = &clone
	return nil
}

func (f *fakeFamilyStore) GetByName(familyName string) (*models.Family, error) {
	for _, family := range f.families {
		if family.FamilyName == familyName {
			clone := *family
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeFamilyStore) Delete(id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.families, id)
	return nil
}

type fakeUserStore struct {
	users     map[string]*models.User
	insertErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) Insert(user *models.User) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, exists := f.users[user.Email]; exists {
		return fmt.Errorf("failed to insert user: %w", ErrDuplicate)
	}
	clone := *user
	f.users[user.Email] = &clone
	return nil
}

func (f *fakeUserStore) GetByEmail(email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

type fakeIdentityProvider struct {
	nextID   string
	existing map[string]string
	err      error
	calls    int
}

func (f *fakeIdentityProvider) CreateOrGetAccount(ctx context.Context, email, password string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if id, ok := f.existing[email]; ok {
		return id, nil
	}
	return f.nextID, nil
}

// --- harness ---------------------------------------------------------------

type testEnv struct {
	svc      *OnboardingService
	requests *fakeRequestStore
	families *fakeFamilyStore
	users    *fakeUserStore
	identity *fakeIdentityProvider
	cipher   *security.Cipher
}

func newTestEnv() *testEnv {
	requests := newFakeRequestStore()
	families := newFakeFamilyStore()
	users := newFakeUserStore()
	identity := &fakeIdentityProvider{nextID: "subject-1"}
	cipher := security.New(security.Params{Iterations: 1000})

	// nil email service: notifications are disabled in tests
	svc := NewOnboardingService(requests, families, users, identity, cipher, nil)

	return &testEnv{
		svc:      svc,
		requests: requests,
		families: families,
		users:    users,
		identity: identity,
		cipher:   cipher,
	}
}

// --- CreateRequest ---------------------------------------------------------

func TestCreateRequest(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.CreateRequest(ctx, "a@x.com", "A", "Fam1", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	if result.RequestID == "" {
		t.Error("expected non-empty request id")
	}
	if result.FamilyPassword == "" {
		t.Error("expected non-empty family password")
	}
	if result.Status != models.StatusPending {
		t.Errorf("expected status pending, got %s", result.Status)
	}

	stored := env.requests.requests[result.RequestID]
	if stored == nil {
		t.Fatal("request was not persisted")
	}
	if stored.Status != models.StatusPending {
		t.Errorf("stored request status = %s, want pending", stored.Status)
	}

	// The persisted blob must decrypt back to the returned family password
	// under the admin password supplied at request time.
	secret, err := env.cipher.Decrypt(stored.FamilyPasswordEncrypted, "Pw123!pass")
	if err != nil {
		t.Fatalf("failed to decrypt stored blob: %v", err)
	}
	if secret != result.FamilyPassword {
		t.Errorf("decrypted secret %q != returned family password %q", secret, result.FamilyPassword)
	}
}

func TestCreateRequestConflicts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Existing committed family
	env.families.families["fam-1"] = &models.Family{ID: "fam-1", FamilyName: "Taken"}
	// Existing committed user
	env.users.users["used@x.com"] = &models.User{ID: "u-1", Email: "used@x.com"}
	// Existing pending request
	if _, err := env.svc.CreateRequest(ctx, "pending@x.com", "P", "FamP", "Pw123!pass"); err != nil {
		t.Fatalf("setup CreateRequest() error = %v", err)
	}

	tests := []struct {
		name       string
		email      string
		familyName string
		wantReason string
	}{
		{"family name taken", "new@x.com", "Taken", ReasonFamilyNameTaken},
		{"pending request exists", "pending@x.com", "FamNew", ReasonRequestPending},
		{"email registered", "used@x.com", "FamOther", ReasonEmailRegistered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateRequest(ctx, tt.email, "Name", tt.familyName, "Pw123!pass")

			var conflictErr *ConflictError
			if !errors.As(err, &conflictErr) {
				t.Fatalf("expected *ConflictError, got %v", err)
			}
			if conflictErr.Reason != tt.wantReason {
				t.Errorf("expected reason %s, got %s", tt.wantReason, conflictErr.Reason)
			}
		})
	}
}

func TestCreateRequestValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tests := []struct {
		name       string
		email      string
		fullName   string
		familyName string
		password   string
	}{
		{"bad email", "not-an-email", "A", "Fam1", "Pw123!pass"},
		{"empty name", "a@x.com", "", "Fam1", "Pw123!pass"},
		{"empty family name", "a@x.com", "A", "", "Pw123!pass"},
		{"short password", "a@x.com", "A", "Fam1", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateRequest(ctx, tt.email, tt.fullName, tt.familyName, tt.password)
			if err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCreateRequestLosesInsertRace(t *testing.T) {
	env := newTestEnv()
	env.requests.insertErr = fmt.Errorf("failed to insert request: %w", ErrDuplicate)

	_, err := env.svc.CreateRequest(context.Background(), "a@x.com", "A", "Fam1", "Pw123!pass")

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if conflictErr.Reason != ReasonRequestPending {
		t.Errorf("expected reason %s, got %s", ReasonRequestPending, conflictErr.Reason)
	}
}

// --- ListPending / GetByID -------------------------------------------------

func TestListPendingNewestFirstAndRedacted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, err := env.svc.CreateRequest(ctx, "a@x.com", "A", "Fam1", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	// Make ordering unambiguous
	env.requests.requests[first.RequestID].RequestedAt = time.Now().Add(-time.Hour)

	second, err := env.svc.CreateRequest(ctx, "b@x.com", "B", "Fam2", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	summaries, err := env.svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("expected 2 pending requests, got %d", len(summaries))
	}
	if summaries[0].ID != second.RequestID {
		t.Error("expected newest request first")
	}
	if summaries[1].ID != first.RequestID {
		t.Error("expected oldest request last")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.GetByID(context.Background(), "no-such-id")

	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
}

// --- Approve ---------------------------------------------------------------

func TestApproveLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.svc.CreateRequest(ctx, "a@x.com", "A", "Fam1", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	result, err := env.svc.Approve(ctx, created.RequestID, "S1", "Pw123!pass")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	if result.UserID != "subject-1" {
		t.Errorf("expected user id subject-1, got %s", result.UserID)
	}
	if result.FamilyID == "" {
		t.Error("expected non-empty family id")
	}

	// Family carries the request's blob unchanged; re-encrypting would make
	// the secret unrecoverable.
	family := env.families.families[result.FamilyID]
	if family == nil {
		t.Fatal("family was not created")
	}
	request := env.requests.requests[created.RequestID]
	if family.FamilyPasswordEncrypted != request.FamilyPasswordEncrypted {
		t.Error("family blob differs from request blob")
	}
	if family.AdminUserID != "subject-1" {
		t.Errorf("expected admin user id subject-1, got %s", family.AdminUserID)
	}

	// The stored blob still decrypts with the original admin password.
	secret, err := env.cipher.Decrypt(family.FamilyPasswordEncrypted, "Pw123!pass")
	if err != nil {
		t.Fatalf("family secret unrecoverable after approval: %v", err)
	}
	if secret != created.FamilyPassword {
		t.Error("family secret changed during approval")
	}

	// Admin account
	user := env.users.users["a@x.com"]
	if user == nil {
		t.Fatal("user was not created")
	}
	if user.ID != "subject-1" {
		t.Errorf("expected user id subject-1, got %s", user.ID)
	}
	if user.Role != models.RoleFamilyAdmin {
		t.Errorf("expected role family_admin, got %s", user.Role)
	}
	if user.FamilyID == nil || *user.FamilyID != result.FamilyID {
		t.Error("user not linked to family")
	}
	ok, err := env.cipher.VerifyPassword("Pw123!pass", user.PasswordHash)
	if err != nil || !ok {
		t.Errorf("stored password hash does not verify: ok=%v err=%v", ok, err)
	}

	// Request is terminal
	status, err := env.svc.GetStatus(ctx, created.RequestID)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Status != models.StatusApproved {
		t.Errorf("expected status approved, got %s", status.Status)
	}
	if request.ReviewedBy == nil || *request.ReviewedBy != "S1" {
		t.Error("expected reviewed_by to record the superadmin")
	}

	// Second approval must fail
	_, err = env.svc.Approve(ctx, created.RequestID, "S1", "Pw123!pass")
	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *InvalidStateError on re-approval, got %v", err)
	}
	if stateErr.Status != models.StatusApproved {
		t.Errorf("expected status approved in error, got %s", stateErr.Status)
	}
}

func TestApproveNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Approve(context.Background(), "no-such-id", "S1", "Pw123!pass")

	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
}

func TestApproveReusesExistingIdentityAccount(t *testing.T) {
	env := newTestEnv()
	env.identity.existing = map[string]string{"a@x.com": "pre-existing-subject"}
	ctx := context.Background()

	created, err := env.svc.CreateRequest(ctx, "a@x.com", "A", "Fam1", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	result, err := env.svc.Approve(ctx, created.RequestID, "S1", "Pw123!pass")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if result.UserID != "pre-existing-subject" {
		t.Errorf("expected reused subject id, got %s", result.UserID)
	}
}

func TestApproveIdentityProviderFailure(t *testing.T) {
	env := newTestEnv()
	env.identity.err = errors.New("provider unavailable")
	ctx := context.Background()

	created, err := env.svc.CreateRequest(ctx, "a@x.com", "A", "Fam1", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	_, err = env.svc.Approve(ctx, created.RequestID, "S1", "Pw123!pass")

	var idpErr *IdentityProviderError
	if !errors.As(err, &idpErr) {
		t.Fatalf("expected *IdentityProviderError, got %v", err)
	}

	// No side effects: request still pending, nothing created.
	if len(env.families.families) != 0 {
		t.Error("no family should be created on identity failure")
	}
	if len(env.users.users) != 0 {
		t.Error("no user should be created on identity failure")
	}
	if env.requests.requests[created.RequestID].Status != models.StatusPending {
		t.Error("request should remain pending, safe for caller retry")
	}
}

func TestApproveUserInsertFailureCompensatesFamily(t *testing.T) {
	env := newTestEnv()
	env.users.insertErr = errors.New("connection reset")
	ctx := context.Background()

	created, err := env.svc.CreateRequest(ctx, "a@x.com", "A", "Fam1", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	_, err = env.svc.Approve(ctx, created.RequestID, "S1", "Pw123!pass")

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *StoreError, got %v", err)
	}

	if len(env.families.deleted) != 1 {
		t.Fatalf("expected the family insert to be compensated, deleted=%v", env.families.deleted)
	}
	if len(env.families.families) != 0 {
		t.Error("family should be removed after compensation")
	}
	if env.requests.requests[created.RequestID].Status != models.StatusPending {
		t.Error("request should remain pending so the approval can be retried")
	}
}

func TestApproveMarkApprovedFailureSurfaces(t *testing.T) {
	env := newTestEnv()
	env.requests.markApproveErr = errors.New("write timeout")
	ctx := context.Background()

	created, err := env.svc.CreateRequest(ctx, "a@x.com", "A", "Fam1", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	_, err = env.svc.Approve(ctx, created.RequestID, "S1", "Pw123!pass")

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *StoreError, got %v", err)
	}
	// Family and user were created before the failure; the error must not
	// hide that.
	if len(env.families.families) != 1 || len(env.users.users) != 1 {
		t.Error("expected family and user to exist when the status update fails")
	}
}

// --- Reject ----------------------------------------------------------------

func TestRejectLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.svc.CreateRequest(ctx, "a@x.com", "A", "Fam1", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	result, err := env.svc.Reject(ctx, created.RequestID, "S1", "duplicate family")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if result.Status != models.StatusRejected {
		t.Errorf("expected status rejected, got %s", result.Status)
	}

	status, err := env.svc.GetStatus(ctx, created.RequestID)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Status != models.StatusRejected {
		t.Errorf("expected status rejected, got %s", status.Status)
	}
	if status.RejectionReason == nil || *status.RejectionReason != "duplicate family" {
		t.Error("expected rejection reason to be recorded")
	}

	// Rejection has no side effects on families or users.
	if len(env.families.families) != 0 || len(env.users.users) != 0 {
		t.Error("reject must not create family or user records")
	}

	// Terminal: approving a rejected request fails.
	_, err = env.svc.Approve(ctx, created.RequestID, "S1", "Pw123!pass")
	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *InvalidStateError after rejection, got %v", err)
	}

	// And so does rejecting it again.
	_, err = env.svc.Reject(ctx, created.RequestID, "S1", "again")
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected *InvalidStateError on double reject, got %v", err)
	}
}
