package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/campus-bot/internal/application/transcript"
	"github.com/campus-connect/campus-bot/internal/domain/reminder"
	"github.com/campus-connect/campus-bot/internal/domain/resource"
	"github.com/campus-connect/campus-bot/internal/domain/session"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/internal/domain/user"
	"github.com/campus-connect/campus-bot/internal/infrastructure/persistence/memory"
	"github.com/campus-connect/campus-bot/pkg/credentials"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test doubles
// ─────────────────────────────────────────────────────────────────────────────

type stubUsers struct {
	user.Repository

	byUsername map[string]*user.User
	byID       map[int64]*user.User
	nextID     int64

	created      *user.User
	createErr    error
	updatedField user.ProfileField
	updatedValue string
	updateCalls  int
	resetUser    string
	resetHash    []byte
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		byUsername: make(map[string]*user.User),
		byID:       make(map[int64]*user.User),
		nextID:     100,
	}
}

func (s *stubUsers) add(u *user.User) *user.User {
	s.nextID++
	u.ID = s.nextID
	s.byUsername[u.Username] = u
	s.byID[u.ID] = u
	return u
}

func (s *stubUsers) Create(_ context.Context, u *user.User) (*user.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, taken := s.byUsername[u.Username]; taken {
		return nil, shared.ErrUsernameTaken
	}
	s.created = u
	return s.add(u), nil
}

func (s *stubUsers) FindByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrUserNotFound
}

func (s *stubUsers) FindByUsername(_ context.Context, username string) (*user.User, error) {
	if u, ok := s.byUsername[username]; ok {
		return u, nil
	}
	return nil, shared.ErrUserNotFound
}

func (s *stubUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := s.byUsername[username]
	return ok, nil
}

func (s *stubUsers) UpdateField(_ context.Context, _ int64, field user.ProfileField, value string) error {
	s.updateCalls++
	s.updatedField = field
	s.updatedValue = value
	return nil
}

func (s *stubUsers) UpdatePassword(_ context.Context, username string, hash []byte) error {
	if _, ok := s.byUsername[username]; !ok {
		return shared.ErrUserNotFound
	}
	s.resetUser = username
	s.resetHash = hash
	return nil
}

type stubPipeline struct {
	sgpa       float64
	sgpaErr    error
	cgpa       float64
	cgpaErr    error
	ingested   *transcript.Result
	ingestErr  error
	calls      int
	lastRef    string
	queryCalls int
}

func (s *stubPipeline) Ingest(_ context.Context, _ int64, fileRef, _, mimeType string, _ []byte) (*transcript.Result, error) {
	s.calls++
	s.lastRef = fileRef
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	if s.ingested != nil {
		return s.ingested, nil
	}
	return &transcript.Result{SGPA: s.sgpa, Subjects: 1}, nil
}

func (s *stubPipeline) LatestSGPA(context.Context, int64) (float64, error) {
	s.queryCalls++
	return s.sgpa, s.sgpaErr
}

func (s *stubPipeline) CGPA(context.Context, int64) (float64, error) {
	s.queryCalls++
	return s.cgpa, s.cgpaErr
}

type stubReminders struct {
	created *reminder.Reminder
	nextID  int64
}

func (s *stubReminders) Create(_ context.Context, r *reminder.Reminder) (*reminder.Reminder, error) {
	s.nextID++
	r.ID = s.nextID
	s.created = r
	return r, nil
}

func (s *stubReminders) All(context.Context) ([]reminder.Reminder, error) { return nil, nil }

type stubScheduler struct {
	scheduled []reminder.Reminder
}

func (s *stubScheduler) ScheduleReminder(rem reminder.Reminder) error {
	s.scheduled = append(s.scheduled, rem)
	return nil
}

type stubDocuments struct {
	saved []resource.SharedDocument
	list  []resource.SharedDocument
}

func (s *stubDocuments) Save(_ context.Context, d *resource.SharedDocument) error {
	s.saved = append(s.saved, *d)
	return nil
}

func (s *stubDocuments) ForUser(context.Context, int64) ([]resource.SharedDocument, error) {
	return s.list, nil
}

type stubFeedback struct {
	saved []resource.Feedback
}

func (s *stubFeedback) Save(_ context.Context, f *resource.Feedback) error {
	s.saved = append(s.saved, *f)
	return nil
}

type stubJobs struct {
	jobs []resource.JobOpportunity
}

func (s *stubJobs) All(context.Context) ([]resource.JobOpportunity, error) { return s.jobs, nil }

type stubFiles struct {
	content []byte
	fetched int
}

func (s *stubFiles) Fetch(context.Context, string) ([]byte, error) {
	s.fetched++
	return s.content, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Harness
// ─────────────────────────────────────────────────────────────────────────────

type fixture struct {
	m         *Manager
	sessions  session.Store
	users     *stubUsers
	pipeline  *stubPipeline
	reminders *stubReminders
	scheduler *stubScheduler
	documents *stubDocuments
	feedback  *stubFeedback
	jobs      *stubJobs
	files     *stubFiles
	vault     *credentials.Vault
}

func newFixture() *fixture {
	f := &fixture{
		sessions:  memory.NewSessionStore(),
		users:     newStubUsers(),
		pipeline:  &stubPipeline{},
		reminders: &stubReminders{},
		scheduler: &stubScheduler{},
		documents: &stubDocuments{},
		feedback:  &stubFeedback{},
		jobs:      &stubJobs{},
		files:     &stubFiles{content: []byte("%PDF")},
		vault:     credentials.NewVault(4),
	}
	f.m = NewManager(Deps{
		Sessions:  f.sessions,
		Users:     f.users,
		Pipeline:  f.pipeline,
		Reminders: f.reminders,
		Scheduler: f.scheduler,
		Documents: f.documents,
		Feedback:  f.feedback,
		Jobs:      f.jobs,
		Vault:     f.vault,
		Files:     f.files,
	})
	return f
}

const chatID = int64(42)

// login puts an authenticated user on the session.
func (f *fixture) login(t *testing.T) *user.User {
	t.Helper()

	hash, err := f.vault.Hash("secret")
	require.NoError(t, err)
	u := f.users.add(&user.User{
		Username:     "ananya",
		FullName:     "Ananya Rao",
		PasswordHash: hash,
		Semester:     "5",
		College:      "RVCE",
		Mobile:       "9876543210",
		Branch:       "CSE",
		YearScheme:   "2021",
		ChatID:       chatID,
	})

	ctx := context.Background()
	sess, err := f.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	sess.UserID = &u.ID
	require.NoError(t, f.sessions.Put(ctx, sess))
	return u
}

func (f *fixture) state(t *testing.T) session.State {
	t.Helper()
	sess, err := f.sessions.Get(context.Background(), chatID)
	require.NoError(t, err)
	return sess.State
}

func requireSingleText(t *testing.T, replies []Reply, want string) {
	t.Helper()
	require.Len(t, replies, 1)
	assert.Equal(t, want, replies[0].Text)
}

// ─────────────────────────────────────────────────────────────────────────────
// Registration
// ─────────────────────────────────────────────────────────────────────────────

func TestRegistration_FullFlowCommitsOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	replies, err := f.m.HandleCommand(ctx, chatID, "register")
	require.NoError(t, err)
	requireSingleText(t, replies, "Enter your username:")

	steps := []struct{ input, prompt string }{
		{"ananya", "Enter your password:"},
		{"secret", "Enter your full name:"},
		{"Ananya Rao", "Enter your semester:"},
		{"5", "Enter your college name:"},
		{"RVCE", "Enter your mobile number:"},
		{"9876543210", "Enter your branch:"},
		{"CSE", "Enter your year scheme:"},
	}
	for _, step := range steps {
		replies, err = f.m.HandleText(ctx, chatID, step.input)
		require.NoError(t, err)
		requireSingleText(t, replies, step.prompt)
		// No account row exists until the final answer arrives.
		assert.Nil(t, f.users.created)
	}

	replies, err = f.m.HandleText(ctx, chatID, "2021")
	require.NoError(t, err)
	requireSingleText(t, replies, "Registration successful! You can now use the menu to navigate.")

	require.NotNil(t, f.users.created)
	assert.Equal(t, "ananya", f.users.created.Username)
	assert.Equal(t, "9876543210", f.users.created.Mobile)
	assert.Equal(t, chatID, f.users.created.ChatID)
	assert.True(t, f.vault.Verify(f.users.created.PasswordHash, "secret"))

	sess, err := f.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, session.StateNone, sess.State)
	assert.Empty(t, sess.PendingFields)
}

func TestRegistration_InvalidMobileRepromptsInPlace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "register")
	require.NoError(t, err)
	for _, input := range []string{"ananya", "secret", "Ananya Rao", "5", "RVCE"} {
		_, err = f.m.HandleText(ctx, chatID, input)
		require.NoError(t, err)
	}

	for _, bad := range []string{"12345", "98765432101", "98765abcde"} {
		replies, err := f.m.HandleText(ctx, chatID, bad)
		require.NoError(t, err)
		requireSingleText(t, replies, "Invalid mobile number. Please enter a 10-digit mobile number:")
		assert.Equal(t, session.StateAwaitingMobile, f.state(t))
	}

	replies, err := f.m.HandleText(ctx, chatID, "9876543210")
	require.NoError(t, err)
	requireSingleText(t, replies, "Enter your branch:")
}

func TestRegistration_TakenUsernameRestartsFromUsername(t *testing.T) {
	f := newFixture()
	f.users.add(&user.User{Username: "ananya"})
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "register")
	require.NoError(t, err)
	for _, input := range []string{"ananya", "secret"} {
		_, err = f.m.HandleText(ctx, chatID, input)
		require.NoError(t, err)
	}

	replies, err := f.m.HandleText(ctx, chatID, "Ananya Rao")
	require.NoError(t, err)
	requireSingleText(t, replies, "Username already exists. Please login or choose a different username.")
	assert.Equal(t, session.StateAwaitingUsername, f.state(t))
}

func TestRegistration_PersistenceFailureKeepsSessionForRetry(t *testing.T) {
	f := newFixture()
	f.users.createErr = shared.NewDomainError("user", "Create", shared.ErrPersistence, "connection lost")
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "register")
	require.NoError(t, err)
	for _, input := range []string{"ananya", "secret", "Ananya Rao", "5", "RVCE", "9876543210", "CSE"} {
		_, err = f.m.HandleText(ctx, chatID, input)
		require.NoError(t, err)
	}

	_, err = f.m.HandleText(ctx, chatID, "2021")
	require.ErrorIs(t, err, shared.ErrPersistence)

	// The session is untouched, so the user can resend the final answer
	// once the store recovers.
	sess, err := f.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, session.StateAwaitingYearScheme, sess.State)
	assert.Equal(t, "ananya", sess.Field("username"))
	assert.Equal(t, "9876543210", sess.Field("mobile"))

	f.users.createErr = nil
	replies, err := f.m.HandleText(ctx, chatID, "2021")
	require.NoError(t, err)
	requireSingleText(t, replies, "Registration successful! You can now use the menu to navigate.")
	require.NotNil(t, f.users.created)
	assert.Equal(t, "ananya", f.users.created.Username)
}

func TestRegistration_GuardedWhileLoggedIn(t *testing.T) {
	f := newFixture()
	f.login(t)

	replies, err := f.m.HandleCallback(context.Background(), chatID, "register")
	require.NoError(t, err)
	requireSingleText(t, replies, "Please logout first using /logout before registering a new account.")
	assert.Equal(t, session.StateNone, f.state(t))
}

// ─────────────────────────────────────────────────────────────────────────────
// Login, reset, logout
// ─────────────────────────────────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	f := newFixture()
	hash, err := f.vault.Hash("secret")
	require.NoError(t, err)
	u := f.users.add(&user.User{Username: "ananya", PasswordHash: hash})
	ctx := context.Background()

	_, err = f.m.HandleCommand(ctx, chatID, "login")
	require.NoError(t, err)
	_, err = f.m.HandleText(ctx, chatID, "ananya")
	require.NoError(t, err)

	replies, err := f.m.HandleText(ctx, chatID, "secret")
	require.NoError(t, err)
	requireSingleText(t, replies, "Login successful! You can now use the menu to navigate.")

	sess, err := f.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, sess.UserID)
	assert.Equal(t, u.ID, *sess.UserID)
}

func TestLogin_WrongPasswordStaysAnonymous(t *testing.T) {
	f := newFixture()
	hash, err := f.vault.Hash("secret")
	require.NoError(t, err)
	f.users.add(&user.User{Username: "ananya", PasswordHash: hash})
	ctx := context.Background()

	_, err = f.m.HandleCommand(ctx, chatID, "login")
	require.NoError(t, err)
	_, err = f.m.HandleText(ctx, chatID, "ananya")
	require.NoError(t, err)

	replies, err := f.m.HandleText(ctx, chatID, "wrong")
	require.NoError(t, err)
	requireSingleText(t, replies, "Invalid username or password. Please try again.")

	sess, err := f.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, sess.UserID)
	assert.Equal(t, session.StateAwaitingLoginUsername, sess.State)
}

func TestLogin_UnknownUsernameSameMessageAsWrongPassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "login")
	require.NoError(t, err)
	_, err = f.m.HandleText(ctx, chatID, "ghost")
	require.NoError(t, err)

	replies, err := f.m.HandleText(ctx, chatID, "anything")
	require.NoError(t, err)
	requireSingleText(t, replies, "Invalid username or password. Please try again.")
}

func TestPasswordReset_ReplacesHash(t *testing.T) {
	f := newFixture()
	hash, err := f.vault.Hash("old")
	require.NoError(t, err)
	f.users.add(&user.User{Username: "ananya", PasswordHash: hash})
	ctx := context.Background()

	_, err = f.m.HandleCommand(ctx, chatID, "reset_password")
	require.NoError(t, err)
	assert.Equal(t, session.StateAwaitingResetUsername, f.state(t))

	_, err = f.m.HandleText(ctx, chatID, "ananya")
	require.NoError(t, err)

	replies, err := f.m.HandleText(ctx, chatID, "newsecret")
	require.NoError(t, err)
	requireSingleText(t, replies, "Password reset successfully!")

	assert.Equal(t, "ananya", f.users.resetUser)
	assert.True(t, f.vault.Verify(f.users.resetHash, "newsecret"))
}

func TestPasswordReset_UnknownUsername(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "reset_password")
	require.NoError(t, err)
	_, err = f.m.HandleText(ctx, chatID, "ghost")
	require.NoError(t, err)

	replies, err := f.m.HandleText(ctx, chatID, "newsecret")
	require.NoError(t, err)
	requireSingleText(t, replies, "No account found for that username.")
	assert.Equal(t, session.StateNone, f.state(t))
}

func TestLogout_ResetsSession(t *testing.T) {
	f := newFixture()
	f.login(t)
	ctx := context.Background()

	replies, err := f.m.HandleCommand(ctx, chatID, "logout")
	require.NoError(t, err)
	requireSingleText(t, replies, "You have been logged out successfully.")

	sess, err := f.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, sess.UserID)
	assert.Equal(t, session.StateNone, sess.State)
}

// ─────────────────────────────────────────────────────────────────────────────
// Guards
// ─────────────────────────────────────────────────────────────────────────────

func TestAuthGuard_BlocksProtectedOperationsWithoutTouchingStores(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, cmd := range []string{
		"sgpa", "cgpa", "profile", "update_profile", "upload_markscard_pdf",
		"generate_report", "set_reminder", "share_document", "list_resources",
	} {
		replies, err := f.m.HandleCommand(ctx, chatID, cmd)
		require.NoError(t, err, cmd)
		requireSingleText(t, replies, "Please login first using /login.")
	}

	assert.Zero(t, f.pipeline.queryCalls)
	assert.Zero(t, f.pipeline.calls)
	assert.Empty(t, f.documents.saved)
	assert.Nil(t, f.reminders.created)
}

func TestAuthGuard_AttachmentsRequireLogin(t *testing.T) {
	f := newFixture()

	replies, err := f.m.HandleAttachment(context.Background(), chatID, Attachment{
		FileRef: "f1", FileName: "marks.pdf", MimeType: "application/pdf",
	})
	require.NoError(t, err)
	requireSingleText(t, replies, "Please login first using /login.")
	assert.Zero(t, f.files.fetched)
}

// ─────────────────────────────────────────────────────────────────────────────
// GPA queries
// ─────────────────────────────────────────────────────────────────────────────

func TestSGPA_FormatsTwoDecimals(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.pipeline.sgpa = 66.0 / 7.0

	replies, err := f.m.HandleCommand(context.Background(), chatID, "sgpa")
	require.NoError(t, err)
	requireSingleText(t, replies, "Your SGPA is: 9.43")
}

func TestSGPA_NoRecords(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.pipeline.sgpaErr = shared.NewDomainError("transcript", "LatestSGPA", shared.ErrNotFound, "no transcript uploaded yet")

	replies, err := f.m.HandleCommand(context.Background(), chatID, "sgpa")
	require.NoError(t, err)
	requireSingleText(t, replies, "No SGPA records found. Please upload your marks card using /upload_markscard_pdf.")
}

func TestCGPA_FormatsTwoDecimals(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.pipeline.cgpa = 8.5

	replies, err := f.m.HandleCommand(context.Background(), chatID, "cgpa")
	require.NoError(t, err)
	requireSingleText(t, replies, "Your CGPA is: 8.50")
}

// ─────────────────────────────────────────────────────────────────────────────
// Profile
// ─────────────────────────────────────────────────────────────────────────────

func TestProfile_CardShowsNAForMissingGPAs(t *testing.T) {
	f := newFixture()
	f.login(t)

	replies, err := f.m.HandleCommand(context.Background(), chatID, "profile")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.True(t, replies[0].Markdown)
	assert.Contains(t, replies[0].Text, "Full Name: Ananya Rao")
	assert.Contains(t, replies[0].Text, "SGPA: N/A")
	assert.Contains(t, replies[0].Text, "CGPA: N/A")
}

func TestProfileUpdate_HappyPath(t *testing.T) {
	f := newFixture()
	f.login(t)
	ctx := context.Background()

	replies, err := f.m.HandleCommand(ctx, chatID, "update_profile")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "Choose the information you want to update:", replies[0].Text)
	require.Len(t, replies[0].Buttons, 3)

	replies, err = f.m.HandleCallback(ctx, chatID, "update:college")
	require.NoError(t, err)
	requireSingleText(t, replies, "Enter your new college:")

	replies, err = f.m.HandleText(ctx, chatID, "BMSCE")
	require.NoError(t, err)
	requireSingleText(t, replies, "College updated successfully!")

	assert.Equal(t, user.FieldCollege, f.users.updatedField)
	assert.Equal(t, "BMSCE", f.users.updatedValue)
	assert.Equal(t, session.StateNone, f.state(t))
}

func TestProfileUpdate_UnlistedFieldNeverReachesWritePath(t *testing.T) {
	f := newFixture()
	f.login(t)
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "update_profile")
	require.NoError(t, err)

	for _, data := range []string{"update:password_hash", "update:id", "update:username"} {
		replies, err := f.m.HandleCallback(ctx, chatID, data)
		require.NoError(t, err, data)
		requireSingleText(t, replies, "Unknown command. Please use /menu to see available options.")
	}

	assert.Zero(t, f.users.updateCalls)
	assert.Equal(t, session.StateAwaitingProfileFieldChoice, f.state(t))
}

func TestProfileUpdate_MobileStillValidated(t *testing.T) {
	f := newFixture()
	f.login(t)
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "update_profile")
	require.NoError(t, err)
	_, err = f.m.HandleCallback(ctx, chatID, "update:mobile")
	require.NoError(t, err)

	replies, err := f.m.HandleText(ctx, chatID, "12345")
	require.NoError(t, err)
	requireSingleText(t, replies, "Invalid mobile number. Please enter a 10-digit mobile number:")
	assert.Zero(t, f.users.updateCalls)

	replies, err = f.m.HandleText(ctx, chatID, "9988776655")
	require.NoError(t, err)
	requireSingleText(t, replies, "Mobile updated successfully!")
	assert.Equal(t, 1, f.users.updateCalls)
}

// ─────────────────────────────────────────────────────────────────────────────
// Transcript upload
// ─────────────────────────────────────────────────────────────────────────────

func TestUpload_PDFIngestedThroughPipeline(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.pipeline.sgpa = 9.43
	ctx := context.Background()

	replies, err := f.m.HandleCommand(ctx, chatID, "upload_markscard_pdf")
	require.NoError(t, err)
	requireSingleText(t, replies, "Please upload your marks card PDF.")

	replies, err = f.m.HandleAttachment(ctx, chatID, Attachment{
		FileRef: "file-1", FileName: "marks.pdf", MimeType: "application/pdf",
	})
	require.NoError(t, err)
	requireSingleText(t, replies, "Marks card PDF uploaded and processed successfully. SGPA has been updated.")

	assert.Equal(t, 1, f.files.fetched)
	assert.Equal(t, 1, f.pipeline.calls)
	assert.Equal(t, "file-1", f.pipeline.lastRef)
	assert.Equal(t, session.StateNone, f.state(t))
}

func TestUpload_NonPDFRejectedBeforeDownload(t *testing.T) {
	f := newFixture()
	f.login(t)
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "upload_markscard_pdf")
	require.NoError(t, err)

	replies, err := f.m.HandleAttachment(ctx, chatID, Attachment{
		FileRef: "file-1", FileName: "notes.docx",
		MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})
	require.NoError(t, err)
	requireSingleText(t, replies, "Unsupported file format. Please upload a PDF file.")

	assert.Zero(t, f.files.fetched)
	assert.Zero(t, f.pipeline.calls)
	// Flow stays open so the user can retry with a PDF.
	assert.Equal(t, session.StateAwaitingTranscriptUpload, f.state(t))
}

func TestUpload_RepeatUploadReportsStoredSGPA(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.pipeline.ingested = &transcript.Result{SGPA: 9.43, AlreadyIngested: true}
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "upload_markscard_pdf")
	require.NoError(t, err)

	replies, err := f.m.HandleAttachment(ctx, chatID, Attachment{
		FileRef: "file-1", FileName: "marks.pdf", MimeType: "application/pdf",
	})
	require.NoError(t, err)
	requireSingleText(t, replies, "You have already uploaded this marks card. Your SGPA is: 9.43")
}

// ─────────────────────────────────────────────────────────────────────────────
// Reminders
// ─────────────────────────────────────────────────────────────────────────────

func TestReminder_FlowCreatesAndSchedules(t *testing.T) {
	f := newFixture()
	u := f.login(t)
	ctx := context.Background()

	replies, err := f.m.HandleCommand(ctx, chatID, "set_reminder")
	require.NoError(t, err)
	requireSingleText(t, replies, "Enter the reminder time in HH:MM format:")

	replies, err = f.m.HandleText(ctx, chatID, "07:30")
	require.NoError(t, err)
	requireSingleText(t, replies, "Enter the reminder message:")

	replies, err = f.m.HandleText(ctx, chatID, "Attend the DBMS lab")
	require.NoError(t, err)
	requireSingleText(t, replies, "Reminder set successfully!")

	require.NotNil(t, f.reminders.created)
	assert.Equal(t, u.ID, f.reminders.created.UserID)
	assert.Equal(t, "07:30", f.reminders.created.TimeStr)
	assert.Equal(t, "Attend the DBMS lab", f.reminders.created.Message)
	assert.NotEmpty(t, f.reminders.created.JobRef)

	require.Len(t, f.scheduler.scheduled, 1)
	assert.Equal(t, f.reminders.created.JobRef, f.scheduler.scheduled[0].JobRef)
}

func TestReminder_InvalidTimeReprompts(t *testing.T) {
	f := newFixture()
	f.login(t)
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "set_reminder")
	require.NoError(t, err)

	for _, bad := range []string{"25:00", "7", "07:61", "noon"} {
		replies, err := f.m.HandleText(ctx, chatID, bad)
		require.NoError(t, err, bad)
		requireSingleText(t, replies, "Invalid time. Enter the reminder time in HH:MM format:")
		assert.Equal(t, session.StateAwaitingReminderTime, f.state(t))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Resources and feedback
// ─────────────────────────────────────────────────────────────────────────────

func TestShareDocument_AcceptsPhotos(t *testing.T) {
	f := newFixture()
	u := f.login(t)
	ctx := context.Background()

	_, err := f.m.HandleCommand(ctx, chatID, "share_document")
	require.NoError(t, err)

	replies, err := f.m.HandleAttachment(ctx, chatID, Attachment{FileRef: "photo-1", Photo: true})
	require.NoError(t, err)
	requireSingleText(t, replies, "Document photo.jpg shared successfully!")

	require.Len(t, f.documents.saved, 1)
	assert.Equal(t, u.ID, f.documents.saved[0].UserID)
	assert.Equal(t, "image/jpeg", f.documents.saved[0].MimeType)
}

func TestListResources_SendsByTypeAndReference(t *testing.T) {
	f := newFixture()
	f.login(t)
	f.documents.list = []resource.SharedDocument{
		{FileRef: "doc-1", FileName: "notes.pdf", MimeType: "application/pdf"},
		{FileRef: "img-1", FileName: "timetable.jpg", MimeType: "image/jpeg"},
		{FileRef: "zip-1", FileName: "slides.zip", MimeType: "application/zip"},
	}

	replies, err := f.m.HandleCommand(context.Background(), chatID, "list_resources")
	require.NoError(t, err)
	require.Len(t, replies, 3)

	require.NotNil(t, replies[0].Document)
	assert.Equal(t, "doc-1", replies[0].Document.FileRef)
	assert.False(t, replies[0].Document.Photo)

	require.NotNil(t, replies[1].Document)
	assert.True(t, replies[1].Document.Photo)

	assert.Equal(t, "slides.zip - Shared document", replies[2].Text)
}

func TestFeedback_WorksAnonymously(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	replies, err := f.m.HandleCommand(ctx, chatID, "feedback")
	require.NoError(t, err)
	requireSingleText(t, replies, "Enter your feedback:")

	replies, err = f.m.HandleText(ctx, chatID, "Great bot!")
	require.NoError(t, err)
	requireSingleText(t, replies, "Thank you for your feedback!")

	require.Len(t, f.feedback.saved, 1)
	assert.Nil(t, f.feedback.saved[0].UserID)
	assert.Equal(t, "Great bot!", f.feedback.saved[0].Text)
}

func TestJobOpportunities_OneReplyPerPosting(t *testing.T) {
	f := newFixture()
	f.jobs.jobs = []resource.JobOpportunity{
		{Title: "Software Engineer Intern", Company: "Google", Description: "Build things.", Link: "https://careers.google.com"},
		{Title: "Data Analyst", Company: "Facebook", Description: "Analyze data.", Link: "https://www.facebook.com/careers"},
	}

	replies, err := f.m.HandleCommand(context.Background(), chatID, "job_opportunities")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "**Software Engineer Intern** at **Google**")
	assert.True(t, replies[0].Markdown)
	assert.True(t, replies[0].DisableWebPreview)
}

// ─────────────────────────────────────────────────────────────────────────────
// Menu and misc
// ─────────────────────────────────────────────────────────────────────────────

func TestMenu_FourteenActions(t *testing.T) {
	f := newFixture()

	replies, err := f.m.HandleText(context.Background(), chatID, "Menu")
	require.NoError(t, err)
	require.Len(t, replies, 1)

	total := 0
	for _, row := range replies[0].Buttons {
		total += len(row)
	}
	assert.Equal(t, 14, total)
}

func TestUnknownText_PointsAtMenu(t *testing.T) {
	f := newFixture()

	replies, err := f.m.HandleText(context.Background(), chatID, "hello there")
	require.NoError(t, err)
	requireSingleText(t, replies, "Unknown command. Please use /menu to see available options.")
}

func TestGenerateReport_ProducesDocument(t *testing.T) {
	f := newFixture()
	f.login(t)

	replies, err := f.m.HandleCommand(context.Background(), chatID, "generate_report")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.NotNil(t, replies[0].Document)
	assert.Contains(t, string(replies[0].Document.Content), "Ananya Rao")
	assert.Contains(t, string(replies[0].Document.Content), "Campus Connect")
}
