package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unidept/presentation-scheduler/internal/models"
)

type mockExaminerRepo struct {
	examiners map[string]models.Examiner
	maxCode   string
	deleted   []string
}

func (m *mockExaminerRepo) List(ctx context.Context, filter models.ExaminerFilter) ([]models.Examiner, int, error) {
	out := make([]models.Examiner, 0, len(m.examiners))
	for _, ex := range m.examiners {
		out = append(out, ex)
	}
	return out, len(out), nil
}

func (m *mockExaminerRepo) FindByID(ctx context.Context, id string) (*models.Examiner, error) {
	if ex, ok := m.examiners[id]; ok {
		return &ex, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExaminerRepo) MaxCodeForYear(ctx context.Context, prefix string) (string, error) {
	if m.maxCode == "" {
		return "", sql.ErrNoRows
	}
	return m.maxCode, nil
}

func (m *mockExaminerRepo) Create(ctx context.Context, examiner *models.Examiner) error {
	if m.examiners == nil {
		m.examiners = make(map[string]models.Examiner)
	}
	if examiner.ID == "" {
		examiner.ID = "generated"
	}
	m.examiners[examiner.ID] = *examiner
	return nil
}

func (m *mockExaminerRepo) Update(ctx context.Context, examiner *models.Examiner) error {
	m.examiners[examiner.ID] = *examiner
	return nil
}

func (m *mockExaminerRepo) Delete(ctx context.Context, id string) error {
	delete(m.examiners, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockExaminerUsers struct {
	created        []models.User
	deletedByEmail []string
}

func (m *mockExaminerUsers) Create(ctx context.Context, user *models.User) error {
	m.created = append(m.created, *user)
	return nil
}

func (m *mockExaminerUsers) DeleteByEmail(ctx context.Context, email string) error {
	m.deletedByEmail = append(m.deletedByEmail, email)
	return nil
}

func newTestExaminerService(repo *mockExaminerRepo, users *mockExaminerUsers) *ExaminerService {
	svc := NewExaminerService(repo, users, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, time.September, 7, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestExaminerCreateAssignsFirstCodeOfYear(t *testing.T) {
	repo := &mockExaminerRepo{}
	users := &mockExaminerUsers{}
	svc := newTestExaminerService(repo, users)

	examiner, err := svc.Create(context.Background(), CreateExaminerRequest{
		FullName:   "Dr. Jane Roe",
		Email:      "jane.roe@uni.example",
		Department: "CS",
		Password:   "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "EX2026001", examiner.Code)

	require.Len(t, users.created, 1)
	account := users.created[0]
	assert.Equal(t, models.RoleExaminer, account.Role)
	assert.Equal(t, "jane.roe@uni.example", account.Email)
	assert.True(t, account.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("s3cret-pass")))
}

func TestExaminerCreateIncrementsSequence(t *testing.T) {
	repo := &mockExaminerRepo{maxCode: "EX2026041"}
	svc := newTestExaminerService(repo, &mockExaminerUsers{})

	examiner, err := svc.Create(context.Background(), CreateExaminerRequest{
		FullName:   "Dr. John Roe",
		Email:      "john.roe@uni.example",
		Department: "CS",
		Password:   "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "EX2026042", examiner.Code)
}

func TestExaminerCreateRejectsShortPassword(t *testing.T) {
	svc := newTestExaminerService(&mockExaminerRepo{}, &mockExaminerUsers{})

	_, err := svc.Create(context.Background(), CreateExaminerRequest{
		FullName:   "Dr. Jane Roe",
		Email:      "jane.roe@uni.example",
		Department: "CS",
		Password:   "short",
	})
	require.Error(t, err)
}

func TestExaminerUpdateKeepsCode(t *testing.T) {
	repo := &mockExaminerRepo{examiners: map[string]models.Examiner{
		"e1": {ID: "e1", Code: "EX2025007", FullName: "Old Name", Email: "old@uni.example", Department: "CS"},
	}}
	svc := newTestExaminerService(repo, &mockExaminerUsers{})

	updated, err := svc.Update(context.Background(), "e1", UpdateExaminerRequest{
		FullName:   "New Name",
		Email:      "new@uni.example",
		Department: "EE",
	})
	require.NoError(t, err)
	assert.Equal(t, "EX2025007", updated.Code)
	assert.Equal(t, "New Name", updated.FullName)
	assert.Equal(t, "EE", updated.Department)
}

func TestExaminerDeleteRemovesAccount(t *testing.T) {
	repo := &mockExaminerRepo{examiners: map[string]models.Examiner{
		"e1": {ID: "e1", Code: "EX2025007", Email: "jane.roe@uni.example"},
	}}
	users := &mockExaminerUsers{}
	svc := newTestExaminerService(repo, users)

	require.NoError(t, svc.Delete(context.Background(), "e1"))
	assert.Equal(t, []string{"e1"}, repo.deleted)
	assert.Equal(t, []string{"jane.roe@uni.example"}, users.deletedByEmail)
}

func TestExaminerGetNotFound(t *testing.T) {
	svc := newTestExaminerService(&mockExaminerRepo{}, &mockExaminerUsers{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorContains(t, err, "examiner not found")
}
