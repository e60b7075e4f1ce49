package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidept/presentation-scheduler/internal/models"
)

type mockModuleRepo struct {
	modules map[string]models.Module
	maxCode string
	deleted []string
}

func (m *mockModuleRepo) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error) {
	out := make([]models.Module, 0, len(m.modules))
	for _, mod := range m.modules {
		out = append(out, mod)
	}
	return out, len(out), nil
}

func (m *mockModuleRepo) FindByID(ctx context.Context, id string) (*models.Module, error) {
	if mod, ok := m.modules[id]; ok {
		return &mod, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockModuleRepo) MaxCodeForDepartment(ctx context.Context, prefix string) (string, error) {
	if m.maxCode == "" {
		return "", sql.ErrNoRows
	}
	return m.maxCode, nil
}

func (m *mockModuleRepo) Create(ctx context.Context, module *models.Module) error {
	if m.modules == nil {
		m.modules = make(map[string]models.Module)
	}
	if module.ID == "" {
		module.ID = "generated"
	}
	m.modules[module.ID] = *module
	return nil
}

func (m *mockModuleRepo) Update(ctx context.Context, module *models.Module) error {
	m.modules[module.ID] = *module
	return nil
}

func (m *mockModuleRepo) Delete(ctx context.Context, id string) error {
	delete(m.modules, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockModuleExaminers struct {
	byCode map[string]models.Examiner
}

func (m *mockModuleExaminers) FindByCodes(ctx context.Context, codes []string) ([]models.Examiner, error) {
	var found []models.Examiner
	for _, code := range codes {
		if ex, ok := m.byCode[code]; ok {
			found = append(found, ex)
		}
	}
	return found, nil
}

func newTestModuleService(repo *mockModuleRepo) *ModuleService {
	examiners := &mockModuleExaminers{byCode: map[string]models.Examiner{
		"EX2026001": {ID: "e1", Code: "EX2026001", Department: "CS"},
		"EX2026002": {ID: "e2", Code: "EX2026002", Department: "CS"},
	}}
	return NewModuleService(repo, examiners, nil, nil)
}

func TestModuleCreateAssignsFirstDepartmentCode(t *testing.T) {
	repo := &mockModuleRepo{}
	svc := newTestModuleService(repo)

	module, err := svc.Create(context.Background(), CreateModuleRequest{
		Name:         "Distributed Systems",
		Department:   "cs",
		LecturerCode: "EX2026001",
	})
	require.NoError(t, err)
	assert.Equal(t, "MCS001", module.Code)
	assert.Equal(t, "cs", module.Department)
	assert.Equal(t, "e1", module.LecturerID)
}

func TestModuleCreateIncrementsDepartmentSequence(t *testing.T) {
	repo := &mockModuleRepo{maxCode: "MCS041"}
	svc := newTestModuleService(repo)

	module, err := svc.Create(context.Background(), CreateModuleRequest{
		Name:         "Compilers",
		Department:   "CS",
		LecturerCode: "EX2026002",
	})
	require.NoError(t, err)
	assert.Equal(t, "MCS042", module.Code)
}

func TestModuleCreateUnknownLecturer(t *testing.T) {
	repo := &mockModuleRepo{}
	svc := newTestModuleService(repo)

	_, err := svc.Create(context.Background(), CreateModuleRequest{
		Name:         "Databases",
		Department:   "CS",
		LecturerCode: "EX2026999",
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "lecturer not found")
	assert.Empty(t, repo.modules)
}

func TestModuleCreateRequiresAllFields(t *testing.T) {
	svc := newTestModuleService(&mockModuleRepo{})

	_, err := svc.Create(context.Background(), CreateModuleRequest{Name: "Databases"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "all fields are required")
}

func TestModuleUpdateKeepsCodeAndLecturer(t *testing.T) {
	existing := models.Module{
		ID: "m1", Code: "MCS007", Name: "Old Name", Department: "CS", LecturerID: "e1",
	}
	repo := &mockModuleRepo{modules: map[string]models.Module{"m1": existing}}
	svc := newTestModuleService(repo)

	updated, err := svc.Update(context.Background(), "m1", UpdateModuleRequest{
		Name:       "New Name",
		Department: "CS",
	})
	require.NoError(t, err)
	assert.Equal(t, "MCS007", updated.Code)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "e1", updated.LecturerID, "empty lecturer code keeps the current lecturer")
}

func TestModuleUpdateReplacesLecturerByCode(t *testing.T) {
	existing := models.Module{
		ID: "m1", Code: "MCS007", Name: "Networks", Department: "CS", LecturerID: "e1",
	}
	repo := &mockModuleRepo{modules: map[string]models.Module{"m1": existing}}
	svc := newTestModuleService(repo)

	updated, err := svc.Update(context.Background(), "m1", UpdateModuleRequest{
		Name:         "Networks",
		Department:   "CS",
		LecturerCode: "EX2026002",
	})
	require.NoError(t, err)
	assert.Equal(t, "e2", updated.LecturerID)
}

func TestModuleDelete(t *testing.T) {
	repo := &mockModuleRepo{modules: map[string]models.Module{"m1": {ID: "m1", Code: "MCS001"}}}
	svc := newTestModuleService(repo)

	require.NoError(t, svc.Delete(context.Background(), "m1"))
	assert.Equal(t, []string{"m1"}, repo.deleted)
}

func TestModuleGetNotFound(t *testing.T) {
	svc := newTestModuleService(&mockModuleRepo{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorContains(t, err, "module not found")
}
