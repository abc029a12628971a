package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type subjectRepoMock struct {
	subjects  map[string]*models.SubjectDetail
	keyTaken  bool
	createErr error
	updateErr error
	deleteErr error
	created   *models.Subject
	updated   *models.Subject
}

func (m *subjectRepoMock) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, int, error) {
	var out []models.SubjectDetail
	for _, s := range m.subjects {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *subjectRepoMock) FindByID(ctx context.Context, id string) (*models.SubjectDetail, error) {
	s, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (m *subjectRepoMock) ExistsByKey(ctx context.Context, name, group, career, excludeID string) (bool, error) {
	return m.keyTaken, nil
}

func (m *subjectRepoMock) Create(ctx context.Context, subject *models.Subject) error {
	if m.createErr != nil {
		return m.createErr
	}
	subject.ID = uuid.NewString()
	m.created = subject
	return nil
}

func (m *subjectRepoMock) Update(ctx context.Context, subject *models.Subject) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = subject
	return nil
}

func (m *subjectRepoMock) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func validSubjectRequest() models.CreateSubjectRequest {
	return models.CreateSubjectRequest{Name: "Algebra", Group: "A", Career: "Science", Credits: 4, TotalSlots: 30}
}

func TestSubjectServiceCreateStartsFull(t *testing.T) {
	repo := &subjectRepoMock{}
	cache := &invalidatorMock{}
	svc := NewSubjectService(repo, cache, nil, nil)

	blank := "  "
	req := validSubjectRequest()
	req.TeacherID = &blank
	subject, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 30, subject.AvailableSlots)
	assert.Nil(t, subject.TeacherID)
	assert.Equal(t, 1, cache.calls)
}

func TestSubjectServiceCreateValidation(t *testing.T) {
	svc := NewSubjectService(&subjectRepoMock{}, nil, nil, nil)

	req := validSubjectRequest()
	req.Credits = 5
	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = validSubjectRequest()
	req.TotalSlots = 0
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSubjectServiceCreateConflicts(t *testing.T) {
	svc := NewSubjectService(&subjectRepoMock{keyTaken: true}, nil, nil, nil)
	_, err := svc.Create(context.Background(), validSubjectRequest())
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	svc = NewSubjectService(&subjectRepoMock{createErr: &pq.Error{Code: "23503"}}, nil, nil, nil)
	_, err = svc.Create(context.Background(), validSubjectRequest())
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSubjectServiceUpdateBelowEnrolled(t *testing.T) {
	id := uuid.NewString()
	repo := &subjectRepoMock{
		subjects:  map[string]*models.SubjectDetail{id: {Subject: models.Subject{ID: id, TotalSlots: 10, AvailableSlots: 2}}},
		updateErr: repository.ErrSlotsBelowEnrolled,
	}
	svc := NewSubjectService(repo, nil, nil, nil)

	req := models.UpdateSubjectRequest{Name: "Algebra", Group: "A", Career: "Science", Credits: 4, TotalSlots: 5}
	_, err := svc.Update(context.Background(), id, req)
	assert.ErrorIs(t, err, appErrors.ErrSlotsBelowEnrolled)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestSubjectServiceUpdate(t *testing.T) {
	id := uuid.NewString()
	repo := &subjectRepoMock{subjects: map[string]*models.SubjectDetail{id: {Subject: models.Subject{ID: id, TotalSlots: 10, AvailableSlots: 2}}}}
	svc := NewSubjectService(repo, nil, nil, nil)

	req := models.UpdateSubjectRequest{Name: "Algebra II", Group: "A", Career: "Science", Credits: 3, TotalSlots: 12}
	subject, err := svc.Update(context.Background(), id, req)
	require.NoError(t, err)
	assert.Equal(t, "Algebra II", subject.Name)
	assert.Equal(t, 12, repo.updated.TotalSlots)
}

func TestSubjectServiceUpdateTrimsTeacherReference(t *testing.T) {
	id := uuid.NewString()
	teacherID := uuid.NewString()
	current := "old-teacher"
	repo := &subjectRepoMock{subjects: map[string]*models.SubjectDetail{id: {Subject: models.Subject{ID: id, TotalSlots: 10, AvailableSlots: 10, TeacherID: &current}}}}
	svc := NewSubjectService(repo, nil, nil, nil)

	blank := "   "
	req := models.UpdateSubjectRequest{Name: "Algebra", Group: "A", Career: "Science", Credits: 3, TotalSlots: 10, TeacherID: &blank}
	subject, err := svc.Update(context.Background(), id, req)
	require.NoError(t, err)
	assert.Nil(t, subject.TeacherID)

	padded := "  " + teacherID + " "
	req.TeacherID = &padded
	subject, err = svc.Update(context.Background(), id, req)
	require.NoError(t, err)
	require.NotNil(t, subject.TeacherID)
	assert.Equal(t, teacherID, *subject.TeacherID)

	garbage := "not-a-uuid"
	req.TeacherID = &garbage
	_, err = svc.Update(context.Background(), id, req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSubjectServiceDelete(t *testing.T) {
	svc := NewSubjectService(&subjectRepoMock{deleteErr: repository.ErrSubjectInUse}, nil, nil, nil)
	err := svc.Delete(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	svc = NewSubjectService(&subjectRepoMock{deleteErr: sql.ErrNoRows}, nil, nil, nil)
	err = svc.Delete(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, appErrors.ErrSubjectNotFound)

	cache := &invalidatorMock{}
	svc = NewSubjectService(&subjectRepoMock{}, cache, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), uuid.NewString()))
	assert.Equal(t, 1, cache.calls)
}
