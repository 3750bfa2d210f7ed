package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalay/school-saas-api/internal/middleware"
	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/service"
)

type teacherStoreMock struct {
	users      map[string]*models.User
	emailTaken bool
	created    []*models.User
	deleted    []string
}

func newTeacherStoreMock(users ...*models.User) *teacherStoreMock {
	m := &teacherStoreMock{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *teacherStoreMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *teacherStoreMock) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return m.emailTaken, nil
}

func (m *teacherStoreMock) ListBySchoolAndRole(ctx context.Context, schoolID string, role models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == role && u.InSchool(schoolID) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *teacherStoreMock) Create(ctx context.Context, user *models.User) error {
	user.ID = "t-new"
	m.created = append(m.created, user)
	return nil
}

func (m *teacherStoreMock) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *teacherStoreMock) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func adminSession() *models.SessionClaims {
	schoolID := "s1"
	return &models.SessionClaims{UserID: "a1", Role: models.RoleAdmin, SchoolID: &schoolID}
}

func newTeacherHandler(store *teacherStoreMock) *TeacherHandler {
	return NewTeacherHandler(service.NewTeacherService(store, nil, nil, nil))
}

func teacherRequest(t *testing.T, method, body string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, "/secure/admin/teachers", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, adminSession())
	return w, c
}

func TestTeacherHandlerCreate(t *testing.T) {
	store := newTeacherStoreMock()
	handler := newTeacherHandler(store)

	w, c := teacherRequest(t, http.MethodPost, `{"email":"new@school.test","password":"secret1","name":"New Teacher"}`)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, models.RoleTeacher, store.created[0].Role)
	assert.Contains(t, w.Body.String(), "New Teacher")
}

func TestTeacherHandlerCreateEmailConflict(t *testing.T) {
	store := newTeacherStoreMock()
	store.emailTaken = true
	handler := newTeacherHandler(store)

	w, c := teacherRequest(t, http.MethodPost, `{"email":"dup@school.test","password":"secret1","name":"Dup"}`)
	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
	assert.Empty(t, store.created)
}

func TestTeacherHandlerCreateInvalidBody(t *testing.T) {
	handler := newTeacherHandler(newTeacherStoreMock())

	w, c := teacherRequest(t, http.MethodPost, `{"email":"broken`)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTeacherHandlerUpdateEmailConflict(t *testing.T) {
	schoolID := "s1"
	store := newTeacherStoreMock(&models.User{ID: "t1", Role: models.RoleTeacher, SchoolID: &schoolID, Email: "t1@school.test", Name: "T One"})
	store.emailTaken = true
	handler := newTeacherHandler(store)

	w, c := teacherRequest(t, http.MethodPut, `{"email":"dup@school.test"}`)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	handler.Update(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "t1@school.test", store.users["t1"].Email)
}

func TestTeacherHandlerDeleteNotFound(t *testing.T) {
	store := newTeacherStoreMock()
	handler := newTeacherHandler(store)

	w, c := teacherRequest(t, http.MethodDelete, "")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Delete(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, store.deleted)
}
