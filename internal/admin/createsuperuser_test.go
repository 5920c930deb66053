package admin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	email, password string
	err             error
}

func (f *fakeCreator) CreateSuperuser(_ context.Context, email, password string) (*models.User, error) {
	f.email, f.password = email, password
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: 1, Email: email, IsActive: true, IsStaff: true, IsSuperuser: true}, nil
}

// stubPasswords makes readPassword return the given answers in order.
func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func TestCreateSuperuser_Prompts(t *testing.T) {
	stubPasswords(t, "secret1", "secret1")
	users := &fakeCreator{}
	var out bytes.Buffer

	cmd := NewCommand(users, strings.NewReader("\nadmin@example.com\n"), &out)
	u, err := cmd.CreateSuperuser(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "admin@example.com", users.email)
	assert.Equal(t, "secret1", users.password)
	assert.True(t, u.IsSuperuser)
	assert.Contains(t, out.String(), "This field cannot be blank.")
	assert.Contains(t, out.String(), "Superuser created successfully.")
}

func TestCreateSuperuser_RetriesPassword(t *testing.T) {
	stubPasswords(t, "secret1", "secret2", "abc", "abc", "", "", "secret3", "secret3")
	users := &fakeCreator{}
	var out bytes.Buffer

	cmd := NewCommand(users, strings.NewReader(""), &out)
	_, err := cmd.CreateSuperuser(context.Background(), "admin@example.com")
	require.ErrorIs(t, err, ErrTooManyAttempts)
	assert.Empty(t, users.email)
	assert.Contains(t, out.String(), "didn't match")
	assert.Contains(t, out.String(), "too short")
	assert.Contains(t, out.String(), "Blank passwords")
}

func TestCreateSuperuser_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"taken", common.ErrAlreadyExists, "already taken"},
		{"validation", common.NewValidationError("email", "Users must have an email address."), "email: Users must have an email address."},
		{"other", errors.New("db down"), "db down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPasswords(t, "secret1", "secret1")
			cmd := NewCommand(&fakeCreator{err: tt.err}, strings.NewReader(""), &bytes.Buffer{})

			_, err := cmd.CreateSuperuser(context.Background(), "admin@example.com")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetSimpleText_EOF(t *testing.T) {
	cmd := NewCommand(&fakeCreator{}, strings.NewReader(""), &bytes.Buffer{})

	_, err := cmd.CreateSuperuser(context.Background(), "")
	require.Error(t, err)
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword("Password: ", &out)
	require.Error(t, err)
}
