package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
)

const (
	minPasswordLength = 5
	maxPasswordLength = 72
	// maxAttempts bounds the password prompt loop.
	maxAttempts = 3
)

var ErrTooManyAttempts = errors.New("too many attempts")

type SuperuserCreator interface {
	CreateSuperuser(ctx context.Context, email, password string) (*models.User, error)
}

type Command struct {
	users  SuperuserCreator
	reader *bufio.Reader
	out    io.Writer
}

func NewCommand(users SuperuserCreator, in io.Reader, out io.Writer) *Command {
	return &Command{users: users, reader: bufio.NewReader(in), out: out}
}

// CreateSuperuser asks for an email (unless one is given) and a password
// typed twice, then stores the account with staff and superuser rights.
func (c *Command) CreateSuperuser(ctx context.Context, email string) (*models.User, error) {
	var err error
	for email == "" {
		email, err = GetSimpleText(c.reader, "Email: ", c.out)
		if err != nil {
			return nil, err
		}
		if email == "" {
			fmt.Fprintln(c.out, "Error: This field cannot be blank.")
		}
	}

	password, err := c.promptPassword()
	if err != nil {
		return nil, err
	}

	u, err := c.users.CreateSuperuser(ctx, email, password)
	if err != nil {
		var verr *common.ValidationError
		switch {
		case errors.As(err, &verr):
			return nil, fmt.Errorf("%s: %s", verr.Field, verr.Message)
		case errors.Is(err, common.ErrAlreadyExists):
			return nil, fmt.Errorf("email %q is already taken", email)
		}
		return nil, err
	}

	fmt.Fprintln(c.out, "Superuser created successfully.")
	return u, nil
}

func (c *Command) promptPassword() (string, error) {
	for i := 0; i < maxAttempts; i++ {
		password, err := GetPassword("Password: ", c.out)
		if err != nil {
			return "", err
		}
		again, err := GetPassword("Password (again): ", c.out)
		if err != nil {
			return "", err
		}

		switch {
		case password != again:
			fmt.Fprintln(c.out, "Error: Your passwords didn't match.")
		case password == "":
			fmt.Fprintln(c.out, "Error: Blank passwords aren't allowed.")
		case len(password) < minPasswordLength:
			fmt.Fprintf(c.out, "Error: This password is too short. It must contain at least %d characters.\n", minPasswordLength)
		case len(password) > maxPasswordLength:
			fmt.Fprintf(c.out, "Error: This password is too long. It must contain at most %d bytes.\n", maxPasswordLength)
		default:
			return password, nil
		}
	}
	return "", ErrTooManyAttempts
}
