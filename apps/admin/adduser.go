package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/user"
)

// addUser creates an active admin account, or promotes the existing account
// owning the email.
func (cli *commandLine) addUser(name, email, pwd string, schoolID uint) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:     name,
			Email:    email,
			SchoolID: schoolID,
		}
	}
	usr.Role = user.RoleAdmin
	usr.IsActive = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == 0 {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
