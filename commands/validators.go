package commands

import (
	"errors"
	"fmt"
	"net/mail"
)

// Input rules for the create-user wizard. Failures are re-prompted by the
// wizard loop; when values come from flags a failure aborts immediately.

func validateEmail(value string) error {
	if value == "" {
		return errors.New("an email is required")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return fmt.Errorf("%q is not a valid email address", value)
	}
	return nil
}

func validateName(value string) error {
	if len(value) < 2 {
		return errors.New("the name must be at least 2 characters long")
	}
	return nil
}

func validatePassword(value string) error {
	if len(value) < 6 {
		return errors.New("the password must be at least 6 characters long")
	}
	return nil
}
