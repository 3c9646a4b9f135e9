package model

import "strings"

// ValidationError aggregates human-readable messages for every field that
// failed, e.g. "Title is too short (minimum is 3 characters)". It renders
// as a 422 with the full message list.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, ", ")
}

func (e *ValidationError) Add(message string) {
	e.Messages = append(e.Messages, message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Messages) > 0
}

// ValidateUserParams checks the user registration payload. Uniqueness is
// checked at write time against the store, not here.
func ValidateUserParams(p *UserParams) *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(p.Username) == "" {
		verr.Add("Username can't be blank")
	}
	if p.Password == "" {
		verr.Add("Password can't be blank")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

const minTitleLength = 3

// ValidateBookTitle applies the book validations to a prospective title.
func ValidateBookTitle(verr *ValidationError, title string) {
	if strings.TrimSpace(title) == "" {
		verr.Add("Title can't be blank")
		return
	}
	if len(title) < minTitleLength {
		verr.Add("Title is too short (minimum is 3 characters)")
	}
}

// ValidateAuthorFields applies the author validations to prospective
// field values.
func ValidateAuthorFields(verr *ValidationError, firstName, lastName string, age int) {
	if strings.TrimSpace(firstName) == "" {
		verr.Add("First name can't be blank")
	}
	if strings.TrimSpace(lastName) == "" {
		verr.Add("Last name can't be blank")
	}
	if age < 0 {
		verr.Add("Age must be greater than or equal to 0")
	}
}
