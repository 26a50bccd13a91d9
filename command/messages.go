package command

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-splist/odata"
)

const (
	TypeReportError   = "splist.command.error.report"
	TypeUpdateProfile = "splist.command.profile.update"
	TypeReplacePhoto  = "splist.command.profile.photo.replace"
)

var errMissingCause = errors.New("cause is required")

type ReportErrorMessage struct {
	Err      error
	Title    string
	Location string
	Payload  any
}

func (ReportErrorMessage) Type() string { return TypeReportError }

func (m ReportErrorMessage) Validate() error {
	if m.Err == nil {
		return commandWrapValidation(errMissingCause, "command: report error validation failed")
	}
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required, validation.By(notBlank)),
	)
	return commandWrapValidation(err, "command: report error validation failed")
}

type UpdateProfileMessage struct {
	Payload odata.Item
}

func (UpdateProfileMessage) Type() string { return TypeUpdateProfile }

func (m UpdateProfileMessage) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Payload, validation.Required),
	)
	return commandWrapValidation(err, "command: update profile validation failed")
}

type ReplacePhotoMessage struct {
	Filename string
	Content  []byte
}

func (ReplacePhotoMessage) Type() string { return TypeReplacePhoto }

func (m ReplacePhotoMessage) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Filename, validation.Required, validation.By(notBlank)),
		validation.Field(&m.Content, validation.Required),
	)
	return commandWrapValidation(err, "command: replace photo validation failed")
}

func notBlank(value any) error {
	text, _ := value.(string)
	if strings.TrimSpace(text) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}
