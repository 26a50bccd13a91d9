package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-splist/directory"
	"github.com/goliatone/go-splist/odata"
)

type ErrorReporter interface {
	Report(ctx context.Context, err any, title string, location string, payload ...any)
}

type ProfileService interface {
	UpdateProfile(ctx context.Context, payload odata.Item) error
	ReplacePhoto(ctx context.Context, filename string, content []byte) error
	Current() directory.Profile
}

type ReportErrorCommand struct {
	reporter ErrorReporter
}

func NewReportErrorCommand(reporter ErrorReporter) *ReportErrorCommand {
	return &ReportErrorCommand{reporter: reporter}
}

func (c *ReportErrorCommand) Execute(ctx context.Context, msg ReportErrorMessage) error {
	if c == nil || c.reporter == nil {
		return commandDependencyError("command: error reporter is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.Payload == nil {
		c.reporter.Report(ctx, msg.Err, msg.Title, msg.Location)
		return nil
	}
	c.reporter.Report(ctx, msg.Err, msg.Title, msg.Location, msg.Payload)
	return nil
}

type UpdateProfileCommand struct {
	service ProfileService
}

func NewUpdateProfileCommand(service ProfileService) *UpdateProfileCommand {
	return &UpdateProfileCommand{service: service}
}

// Execute stores the reloaded profile in the context result collector.
func (c *UpdateProfileCommand) Execute(ctx context.Context, msg UpdateProfileMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: profile service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := c.service.UpdateProfile(ctx, msg.Payload); err != nil {
		return err
	}
	storeResult(ctx, c.service.Current())
	return nil
}

type ReplacePhotoCommand struct {
	service ProfileService
}

func NewReplacePhotoCommand(service ProfileService) *ReplacePhotoCommand {
	return &ReplacePhotoCommand{service: service}
}

func (c *ReplacePhotoCommand) Execute(ctx context.Context, msg ReplacePhotoMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: profile service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := c.service.ReplacePhoto(ctx, msg.Filename, msg.Content); err != nil {
		return err
	}
	storeResult(ctx, c.service.Current())
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
