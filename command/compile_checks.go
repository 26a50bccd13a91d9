package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-splist/directory"
)

var (
	_ gocmd.Commander[ReportErrorMessage]   = (*ReportErrorCommand)(nil)
	_ gocmd.Commander[UpdateProfileMessage] = (*UpdateProfileCommand)(nil)
	_ gocmd.Commander[ReplacePhotoMessage]  = (*ReplacePhotoCommand)(nil)
	_ ProfileService                        = (*directory.Directory)(nil)
)
