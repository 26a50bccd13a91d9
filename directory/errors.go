package directory

import "errors"

var (
	errSiteUserNotFound = errors.New("directory: site user not found")
	errMissingEmail     = errors.New("directory: site user has no email")
	errProfileNotFound  = errors.New("directory: profile not found")
)

const (
	TitleDevSiteUser   = "Error fetching Sharepoint Developer User information"
	TitleSiteUser      = "Error fetching Sharepoint User information"
	TitleProfile       = "Error fetching MySSC User information"
	TitleSearch        = "Error searching for other MySSC User information"
	TitleUpdateProfile = "Error updating MySSC User information"
	TitleReplacePhoto  = "Error updating photo"
	TitleListData      = "Error fetching SharePoint List information"

	LocationDirectory = "directory"
	LocationLists     = "directory.lists"
)
