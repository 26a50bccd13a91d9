package directory

import (
	"strings"
	"unicode/utf8"
)

const (
	FieldsSiteUser = "Title,Email,UserPrincipalName"
	FieldsProfile  = "Name,User_Id,Organization,Email,Employment_Category,Workplace,Leadership,Job_Title," +
		"Started_Immersion,Step_Completed,Completed_Immersion,Mil_Rank,Description,About_Me,Phone,Education," +
		"Certification,ContactDirectoryRecentSearch,Views,Notifications,InterestsId,ResourcesId,ApplicationsId," +
		"SavedContactsId,SavedArticlesId,SkillsId,SavedJobsId,ID"
	ExpandProfile  = "AttachmentFiles/URL"
	FieldsListData = "Title,Game,Show,Movie,Food,Change"
)

// SiteUser is the platform account of the signed-in user.
type SiteUser struct {
	Title             string `odata:"Title" json:"Title"`
	Email             string `odata:"Email" json:"Email"`
	UserPrincipalName string `odata:"UserPrincipalName" json:"UserPrincipalName"`
}

type Attachment struct {
	FileName          string `odata:"FileName" json:"FileName"`
	ServerRelativeURL string `odata:"ServerRelativeUrl" json:"ServerRelativeUrl"`
}

type Attachments struct {
	Results []Attachment `odata:"results" json:"results"`
}

type IDList struct {
	Results []int `odata:"results" json:"results"`
}

// Profile is a users list record.
type Profile struct {
	ID                           int         `odata:"ID" json:"ID"`
	UserID                       string      `odata:"User_Id" json:"User_Id"`
	Name                         string      `odata:"Name" json:"Name"`
	Email                        string      `odata:"Email" json:"Email"`
	Organization                 string      `odata:"Organization" json:"Organization"`
	EmploymentCategory           string      `odata:"Employment_Category" json:"Employment_Category"`
	Workplace                    string      `odata:"Workplace" json:"Workplace"`
	Leadership                   bool        `odata:"Leadership" json:"Leadership"`
	JobTitle                     string      `odata:"Job_Title" json:"Job_Title"`
	StartedImmersion             bool        `odata:"Started_Immersion" json:"Started_Immersion"`
	StepCompleted                int         `odata:"Step_Completed" json:"Step_Completed"`
	CompletedImmersion           bool        `odata:"Completed_Immersion" json:"Completed_Immersion"`
	MilRank                      string      `odata:"Mil_Rank" json:"Mil_Rank"`
	Description                  string      `odata:"Description" json:"Description"`
	AboutMe                      string      `odata:"About_Me" json:"About_Me"`
	Phone                        string      `odata:"Phone" json:"Phone"`
	Education                    string      `odata:"Education" json:"Education"`
	Certification                string      `odata:"Certification" json:"Certification"`
	ContactDirectoryRecentSearch string      `odata:"ContactDirectoryRecentSearch" json:"ContactDirectoryRecentSearch"`
	Views                        int         `odata:"Views" json:"Views"`
	InterestsID                  IDList      `odata:"InterestsId" json:"InterestsId"`
	ResourcesID                  IDList      `odata:"ResourcesId" json:"ResourcesId"`
	ApplicationsID               IDList      `odata:"ApplicationsId" json:"ApplicationsId"`
	SavedContactsID              IDList      `odata:"SavedContactsId" json:"SavedContactsId"`
	SavedArticlesID              IDList      `odata:"SavedArticlesId" json:"SavedArticlesId"`
	SkillsID                     IDList      `odata:"SkillsId" json:"SkillsId"`
	SavedJobsID                  IDList      `odata:"SavedJobsId" json:"SavedJobsId"`
	AttachmentFiles              Attachments `odata:"AttachmentFiles" json:"AttachmentFiles"`
}

func (p Profile) IsZero() bool {
	return p.ID == 0 && p.Email == "" && p.Name == ""
}

// Letter is the first character of the display name.
func (p Profile) Letter() string {
	r, size := utf8.DecodeRuneInString(p.Name)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// Initials joins the first letters of the first and last space-separated
// words of the name.
func (p Profile) Initials() string {
	if p.Name == "" {
		return ""
	}
	words := strings.Split(p.Name, " ")
	return firstRune(words[0]) + firstRune(words[len(words)-1])
}

// PictureURL prefixes the first attachment's server-relative URL with
// siteBase, or returns "" when the profile has no attachment.
func (p Profile) PictureURL(siteBase string) string {
	if len(p.AttachmentFiles.Results) == 0 {
		return ""
	}
	relative := p.AttachmentFiles.Results[0].ServerRelativeURL
	if relative == "" {
		return ""
	}
	return siteBase + relative
}

func (p Profile) clone() Profile {
	out := p
	out.AttachmentFiles.Results = append([]Attachment(nil), p.AttachmentFiles.Results...)
	for _, list := range []*IDList{
		&out.InterestsID,
		&out.ResourcesID,
		&out.ApplicationsID,
		&out.SavedContactsID,
		&out.SavedArticlesID,
		&out.SkillsID,
		&out.SavedJobsID,
	} {
		list.Results = append([]int(nil), list.Results...)
	}
	return out
}

// ListData is the first row of the configured data list.
type ListData struct {
	Title  string `odata:"Title" json:"Title"`
	Game   string `odata:"Game" json:"Game"`
	Show   string `odata:"Show" json:"Show"`
	Movie  string `odata:"Movie" json:"Movie"`
	Food   string `odata:"Food" json:"Food"`
	Change string `odata:"Change" json:"Change"`
}

func firstRune(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(r)
}
