package directory

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-splist/core"
	"github.com/goliatone/go-splist/odata"
)

// SiteUserReader reads the platform's web endpoints (currentuser, siteusers).
type SiteUserReader interface {
	ReadEntity(ctx context.Context, subPath string, filter string) ([]odata.Item, error)
}

// ProfileStore is the users list.
type ProfileStore interface {
	ReadOne(ctx context.Context, filter string) (odata.Item, error)
	ReadMany(ctx context.Context, tokens []string, top int) ([]odata.Item, error)
	Update(ctx context.Context, id int, payload odata.Item) error
	UploadAttachment(ctx context.Context, content []byte, filename string, itemID int) error
	DeleteAttachment(ctx context.Context, filename string, itemID int) error
}

type ErrorReporter interface {
	Report(ctx context.Context, err any, title string, location string, payload ...any)
}

type Config struct {
	DevMode   bool
	DevUserID int
	SiteBase  string
	SiteUsers SiteUserReader
	Profiles  ProfileStore
	Reporter  ErrorReporter
	Cache     repositorycache.CacheService
	Logger    core.Logger
	Provider  core.LoggerProvider
}

// Directory holds the signed-in user's state. Reads return the last known
// values when a refresh fails.
type Directory struct {
	devMode   bool
	devUserID int
	siteBase  string
	siteUsers SiteUserReader
	profiles  ProfileStore
	reporter  ErrorReporter
	cache     profileCache
	logger    core.Logger

	mu       sync.RWMutex
	siteUser SiteUser
	current  Profile
	loaded   bool
}

func New(cfg Config) (*Directory, error) {
	if cfg.SiteUsers == nil {
		return nil, core.NewBadInput("directory: site users reader is required", nil)
	}
	if cfg.Profiles == nil {
		return nil, core.NewBadInput("directory: profile store is required", nil)
	}
	if cfg.DevMode && cfg.DevUserID <= 0 {
		return nil, core.NewBadInput("directory: dev user id must be positive in development mode", map[string]any{
			"dev_user_id": cfg.DevUserID,
		})
	}
	return &Directory{
		devMode:   cfg.DevMode,
		devUserID: cfg.DevUserID,
		siteBase:  cfg.SiteBase,
		siteUsers: cfg.SiteUsers,
		profiles:  cfg.Profiles,
		reporter:  cfg.Reporter,
		cache:     profileCache{cache: cfg.Cache},
		logger:    core.ResolveLogger("splist.directory", cfg.Provider, cfg.Logger),
	}, nil
}

// Load resolves the site user, then their profile, and returns the profile.
// The profile lookup is skipped when the site user could not be resolved.
func (d *Directory) Load(ctx context.Context) Profile {
	if d.loadSiteUser(ctx) {
		d.loadProfile(ctx)
	}

	d.mu.Lock()
	d.loaded = true
	d.mu.Unlock()
	return d.Current()
}

func (d *Directory) Current() Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current.clone()
}

func (d *Directory) SiteUser() SiteUser {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.siteUser
}

func (d *Directory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// UserID is the current profile's User_Id, used to attribute error reports.
func (d *Directory) UserID(context.Context) string {
	return d.Current().UserID
}

func (d *Directory) ProfilePictureURL() string {
	return d.Current().PictureURL(d.siteBase)
}

func (d *Directory) Letter() string {
	return d.Current().Letter()
}

func (d *Directory) Initials() string {
	return d.Current().Initials()
}

func (d *Directory) loadSiteUser(ctx context.Context) bool {
	var (
		items   []odata.Item
		err     error
		title   = TitleSiteUser
		payload []any
	)
	if d.devMode {
		title = TitleDevSiteUser
		payload = []any{d.devUserID}
		items, err = d.siteUsers.ReadEntity(ctx, "siteusers", odata.Eq("Id", d.devUserID))
	} else {
		items, err = d.siteUsers.ReadEntity(ctx, "currentuser", "")
	}
	if err == nil && (len(items) == 0 || items[0].IsEmpty()) {
		err = errSiteUserNotFound
	}
	var user SiteUser
	if err == nil {
		user, err = odata.DecodeItem[SiteUser](items[0])
	}
	if err != nil {
		d.report(ctx, err, title, LocationDirectory, payload...)
		return false
	}

	d.mu.Lock()
	d.siteUser = user
	d.mu.Unlock()
	return true
}

func (d *Directory) loadProfile(ctx context.Context) {
	email := strings.TrimSpace(d.SiteUser().Email)
	if email == "" {
		d.report(ctx, errMissingEmail, TitleProfile, LocationDirectory)
		return
	}
	profile, err := d.cache.getOrFetch(ctx, email, func(ctx context.Context) (Profile, error) {
		return d.fetchProfile(ctx, email)
	})
	if errors.Is(err, errProfileNotFound) {
		core.Log(ctx, d.logger, core.LevelWarn, "no profile for site user", map[string]any{"email": email})
		d.setCurrent(Profile{})
		return
	}
	if err != nil {
		d.report(ctx, err, TitleProfile, LocationDirectory, email)
		return
	}
	d.setCurrent(profile)
}

func (d *Directory) fetchProfile(ctx context.Context, email string) (Profile, error) {
	item, err := d.profiles.ReadOne(ctx, odata.Eq("Email", email))
	if err != nil {
		return Profile{}, err
	}
	if item.IsEmpty() {
		return Profile{}, errProfileNotFound
	}
	return odata.DecodeItem[Profile](item)
}

func (d *Directory) setCurrent(profile Profile) {
	d.mu.Lock()
	d.current = profile.clone()
	d.mu.Unlock()
}

var nonWord = regexp.MustCompile(`\W+`)

// SearchTokens uppercases query and splits it on runs of non-word
// characters, dropping empty tokens.
func SearchTokens(query string) []string {
	parts := nonWord.Split(strings.ToUpper(query), -1)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// Search returns profiles whose name contains every token of query. Failures
// are reported and yield an empty result.
func (d *Directory) Search(ctx context.Context, query string) []Profile {
	tokens := SearchTokens(query)
	items, err := d.profiles.ReadMany(ctx, tokens, 0)
	if err != nil {
		d.report(ctx, err, TitleSearch, LocationDirectory, tokens)
		return []Profile{}
	}
	profiles := make([]Profile, 0, len(items))
	for _, item := range items {
		profile, decodeErr := odata.DecodeItem[Profile](item)
		if decodeErr != nil {
			d.report(ctx, decodeErr, TitleSearch, LocationDirectory, tokens)
			return []Profile{}
		}
		profiles = append(profiles, profile)
	}
	return profiles
}

// UpdateProfile merges payload into the current profile record and reloads
// it. The payload's ID is replaced with the current profile's ID.
func (d *Directory) UpdateProfile(ctx context.Context, payload odata.Item) error {
	current := d.Current()
	if current.ID == 0 {
		return core.NewBadInput("directory: no current profile loaded", nil)
	}
	body := make(odata.Item, len(payload)+1)
	for key, value := range payload {
		body[key] = value
	}
	body[odata.FieldID] = current.ID

	if err := d.profiles.Update(ctx, current.ID, body); err != nil {
		d.report(ctx, err, TitleUpdateProfile, LocationDirectory, map[string]any(body))
		return nil
	}
	d.refreshProfile(ctx, current.Email)
	return nil
}

// ReplacePhoto removes the current profile's attachments, uploads content
// as filename and reloads the profile.
func (d *Directory) ReplacePhoto(ctx context.Context, filename string, content []byte) error {
	current := d.Current()
	if current.ID == 0 {
		return core.NewBadInput("directory: no current profile loaded", nil)
	}
	if strings.TrimSpace(filename) == "" {
		return core.NewBadInput("directory: photo filename is required", nil)
	}
	for _, attachment := range current.AttachmentFiles.Results {
		if err := d.profiles.DeleteAttachment(ctx, attachment.FileName, current.ID); err != nil {
			core.Log(ctx, d.logger, core.LevelWarn, "attachment delete failed", map[string]any{
				"file_name": attachment.FileName,
				"item_id":   current.ID,
				"error":     err.Error(),
			})
		}
	}
	if err := d.profiles.UploadAttachment(ctx, content, filename, current.ID); err != nil {
		d.report(ctx, err, TitleReplacePhoto, LocationDirectory, filename)
		return nil
	}
	d.refreshProfile(ctx, current.Email)
	return nil
}

func (d *Directory) refreshProfile(ctx context.Context, email string) {
	if err := d.cache.invalidate(ctx, email); err != nil {
		core.Log(ctx, d.logger, core.LevelWarn, "profile cache invalidation failed", map[string]any{
			"email": email,
			"error": err.Error(),
		})
	}
	d.loadProfile(ctx)
}

func (d *Directory) report(ctx context.Context, err error, title string, location string, payload ...any) {
	if d.reporter == nil {
		core.Log(ctx, d.logger, core.LevelError, title, map[string]any{"error": err.Error(), "location": location})
		return
	}
	d.reporter.Report(ctx, err, title, location, payload...)
}
