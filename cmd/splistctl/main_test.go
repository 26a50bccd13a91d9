package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	splist "github.com/goliatone/go-splist"
	"github.com/goliatone/go-splist/internal/testsupport"
)

func newSite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	errorPosts := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/_api/contextinfo"):
			_, _ = io.WriteString(w, `{"d":{"GetContextWebInformation":{"FormDigestValue":"digest-xyz"}}}`)
		case strings.HasSuffix(path, "/_api/web/currentuser"):
			_, _ = io.WriteString(w, `{"d":{"Title":"Ann Lee","Email":"ann@example.com","UserPrincipalName":"ann@corp"}}`)
		case strings.Contains(path, "'Errors'"):
			errorPosts.Add(1)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"d":{"ID":1}}`)
		case strings.Contains(path, "'Users'"):
			_, _ = io.WriteString(w, `{"d":{"results":[{"ID":4,"User_Id":"ann.lee","Name":"Ann Lee","Email":"ann@example.com"}]}}`)
		case strings.Contains(path, "'SupraCoder-Evan'"):
			_, _ = io.WriteString(w, `{"d":{"results":[{"Title":"Evan","Food":"Tacos"}]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, errorPosts
}

func envFor(srv *httptest.Server) func(string) (string, bool) {
	env := map[string]string{
		"SPLIST_LISTS_BASE_URL": srv.URL + "/lists",
		"SPLIST_USERS_BASE_URL": srv.URL + "/users",
		"SPLIST_SITE_BASE":      srv.URL,
	}
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func runCLI(t *testing.T, srv *httptest.Server, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, envFor(srv), &stdout, &stderr,
		splist.WithLogger(testsupport.NewCaptureLogger()))
	return code, stdout.String(), stderr.String()
}

func Test_run_Whoami(t *testing.T) {
	srv, _ := newSite(t)
	code, out, errOut := runCLI(t, srv, "whoami")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut)
	}
	var got whoami
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v (%s)", err, out)
	}
	if got.Profile.UserID != "ann.lee" || got.Initials != "AL" || got.SiteUser.Email != "ann@example.com" {
		t.Fatalf("unexpected whoami %+v", got)
	}
}

func Test_run_Search(t *testing.T) {
	srv, _ := newSite(t)
	code, out, errOut := runCLI(t, srv, "search", "ann")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut)
	}
	if !strings.Contains(out, `"Name": "Ann Lee"`) {
		t.Fatalf("unexpected search output %s", out)
	}

	if code, _, _ := runCLI(t, srv, "search"); code != 2 {
		t.Fatalf("expected usage exit for search without terms, got %d", code)
	}
}

func Test_run_List(t *testing.T) {
	srv, _ := newSite(t)
	code, out, errOut := runCLI(t, srv, "list")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut)
	}
	if !strings.Contains(out, `"Food": "Tacos"`) {
		t.Fatalf("unexpected list output %s", out)
	}
}

func Test_run_DigestRedactsUnlessRevealed(t *testing.T) {
	srv, _ := newSite(t)
	code, out, _ := runCLI(t, srv, "digest")
	if code != 0 || strings.Contains(out, "digest-xyz") || !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("expected redacted digest, exit=%d out=%s", code, out)
	}
	code, out, _ = runCLI(t, srv, "digest", "-reveal")
	if code != 0 || !strings.Contains(out, "digest-xyz") {
		t.Fatalf("expected revealed digest, exit=%d out=%s", code, out)
	}
}

func Test_run_ReportPostsOnce(t *testing.T) {
	srv, posts := newSite(t)
	code, out, errOut := runCLI(t, srv, "report", "-title", "CLI failure", "disk", "full")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut)
	}
	if !strings.Contains(out, "submitted") {
		t.Fatalf("unexpected report output %s", out)
	}
	if posts.Load() != 1 {
		t.Fatalf("expected one errors post, got %d", posts.Load())
	}

	if code, _, _ := runCLI(t, srv, "report", "-title", "x"); code != 2 {
		t.Fatalf("expected usage exit without message, got %d", code)
	}
}

func Test_run_JournalWithoutDatabaseFails(t *testing.T) {
	srv, _ := newSite(t)
	if code, _, _ := runCLI(t, srv, "journal"); code != 1 {
		t.Fatalf("expected failure without a journal, got %d", code)
	}
}

func Test_run_PruneBoundsJournal(t *testing.T) {
	srv, _ := newSite(t)
	env := envFor(srv)
	lookup := func(key string) (string, bool) {
		switch key {
		case "SPLIST_JOURNAL_DRIVER":
			return "sqlite", true
		case "SPLIST_JOURNAL_DSN":
			return "file:splistctl-prune?mode=memory&cache=shared", true
		}
		return env(key)
	}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"prune", "-max-rows", "10"}, lookup, &stdout, &stderr,
		splist.WithLogger(testsupport.NewCaptureLogger()))
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"deleted": 0`) {
		t.Fatalf("unexpected prune output %s", stdout.String())
	}

	if code, _, _ := runCLI(t, srv, "prune", "-max-rows", "1"); code != 1 {
		t.Fatalf("expected failure without a journal, got %d", code)
	}
	if code, _, _ := runCLI(t, srv, "prune", "-max-rows", "-1"); code != 2 {
		t.Fatalf("expected usage exit for negative row cap, got %d", code)
	}
}

func Test_run_UsageAndConfigErrors(t *testing.T) {
	srv, _ := newSite(t)
	if code, _, _ := runCLI(t, srv); code != 2 {
		t.Fatalf("expected usage exit without command, got %d", code)
	}
	if code, _, _ := runCLI(t, srv, "nope"); code != 2 {
		t.Fatalf("expected usage exit for unknown command, got %d", code)
	}

	var stdout, stderr bytes.Buffer
	empty := func(string) (string, bool) { return "", false }
	if code := run(context.Background(), []string{"whoami"}, empty, &stdout, &stderr); code != 1 {
		t.Fatalf("expected config failure exit, got %d", code)
	}
	if !strings.Contains(stderr.String(), "splistctl:") {
		t.Fatalf("expected error on stderr, got %q", stderr.String())
	}
}

func Test_run_MetricsFlagPrintsFamilies(t *testing.T) {
	srv, _ := newSite(t)
	code, _, errOut := runCLI(t, srv, "-metrics", "digest")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut)
	}
	if !strings.Contains(errOut, "splist_digest_refresh_total 1") {
		t.Fatalf("expected digest refresh metric on stderr, got %q", errOut)
	}
}
