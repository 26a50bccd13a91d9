// Command splistctl exercises a SharePoint site through the splist client.
// Configuration comes from SPLIST_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	splist "github.com/goliatone/go-splist"
	"github.com/goliatone/go-splist/adapters/gocommand"
	splistcommand "github.com/goliatone/go-splist/command"
	"github.com/goliatone/go-splist/core"
	"github.com/goliatone/go-splist/directory"
	"github.com/goliatone/go-splist/metrics"
	splistquery "github.com/goliatone/go-splist/query"
	sqlstore "github.com/goliatone/go-splist/store/sql"
	"github.com/prometheus/client_golang/prometheus"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintf(w, `splistctl
Usage:
  splistctl [-timeout 30s] [-metrics] <cmd> [args]

Commands:
  whoami                         current user profile
  search <terms...>              users whose name contains every term
  list                           first row of the configured data list
  digest [-reveal]               fetch a request digest
  report -title T [-location L] <message>
  journal [-page N] [-per-page N] [-user ID]
  prune [-older-than D] [-max-rows N]
`)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr))
}

// run returns the process exit code: 0 ok, 1 failure, 2 usage.
func run(ctx context.Context, args []string, lookup func(string) (string, bool), stdout io.Writer, stderr io.Writer, opts ...splist.Option) int {
	flags := flag.NewFlagSet("splistctl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { usage(stderr) }
	timeout := flags.Duration("timeout", 30*time.Second, "overall deadline")
	showMetrics := flags.Bool("metrics", false, "print collected metric families to stderr")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() < 1 {
		usage(stderr)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	loader := core.NewEnvConfigLoader()
	loader.Lookup = lookup
	registry := prometheus.NewRegistry()
	options := append([]splist.Option{
		splist.WithConfigProvider(core.NewCfgxConfigProvider(loader)),
		splist.WithMetricsRecorder(metrics.NewPrometheusRecorder(registry)),
	}, opts...)
	if *showMetrics {
		defer printMetrics(stderr, registry)
	}
	client, err := splist.New(ctx, core.Config{}, options...)
	if err != nil {
		fmt.Fprintf(stderr, "splistctl: %v\n", err)
		return 1
	}
	defer func() { _ = client.Close() }()

	bus, err := client.Subscribe()
	if err != nil {
		fmt.Fprintf(stderr, "splistctl: %v\n", err)
		return 1
	}
	defer bus.Close()

	out, err := dispatch(ctx, client, flags.Arg(0), flags.Args()[1:], stderr)
	if errors.Is(err, errUsage) {
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "splistctl: %v\n", err)
		return 1
	}
	printJSON(stdout, out)
	return 0
}

func dispatch(ctx context.Context, client *splist.Client, cmd string, args []string, stderr io.Writer) (any, error) {
	switch cmd {
	case "whoami":
		profile, err := gocommand.Query[splistquery.CurrentUserMessage, directory.Profile](ctx, splistquery.CurrentUserMessage{Refresh: true})
		if err != nil {
			return nil, err
		}
		return whoami{
			Profile:  profile,
			SiteUser: client.Directory().SiteUser(),
			Initials: client.Directory().Initials(),
			Picture:  client.Directory().ProfilePictureURL(),
		}, nil

	case "search":
		if len(args) == 0 {
			return nil, errUsage
		}
		return gocommand.Query[splistquery.SearchUsersMessage, []directory.Profile](ctx, splistquery.SearchUsersMessage{
			Query: strings.Join(args, " "),
		})

	case "list":
		return gocommand.Query[splistquery.LoadListDataMessage, directory.ListData](ctx, splistquery.LoadListDataMessage{})

	case "digest":
		fs := flag.NewFlagSet("digest", flag.ContinueOnError)
		fs.SetOutput(stderr)
		reveal := fs.Bool("reveal", false, "print the digest value")
		if err := fs.Parse(args); err != nil {
			return nil, errUsage
		}
		value := client.Credentials().Digest(ctx)
		state := client.Credentials().State()
		if !*reveal {
			value = core.RedactedValue
		}
		return digestOutput{
			Digest:   value,
			IssuedAt: state.DigestIssuedAt,
			Validity: state.DigestValidity.String(),
		}, nil

	case "report":
		fs := flag.NewFlagSet("report", flag.ContinueOnError)
		fs.SetOutput(stderr)
		title := fs.String("title", "", "report title")
		location := fs.String("location", "splistctl", "report location")
		if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
			return nil, errUsage
		}
		client.Directory().Load(ctx)
		message := strings.Join(fs.Args(), " ")
		err := gocommand.Dispatch(ctx, splistcommand.ReportErrorMessage{
			Err:      errors.New(message),
			Title:    *title,
			Location: *location,
		})
		if err != nil {
			return nil, err
		}
		return map[string]string{"status": "submitted"}, nil

	case "journal":
		fs := flag.NewFlagSet("journal", flag.ContinueOnError)
		fs.SetOutput(stderr)
		page := fs.Int("page", 0, "page number")
		perPage := fs.Int("per-page", 0, "entries per page")
		userID := fs.String("user", "", "filter by user id")
		if err := fs.Parse(args); err != nil {
			return nil, errUsage
		}
		return gocommand.Query[splistquery.ListErrorJournalMessage, sqlstore.JournalPage](ctx, splistquery.ListErrorJournalMessage{
			Filter: sqlstore.JournalFilter{UserID: *userID, Page: *page, PerPage: *perPage},
		})

	case "prune":
		fs := flag.NewFlagSet("prune", flag.ContinueOnError)
		fs.SetOutput(stderr)
		olderThan := fs.Duration("older-than", 0, "delete entries older than this")
		maxRows := fs.Int("max-rows", 0, "keep at most this many entries")
		if err := fs.Parse(args); err != nil || *olderThan < 0 || *maxRows < 0 {
			return nil, errUsage
		}
		deleted, err := client.PruneJournal(ctx, sqlstore.RetentionPolicy{TTL: *olderThan, RowCap: *maxRows})
		if err != nil {
			return nil, err
		}
		return map[string]int{"deleted": deleted}, nil

	default:
		return nil, errUsage
	}
}

type whoami struct {
	Profile  directory.Profile  `json:"profile"`
	SiteUser directory.SiteUser `json:"site_user"`
	Initials string             `json:"initials"`
	Picture  string             `json:"picture_url,omitempty"`
}

type digestOutput struct {
	Digest   string    `json:"digest"`
	IssuedAt time.Time `json:"issued_at"`
	Validity string    `json:"validity"`
}

func printMetrics(w io.Writer, gatherer prometheus.Gatherer) {
	families, err := gatherer.Gather()
	if err != nil {
		fmt.Fprintf(w, "splistctl: gather metrics: %v\n", err)
		return
	}
	for _, family := range families {
		var total float64
		for _, metric := range family.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				total += float64(metric.GetHistogram().GetSampleCount())
			}
		}
		fmt.Fprintf(w, "%s %g\n", family.GetName(), total)
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
