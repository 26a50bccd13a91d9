package directory

import (
	"context"
	"sync"

	"github.com/goliatone/go-splist/core"
	"github.com/goliatone/go-splist/odata"
)

type ItemReader interface {
	ReadOne(ctx context.Context, filter string) (odata.Item, error)
}

// ListLoader reads the first row of a data list and keeps the last value
// that loaded.
type ListLoader struct {
	reader   ItemReader
	reporter ErrorReporter
	logger   core.Logger

	mu     sync.RWMutex
	data   ListData
	loaded bool
}

func NewListLoader(reader ItemReader, reporter ErrorReporter, logger core.Logger) (*ListLoader, error) {
	if reader == nil {
		return nil, core.NewBadInput("directory: list reader is required", nil)
	}
	return &ListLoader{
		reader:   reader,
		reporter: reporter,
		logger:   core.ResolveLogger("splist.lists", nil, logger),
	}, nil
}

func (l *ListLoader) Load(ctx context.Context) ListData {
	item, err := l.reader.ReadOne(ctx, "")
	var data ListData
	if err == nil {
		data, err = odata.DecodeItem[ListData](item)
	}
	if err != nil {
		if l.reporter != nil {
			l.reporter.Report(ctx, err, TitleListData, LocationLists)
		} else {
			core.Log(ctx, l.logger, core.LevelError, TitleListData, map[string]any{"error": err.Error()})
		}
		l.mu.Lock()
		l.loaded = true
		l.mu.Unlock()
		return l.Data()
	}

	l.mu.Lock()
	l.data = data
	l.loaded = true
	l.mu.Unlock()
	return data
}

func (l *ListLoader) Data() ListData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data
}

func (l *ListLoader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}
