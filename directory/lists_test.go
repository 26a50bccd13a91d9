package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-splist/odata"
)

type stubItemReader struct {
	item odata.Item
	err  error
}

func (s *stubItemReader) ReadOne(context.Context, string) (odata.Item, error) {
	return s.item, s.err
}

func TestListLoaderLoadsFirstRow(t *testing.T) {
	reader := &stubItemReader{item: odata.Item{"Title": "Evan", "Game": "Go", "Food": "Tacos"}}
	loader, err := NewListLoader(reader, nil, nil)
	if err != nil {
		t.Fatalf("new list loader: %v", err)
	}

	data := loader.Load(context.Background())

	if data.Title != "Evan" || data.Game != "Go" || data.Food != "Tacos" {
		t.Fatalf("unexpected list data %#v", data)
	}
	if !loader.Loaded() {
		t.Fatalf("expected loader to be marked loaded")
	}
}

func TestListLoaderKeepsLastDataOnFailure(t *testing.T) {
	reader := &stubItemReader{item: odata.Item{"Title": "Evan"}}
	reporter := &stubReporter{}
	loader, err := NewListLoader(reader, reporter, nil)
	if err != nil {
		t.Fatalf("new list loader: %v", err)
	}
	loader.Load(context.Background())

	reader.err = errors.New("boom")
	data := loader.Load(context.Background())

	if data.Title != "Evan" {
		t.Fatalf("expected last data to be kept, got %#v", data)
	}
	if len(reporter.calls) != 1 || reporter.calls[0].Title != TitleListData || reporter.calls[0].Location != LocationLists {
		t.Fatalf("expected list report, got %#v", reporter.calls)
	}
}

func TestNewListLoaderRequiresReader(t *testing.T) {
	if _, err := NewListLoader(nil, nil, nil); err == nil {
		t.Fatalf("expected missing reader error")
	}
}
