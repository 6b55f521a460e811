package convert

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hazyhaar/legaldoc/docpipe"
)

func TestConvertBatch_Empty(t *testing.T) {
	svc := NewService(Options{Extractor: &fakeExtractor{}})
	_, err := svc.ConvertBatch(context.Background(), nil)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
	if err.Error() != "No se seleccionó ningún archivo." {
		t.Errorf("message = %q", err.Error())
	}
}

func TestConvertBatch_TooLarge(t *testing.T) {
	svc := NewService(Options{Extractor: &fakeExtractor{}, MaxBatch: 2})
	items := make([]Item, 3)
	_, err := svc.ConvertBatch(context.Background(), items)
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("err = %v, want ErrBatchTooLarge", err)
	}
}

func TestConvertBatch_OrderAndPerItemErrors(t *testing.T) {
	// WHAT: A failing item is reported in place and siblings still convert.
	// WHY: One bad upload must not cost the user the rest of the batch.
	fake := &fakeExtractor{errs: map[string]error{
		"b.pdf": &docpipe.ExtractionError{Format: docpipe.FormatPDF, Message: "sin texto"},
	}}
	svc := NewService(Options{Extractor: fake})

	items := []Item{{Filename: "a.txt"}, {Filename: "b.pdf"}, {Filename: "c.txt"}}
	results, err := svc.ConvertBatch(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Filename != items[i].Filename {
			t.Errorf("results[%d] = %s, want %s", i, r.Filename, items[i].Filename)
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("sibling errors: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, docpipe.ErrExtractionFailed) || results[1].Result != nil {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestConvertBatch_ConcurrencyBound(t *testing.T) {
	// WHAT: At most Concurrency extractions run at once.
	fake := &fakeExtractor{delay: 20 * time.Millisecond}
	svc := NewService(Options{Extractor: fake, MaxBatch: 6, Concurrency: 2})

	items := make([]Item, 6)
	for i := range items {
		items[i] = Item{Filename: fmt.Sprintf("doc%d.txt", i)}
	}
	results, err := svc.ConvertBatch(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Filename, r.Err)
		}
	}
	if p := fake.peak.Load(); p > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", p)
	}
}
