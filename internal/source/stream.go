package source

import (
	"context"
	"fmt"

	"github.com/NaqibL/mcf/internal/model"
)

// Stream walks every page of every requested category lazily, in order.
// It follows the scanner idiom: Next advances to the next listing, Listing
// returns it, and Err reports a terminal fetch failure after Next returns
// false. A nil Err after exhaustion means the pass ran to completion — the
// distinction matters because an incomplete pass must never be reconciled.
type Stream struct {
	client     *Client
	categories []string
	pageLimit  int // max pages per category; 0 means unbounded

	catIdx int
	offset int
	pages  int

	batch []model.Listing
	cur   model.Listing
	err   error
	done  bool
}

// Listings returns a Stream over the given categories. With no categories,
// a single unfiltered pass over the board is made.
func (c *Client) Listings(categories []string, pageLimit int) *Stream {
	if len(categories) == 0 {
		categories = []string{""}
	}
	return &Stream{
		client:     c,
		categories: categories,
		pageLimit:  pageLimit,
	}
}

// Next fetches pages as needed and reports whether a listing is available.
// Once it returns false the stream is finished; check Err to distinguish
// completion from failure.
func (s *Stream) Next(ctx context.Context) bool {
	if s.err != nil || s.done {
		return false
	}
	for len(s.batch) == 0 {
		if !s.advance(ctx) {
			return false
		}
	}
	s.cur = s.batch[0]
	s.batch = s.batch[1:]
	return true
}

// Listing returns the listing produced by the last successful Next.
func (s *Stream) Listing() model.Listing {
	return s.cur
}

// Err returns the terminal fetch failure, if any. It is nil after a
// complete pass.
func (s *Stream) Err() error {
	return s.err
}

// advance fetches the next non-empty page, moving across categories as each
// one is exhausted. Returns false when the stream terminates, either by
// completion or by failure.
func (s *Stream) advance(ctx context.Context) bool {
	for {
		if s.catIdx >= len(s.categories) {
			s.done = true
			return false
		}
		category := s.categories[s.catIdx]

		if s.pageLimit > 0 && s.pages >= s.pageLimit {
			s.nextCategory()
			continue
		}

		page, err := s.client.fetchPage(ctx, category, s.offset)
		if err != nil {
			s.err = fmt.Errorf("fetch category %q offset %d: %w", category, s.offset, err)
			return false
		}
		s.pages++

		if len(page.Results) == 0 {
			s.nextCategory()
			continue
		}

		for _, raw := range page.Results {
			s.batch = append(s.batch, toListing(raw, category))
		}
		s.offset += len(page.Results)
		if s.offset >= page.Total {
			s.nextCategory()
		}
		return true
	}
}

func (s *Stream) nextCategory() {
	s.catIdx++
	s.offset = 0
	s.pages = 0
}
