package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/manzanit0/storefront/pkg/render"
	"github.com/manzanit0/storefront/pkg/terminal"
	"github.com/manzanit0/storefront/pkg/viewer"
)

const (
	cmdQuit    = ":q"
	cmdRemount = ":r"

	browseHelp = "Type to filter by title, :r to reload, :q to quit."
)

// browse draws the product screen on every change and reads one query per
// line. Queries are only read once the mount finished, so a location prompt
// gets the first line of input.
func browse(ctx context.Context, newViewer func(...viewer.Option) *viewer.Viewer, in *terminal.Lines, out io.Writer) error {
	var mu sync.Mutex
	draw := func(s viewer.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		_ = render.Screen(out, s)
	}

	v := newViewer(viewer.WithListener(draw))
	defer v.Close()

	mount := func() error {
		select {
		case <-v.Mount(ctx):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := mount(); err != nil {
		return err
	}

	mu.Lock()
	fmt.Fprintln(out, browseHelp)
	mu.Unlock()

	for {
		query, err := in.ReadLine(ctx)
		if err != nil && err != io.EOF {
			return fmt.Errorf("read query: %w", err)
		}

		eof := err == io.EOF

		switch {
		case query == cmdQuit:
			return nil
		case query == cmdRemount:
			if err := mount(); err != nil {
				return err
			}
		case eof && query == "":
		default:
			v.SetQuery(query)
		}

		if eof {
			return nil
		}
	}
}
