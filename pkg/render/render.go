package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/manzanit0/storefront/pkg/catalog"
	"github.com/manzanit0/storefront/pkg/viewer"
	"github.com/olekukonko/tablewriter"
)

const (
	MsgLoading = "⏳ Loading products..."

	maxTitleLength = 40
)

// Screen draws the header label followed by either the loading indicator or
// the product table. An empty result still draws the table header so it
// doesn't look like a load in progress.
func Screen(w io.Writer, s viewer.Snapshot) error {
	if _, err := fmt.Fprintf(w, "📍 %s\n", s.Label); err != nil {
		return err
	}

	if s.Loading {
		_, err := fmt.Fprintln(w, MsgLoading)
		return err
	}

	_, err := io.WriteString(w, ProductTable(s.Products))
	return err
}

func ProductTable(products catalog.Catalog) string {
	b := bytes.NewBuffer([]byte{})
	table := tablewriter.NewWriter(b)
	table.SetHeader([]string{"ID", "Title", "Price", "Category"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, p := range products {
		table.Append([]string{
			strconv.Itoa(p.ID),
			ellipsize(p.Title, maxTitleLength),
			Price(p.Price),
			p.Category,
		})
	}

	table.Render()

	return b.String()
}

// Price prints the shortest representation, so 549 stays "$549" and 9.99
// stays "$9.99".
func Price(p float64) string {
	return "$" + strconv.FormatFloat(p, 'f', -1, 64)
}

func ellipsize(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}

	return string(r[:max-1]) + "…"
}
