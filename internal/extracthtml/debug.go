package extracthtml

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DebugPrintSelector prints either outer HTML or text for every match of a
// CSS selector. This backs the scraper command's "-selector" debug mode,
// which exists to help develop XPath mappings: finding the product container
// with a quick CSS probe first is usually faster than iterating on a full
// mapping file.
func DebugPrintSelector(w io.Writer, src, selector string, textOnly bool) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if textOnly {
			fmt.Fprintln(w, strings.TrimSpace(s.Text()))
			fmt.Fprintln(w)
			return
		}
		out, err := goquery.OuterHtml(s)
		if err != nil {
			// Fall back to inner HTML when the node cannot be rendered.
			out, _ = s.Html()
		}
		fmt.Fprintln(w, out)
		fmt.Fprintln(w)
	})
	return nil
}

// DebugPrintQuery prints the collapsed and raw values for an XPath query,
// one raw match per line. Useful for checking dedup behavior on a mapping
// before committing it to a field.
func DebugPrintQuery(w io.Writer, src, query string) error {
	doc, err := ParseString(src)
	if err != nil {
		return err
	}

	raw, err := Strings(doc.Root(), query)
	if err != nil {
		return err
	}

	collapsed, err := Extract(doc.Root(), query, DefaultDelimiter)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "collapsed: %s\n", collapsed)
	fmt.Fprintf(w, "matches: %d\n", len(raw))
	for _, v := range raw {
		fmt.Fprintln(w, strings.TrimSpace(v))
	}
	return nil
}
