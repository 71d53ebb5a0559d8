package model

import "time"

// Document identifies one statement to extract.
type Document struct {
	ID   string
	Path string
	// StatementDate supplies the year for dates printed without one.
	StatementDate time.Time
}

// Table is a raw table as rows of cells; the first row is usually a header.
type Table [][]string

// Page is one page of reader output. Err is set when the page could not be decoded.
type Page struct {
	Number int
	Text   string
	Tables []Table
	Err    error
}

// DocumentContent is what a document reader produces.
type DocumentContent struct {
	Pages     []Page
	PageCount int
}

// Text joins the text of all readable pages.
func (c *DocumentContent) Text() string {
	if c == nil {
		return ""
	}
	var out []byte
	for i, p := range c.Pages {
		if p.Err != nil {
			continue
		}
		if i > 0 && len(out) > 0 {
			out = append(out, '\n', '\n')
		}
		out = append(out, p.Text...)
	}
	return string(out)
}
