// FILE: uitree.go
// Package main – Parser for uiautomator UI-hierarchy dumps.
//
// The scrape loop dumps the device UI tree as XML, locates the brokerage
// app's position-history list by resource-id, and turns its rows into the
// CSV records the signal source consumes. The list layout:
//   row 0            – the batch date header
//   rows 1..k-1      – one allocation-change record per row, one cell per node
//   row k            – the previous batch's date header (extraction stops here)

package main

import (
	"encoding/xml"
	"regexp"
	"strings"
)

// UINode is one element of the dumped hierarchy.
type UINode struct {
	Text       string   `xml:"text,attr"`
	ResourceID string   `xml:"resource-id,attr"`
	Class      string   `xml:"class,attr"`
	Bounds     string   `xml:"bounds,attr"`
	Nodes      []UINode `xml:"node"`
}

// UIHierarchy is the dump root.
type UIHierarchy struct {
	XMLName xml.Name `xml:"hierarchy"`
	Nodes   []UINode `xml:"node"`
}

func parseUIHierarchy(raw []byte) (*UIHierarchy, error) {
	var h UIHierarchy
	if err := xml.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// findByResourceID does a breadth-first search for the first node carrying
// the given resource-id. Returns nil when absent.
func (h *UIHierarchy) findByResourceID(id string) *UINode {
	queue := make([]*UINode, 0, len(h.Nodes))
	for i := range h.Nodes {
		queue = append(queue, &h.Nodes[i])
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.ResourceID == id {
			return n
		}
		for i := range n.Nodes {
			queue = append(queue, &n.Nodes[i])
		}
	}
	return nil
}

// firstText returns the first non-empty text attribute in the subtree.
func firstText(n *UINode) string {
	if t := strings.TrimSpace(n.Text); t != "" {
		return t
	}
	for i := range n.Nodes {
		if t := firstText(&n.Nodes[i]); t != "" {
			return t
		}
	}
	return ""
}

// cellTexts returns one text per direct child, the row's cells in order.
func cellTexts(row *UINode) []string {
	out := make([]string, 0, len(row.Nodes))
	for i := range row.Nodes {
		out = append(out, firstText(&row.Nodes[i]))
	}
	return out
}

// Date header rows start with a four-digit year.
var dateHeaderPattern = regexp.MustCompile(`^\d{4}`)

// extractSignalBatch reads the position-history list: the batch date from the
// header row, then one CSV line per record until the previous batch's header.
func extractSignalBatch(list *UINode) (date string, rows []string) {
	if list == nil || len(list.Nodes) == 0 {
		return "", nil
	}
	date = firstText(&list.Nodes[0])
	for i := 1; i < len(list.Nodes); i++ {
		row := &list.Nodes[i]
		if dateHeaderPattern.MatchString(firstText(row)) {
			break
		}
		rows = append(rows, strings.Join(cellTexts(row), ","))
	}
	return date, rows
}
