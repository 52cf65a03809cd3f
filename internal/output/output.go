// Package output renders exemplar reports for people and for other tools.
package output

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/unicode/runenames"
	"gopkg.in/yaml.v3"

	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatLDML  Format = "ldml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatTable, FormatLDML}

var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat accepts a format name case-insensitively; empty means json.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatJSON, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatTable:
		return "text/plain; charset=utf-8"
	case FormatLDML:
		return "application/xml"
	default:
		return "application/json"
	}
}

// Options tune rendering.
//
// AuxRatio: letter share below which a letter is auxiliary in LDML output.
// Limit:    maximum table rows, 0 for all.
type Options struct {
	AuxRatio float64
	Limit    int
}

// Write renders rep to w in format f.
func Write(w io.Writer, f Format, rep exemplars.Report, opts Options) error {
	switch f {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		return writeTable(w, rep, opts)
	case FormatLDML:
		return writeLDML(w, rep.ExemplarSets(opts.AuxRatio))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

func writeTable(w io.Writer, rep exemplars.Report, opts Options) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Cluster", "Code points", "Class", "Count", "First seen", "Name"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	for i, e := range rep.Entries {
		if opts.Limit > 0 && i >= opts.Limit {
			break
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			displayCluster(e),
			strings.Join(e.CodePoints, " "),
			string(e.Class),
			strconv.Itoa(e.Count),
			strconv.Itoa(e.FirstSeen),
			Name(e.Cluster),
		})
	}
	table.SetFooter([]string{"", "", "", "total", strconv.Itoa(rep.TotalClusters), "", strconv.Itoa(rep.Distinct) + " distinct"})
	table.Render()
	return nil
}

// displayCluster keeps invisible clusters from breaking the table layout.
func displayCluster(e exemplars.Entry) string {
	switch e.Class {
	case exemplars.ClassSeparator, exemplars.ClassOther:
		return "<" + strings.Join(e.CodePoints, " ") + ">"
	case exemplars.ClassMark:
		return "\u25CC" + e.Cluster
	}
	return e.Cluster
}

// Name joins the Unicode names of the cluster's code points with " + ".
func Name(cluster string) string {
	var names []string
	for _, r := range cluster {
		n := runenames.Name(r)
		if n == "" {
			n = fmt.Sprintf("U+%04X", r)
		}
		names = append(names, n)
	}
	return strings.Join(names, " + ")
}

type ldmlDoc struct {
	XMLName    xml.Name       `xml:"ldml"`
	Characters ldmlCharacters `xml:"characters"`
}

type ldmlCharacters struct {
	Exemplars []ldmlExemplar `xml:"exemplarCharacters"`
}

type ldmlExemplar struct {
	Type string `xml:"type,attr,omitempty"`
	Set  string `xml:",chardata"`
}

func writeLDML(w io.Writer, sets exemplars.ExemplarSets) error {
	doc := ldmlDoc{Characters: ldmlCharacters{Exemplars: []ldmlExemplar{
		{Set: sets.Main.String()},
		{Type: "auxiliary", Set: sets.Auxiliary.String()},
		{Type: "numbers", Set: sets.Numbers.String()},
		{Type: "punctuation", Set: sets.Punctuation.String()},
	}}}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
