package service

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/dupscan/domain"
)

// Standard formatting constants
const (
	HeaderWidth    = 40
	SectionPadding = 2
)

// WriteJSON writes indented JSON for the given value to the writer.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode JSON", err)
	}
	return nil
}

// WriteYAML writes YAML for the given value to the writer.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode YAML", err)
	}
	return nil
}

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct {
	showDetails bool
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(showDetails bool) *OutputFormatterImpl {
	return &OutputFormatterImpl{showDetails: showDetails}
}

// FormatDuplicateResponse writes a duplicate response in the given format
func (f *OutputFormatterImpl) FormatDuplicateResponse(response *domain.DuplicateResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatText:
		return f.writeDuplicateText(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// FormatGraphResponse writes a graph response in the given format
func (f *OutputFormatterImpl) FormatGraphResponse(response *domain.GraphResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatText:
		return f.writeGraphText(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *OutputFormatterImpl) writeDuplicateText(response *domain.DuplicateResponse, writer io.Writer) error {
	var b strings.Builder

	b.WriteString("Duplicate Detection Results\n")
	b.WriteString(strings.Repeat("=", HeaderWidth) + "\n\n")

	stats := response.Statistics
	if stats != nil {
		b.WriteString("SUMMARY\n")
		b.WriteString(strings.Repeat("-", len("SUMMARY")) + "\n")
		writeLabel(&b, "Total Records", stats.TotalRecords)
		writeLabel(&b, "Analyzed Records", stats.FilteredRecords)
		writeLabel(&b, "Duplicate Pairs", stats.TotalPairs)
		if stats.TotalPairs > 0 {
			writeLabel(&b, "Average Similarity", fmt.Sprintf("%.3f", stats.AverageSimilarity))
		}
		writeLabel(&b, "Files Analyzed", stats.FilesAnalyzed)
		if stats.CacheHit {
			writeLabel(&b, "Cache", "hit")
		}
		b.WriteString("\n")
	}

	if len(response.Pairs) == 0 {
		b.WriteString("No duplicates found.\n")
		_, err := io.WriteString(writer, b.String())
		return err
	}

	b.WriteString("DUPLICATE PAIRS\n")
	b.WriteString(strings.Repeat("-", len("DUPLICATE PAIRS")) + "\n")
	for i, pair := range response.Pairs {
		b.WriteString(fmt.Sprintf("%d. %s <-> %s (similarity: %.3f)\n",
			i+1, pair.RecordA.Name, pair.RecordB.Name, pair.Similarity))
		if f.showDetails {
			b.WriteString(fmt.Sprintf("   %s:%d-%d\n",
				pair.RecordA.FilePath, pair.RecordA.StartLine, pair.RecordA.EndLine))
			b.WriteString(fmt.Sprintf("   %s:%d-%d\n",
				pair.RecordB.FilePath, pair.RecordB.StartLine, pair.RecordB.EndLine))
		}
	}

	_, err := io.WriteString(writer, b.String())
	return err
}

func (f *OutputFormatterImpl) writeGraphText(response *domain.GraphResponse, writer io.Writer) error {
	var b strings.Builder

	b.WriteString("Similarity Graph\n")
	b.WriteString(strings.Repeat("=", HeaderWidth) + "\n\n")
	writeLabel(&b, "Threshold", fmt.Sprintf("%.3f", response.Threshold))
	writeLabel(&b, "Nodes", response.Graph.NodeCount())
	writeLabel(&b, "Edges", response.EdgeCount)
	b.WriteString("\n")

	hashes := make([]string, 0, len(response.Graph))
	for hash := range response.Graph {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	for _, hash := range hashes {
		edges := response.Graph[hash]
		if len(edges) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("%.12s\n", hash))
		for _, edge := range edges {
			b.WriteString(fmt.Sprintf("  -> %.12s (%.3f)\n", edge.NeighborHash, edge.Similarity))
		}
	}

	_, err := io.WriteString(writer, b.String())
	return err
}

func writeLabel(b *strings.Builder, label string, value interface{}) {
	b.WriteString(fmt.Sprintf("%s%s: %v\n", strings.Repeat(" ", SectionPadding), label, value))
}
