package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Output handles formatted output to the terminal
type Output struct {
	out     io.Writer
	err     io.Writer
	verbose bool
	json    bool
}

// NewOutput creates a new output handler
func NewOutput(verbose, jsonOutput bool) *Output {
	return &Output{
		out:     os.Stdout,
		err:     os.Stderr,
		verbose: verbose,
		json:    jsonOutput,
	}
}

// NewOutputWithWriters creates an output handler with custom writers (for testing)
func NewOutputWithWriters(out, err io.Writer, verbose, jsonOutput bool) *Output {
	return &Output{
		out:     out,
		err:     err,
		verbose: verbose,
		json:    jsonOutput,
	}
}

// Println prints a message to stdout with a newline
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.out, args...)
}

// Printf prints a formatted message to stdout
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.out, format, args...)
}

// Error prints an error message to stderr
func (o *Output) Error(format string, args ...interface{}) {
	fmt.Fprintf(o.err, "Error: "+format+"\n", args...)
}

// Warn prints a warning message to stderr
func (o *Output) Warn(format string, args ...interface{}) {
	fmt.Fprintf(o.err, "Warning: "+format+"\n", args...)
}

// Notice prints an informational message to stderr, keeping stdout
// clean for command output
func (o *Output) Notice(format string, args ...interface{}) {
	fmt.Fprintf(o.err, format+"\n", args...)
}

// Verbose prints a message only if verbose mode is enabled
func (o *Output) Verbose(format string, args ...interface{}) {
	if o.verbose {
		fmt.Fprintf(o.err, format+"\n", args...)
	}
}

// Success prints a success message
func (o *Output) Success(format string, args ...interface{}) {
	fmt.Fprintf(o.out, format+"\n", args...)
}

// JSON outputs data as JSON
func (o *Output) JSON(data interface{}) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// IsJSON returns true if JSON output mode is enabled
func (o *Output) IsJSON() bool {
	return o.json
}

// Status prints a status line
func (o *Output) Status(label, value string) {
	fmt.Fprintf(o.out, "%-20s %s\n", label+":", value)
}

// Table prints a simple table
func (o *Output) Table(headers []string, rows [][]string) {
	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Print headers
	for i, h := range headers {
		fmt.Fprintf(o.out, "%-*s  ", widths[i], h)
	}
	fmt.Fprintln(o.out)

	// Print separator
	for i, w := range widths {
		fmt.Fprint(o.out, strings.Repeat("-", w))
		if i < len(widths)-1 {
			fmt.Fprint(o.out, "  ")
		}
	}
	fmt.Fprintln(o.out)

	// Print rows
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(o.out, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(o.out)
	}
}

// FormatBytes formats bytes in human-readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
