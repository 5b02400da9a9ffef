package criteria

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

const (
	passGlyph = "✅"
	failGlyph = "❌"
	hookGlyph = "⚠"
)

// Report writes suite headers, test lines and summaries. Failures and
// diagnostics go to the error writer, everything else to the output writer.
type Report struct {
	out io.Writer
	err io.Writer

	header *color.Color
	count  *color.Color
	passed *color.Color
	failed *color.Color
}

// NewReport returns a Report writing to stdout and stderr, styled unless
// color.NoColor is set (stdout is not a terminal, or NO_COLOR is set).
func NewReport() *Report {
	return NewReportWithWriters(os.Stdout, os.Stderr, !color.NoColor)
}

// NewReportWithWriters returns a Report with custom writers.
func NewReportWithWriters(out, err io.Writer, styled bool) *Report {
	r := &Report{
		out:    out,
		err:    err,
		header: color.New(color.Bold, color.ReverseVideo),
		count:  color.New(color.Bold),
		passed: color.New(color.FgGreen),
		failed: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{r.header, r.count, r.passed, r.failed} {
		if styled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat("  ", level)
}

// Header prints the blank-line framed suite name.
func (r *Report) Header(level int, name string) {
	fmt.Fprintf(r.out, "\n%s%s\n\n", indent(level), r.header.Sprint("   "+name+"   "))
}

// Pass prints a success line.
func (r *Report) Pass(level int, name string) {
	fmt.Fprintf(r.out, "%s  %s %s\n", indent(level), passGlyph, name)
}

// Fail prints a failure line followed by its diagnostic detail.
func (r *Report) Fail(level int, name, detail string) {
	fmt.Fprintf(r.err, "%s%s %s\n", indent(level), failGlyph, name)
	if detail != "" {
		fmt.Fprintln(r.err, detail)
	}
}

// HookFail prints an isolated hook failure.
func (r *Report) HookFail(level int, kind HookKind, detail string) {
	fmt.Fprintf(r.err, "%s%s %s\n", indent(level), hookGlyph, r.failed.Sprint(kind.String()+" failed"))
	if detail != "" {
		fmt.Fprintln(r.err, detail)
	}
}

// Summary prints "<passed> passed [(<failed> failed) ]out of <total> total".
func (r *Report) Summary(level, passed, failed, total int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s ", r.count.Sprint(passed), r.passed.Sprint("passed"))
	if failed > 0 {
		fmt.Fprintf(&b, "(%s %s) ", r.count.Sprint(failed), r.failed.Sprint("failed"))
	}
	fmt.Fprintf(&b, "out of %s total", r.count.Sprint(total))
	fmt.Fprintf(r.out, "\n%s%s\n\n", indent(level), b.String())
}

// Loading prints the diagnostic for a test file about to be executed, with
// its dedup key highlighted.
func (r *Report) Loading(path, key string) {
	if key != "" {
		if i := strings.LastIndex(path, key); i >= 0 {
			path = path[:i] + r.count.Sprint(key) + path[i+len(key):]
		}
	}
	fmt.Fprintf(r.out, "loading: %s\n", path)
}

// Println writes a plain line, used for print() in Starlark code.
func (r *Report) Println(s string) {
	fmt.Fprintln(r.out, s)
}
