// Package report renders the outcome of a run: the terminal summary and
// parameter table, the single-line batch format, the parameter names
// file and result images.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/gogpu/lensed"
)

// Printer writes human-readable output. Styling is applied only when the
// destination is a terminal.
type Printer struct {
	w      io.Writer
	styled bool

	title lipgloss.Style
	bold  lipgloss.Style
	muted lipgloss.Style
}

// NewPrinter returns a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		styled: isTerminal(w),
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4")),
		bold:   r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#2C4A54")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// Banner prints the program name and version.
func (p *Printer) Banner() {
	fmt.Fprintf(p.w, "%s %s\n", p.render(p.title, "lensed"), p.render(p.muted, lensed.Version))
	fmt.Fprintln(p.w, p.render(p.muted, "reconstruct lenses and sources on the GPU"))
	fmt.Fprintln(p.w)
}

// Duration formats d as hh:mm:ss.
func Duration(d time.Duration) string {
	s := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s%3600/60, s%60)
}

// Summary prints the run duration, evidence, best fit and the parameter
// table. The evidence is the importance-sampling estimate when the driver
// ran with importance sampling.
func (p *Printer) Summary(res *lensed.RunResult, params []*lensed.Parameter) {
	fmt.Fprintf(p.w, "done in %s\n\n", Duration(res.Duration))

	fmt.Fprintln(p.w, p.render(p.title, "summary"))
	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "  %s%.4f ± %.4f\n", p.render(p.bold, "log-evidence: "), res.Evidence(), res.LogEvidenceErr)
	fmt.Fprintf(p.w, "  %s%.4f\n", p.render(p.bold, "max log-like: "), res.MaxLogLike)
	fmt.Fprintf(p.w, "  %s%.4f\n", p.render(p.bold, "min chi²/dof: "), res.Chi2DOF)
	fmt.Fprintln(p.w)

	fmt.Fprintln(p.w, p.render(p.title, "parameters"))
	fmt.Fprintln(p.w)
	header := fmt.Sprintf("%s  %10s  %10s  %10s  %10s", pad("parameter", 10), "mean", "sigma", "ML", "MAP")
	fmt.Fprintf(p.w, "  %s\n", p.render(p.bold, header))
	fmt.Fprintf(p.w, "  %s\n", p.render(p.muted, "----------------------------------------------------------"))
	for i, par := range params {
		fmt.Fprintf(p.w, "  %s  %10.4f  %10.4f  %10.4f  %10.4f\n",
			pad(par.Name(), 10), res.Mean[i], res.Sigma[i], res.ML[i], res.MAP[i])
	}
	fmt.Fprintln(p.w)
}
