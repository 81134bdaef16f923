// Package report renders estimation results as terminal tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/specialistvlad/mapvar/internal/mapvar"
	"github.com/specialistvlad/mapvar/internal/params"
	"github.com/specialistvlad/mapvar/internal/variance"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = cellStyle.Italic(true)
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return labelStyle
			default:
				return cellStyle
			}
		})
}

// Render writes every section that the result carries.
func Render(w io.Writer, res *mapvar.Result) error {
	var b strings.Builder

	section(&b, "Run "+res.RunID, diagnostics(res))
	section(&b, "Estimates", estimates(res))
	if v := res.Variance; v != nil {
		if se := standardErrors(v.Covariance); se != nil {
			section(&b, "Posterior standard deviations", se)
		}
		section(&b, "Hessian", matrix(v.Hessian))
		if len(v.Delta.Rows) > 0 {
			section(&b, "Delta", matrix(v.Delta))
			section(&b, "Covariance", matrix(v.Covariance))
		}
	}
	if res.Predictive != nil && res.Predictive.Len() > 0 {
		section(&b, "Posterior predictive means", setTable(res.Predictive, "variable"))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string, t *table.Table) {
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')
	b.WriteString(t.String())
	b.WriteByte('\n')
}

func diagnostics(res *mapvar.Result) *table.Table {
	d := res.Diagnostics
	return newTable("diagnostic", "value").Rows(
		[]string{"converged", strconv.FormatBool(d.Converged)},
		[]string{"status", d.Status},
		[]string{"iterations", strconv.Itoa(d.Iterations)},
		[]string{"function evaluations", strconv.Itoa(d.FuncEvaluations)},
		[]string{"gradient evaluations", strconv.Itoa(d.GradEvaluations)},
		[]string{"log posterior", formatFloat(res.LogPosterior)},
		[]string{"runtime", d.Runtime.String()},
	)
}

// estimates lists unconstrained then constrained values, one row per element.
func estimates(res *mapvar.Result) *table.Table {
	t := newTable("parameter", "space", "estimate")
	add := func(set *params.Set, space string) {
		labels := set.Layout().Labels()
		for i, v := range params.Flatten(set) {
			t.Row(labels[i], space, formatFloat(v))
		}
	}
	add(res.Unconstrained, "unconstrained")
	add(res.Constrained, "constrained")
	return t
}

func standardErrors(cov *variance.Table) *table.Table {
	if cov.M == nil {
		return nil
	}
	t := newTable("parameter", "std. dev.")
	for i, label := range cov.Rows {
		t.Row(label, formatFloat(math.Sqrt(cov.M.At(i, i))))
	}
	return t
}

func matrix(m *variance.Table) *table.Table {
	t := newTable(append([]string{""}, m.Cols...)...)
	for i, label := range m.Rows {
		row := make([]string, 0, len(m.Cols)+1)
		row = append(row, label)
		for j := range m.Cols {
			row = append(row, formatFloat(m.M.At(i, j)))
		}
		t.Row(row...)
	}
	return t
}

func setTable(set *params.Set, header string) *table.Table {
	t := newTable(header, "value")
	labels := set.Layout().Labels()
	for i, v := range params.Flatten(set) {
		t.Row(labels[i], formatFloat(v))
	}
	return t
}

// Summary is a one-line description of a result for logs.
func Summary(res *mapvar.Result) string {
	return fmt.Sprintf("%d unconstrained, %d constrained, log posterior %s", res.Unconstrained.Layout().Size(), res.Constrained.Layout().Size(), formatFloat(res.LogPosterior))
}
