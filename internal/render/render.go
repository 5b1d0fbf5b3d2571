// Package render formats blueprints for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/soppliger/auteur/internal/cost"
	"github.com/soppliger/auteur/internal/model"
	"github.com/soppliger/auteur/internal/pipeline"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Progress renders one pipeline event as a single line.
func Progress(e pipeline.Event) string {
	prefix := mutedStyle.Render(fmt.Sprintf("[%d/%d]", e.Index, len(pipeline.Steps)))
	switch e.Kind {
	case pipeline.EventRetry, pipeline.EventFallback:
		return prefix + " " + warnStyle.Render(e.Message)
	case pipeline.EventFailed:
		return prefix + " " + errorStyle.Render(e.Message)
	case pipeline.EventCompleted:
		return prefix + " " + okStyle.Render(e.Message)
	case pipeline.EventInfo:
		return prefix + "   " + e.Message
	default:
		return prefix + " " + e.Message
	}
}

// CostTable renders the cost rows and the estimated budget.
func CostTable(items []model.CostItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-44s %12s %12s %12s\n", "CATEGORY", "DESCRIPTION", "UNIT", "QTY", "TOTAL")
	for _, it := range items {
		fmt.Fprintf(&b, "%-16s %-44s %12s %12s %12s\n",
			it.Category, it.Description, unit(it.UnitCost), qty(it.Quantity), money(it.Total))
	}
	total := cost.RoundCents(cost.Total(items))
	fmt.Fprintf(&b, "\n%s %s", headerStyle.Render("Estimated budget:"), okStyle.Render(money(total)))
	return sectionStyle.Render(b.String())
}

func unit(v float64) string {
	if v < 0.01 {
		return fmt.Sprintf("$%.7f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func qty(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// Blueprint renders the summary view of a finished run.
func Blueprint(bp *model.MasterBlueprint) string {
	sections := []string{
		titleStyle.Render(bp.Title) + "\n" + mutedStyle.Render(bp.Logline),
		bible(bp.SeriesBible),
		agents(bp.Agents),
		workflow(bp.Workflow),
		Orchestrator(bp.Orchestrator),
		CostTable(bp.Budget),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func bible(b model.SeriesBible) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Series Bible") + "\n")
	fmt.Fprintf(&s, "Visual language: %s\n", b.VisualLanguage)
	fmt.Fprintf(&s, "Narrative tone:  %s\n", b.NarrativeTone)
	fmt.Fprintf(&s, "Format:          %s\n", b.EpisodicFormat)
	fmt.Fprintf(&s, "Motifs:          %s", strings.Join(b.RecurringMotifs, " · "))
	return sectionStyle.Render(s.String())
}

func agents(list []model.AgentPersona) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Crew"))
	for _, a := range list {
		fmt.Fprintf(&s, "\n%s  %s  temp %.1f  window %d @ %.0f%%",
			a.Role, mutedStyle.Render(a.Model), a.Temperature, a.ContextConfig.WindowSize, a.ContextConfig.Threshold*100)
		if len(a.Tools) > 0 {
			fmt.Fprintf(&s, "\n  tools: %s", strings.Join(a.Tools, ", "))
		}
	}
	return sectionStyle.Render(s.String())
}

func workflow(stages []model.ProductionStage) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Workflow"))
	for _, st := range stages {
		fmt.Fprintf(&s, "\n%d. %s (%s) %s", st.Step, st.Name, st.AgentRole, mutedStyle.Render(string(st.Status)))
	}
	return sectionStyle.Render(s.String())
}

// Orchestrator renders the system architecture view.
func Orchestrator(o model.OrchestratorConfig) string {
	p := o.ContextPolicy
	var s strings.Builder
	fmt.Fprintf(&s, "%s  %s\n", headerStyle.Render(o.SystemName), mutedStyle.Render(o.Architecture))
	fmt.Fprintf(&s, "1. Monitoring:       %s\n", p.MonitorFrequency)
	fmt.Fprintf(&s, "2. Threshold signal: %s\n", p.SignalProtocol)
	fmt.Fprintf(&s, "3. Crystal saved:    %s\n", p.CrystalSchema)
	fmt.Fprintf(&s, "4. Respawn:          %s\n", p.RestorationProcess)
	fmt.Fprintf(&s, "Health check port: %d\n", o.HealthCheckPort)
	fmt.Fprintf(&s, "Error strategy:    %s\n", p.ErrorHandling)
	fmt.Fprintf(&s, "Storage mounts:    %s", strings.Join(o.StorageMounts, ", "))
	return sectionStyle.Render(s.String())
}
