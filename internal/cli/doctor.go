package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"

	"github.com/MandiZhao/lowvr/internal/config"
	"github.com/MandiZhao/lowvr/internal/doctor"
	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/runs"
	"github.com/MandiZhao/lowvr/internal/ui"
)

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

// doctorCommand checks config and the wandb directory. A broken config is
// reported, not fatal: the directory is then taken from defaults.
func doctorCommand(w io.Writer, args []string, asJSON bool) error {
	dir := config.DefaultConfig().WandbDir
	if cfg, err := config.LoadOrDefault(cfgFile); err == nil {
		dir = cfg.WandbDir
	}
	if len(args) > 0 && args[0] != "" {
		dir = config.ExpandTilde(args[0])
	}

	loader := runs.NewLoader(afero.NewOsFs(), dir, logger.NewEnvLogger("runs"))
	return runDoctor(w, cfgFile, loader, asJSON)
}

func runDoctor(w io.Writer, configPath string, loader *runs.Loader, asJSON bool) error {
	results := doctor.RunAllParallel(doctor.All(configPath, loader))

	var err error
	if asJSON {
		err = WriteJSONSuccess(w, doctorOutput(results))
	} else {
		err = writeDoctorText(w, loader.Dir(), results)
	}
	if err != nil {
		return err
	}

	if doctor.HasFailures(results) {
		return errors.New(errors.ErrRun, "Doctor found failing checks", "")
	}
	return nil
}

func doctorOutput(results []doctor.CheckResult) DoctorOutput {
	order, grouped := doctor.GroupByCategory(results)
	out := DoctorOutput{Categories: make([]CategoryOutput, 0, len(order))}
	for _, cat := range order {
		out.Categories = append(out.Categories, CategoryOutput{Name: cat, Results: grouped[cat]})
	}

	counts := doctor.CountByStatus(results)
	out.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		AllClear: !doctor.HasIssues(results),
	}
	return out
}

func writeDoctorText(w io.Writer, dir string, results []doctor.CheckResult) error {
	rows := make([]ui.DoctorCheckRow, len(results))
	for i, r := range results {
		rows[i] = ui.DoctorCheckRow{
			Status:     r.Status.String(),
			Category:   r.Category,
			Message:    r.Message,
			Suggestion: r.Suggestion,
		}
	}

	var sb strings.Builder
	sb.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("lowvr diagnostic report for "+dir) + "\n\n")
	sb.WriteString(ui.RenderDoctorTable(rows))
	sb.WriteString(strings.Repeat("━", 60) + "\n\n")

	summary := doctor.Summary(results)
	if doctor.HasIssues(results) {
		sb.WriteString(ui.ErrorStyle().Render(ui.SymbolFail) + " " + summary + "\n")
	} else {
		sb.WriteString(ui.SuccessStyle().Render(ui.SymbolSuccess) + " " + summary + "\n")
	}

	_, err := fmt.Fprintln(w, sb.String())
	return err
}
