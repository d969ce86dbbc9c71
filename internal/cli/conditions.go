package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/siddur/internal/calendar"
	"github.com/roach88/siddur/internal/engine"
	"github.com/roach88/siddur/internal/ir"
)

// ServiceConditions is the snapshot of one service.
type ServiceConditions struct {
	Service    ir.ServiceType    `json:"service"`
	HebrewDate string            `json:"hebrew_date"`
	Conditions ir.DateConditions `json:"conditions"`
}

// ConditionsResult is the output of the conditions command.
type ConditionsResult struct {
	Date     string              `json:"date"`
	Weekday  string              `json:"weekday"`
	Services []ServiceConditions `json:"services"`
}

// NewConditionsCommand creates the conditions command.
func NewConditionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conditions <date> [service]",
		Short: "Show the liturgical conditions of a date",
		Long: `Show the Hebrew date and the conditions snapshot for a civil date.

Without a service every service of the day is shown. The evening service
reads the Hebrew date of the following civil day.

Examples:
  siddur conditions 2024-04-23
  siddur conditions today evening
  siddur conditions 2024-10-03 shacharis --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			service := ""
			if len(args) == 2 {
				service = args[1]
			}
			return runConditions(rootOpts, args[0], service, cmd)
		},
	}

	return cmd
}

func runConditions(opts *RootOptions, dateArg, serviceArg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	civil, err := opts.parseDate(dateArg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), nil)
	}

	services, err := parseServices(serviceArg)
	if err != nil {
		return failBuild(f, fmt.Sprintf("service %q", serviceArg), err)
	}

	cal := calendar.Hebrew{}

	result := ConditionsResult{
		Date:     civil.Format(time.DateOnly),
		Weekday:  civil.Weekday().String(),
		Services: make([]ServiceConditions, 0, len(services)),
	}

	for _, svc := range services {
		snap, err := engine.ComputeConditions(cal, civil, svc)
		if err != nil {
			return failBuild(f, fmt.Sprintf("%s %s", result.Date, svc), err)
		}
		date, err := engine.HebrewDate(cal, civil, svc)
		if err != nil {
			return failBuild(f, fmt.Sprintf("%s %s", result.Date, svc), err)
		}
		result.Services = append(result.Services, ServiceConditions{
			Service:    svc,
			HebrewDate: date.String(),
			Conditions: snap,
		})
	}

	if f.IsJSON() {
		return f.Success(result)
	}

	writeConditions(f.Writer, result)
	return nil
}

func writeConditions(w io.Writer, r ConditionsResult) {
	fmt.Fprintf(w, "%s (%s)\n", r.Date, r.Weekday)
	for _, s := range r.Services {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s: %s\n", s.Service, s.HebrewDate)
		for _, field := range ir.Fields() {
			v, _ := s.Conditions.Value(field)
			fmt.Fprintf(w, "  %-24s %s\n", field, formatCondition(v))
		}
	}
}

// formatCondition prints strings unquoted and null as "none".
func formatCondition(v ir.Value) string {
	switch val := v.(type) {
	case ir.Null:
		return "none"
	case ir.String:
		return string(val)
	default:
		return ir.FormatValue(v)
	}
}
