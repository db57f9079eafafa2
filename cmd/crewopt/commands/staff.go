package commands

import (
	"fmt"
	"strings"

	"crewopt/internal/staffing"
	"crewopt/internal/workforce"

	"github.com/spf13/cobra"
)

var (
	staffTasks       []string
	staffBusy        []string
	staffCritical    bool
	staffSubcontract bool
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Staff tasks in priority order without double-booking workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}

		plans, err := plan.PlanStaffing(cmd.Context(), ds, staffTasks, staffCritical, staffing.NewBusy(staffBusy...), staffSubcontract)
		if err != nil {
			return err
		}
		return emit(plans, func() []section { return staffingSections(plans) })
	},
}

func staffingSections(plans []staffing.Plan) []section {
	s := section{
		title:   "Staffing plan",
		headers: []string{"Task", "Role", "Workers", "Open", "Subcontract"},
	}
	for _, p := range plans {
		for _, role := range workforce.AllRoles {
			members := p.Members[role]
			if len(members) == 0 && p.Shortfall[role] == 0 {
				continue
			}
			var ids []string
			for _, m := range members {
				ids = append(ids, m.WorkerID)
			}
			s.rows = append(s.rows, []string{
				p.TaskCode,
				string(role),
				strings.Join(ids, ", "),
				fmt.Sprintf("%d", p.Shortfall[role]),
				fmt.Sprintf("%d", p.Subcontract[role]),
			})
		}
		if err := p.Err(); err != nil {
			s.warnings = append(s.warnings, fmt.Sprintf("%s: %v", p.TaskCode, err))
		}
	}
	return []section{s}
}

func init() {
	staffCmd.Flags().StringSliceVarP(&staffTasks, "task", "t", nil, "task codes in priority order (default whole catalog)")
	staffCmd.Flags().StringSliceVar(&staffBusy, "busy", nil, "worker IDs already committed")
	staffCmd.Flags().BoolVar(&staffCritical, "critical", false, "use the critical project weighting")
	staffCmd.Flags().BoolVar(&staffSubcontract, "subcontract", false, "cover open slots with external staff")
}
