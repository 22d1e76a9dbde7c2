package schedules

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/ipo-schedule/cmd/cli/client"
	"github.com/crucial707/ipo-schedule/cmd/cli/output"
	"github.com/crucial707/ipo-schedule/internal/models"
)

// Schedule mirrors one row of GET /schedules.
type Schedule struct {
	CompanyName string       `json:"company_name"`
	StartDate   models.Date  `json:"start_date"`
	EndDate     models.Date  `json:"end_date"`
	ListingDate *models.Date `json:"listing_date"`
}

// RunStatus mirrors the last_run object of GET /status.
type RunStatus struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Records    int       `json:"records"`
	Stage      string    `json:"stage"`
	Error      string    `json:"error"`
}

// Status mirrors GET /status.
type Status struct {
	Runs            int        `json:"runs"`
	LastRun         *RunStatus `json:"last_run"`
	SnapshotRecords int        `json:"snapshot_records"`
	NextRun         *time.Time `json:"next_run"`
}

// ==========================
// Init Schedules
// ==========================
func InitSchedules(rootCmd *cobra.Command) {
	rootCmd.AddCommand(listSchedulesCmd(), statusCmd())
}

// ==========================
// LIST
// ==========================
func listSchedulesCmd() *cobra.Command {
	var company string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "List IPO subscription schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if company != "" {
				params.Set("company", company)
			}

			var items []Schedule
			if err := client.GetJSON(cmd.Context(), "/schedules", params, &items); err != nil {
				return err
			}

			if asJSON {
				return output.RenderJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No schedules found.")
				return nil
			}

			rows := make([][]interface{}, 0, len(items))
			for _, s := range items {
				listing := "-"
				if s.ListingDate != nil {
					listing = s.ListingDate.String()
				}
				rows = append(rows, []interface{}{s.CompanyName, s.StartDate.String(), s.EndDate.String(), listing})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Company", "Start", "End", "Listing"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "only companies whose name contains this text (case-sensitive)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")

	return cmd
}

// ==========================
// STATUS
// ==========================
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last scrape run",
		RunE: func(cmd *cobra.Command, args []string) error {
			var st Status
			if err := client.GetJSON(cmd.Context(), "/status", nil, &st); err != nil {
				return err
			}

			rows := [][]interface{}{
				{"runs", st.Runs},
				{"snapshot records", st.SnapshotRecords},
			}
			if st.NextRun != nil {
				rows = append(rows, []interface{}{"next run", st.NextRun.Local().Format(time.RFC3339)})
			}
			if st.LastRun != nil {
				result := "ok"
				if st.LastRun.Error != "" {
					result = fmt.Sprintf("failed at %s: %s", st.LastRun.Stage, st.LastRun.Error)
				}
				rows = append(rows,
					[]interface{}{"last run", st.LastRun.FinishedAt.Local().Format(time.RFC3339)},
					[]interface{}{"last result", result},
					[]interface{}{"last records", st.LastRun.Records},
				)
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, rows)
			return nil
		},
	}
}
