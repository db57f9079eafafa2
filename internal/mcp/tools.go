package mcp

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type DatasetSummaryInput struct{}

type SimulateInput struct {
	WorkerIDs  []string `json:"worker_ids,omitempty" jsonschema:"restrict the forecast to these workers"`
	Iterations int      `json:"iterations,omitempty" jsonschema:"Monte-Carlo iterations per worker (default from config)"`
}

type DurationsInput struct {
	TaskCodes  []string `json:"task_codes,omitempty" jsonschema:"restrict the experiment to these task types"`
	LevelCount int      `json:"level_count,omitempty" jsonschema:"3 or 5 levels per task (default from config)"`
	SNRType    string   `json:"snr_type,omitempty" jsonschema:"smaller, larger or nominal (default smaller)"`
}

type TeamInput struct {
	TaskCode       string   `json:"task_code" jsonschema:"task type to staff"`
	Critical       bool     `json:"critical,omitempty" jsonschema:"weight experience and risk for a critical project"`
	UseForecast    bool     `json:"use_forecast,omitempty" jsonschema:"blend simulated risk into worker scores"`
	PopulationSize int      `json:"population_size,omitempty"`
	Generations    int      `json:"generations,omitempty"`
	MutationRate   *float64 `json:"mutation_rate,omitempty" jsonschema:"0 disables mutation (default from config)"`
}

type StaffingInput struct {
	TaskCodes        []string `json:"task_codes,omitempty" jsonschema:"tasks to staff in priority order (default whole catalog)"`
	Critical         bool     `json:"critical,omitempty"`
	BusyWorkers      []string `json:"busy_workers,omitempty" jsonschema:"workers already committed elsewhere"`
	AllowSubcontract bool     `json:"allow_subcontract,omitempty" jsonschema:"cover open slots with external staff"`
}

// Response is the envelope every tool returns.
type Response struct {
	Data     any               `json:"data"`
	Charts   map[string]string `json:"charts,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

func (s *Server) registerTools(server *sdk.Server) {
	sdk.AddTool(server, &sdk.Tool{
		Name:        "get_dataset_summary",
		Description: "Summarize the loaded workforce: workers per skill tier, task types and the size of the performance and duration history.",
	}, s.handleDatasetSummary)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "simulate_performance",
		Description: "Monte-Carlo forecast of each worker's performance: mean, risk of unsatisfactory work and delay probability.",
	}, s.handleSimulate)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "optimize_durations",
		Description: "Derive optimum task durations with a Taguchi design of experiments over the historical timings.",
		InputSchema: inputSchema[DurationsInput](func(props map[string]*jsonschema.Schema) {
			props["level_count"].Enum = []any{3, 5}
			props["snr_type"].Enum = []any{"smaller", "larger", "nominal"}
		}),
	}, s.handleDurations)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "optimize_team",
		Description: "Search for the best team for one task type with a genetic algorithm. Reports shortfall and ranked alternates.",
		InputSchema: inputSchema[TeamInput](func(props map[string]*jsonschema.Schema) {
			props["population_size"].Minimum = bound(0)
			props["generations"].Minimum = bound(0)
			props["mutation_rate"].Minimum = bound(0)
			props["mutation_rate"].Maximum = bound(1)
		}),
	}, s.handleTeam)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "plan_staffing",
		Description: "Staff several tasks in priority order without double-booking workers, optionally subcontracting open slots.",
	}, s.handleStaffing)
}

// inputSchema infers the schema of In and applies the bounds its struct tags
// cannot carry. A zero value still means "use the configured default".
func inputSchema[In any](tighten func(props map[string]*jsonschema.Schema)) *jsonschema.Schema {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Sprintf("mcp: inferring input schema: %v", err))
	}
	tighten(schema.Properties)
	return schema
}

func bound(v float64) *float64 { return &v }
