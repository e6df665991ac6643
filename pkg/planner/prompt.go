package planner

import (
	"fmt"
	"strings"

	"github.com/planweave/planweave/pkg/models"
	"github.com/planweave/planweave/pkg/registry"
)

// SystemPrompt renders the planning instructions for the model, including a
// table of the currently available integration families so the model never
// invents capabilities outside the live catalog.
func SystemPrompt(families []registry.Family) string {
	var b strings.Builder

	b.WriteString(`You are a Workflow Architect. Design an automation workflow as a single JSON object, with no surrounding prose or markdown.

### MANDATORY JSON STRUCTURE
{
  "version": "1.0",
  "workflows": [
    {
      "name": "Workflow Name",
      "description": "...",
      "workflow_data": {
        "nodes": [
          {"id": "node-1", "type": "webhook", "label": "Receive Alert", "config": {"accept_json_only": true}, "nodeNumber": 1}
        ],
        "connections": [
          {"from": "node-1", "to": "node-2"}
        ]
      },
      "is_active": true
    }
  ],
  "workflow_comments": {}
}

### RULES
1. Every node needs a descriptive label.
2. Node ids follow the form node-N where N matches nodeNumber.
3. Exactly one webhook or trigger node starts the workflow; every other node must be reachable from it.
4. Condition nodes carry config.condition with left, operator, right; the operator must be one of: `)
	b.WriteString(strings.Join(models.ConditionOperators, ", "))
	b.WriteString(`. Their two outgoing connections carry sourceHandle "true" and "false".
5. Reference earlier node output as {{node-N}} or {{node-N.field}}.
6. Only use integrations from the table below. For anything else, add a log node explaining that no integration is available.

### AVAILABLE INTEGRATIONS
| Service | integration_id | type_name | Tasks & Mandatory Params |
| :--- | :--- | :--- | :--- |
`)

	for _, family := range families {
		tasks := make([]string, 0, len(family.Tasks))
		for _, task := range family.Tasks {
			tasks = append(tasks, fmt.Sprintf("`%s` (%s)", task.Name, strings.Join(task.RequiredParams, ", ")))
		}

		fmt.Fprintf(&b, "| **%s** | %d | `%s` | %s |\n",
			family.TypeName, family.ID, family.TypeName, strings.Join(tasks, ", "))
	}

	b.WriteString(`
### INTEGRATION NODE SHAPE
Root fields: integration_id, task, task_display_name, integration_type_name, continue_on_error: false, run_all_tasks: false.
Params: the task's mandatory parameters plus timeout_seconds: 300 and integration_types set to the type_name.`)

	return b.String()
}
