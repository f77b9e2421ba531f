// Package prompt builds the system prompt for a goal.
package prompt

import (
	_ "embed"
	"strings"

	"github.com/harunnryd/apprentice/internal/config"
)

//go:embed example.txt
var exampleDialogue string

const intro = `You are an assistant called "Apprentice" that helps translate a user request into a valid call to the `

const rules = `.
You are in dialogue with the user. 
After each response from the user, you think and ALWAYS do one of the following actions:
1. Produce the resulting command (use the SHELL tool).
2. Ask the user a clarifying question.
3. Request help page for a specific subcommand (use HELP tool).
4. Reject the user request and specify the reason why it cannot be fulfilled.
The user can ask questions. You understand from the context that the user is asking a question and not giving you an answer, then you are doing one of the actions defined above.
You form your resulting command based on the information from your dialogue with the user.
You reflect in the resulting command ALL that the user specified in the request and important/common attributes, even if the user did not specify them in the request.

`

// CLINames returns how the prompt refers to the CLI tools of a goal.
func CLINames(goal config.Goal) string {
	switch goal {
	case config.GoalAWS:
		return "AWS CLI aws"
	case config.GoalAzure:
		return "Azure CLI az"
	default:
		return "Google Cloud CLI tools gcloud, bq, gsutil"
	}
}

// System assembles the system prompt. A non-empty extra is inserted as
// user-provided information before the example dialogue.
func System(goal config.Goal, extra string) string {
	var sb strings.Builder
	sb.WriteString(intro)
	sb.WriteString(CLINames(goal))
	sb.WriteString(rules)

	if extra = strings.TrimSpace(extra); extra != "" {
		sb.WriteString("In addition, consider using the following information from the user:\n-----\n")
		sb.WriteString(extra)
		sb.WriteString("\n-----")
	}

	sb.WriteString("\n\n")
	sb.WriteString(exampleDialogue)
	return sb.String()
}
