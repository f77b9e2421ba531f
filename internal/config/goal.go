package config

import (
	"fmt"
	"strings"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
)

// Goal is the cloud CLI family the agent helps with.
type Goal string

const (
	GoalGCP   Goal = "gcp"
	GoalAWS   Goal = "aws"
	GoalAzure Goal = "azure"
)

var Goals = []Goal{GoalGCP, GoalAWS, GoalAzure}

// ParseGoal accepts a goal name case-insensitively.
func ParseGoal(s string) (Goal, error) {
	g := Goal(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Goals {
		if g == known {
			return g, nil
		}
	}
	return "", apperrors.InvalidConfig(fmt.Sprintf("unknown goal %q", s))
}
