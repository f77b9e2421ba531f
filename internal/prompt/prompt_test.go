package prompt

import (
	"strings"
	"testing"

	"github.com/harunnryd/apprentice/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestSystem_NamesGoalTools(t *testing.T) {
	tests := []struct {
		goal config.Goal
		want string
	}{
		{config.GoalGCP, "a valid call to the Google Cloud CLI tools gcloud, bq, gsutil.\n"},
		{config.GoalAWS, "a valid call to the AWS CLI aws.\n"},
		{config.GoalAzure, "a valid call to the Azure CLI az.\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.goal), func(t *testing.T) {
			assert.Contains(t, System(tt.goal, ""), tt.want)
		})
	}
}

func TestSystem_WithoutExtra(t *testing.T) {
	sys := System(config.GoalGCP, "  ")

	assert.True(t, strings.HasPrefix(sys, `You are an assistant called "Apprentice"`))
	assert.NotContains(t, sys, "In addition, consider")
	assert.Contains(t, sys, "even if the user did not specify them in the request.\n\n\n\nBelow is an example")
	assert.True(t, strings.HasSuffix(sys, "Below is your actual dialogue with the user."))
}

func TestSystem_ExtraBeforeExample(t *testing.T) {
	sys := System(config.GoalAWS, "default region is eu-west-1")

	block := "In addition, consider using the following information from the user:\n-----\ndefault region is eu-west-1\n-----\n\nBelow is an example"
	assert.Contains(t, sys, block)
	assert.Less(t, strings.Index(sys, "3. Request help page"), strings.Index(sys, block))
}
