package yaml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/dictamen/pkg/yaml"
)

type testRule struct {
	When     string `json:"when"`
	Template string `json:"template" validate:"required"`
}

type testBlock struct {
	ID    string      `json:"id"    validate:"required,identifier"`
	Rules []*testRule `json:"rules" validate:"required,min=1,dive,required"`
}

type testReport struct {
	Name         string       `json:"name"                   validate:"required"`
	Blocks       []*testBlock `json:"blocks"                 validate:"dive,required"`
	MaxInstances int          `json:"maxInstances,omitempty" validate:"gte=0"`
}

func TestStructValidator(t *testing.T) {
	t.Parallel()

	v := yaml.NewStructValidator()
	rule := &testRule{When: "true", Template: "x"}

	tcs := map[string]struct {
		report   *testReport
		wantPath string
		wantMsg  string
	}{
		"valid": {
			report: &testReport{Name: "x", Blocks: []*testBlock{{ID: "a", Rules: []*testRule{rule}}}},
		},
		"missing name": {
			report:   &testReport{},
			wantPath: "$.name",
			wantMsg:  "value is required",
		},
		"negative max": {
			report:   &testReport{Name: "x", MaxInstances: -1},
			wantPath: "$.maxInstances",
			wantMsg:  "must be at least 0",
		},
		"bad identifier": {
			report:   &testReport{Name: "x", Blocks: []*testBlock{{ID: "a-b", Rules: []*testRule{rule}}}},
			wantPath: "$.blocks[0].id",
			wantMsg:  `"a-b" is not a valid identifier`,
		},
		"no rules": {
			report:   &testReport{Name: "x", Blocks: []*testBlock{{ID: "a"}}},
			wantPath: "$.blocks[0].rules",
			wantMsg:  "value is required",
		},
		"nested field": {
			report: &testReport{Name: "x", Blocks: []*testBlock{
				{ID: "a", Rules: []*testRule{rule}},
				{ID: "b", Rules: []*testRule{rule, {When: "true"}}},
			}},
			wantPath: "$.blocks[1].rules[1].template",
			wantMsg:  "value is required",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tc.report)
			if tc.wantPath == "" {
				require.NoError(t, err)

				return
			}

			var yamlErr *yaml.Error
			require.ErrorAs(t, err, &yamlErr)
			assert.Equal(t, tc.wantPath, yamlErr.Path.String())
			assert.Equal(t, tc.wantMsg, yamlErr.Err.Error())
		})
	}
}
