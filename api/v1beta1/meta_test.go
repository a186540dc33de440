package v1beta1_test

import (
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/dictamen/api/v1beta1"
	"github.com/macropower/dictamen/api/v1beta1/reports"
)

func TestTypeMeta(t *testing.T) {
	t.Parallel()

	var obj v1beta1.Object = reports.New()

	assert.Equal(t, v1beta1.APIVersion, obj.GetAPIVersion())
	assert.Equal(t, "Report", obj.GetKind())
	assert.Contains(t, v1beta1.ValidAPIVersions, obj.GetAPIVersion())
}

func newMetaSchema() *jsonschema.Schema {
	jss := &jsonschema.Schema{Properties: jsonschema.NewProperties()}
	jss.Properties.Set("apiVersion", &jsonschema.Schema{Type: "string"})
	jss.Properties.Set("kind", &jsonschema.Schema{Type: "string"})
	jss.Properties.Set("name", &jsonschema.Schema{Type: "string"})

	return jss
}

func TestExtendSchemaWithEnums(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		apiVersions []string
		kinds       []string
	}{
		"report": {
			apiVersions: v1beta1.ValidAPIVersions,
			kinds:       reports.ValidKinds,
		},
		"next version kept alongside": {
			apiVersions: []string{v1beta1.APIVersion, "dictamen.jacobcolvin.com/v1"},
			kinds:       []string{"Report"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			jss := newMetaSchema()
			v1beta1.ExtendSchemaWithEnums(jss, tc.apiVersions, tc.kinds)

			apiVersion, ok := jss.Properties.Get("apiVersion")
			require.True(t, ok)
			require.Len(t, apiVersion.OneOf, len(tc.apiVersions))

			for i, v := range tc.apiVersions {
				assert.Equal(t, v, apiVersion.OneOf[i].Const)
				assert.Equal(t, "API Version", apiVersion.OneOf[i].Title)
			}

			kind, ok := jss.Properties.Get("kind")
			require.True(t, ok)
			require.Len(t, kind.OneOf, len(tc.kinds))

			for i, k := range tc.kinds {
				assert.Equal(t, k, kind.OneOf[i].Const)
			}

			other, ok := jss.Properties.Get("name")
			require.True(t, ok)
			assert.Empty(t, other.OneOf)
		})
	}
}

func TestExtendSchemaWithEnumsMissingProperty(t *testing.T) {
	t.Parallel()

	tcs := map[string]string{
		"without apiVersion": "apiVersion",
		"without kind":       "kind",
	}

	for name, missing := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			jss := newMetaSchema()
			jss.Properties.Delete(missing)

			assert.PanicsWithValue(t, missing+" property not found in schema", func() {
				v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, reports.ValidKinds)
			})
		})
	}
}
