package cli_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/dictamen/internal/cli"
)

const testReport = `apiVersion: dictamen.jacobcolvin.com/v1beta1
kind: Report
name: informe
pluralCount: n
variables:
  - name: n
    expr: int(get(data, "num", 1))
blocks:
  - id: parrafo_opinion
    description: Párrafo de opinión.
    rules:
      - when: tipo_opinion == 'favorable'
        template: Opinión favorable sobre {{ entidad }}.
      - template: Opinión sobre la(s) cuestión(es).
  - id: notas
    repeat:
      count: n
      prefix: nota
    rules:
      - template: Nota {{ numero }}.
`

const (
	favorableData = `tipo_opinion: favorable
entidad: ACME
nota_1__numero: 7
`
	salvedadesData = `tipo_opinion: salvedades
num: 2
nota_1__numero: 7
nota_2__numero: 9
`
)

// setupDir writes the report definition and both data files to a new
// directory and returns its path.
func setupDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range map[string]string{
		"dictamen.yaml":   testReport,
		"favorable.yaml":  favorableData,
		"salvedades.yaml": salvedadesData,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	return dir
}

// execute runs the root command with args and returns its standard output.
// Logs are discarded, since the default logger is shared between tests.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout bytes.Buffer

	cmd := cli.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())

	return stdout.String(), err
}

func TestRender(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args     []string
		want     string
		contains []string
		wantErr  string
	}{
		"text": {
			args: []string{"-d", "favorable.yaml", "-f", "text"},
			want: "Opinión favorable sobre ACME.\n\nNota 7.\n",
		},
		"text with plural markers": {
			args: []string{"-d", "salvedades.yaml", "-f", "text"},
			want: "Opinión sobre las cuestiones.\n\nNota 7.\n\nNota 9.\n",
		},
		"selected block": {
			args: []string{"-d", "salvedades.yaml", "-f", "text", "-b", "notas"},
			want: "Nota 7.\n\nNota 9.\n",
		},
		"wrapped text": {
			args: []string{"-d", "favorable.yaml", "-f", "text", "-b", "parrafo_opinion", "--width", "20"},
			want: "Opinión favorable\nsobre ACME.\n",
		},
		"yaml": {
			args: []string{"-d", "favorable.yaml"},
			contains: []string{
				"report: informe",
				"count: 1",
				"parrafo_opinion: Opinión favorable sobre ACME.",
				"notas: Nota 7.",
			},
		},
		"unknown block": {
			args:    []string{"-d", "favorable.yaml", "-b", "parrafo_opnion"},
			wantErr: `unknown block "parrafo_opnion", did you mean: parrafo_opinion`,
		},
		"unknown format": {
			args:    []string{"-d", "favorable.yaml", "-f", "docx"},
			wantErr: `output format "docx"`,
		},
		"missing data": {
			args:    []string{"-d", "otro.yaml"},
			wantErr: "load data",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := setupDir(t)

			args := append([]string{"render", "-c", filepath.Join(dir, "dictamen.yaml")}, tc.args...)
			for i, arg := range args {
				if filepath.Ext(arg) == ".yaml" && !filepath.IsAbs(arg) {
					args[i] = filepath.Join(dir, arg)
				}
			}

			stdout, err := execute(t, args...)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)

			if tc.want != "" {
				assert.Equal(t, tc.want, stdout)
			}

			for _, want := range tc.contains {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	dir := setupDir(t)

	// The definition is found next to the data file.
	stdout, err := execute(t, "render", "-d", filepath.Join(dir, "salvedades.yaml"), "-f", "json")
	require.NoError(t, err)

	var got struct {
		Blocks map[string]string `json:"blocks"`
		Report string            `json:"report"`
		Count  int               `json:"count"`
	}

	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "informe", got.Report)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, map[string]string{
		"parrafo_opinion": "Opinión sobre las cuestiones.",
		"notas":           "Nota 7.\n\nNota 9.",
	}, got.Blocks)
}

func TestRenderNoDefinition(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := filepath.Join(dir, "datos.yaml")
	require.NoError(t, os.WriteFile(data, []byte(favorableData), 0o600))

	_, err := execute(t, "render", "-d", data)
	require.ErrorContains(t, err, "no report definitions found")
}

func TestEval(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args     []string
		want     string
		contains []string
		wantErr  string
	}{
		"true": {
			args: []string{"tipo_opinion == 'favorable'", "-d", "favorable.yaml"},
			want: "true\n",
		},
		"false": {
			args: []string{"num > 1", "-d", "favorable.yaml"},
			want: "false\n",
		},
		"without data": {
			args: []string{"tipo_opinion == None"},
			want: "true\n",
		},
		"explain": {
			args: []string{"1 < num <= 10 and tipo_opinion != 'favorable'", "-d", "salvedades.yaml", "--explain"},
			contains: []string{
				"result: true",
				"num: 2",
				"tipo_opinion: salvedades",
			},
		},
		"syntax error": {
			args:    []string{"tipo_opinion =="},
			wantErr: "invalid argument",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := setupDir(t)

			args := append([]string{"eval"}, tc.args...)
			for i, arg := range args {
				if filepath.Ext(arg) == ".yaml" {
					args[i] = filepath.Join(dir, arg)
				}
			}

			stdout, err := execute(t, args...)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)

			if tc.want != "" {
				assert.Equal(t, tc.want, stdout)
			}

			for _, want := range tc.contains {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	dir := setupDir(t)
	extra := filepath.Join(dir, "anexo.yaml")
	require.NoError(t, os.WriteFile(extra, []byte(`apiVersion: dictamen.jacobcolvin.com/v1beta1
kind: Report
name: informe
blocks:
  - id: anexo
    rules:
      - template: Anexo.
`), 0o600))

	stdout, err := execute(t, "validate", "-c", filepath.Join(dir, "dictamen.yaml"), "-c", extra)
	require.NoError(t, err)
	assert.Contains(t, stdout, "informe is valid: 3 blocks, 1 variable (")
	assert.Contains(t, stdout, " in 2 files)")

	bad := filepath.Join(dir, "malo.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`apiVersion: dictamen.jacobcolvin.com/v1beta1
kind: Report
name: malo
blocks:
  - id: opinion
    rules:
      - when: tipo_opinion ==
        template: x
`), 0o600))

	_, err = execute(t, "validate", "-c", bad)
	require.ErrorContains(t, err, "malo.yaml")
}

func TestDiff(t *testing.T) {
	t.Parallel()

	dir := setupDir(t)
	from := filepath.Join(dir, "favorable.yaml")
	to := filepath.Join(dir, "salvedades.yaml")

	stdout, err := execute(t, "diff", "-d", from, "--against", to)
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- "+from)
	assert.Contains(t, stdout, "+++ "+to)
	assert.Contains(t, stdout, "-Opinión favorable sobre ACME.")
	assert.Contains(t, stdout, "+Opinión sobre las cuestiones.")
	assert.Contains(t, stdout, "+Nota 9.")

	stdout, err = execute(t, "diff", "-d", from, "--against", from)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	_, err = execute(t, "diff", "-d", from)
	require.ErrorContains(t, err, "required flag(s)")
}

func TestInit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "informe.yaml")

	_, err := execute(t, "init", path, "--name", "cuentas_anuales")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "name: cuentas_anuales")
	assert.Contains(t, string(got), "kind: Report")

	// The written definition is valid.
	stdout, err := execute(t, "validate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "cuentas_anuales is valid")

	_, err = execute(t, "init", path)
	require.ErrorContains(t, err, "already exists")

	_, err = execute(t, "init", path, "--force")
	require.NoError(t, err)

	backups, err := filepath.Glob(path + ".*.old")
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestSchemaAndVersion(t *testing.T) {
	t.Parallel()

	stdout, err := execute(t, "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "dictamen.jacobcolvin.com/v1beta1")

	stdout, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dictamen ")
}
