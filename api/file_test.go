package api_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/dictamen/api"
)

func TestReadFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setupFile func(t *testing.T) string
		wantErr   bool
	}{
		"valid file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				path := filepath.Join(t.TempDir(), "datos.yaml")
				err := os.WriteFile(path, []byte("tipo_opinion: favorable"), 0o600)
				require.NoError(t, err)

				return path
			},
		},
		"non-existent file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return "/non/existent/file.yaml"
			},
			wantErr: true,
		},
		"directory instead of file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := api.ReadFile(tc.setupFile(t))
			if tc.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "tipo_opinion: favorable", string(got))
		})
	}
}

func TestMarshalYAML(t *testing.T) {
	t.Parallel()

	type block struct {
		ID    string   `json:"id"`
		Rules []string `json:"rules"`
	}

	data, err := api.MarshalYAML(block{ID: "opinion", Rules: []string{"favorable"}})
	require.NoError(t, err)
	assert.Equal(t, "id: opinion\nrules:\n  - favorable\n", string(data))
}

func TestWriteDefaultFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setupPath   func(t *testing.T) string
		errMsg      string
		wantContent string
		wantBackup  bool
		force       bool
		wantErr     bool
	}{
		"new file": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "report.yaml")
			},
			wantContent: "default",
		},
		"existing file without force": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				path := filepath.Join(t.TempDir(), "report.yaml")
				require.NoError(t, os.WriteFile(path, []byte("existing"), 0o600))

				return path
			},
			wantContent: "existing",
		},
		"existing file with force": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				path := filepath.Join(t.TempDir(), "report.yaml")
				require.NoError(t, os.WriteFile(path, []byte("existing"), 0o600))

				return path
			},
			force:       true,
			wantContent: "default",
			wantBackup:  true,
		},
		"creates parent directories": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "nested", "deep", "report.yaml")
			},
			wantContent: "default",
		},
		"path is directory": {
			setupPath: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			wantErr: true,
			errMsg:  "path is a directory",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := tc.setupPath(t)

			err := api.WriteDefaultFile(path, []byte("default"), tc.force, "report")
			if tc.wantErr {
				require.ErrorContains(t, err, tc.errMsg)

				return
			}

			require.NoError(t, err)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.wantContent, string(got))

			backups, err := filepath.Glob(path + ".*.old")
			require.NoError(t, err)

			if tc.wantBackup {
				require.Len(t, backups, 1)

				old, err := os.ReadFile(backups[0])
				require.NoError(t, err)
				assert.Equal(t, "existing", string(old))
			} else {
				assert.Empty(t, backups)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	names := []string{"dictamen.yaml", "report.yaml"}

	tcs := map[string]struct {
		setup func(t *testing.T) (string, string)
	}{
		"finds config in current directory": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				want := filepath.Join(dir, "report.yaml")
				require.NoError(t, os.WriteFile(want, nil, 0o600))

				return dir, want
			},
		},
		"finds config in parent directory": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				want := filepath.Join(dir, "dictamen.yaml")
				require.NoError(t, os.WriteFile(want, nil, 0o600))

				sub := filepath.Join(dir, "clientes", "acme")
				require.NoError(t, os.MkdirAll(sub, 0o750))

				return sub, want
			},
		},
		"starts from the directory of a file": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				want := filepath.Join(dir, "dictamen.yaml")
				require.NoError(t, os.WriteFile(want, nil, 0o600))

				data := filepath.Join(dir, "datos.yaml")
				require.NoError(t, os.WriteFile(data, nil, 0o600))

				return data, want
			},
		},
		"prefers earlier names": {
			setup: func(t *testing.T) (string, string) {
				t.Helper()

				dir := t.TempDir()
				want := filepath.Join(dir, "dictamen.yaml")
				require.NoError(t, os.WriteFile(want, nil, 0o600))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "report.yaml"), nil, 0o600))

				return dir, want
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			target, want := tc.setup(t)

			got, err := api.FindConfigFile(target, names)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := api.FindConfigFile("/non/existent", names)
	require.Error(t, err)
}
