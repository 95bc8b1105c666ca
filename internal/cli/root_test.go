package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/internal/cli/commands"
	"github.com/leapstack-labs/wbemctl/internal/cli/config"
	"github.com/leapstack-labs/wbemctl/internal/cli/testutil"
	"github.com/leapstack-labs/wbemctl/internal/engine"
	"github.com/leapstack-labs/wbemctl/internal/history"

	_ "github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
)

// run executes the root command with args against ws and returns
// stdout and stderr.
func run(t *testing.T, ws *testutil.Workspace, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--config", ws.ConfigPath}, args...))

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_Metadata(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "wbemctl", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	flags := []string{"config", "namespace", "provider", "fixture", "history", "no-history", "output", "verbose", "log-level"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"classes", "instances", "get", "methods", "call", "history", "shell", "providers", "version", "completion"} {
		assert.True(t, names[want], "subcommand %q should exist", want)
	}
}

func TestVersionCommand(t *testing.T) {
	ws := testutil.SetupWorkspace(t, "")
	out, _, err := run(t, ws, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "wbemctl v"+Version)
}

func TestClassesCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "filtered",
			args:     []string{"classes", "-f", "Win32_Logical%"},
			contains: []string{"- Win32_LogicalDisk", "- Win32_LogicalDiskToPartition"},
			excludes: []string{"Win32_Service"},
		},
		{
			name:     "with properties",
			args:     []string{"classes", "--filter", "Win32_Service", "--properties"},
			contains: []string{"## Win32_Service", "  - DisplayName"},
		},
		{
			name:     "other namespace",
			args:     []string{"-n", `ROOT\WMI`, "classes"},
			contains: []string{`# Classes in ROOT\WMI`, "- MSAcpi_ThermalZoneTemperature"},
			excludes: []string{"Win32_Service"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := testutil.SetupWorkspace(t, "output: markdown\n")
			out, _, err := run(t, ws, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
			testutil.AssertValidMarkdown(t, out)
		})
	}
}

func TestInstancesCommand_JSON(t *testing.T) {
	ws := testutil.SetupWorkspace(t, "")
	out, _, err := run(t, ws, "-o", "json", "instances", "Win32_Service", "--property", "Name", "--property", "State")
	require.NoError(t, err)

	var objects []engine.ObjectInfo
	require.NoError(t, json.Unmarshal([]byte(out), &objects))
	require.Len(t, objects, 2)
	assert.Equal(t, `Win32_Service.Name="Spooler"`, objects[0].Path)
	assert.Equal(t, []engine.Property{{Name: "Name", Value: "Spooler"}, {Name: "State", Value: "Running"}}, objects[0].Properties)
}

func TestGetCommand(t *testing.T) {
	ws := testutil.SetupWorkspace(t, "")
	out, _, err := run(t, ws, "-o", "text", "get", `Win32_Service.Name="Spooler"`, "StartMode")
	require.NoError(t, err)
	assert.Contains(t, out, "StartMode => Auto")
	testutil.AssertNoANSI(t, out)
}

func TestCallCommand_RecordsHistory(t *testing.T) {
	ws := testutil.SetupWorkspace(t, "")

	out, _, err := run(t, ws, "-o", "json", "call", "Win32_Process", "GetOwner", "--where", "Handle=3120")
	require.NoError(t, err)
	var res engine.InvokeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "0", res.ReturnValue)
	assert.NotEmpty(t, res.InvocationID)

	out, _, err = run(t, ws, "-o", "json", "history")
	require.NoError(t, err)
	var invs []*history.Invocation
	require.NoError(t, json.Unmarshal([]byte(out), &invs))
	require.Len(t, invs, 1)
	assert.Equal(t, res.InvocationID, invs[0].ID)
	assert.Equal(t, "GetOwner", invs[0].Method)
	assert.Equal(t, history.StatusSuccess, invs[0].Status)

	out, _, err = run(t, ws, "-o", "markdown", "history", res.InvocationID)
	require.NoError(t, err)
	assert.Contains(t, out, "# Invocation "+res.InvocationID)
	assert.Contains(t, out, "- **User** => `operator`")
}

func TestCallCommand_NoHistory(t *testing.T) {
	ws := testutil.SetupWorkspace(t, "")

	out, _, err := run(t, ws, "--no-history", "-o", "json", "call", "StdRegProv", "Flush")
	require.NoError(t, err)
	var res engine.InvokeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Empty(t, res.InvocationID)

	_, _, err = run(t, ws, "--no-history", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history is disabled")
}

func TestCallCommand_Strict(t *testing.T) {
	ws := testutil.SetupWorkspace(t, "")

	_, _, err := run(t, ws, "-o", "json", "call", `Win32_LogicalDisk.DeviceID="C:"`, "Chkdsk", "--strict",
		"--param", "FixErrors=false")
	require.NoError(t, err, "a zero ReturnValue passes --strict")

	_, _, err = run(t, ws, "-o", "json", "call", `Win32_LogicalDisk.DeviceID="C:"`, "SetPowerState", "--strict",
		"--param", "PowerState=1", "--param", "Time=null")
	require.Error(t, err)
	var rve *commands.ReturnValueError
	require.ErrorAs(t, err, &rve)
	assert.Equal(t, "1", rve.ReturnValue)
	assert.Equal(t, 2, ExitCode(err))
}

func TestCommand_Errors(t *testing.T) {
	tests := []struct {
		name      string
		extra     string
		args      []string
		errSubstr string
	}{
		{
			name:      "unknown class",
			args:      []string{"instances", "Win32_Nothing"},
			errSubstr: "query failure",
		},
		{
			name:      "no matching instance",
			args:      []string{"call", "Win32_Service", "StopService", "--where", "Name=Nope"},
			errSubstr: engine.ErrNoMatchingInstance.Error(),
		},
		{
			name:      "bad parameter",
			args:      []string{"call", "StdRegProv", "GetStringValue", "--param", "hDefKey"},
			errSubstr: "expected name=value",
		},
		{
			name:      "unknown provider",
			args:      []string{"--provider", "nope", "classes"},
			errSubstr: `unknown provider "nope"`,
		},
		{
			name:      "invalid output",
			args:      []string{"-o", "xml", "classes"},
			errSubstr: "unknown output format",
		},
		{
			name:      "missing fixture file",
			extra:     "fixture: does-not-exist.yaml\n",
			args:      []string{"classes"},
			errSubstr: "does-not-exist.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := testutil.SetupWorkspace(t, tt.extra)
			_, _, err := run(t, ws, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.Equal(t, 1, ExitCode(err))
		})
	}
}

func TestCustomFixture(t *testing.T) {
	ws := testutil.SetupWorkspace(t, "")
	path := ws.WriteFile(t, "catalog.yaml", `namespaces:
  - name: ROOT\TEST
    classes:
      - name: Demo_Widget
        properties:
          - { name: Id, type: string, key: true }
          - { name: Size, type: uint32 }
        instances:
          - values: { Id: w1, Size: 3 }
`)

	out, _, err := run(t, ws, "--fixture", path, "-n", `ROOT\TEST`, "-o", "markdown", "instances", "Demo_Widget")
	require.NoError(t, err)
	assert.Contains(t, out, `## Demo_Widget.Id="w1"`)
	assert.Contains(t, out, "- **Size** => `3`")
}

func TestProvidersCommand(t *testing.T) {
	ws := testutil.SetupWorkspace(t, "")
	out, _, err := run(t, ws, "-o", "json", "providers")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Contains(t, names, "fixture")
}

func TestCompletionCommand(t *testing.T) {
	ws := testutil.SetupWorkspace(t, "")
	out, _, err := run(t, ws, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "wbemctl")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(&commands.ReturnValueError{Method: "m", ReturnValue: "5"}))
	assert.Equal(t, 1, ExitCode(assert.AnError))
}
