package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/fnguard/catalog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const profileYAML = `name: support
model: gpt-4
temperature: 0.2
tools:
  - type: function
    function:
      name: lookup_order
      parameters:
        type: object
        required: [order_id]
        properties:
          order_id:
            type: string
          include_items:
            type: bool
`

const badProfileJSON = `{
  "name": "all",
  "temperature": 3,
  "responseFormat": "xml"
}`

const toolsJSON = `[
  {"type": "function", "function": {"name": "book", "parameters": {"type": "object",
    "required": ["city"], "properties": {"city": {"type": "string"}, "nights": {"type": "int"}}}}}
]`

const badToolsYAML = `- function:
    name: broken
    parameters:
      required: [missing]
      properties:
        zeta:
          type: array
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FNGUARD_DB_PATH", filepath.Join(dir, "catalog.db"))
	t.Setenv("FNGUARD_LOG_LEVEL", "error")
	t.Setenv("FNGUARD_LOG_FORMAT", "text")
	t.Setenv("FNGUARD_COLLECT_ALL", "false")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--env-file", filepath.Join(dir, "none.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestValidate_Profile(t *testing.T) {
	dir := setup(t)
	good := writeFile(t, dir, "good.yaml", profileYAML)
	bad := writeFile(t, dir, "bad.json", badProfileJSON)

	out, err := run(t, dir, "validate", "profile", good)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, err = run(t, dir, "validate", "profile", bad)
	require.ErrorIs(t, err, errRejected)
	assert.Equal(t, "name [ReservedName] name 'all' conflicts with the list-all route\n", out)

	out, err = run(t, dir, "validate", "profile", "--all", bad)
	require.ErrorIs(t, err, errRejected)
	assert.Equal(t,
		"name [ReservedName] name 'all' conflicts with the list-all route\n"+
			"temperature [OutOfRange] temperature must be a value between 0 and 2\n"+
			"responseFormat [UnknownEnumValue] responseFormat must be 'text' or 'json_object'\n",
		out)
}

func TestValidate_Tools(t *testing.T) {
	dir := setup(t)
	good := writeFile(t, dir, "tools.json", toolsJSON)
	bad := writeFile(t, dir, "tools.yml", badToolsYAML)

	out, err := run(t, dir, "validate", "tools", good)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, err = run(t, dir, "validate", "tools", bad)
	require.ErrorIs(t, err, errRejected)
	assert.Contains(t, out, "required property 'missing' does not exist in tool 'broken's properties list")
}

func TestValidate_Chat(t *testing.T) {
	dir := setup(t)
	path := writeFile(t, dir, "chat.json", `{"profileName":"support","modifiers":{"name":"x","topP":2}}`)
	out, err := run(t, dir, "validate", "chat", path)
	require.ErrorIs(t, err, errRejected)
	assert.Equal(t, "modifiers.topP [OutOfRange] topP must be a value between 0 and 1\n", out)
}

func TestValidate_DecodeError(t *testing.T) {
	dir := setup(t)
	path := writeFile(t, dir, "broken.json", `{"name":`)
	_, err := run(t, dir, "validate", "profile", path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errRejected)
	assert.Contains(t, err.Error(), "decode json")

	_, err = run(t, dir, "validate", "profile", filepath.Join(dir, "absent.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSchema(t *testing.T) {
	dir := setup(t)
	out, err := run(t, dir, "schema", "profile")
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "properties")

	_, err = run(t, dir, "schema", "widget")
	require.Error(t, err)
}

func TestCatalog_Flow(t *testing.T) {
	dir := setup(t)
	profile := writeFile(t, dir, "profile.yaml", profileYAML)
	tools := writeFile(t, dir, "tools.json", toolsJSON)

	out, err := run(t, dir, "catalog", "put-profile", profile)
	require.NoError(t, err)
	assert.Equal(t, "stored profile support\n", out)

	out, err = run(t, dir, "catalog", "put-tools", tools)
	require.NoError(t, err)
	assert.Equal(t, "stored 1 tools\n", out)

	out, err = run(t, dir, "catalog", "list", "tools")
	require.NoError(t, err)
	assert.Equal(t, "book\nlookup_order\n", out)

	_, err = run(t, dir, "catalog", "associate", "book", "support")
	require.NoError(t, err)
	out, err = run(t, dir, "catalog", "tool-profiles", "book")
	require.NoError(t, err)
	assert.Equal(t, "support\n", out)

	out, err = run(t, dir, "catalog", "get", "profile", "support")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "book"`)
	assert.Contains(t, out, `"name": "lookup_order"`)

	out, err = run(t, dir, "catalog", "check-call", "book", `{"city":"Oslo","nights":3}`)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = run(t, dir, "catalog", "check-call", "book", `{"nights":3}`)
	require.Error(t, err)

	_, err = run(t, dir, "catalog", "check-call", "fly", `{}`)
	require.ErrorIs(t, err, catalog.ErrToolNotFound)

	_, err = run(t, dir, "catalog", "dissociate", "book", "support")
	require.NoError(t, err)
	_, err = run(t, dir, "catalog", "tool-profiles", "book")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = run(t, dir, "catalog", "delete", "profile", "support")
	require.NoError(t, err)
	_, err = run(t, dir, "catalog", "list", "profiles")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCatalog_PutRejected(t *testing.T) {
	dir := setup(t)
	bad := writeFile(t, dir, "bad.json", badProfileJSON)
	out, err := run(t, dir, "catalog", "put-profile", bad)
	require.ErrorIs(t, err, errRejected)
	assert.Contains(t, out, "ReservedName")

	_, err = run(t, dir, "catalog", "list", "profiles")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestConfigError(t *testing.T) {
	dir := setup(t)
	t.Setenv("FNGUARD_LOG_FORMAT", "xml")
	_, err := run(t, dir, "schema", "tool")
	require.ErrorContains(t, err, "FNGUARD_LOG_FORMAT")
}
