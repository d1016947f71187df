package interactive

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/test/bufconn"

	"github.com/ocpp-csms-server/csms-go/pkg/actions"
	"github.com/ocpp-csms-server/csms-go/pkg/csms"
	"github.com/ocpp-csms-server/csms-go/pkg/interaction"
	"github.com/ocpp-csms-server/csms-go/pkg/stub"
	"github.com/ocpp-csms-server/csms-go/pkg/transport"
)

const (
	testEvse   = "0b9a2f64-5d1e-4c3b-8f7a-2e6d9c1b0a11"
	testOutlet = "7c1e0d52-3a4b-4f6c-9d8e-1f2a3b4c5d61"
)

const fixture = `
chargers:
  - id: CP-1
    serial_number: SN-0001
    model: Wallbox 22
    vendor: Acme
    online: true
    evses:
      - id: ` + testEvse + `
        ocpp_id: 1
        connectors:
          - id: ` + testOutlet + `
            ocpp_id: 1
            status: Available
    configuration:
      - key: HeartbeatInterval
        value: "300"
      - key: NumberOfConnectors
        value: "1"
        readonly: true
  - id: CP-2
    serial_number: SN-0002
    model: Wallbox 11
    vendor: Acme
  - id: CP-3
    vendor: Volt
    online: true
`

type testConsole struct {
	*Console
	out     *bytes.Buffer
	backend *stub.Backend
}

func newTestConsole(t *testing.T) *testConsole {
	t.Helper()

	backend := stub.New(stub.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, backend.LoadFixture(strings.NewReader(fixture)))

	lis := bufconn.Listen(1 << 20)
	srv, err := transport.NewServer(transport.ServerConfig{Listener: lis})
	require.NoError(t, err)
	csms.RegisterAPIServer(srv, backend)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop() })

	conn, err := transport.Dial(transport.ClientConfig{Address: "passthrough:///bufnet"},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	out := new(bytes.Buffer)
	return &testConsole{
		Console: New(interaction.NewClient(conn), out),
		out:     out,
		backend: backend,
	}
}

// run executes line and returns what the command printed.
func (tc *testConsole) run(t *testing.T, line string) (string, error) {
	t.Helper()
	tc.out.Reset()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := tc.ExecuteLine(ctx, line)
	return tc.out.String(), err
}

func TestHelpListsCommands(t *testing.T) {
	tc := newTestConsole(t)

	out, err := tc.run(t, "help")
	require.NoError(t, err)
	for _, cmd := range commands {
		assert.Contains(t, out, cmd.usage)
	}

	alias, err := tc.run(t, "?")
	require.NoError(t, err)
	assert.Equal(t, out, alias)
}

func TestGet(t *testing.T) {
	tc := newTestConsole(t)

	out, err := tc.run(t, "get CP-1")
	require.NoError(t, err)

	var charger map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &charger))
	assert.Equal(t, "CP-1", charger["id"])
	assert.Equal(t, "Wallbox 22", charger["model"])
	assert.Equal(t, true, charger["isOnline"])

	_, err = tc.run(t, "get CP-404")
	assert.ErrorIs(t, err, actions.ErrChargerNotFound)
}

func TestList(t *testing.T) {
	tc := newTestConsole(t)

	out, err := tc.run(t, "list 0 2")
	require.NoError(t, err)
	assert.Contains(t, out, "CP-1")
	assert.Contains(t, out, "SN-0002")
	assert.NotContains(t, out, "CP-3")
	assert.Contains(t, out, "Page 0, 3 chargers in total (next)")

	out, err = tc.run(t, "ls 1 2")
	require.NoError(t, err)
	assert.Contains(t, out, "CP-3")
	assert.Contains(t, out, "Page 1, 3 chargers in total (prev)")

	out, err = tc.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Page 0, 3 chargers in total\n")

	_, err = tc.run(t, "list first")
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestCreate(t *testing.T) {
	tc := newTestConsole(t)

	_, err := tc.run(t, "create CP-9")
	require.NoError(t, err)
	_, ok := tc.backend.Charger("CP-9")
	assert.True(t, ok)

	_, err = tc.run(t, "create CP-1")
	assert.Equal(t, codes.AlreadyExists, interaction.Code(err))
	assert.Contains(t, Describe(err), "AlreadyExists")
}

func TestReboot(t *testing.T) {
	tc := newTestConsole(t)

	out, err := tc.run(t, "reboot CP-1 hard")
	require.NoError(t, err)
	assert.Equal(t, "Reboot (hard) requested for CP-1\n", out)

	out, err = tc.run(t, "reboot CP-1")
	require.NoError(t, err)
	assert.Equal(t, "Reboot (soft) requested for CP-1\n", out)

	cmds := tc.backend.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, csms.MethodRebootCharger, cmds[0].Method)
	assert.Equal(t, csms.RebootHard, cmds[0].Request.(*csms.RebootChargerRequest).RebootType)
	assert.Equal(t, csms.RebootSoft, cmds[1].Request.(*csms.RebootChargerRequest).RebootType)

	_, err = tc.run(t, "reboot CP-2")
	assert.Equal(t, codes.Unavailable, interaction.Code(err))

	_, err = tc.run(t, "reboot CP-1 warm")
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
	assert.Contains(t, Describe(err), "reboot <charger-id> [soft|hard]")
}

func TestTransactionLifecycle(t *testing.T) {
	tc := newTestConsole(t)

	out, err := tc.run(t, "ongoing CP-1 "+testEvse)
	require.NoError(t, err)
	assert.Contains(t, out, "No ongoing transaction")

	_, err = tc.run(t, "start CP-1 "+testEvse)
	require.NoError(t, err)

	out, err = tc.run(t, "ongoing CP-1 "+testEvse)
	require.NoError(t, err)
	var tx map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &tx))
	id, _ := tx["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "CP-1", tx["chargerId"])

	_, err = tc.run(t, "start CP-1 "+testEvse)
	assert.Equal(t, codes.FailedPrecondition, interaction.Code(err))

	out, err = tc.run(t, "stop CP-1 "+id)
	require.NoError(t, err)
	var stopped map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stopped))
	assert.Equal(t, id, stopped["id"])
	assert.NotEmpty(t, stopped["endTime"])

	_, err = tc.run(t, "ongoing CP-1 not-a-uuid")
	assert.Equal(t, codes.InvalidArgument, interaction.Code(err))
}

func TestAvailability(t *testing.T) {
	tc := newTestConsole(t)

	connectorStatus := func() csms.ConnectorStatus {
		c, ok := tc.backend.Charger("CP-1")
		require.True(t, ok)
		return c.EVSEs[0].Connectors[0].Status
	}

	_, err := tc.run(t, "evse-availability CP-1 "+testEvse+" inoperative")
	require.NoError(t, err)
	assert.Equal(t, csms.ConnectorStatusUnavailable, connectorStatus())

	_, err = tc.run(t, "charger-availability CP-1 operative")
	require.NoError(t, err)
	assert.Equal(t, csms.ConnectorStatusAvailable, connectorStatus())

	_, err = tc.run(t, "outlet-availability CP-1 "+testOutlet+" unavailable")
	require.NoError(t, err)
	assert.Equal(t, csms.ConnectorStatusUnavailable, connectorStatus())

	_, err = tc.run(t, "outlet-availability CP-1 missing available")
	assert.Equal(t, codes.NotFound, interaction.Code(err))

	_, err = tc.run(t, "evse-availability CP-1 "+testEvse+" maybe")
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestClearCache(t *testing.T) {
	tc := newTestConsole(t)

	out, err := tc.run(t, "clear-cache CP-3")
	require.NoError(t, err)
	assert.Equal(t, "Cache cleared on CP-3\n", out)

	_, err = tc.run(t, "clear-cache CP-404")
	assert.Equal(t, codes.NotFound, interaction.Code(err))
}

func TestCall(t *testing.T) {
	tc := newTestConsole(t)

	out, err := tc.run(t, `call getChargers {"page": 0, "pageSize": 1}`)
	require.NoError(t, err)
	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, true, resp["hasNext"])
	assert.Len(t, resp["chargers"], 1)

	_, err = tc.run(t, `call RebootCharger {"chargerId": "CP-1", "rebootType": "Hard"}`)
	require.NoError(t, err)
	cmds := tc.backend.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, csms.RebootHard, cmds[0].Request.(*csms.RebootChargerRequest).RebootType)

	_, err = tc.run(t, "call FlashFirmware")
	assert.ErrorIs(t, err, interaction.ErrUnknownMethod)

	_, err = tc.run(t, `call GetCharger {"chargerId":`)
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestCallKeepsRequestWhitespace(t *testing.T) {
	tc := newTestConsole(t)

	_, err := tc.run(t, `call CreateCharger   {"chargerId": "CP  9"}  `)
	require.NoError(t, err)
	_, ok := tc.backend.Charger("CP  9")
	assert.True(t, ok)
	_, ok = tc.backend.Charger("CP 9")
	assert.False(t, ok)

	// Argument words from a command line are joined as given.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tc.Execute(ctx, []string{"call", "CreateCharger", `{"chargerId":`, `"CP  10"}`}))
	_, ok = tc.backend.Charger("CP  10")
	assert.True(t, ok)
}

func TestConfig(t *testing.T) {
	tc := newTestConsole(t)

	out, err := tc.run(t, "config CP-1")
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Regexp(t, `HeartbeatInterval\s+300\s+Read/Write\n`, out)
	assert.Regexp(t, `NumberOfConnectors\s+1\s+Read\n`, out)

	out, err = tc.run(t, "config CP-1 HeartbeatInterval 60")
	require.NoError(t, err)
	assert.Equal(t, "HeartbeatInterval on CP-1 set to \"60\"\n", out)
	c, _ := tc.backend.Charger("CP-1")
	assert.Equal(t, "60", c.Configuration("HeartbeatInterval").Value)

	_, err = tc.run(t, "config CP-1 NumberOfConnectors 2")
	assert.Equal(t, codes.FailedPrecondition, interaction.Code(err))

	out, err = tc.run(t, "config CP-3")
	require.NoError(t, err)
	assert.Equal(t, "No configuration reported by CP-3\n", out)

	_, err = tc.run(t, "config CP-1 HeartbeatInterval")
	var usage *UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestMethods(t *testing.T) {
	tc := newTestConsole(t)

	out, err := tc.run(t, "methods")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(csms.Methods()))
	assert.Contains(t, lines, csms.MethodGetOngoingTransaction)
}

func TestExecuteErrors(t *testing.T) {
	tc := newTestConsole(t)

	_, err := tc.run(t, "")
	assert.NoError(t, err)

	_, err = tc.run(t, "teleport CP-1")
	assert.ErrorContains(t, err, "unknown command")

	_, err = tc.run(t, "get")
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
	assert.Equal(t, "get <charger-id>", usage.Usage)

	_, err = tc.run(t, "QUIT")
	assert.ErrorIs(t, err, ErrQuit)
}

func TestCompleter(t *testing.T) {
	c := completer()
	assert.Len(t, c.GetChildren(), len(commands))
}
