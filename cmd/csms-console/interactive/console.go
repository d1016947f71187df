// Package interactive provides the command interface of the CSMS console,
// both for one-shot invocations and for the interactive shell.
package interactive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/ocpp-csms-server/csms-go/pkg/actions"
	"github.com/ocpp-csms-server/csms-go/pkg/csms"
	"github.com/ocpp-csms-server/csms-go/pkg/interaction"
	"github.com/ocpp-csms-server/csms-go/pkg/wire"
)

// DefaultPageSize is the page size of "list" when none is given.
const DefaultPageSize = 20

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// Backend is the facade the console drives. *interaction.Client
// implements it.
type Backend interface {
	actions.Facade
	Call(ctx context.Context, method string, req any, done func(any, error))
}

var _ Backend = (*interaction.Client)(nil)

// UsageError reports a command invoked with bad arguments.
type UsageError struct {
	Usage string
	Err   error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (usage: %s)", e.Err, e.Usage)
	}
	return "usage: " + e.Usage
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	minArgs int
	// rawTail commands get the rest of a line after their first argument
	// as one argument, whitespace included.
	rawTail bool
	run     func(c *Console, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{name: "help", aliases: []string{"?"}, usage: "help", help: "Show this help", run: (*Console).cmdHelp},
		{name: "get", usage: "get <charger-id>", help: "Show a charger with its EVSEs and connectors", minArgs: 1, run: (*Console).cmdGet},
		{name: "list", aliases: []string{"ls"}, usage: "list [page] [page-size]", help: "List chargers, one page at a time (pages start at 0)", run: (*Console).cmdList},
		{name: "create", usage: "create <charger-id>", help: "Register a charger", minArgs: 1, run: (*Console).cmdCreate},
		{name: "reboot", usage: "reboot <charger-id> [soft|hard]", help: "Reboot a charger (default soft)", minArgs: 1, run: (*Console).cmdReboot},
		{name: "clear-cache", usage: "clear-cache <charger-id>", help: "Clear the authorization cache of a charger", minArgs: 1, run: (*Console).cmdClearCache},
		{name: "start", usage: "start <charger-id> <evse-id>", help: "Start a remote transaction on an EVSE", minArgs: 2, run: (*Console).cmdStart},
		{name: "stop", usage: "stop <charger-id> <transaction-id>", help: "Stop a transaction", minArgs: 2, run: (*Console).cmdStop},
		{name: "ongoing", usage: "ongoing <charger-id> <evse-id>", help: "Show the running transaction of an EVSE", minArgs: 2, run: (*Console).cmdOngoing},
		{name: "evse-availability", usage: "evse-availability <charger-id> <evse-id> operative|inoperative", help: "Change the availability of an EVSE", minArgs: 3, run: (*Console).cmdEvseAvailability},
		{name: "outlet-availability", usage: "outlet-availability <charger-id> <outlet-id> available|unavailable", help: "Change the availability of an outlet", minArgs: 3, run: (*Console).cmdOutletAvailability},
		{name: "charger-availability", usage: "charger-availability <charger-id> operative|inoperative", help: "Change the availability of every EVSE of a charger", minArgs: 2, run: (*Console).cmdChargerAvailability},
		{name: "config", usage: "config <charger-id> [<key> <value>]", help: "Show the OCPP 1.6 configuration of a charger or change one key", minArgs: 1, run: (*Console).cmdConfig},
		{name: "methods", usage: "methods", help: "List the RPC methods accepted by call", run: (*Console).cmdMethods},
		{name: "call", usage: "call <method> [json-request]", help: "Issue any RPC with a JSON request and print the JSON response", minArgs: 1, rawTail: true, run: (*Console).cmdCall},
		{name: "quit", aliases: []string{"exit", "q"}, usage: "quit", help: "Exit the console", run: func(*Console, context.Context, []string) error { return ErrQuit }},
	}
}

func lookupCommand(name string) (command, bool) {
	name = strings.ToLower(name)
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
		for _, alias := range cmd.aliases {
			if alias == name {
				return cmd, true
			}
		}
	}
	return command{}, false
}

// Console runs console commands against a backend and writes their
// results to an output stream.
type Console struct {
	backend Backend
	actions *actions.Actions
	out     io.Writer
}

// New creates a console writing results to out.
func New(backend Backend, out io.Writer) *Console {
	return &Console{
		backend: backend,
		actions: actions.New(backend),
		out:     out,
	}
}

// SetOutput redirects command output.
func (c *Console) SetOutput(out io.Writer) {
	c.out = out
}

// Execute runs one command given as its words, e.g.
// []string{"reboot", "CP-1", "hard"}. An empty command does nothing.
func (c *Console) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, ok := lookupCommand(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", args[0])
	}
	if len(args)-1 < cmd.minArgs {
		return &UsageError{Usage: cmd.usage}
	}
	return cmd.run(c, ctx, args[1:])
}

// ExecuteLine splits line into words and runs it. The JSON request of
// "call" is the rest of the line after the method, passed on unchanged.
func (c *Console) ExecuteLine(ctx context.Context, line string) error {
	name, rest := cutWord(line)
	if cmd, ok := lookupCommand(name); ok && cmd.rawTail {
		args := []string{name}
		if first, tail := cutWord(rest); first != "" {
			args = append(args, first)
			if tail != "" {
				args = append(args, tail)
			}
		}
		return c.Execute(ctx, args)
	}
	return c.Execute(ctx, strings.Fields(line))
}

// cutWord splits s into its first word and the rest, both without
// surrounding whitespace.
func cutWord(s string) (word, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// Describe renders an error for the operator, naming the status code of
// failed calls.
func Describe(err error) string {
	var usage *UsageError
	switch {
	case errors.As(err, &usage):
		return usage.Error()
	case errors.Is(err, actions.ErrChargerNotFound):
		return err.Error()
	case interaction.IsDecodeError(err):
		return "malformed response: " + err.Error()
	}
	var callErr *interaction.CallError
	if errors.As(err, &callErr) {
		return fmt.Sprintf("%s (%s)", err, callErr.Code())
	}
	return err.Error()
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// printMessage writes the indented JSON form of a message.
func (c *Console) printMessage(m any) error {
	data, err := wire.MarshalJSON(m)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = c.out.Write(buf.Bytes())
	return err
}

func (c *Console) cmdHelp(context.Context, []string) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CSMS Console Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(tw, "  %s\t- %s\n", cmd.usage, cmd.help)
	}
	return tw.Flush()
}

func (c *Console) cmdGet(ctx context.Context, args []string) error {
	charger, err := c.actions.GetCharger(ctx, args[0])
	if err != nil {
		return err
	}
	return c.printMessage(charger)
}

func (c *Console) cmdList(ctx context.Context, args []string) error {
	page, pageSize := int64(0), int64(DefaultPageSize)
	var err error
	if len(args) > 0 {
		if page, err = strconv.ParseInt(args[0], 10, 64); err != nil {
			return &UsageError{Usage: "list [page] [page-size]", Err: fmt.Errorf("invalid page %q", args[0])}
		}
	}
	if len(args) > 1 {
		if pageSize, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return &UsageError{Usage: "list [page] [page-size]", Err: fmt.Errorf("invalid page size %q", args[1])}
		}
	}

	resp, err := c.actions.ListChargers(ctx, page, pageSize)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSERIAL\tMODEL\tVENDOR")
	for _, s := range resp.Chargers {
		if s == nil {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.SerialNumber, s.Model, s.Vendor)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	var nav []string
	if resp.HasPrev {
		nav = append(nav, "prev")
	}
	if resp.HasNext {
		nav = append(nav, "next")
	}
	c.printf("Page %d, %d chargers in total", resp.Page, resp.TotalCount)
	if len(nav) > 0 {
		c.printf(" (%s)", strings.Join(nav, ", "))
	}
	c.printf("\n")
	return nil
}

func (c *Console) cmdCreate(ctx context.Context, args []string) error {
	charger, err := c.actions.CreateCharger(ctx, args[0])
	if err != nil {
		return err
	}
	if charger == nil {
		c.printf("Created %s\n", args[0])
		return nil
	}
	return c.printMessage(charger)
}

func (c *Console) cmdReboot(ctx context.Context, args []string) error {
	rebootType := csms.RebootSoft
	if len(args) > 1 {
		switch strings.ToLower(args[1]) {
		case "soft":
		case "hard":
			rebootType = csms.RebootHard
		default:
			return &UsageError{Usage: "reboot <charger-id> [soft|hard]", Err: fmt.Errorf("invalid reboot type %q", args[1])}
		}
	}
	if err := c.actions.Reboot(ctx, args[0], rebootType); err != nil {
		return err
	}
	c.printf("Reboot (%s) requested for %s\n", strings.ToLower(rebootType.String()), args[0])
	return nil
}

func (c *Console) cmdClearCache(ctx context.Context, args []string) error {
	if err := c.actions.ClearCache(ctx, args[0]); err != nil {
		return err
	}
	c.printf("Cache cleared on %s\n", args[0])
	return nil
}

func (c *Console) cmdStart(ctx context.Context, args []string) error {
	if err := c.actions.StartTransaction(ctx, args[0], args[1]); err != nil {
		return err
	}
	c.printf("Transaction start requested on %s EVSE %s\n", args[0], args[1])
	return nil
}

func (c *Console) cmdStop(ctx context.Context, args []string) error {
	tx, err := c.actions.StopTransaction(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if tx == nil {
		c.printf("Transaction %s stopped\n", args[1])
		return nil
	}
	return c.printMessage(tx)
}

func (c *Console) cmdOngoing(ctx context.Context, args []string) error {
	tx, err := c.actions.OngoingTransaction(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if tx == nil {
		c.printf("No ongoing transaction on %s EVSE %s\n", args[0], args[1])
		return nil
	}
	return c.printMessage(tx)
}

// parseSwitch maps on/off words to a bool.
func parseSwitch(word, on, off string) (bool, error) {
	switch strings.ToLower(word) {
	case on, "on", "true", "1":
		return true, nil
	case off, "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected %s or %s, got %q", on, off, word)
}

func (c *Console) cmdEvseAvailability(ctx context.Context, args []string) error {
	operative, err := parseSwitch(args[2], "operative", "inoperative")
	if err != nil {
		return &UsageError{Usage: "evse-availability <charger-id> <evse-id> operative|inoperative", Err: err}
	}
	if err := c.actions.ChangeEvseAvailability(ctx, args[0], args[1], operative); err != nil {
		return err
	}
	c.printf("EVSE %s on %s set %s\n", args[1], args[0], strings.ToLower(args[2]))
	return nil
}

func (c *Console) cmdOutletAvailability(ctx context.Context, args []string) error {
	available, err := parseSwitch(args[2], "available", "unavailable")
	if err != nil {
		return &UsageError{Usage: "outlet-availability <charger-id> <outlet-id> available|unavailable", Err: err}
	}
	if err := c.actions.ChangeOutletAvailability(ctx, args[0], args[1], available); err != nil {
		return err
	}
	c.printf("Outlet %s on %s set %s\n", args[1], args[0], strings.ToLower(args[2]))
	return nil
}

func (c *Console) cmdChargerAvailability(ctx context.Context, args []string) error {
	operative, err := parseSwitch(args[1], "operative", "inoperative")
	if err != nil {
		return &UsageError{Usage: "charger-availability <charger-id> operative|inoperative", Err: err}
	}
	if err := c.actions.SetChargerAvailability(ctx, args[0], operative); err != nil {
		return err
	}
	c.printf("Charger %s set %s\n", args[0], strings.ToLower(args[1]))
	return nil
}

func (c *Console) cmdConfig(ctx context.Context, args []string) error {
	const usage = "config <charger-id> [<key> <value>]"
	switch len(args) {
	case 1:
	case 3:
		if err := c.actions.ChangeConfiguration(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		c.printf("%s on %s set to %q\n", args[1], args[0], args[2])
		return nil
	default:
		return &UsageError{Usage: usage}
	}

	cfg, err := c.actions.Configuration(ctx, args[0])
	if err != nil {
		return err
	}
	if len(cfg) == 0 {
		c.printf("No configuration reported by %s\n", args[0])
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tACCESS")
	for _, entry := range cfg {
		if entry == nil {
			continue
		}
		access := "Read/Write"
		if entry.Readonly {
			access = "Read"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Key, entry.Value, access)
	}
	return tw.Flush()
}

func (c *Console) cmdMethods(context.Context, []string) error {
	for _, m := range csms.Methods() {
		c.printf("%s\n", m.Name)
	}
	return nil
}

func (c *Console) cmdCall(ctx context.Context, args []string) error {
	m, ok := csms.LookupMethod(args[0])
	if !ok {
		return fmt.Errorf("%w: %s (type 'methods' for the list)", interaction.ErrUnknownMethod, args[0])
	}

	req := m.NewRequest()
	if body := strings.Join(args[1:], " "); body != "" {
		if err := wire.UnmarshalJSON([]byte(body), req); err != nil {
			return &UsageError{Usage: "call <method> [json-request]", Err: err}
		}
	}

	f := actions.NewFuture[any]()
	c.backend.Call(ctx, m.Name, req, f.Complete)
	resp, err := f.Wait(ctx)
	if err != nil {
		return err
	}
	return c.printMessage(resp)
}
