package capture

import (
	"strings"

	"github.com/jonathan/company-extractor/internal/types"
)

// bufferVar is the page global that the console hook appends to.
const bufferVar = "__captured_console"

// consoleHookScript wraps the console methods before any page script runs so
// every call's arguments are kept as JSON-cloned values in
// window.__captured_console. Arguments that cannot be cloned are kept as their
// string form.
const consoleHookScript = `(() => {
	window.__captured_console = window.__captured_console || [];
	for (const method of ["log", "info", "warn", "error", "debug", "table", "dir", "trace"]) {
		if (typeof console[method] !== "function") continue;
		const orig = console[method].bind(console);
		console[method] = function(...args) {
			try {
				const serial = args.map(a => {
					try { return JSON.parse(JSON.stringify(a)); }
					catch (e) { try { return String(a); } catch (e2) { return null; } }
				});
				window.__captured_console.push(serial);
			} catch (e) { }
			orig(...args);
		};
	}
})();`

// readBufferExpr returns the hook buffer as a JSON string.
const readBufferExpr = `JSON.stringify(window.` + bufferVar + ` || [])`

// ConsoleArg is the part of a CDP remote object the capture needs.
type ConsoleArg struct {
	Type        string
	Value       []byte // JSON, present for primitives and by-value objects
	Description string
	Preview     string // JSON of an object preview, if one was built
	ObjectID    string // remote handle of objects sent by reference
}

// ResolveObjects fills the JSON value of every argument that arrived by
// reference, using fetch to read the object by its id. Arguments fetch fails
// on keep their description. It returns the number of values filled in.
func ResolveObjects(args []ConsoleArg, fetch func(id string) ([]byte, error)) int {
	resolved := 0
	for i := range args {
		if len(args[i].Value) > 0 || args[i].ObjectID == "" {
			continue
		}
		value, err := fetch(args[i].ObjectID)
		if err != nil || len(value) == 0 {
			continue
		}
		args[i].Value = value
		args[i].ObjectID = ""
		resolved++
	}
	return resolved
}

// DecodeConsoleArg turns one console argument into a forest tree. It prefers
// the JSON value, then the description text; undefined becomes null.
func DecodeConsoleArg(arg ConsoleArg) types.Value {
	if len(arg.Value) > 0 {
		if v, err := types.Decode(arg.Value); err == nil {
			return v
		}
	}
	if arg.Type == "undefined" {
		return types.Null()
	}
	if arg.Description != "" {
		return types.String(arg.Description)
	}
	if arg.Preview != "" {
		return types.String(arg.Preview)
	}
	return types.Null()
}

// DecodeBuffer decodes the JSON text of the page hook buffer. Each buffered
// console call contributes one tree (the list of its arguments). Unreadable
// buffers yield nothing.
func DecodeBuffer(buffer string) []types.Value {
	buffer = strings.TrimSpace(buffer)
	if buffer == "" {
		return nil
	}
	v, err := types.DecodeString(buffer)
	if err != nil || !v.IsSequence() {
		return nil
	}
	return v.Items()
}
