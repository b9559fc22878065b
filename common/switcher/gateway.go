package switcher

import (
	"context"
	"encoding/json"
)

// Gateway is the single boundary to the production switcher. The core
// never encodes the wire protocol itself beyond this call surface.
type Gateway interface {
	// Call performs one RPC against the switcher and returns the raw
	// response payload.
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)

	// Connect establishes the connection if it is not already up.
	Connect(ctx context.Context) error

	// IsConnected reports whether the connection is currently usable.
	IsConnected() bool
}

// CallInto performs a call and unmarshals the response into out.
// A nil out discards the response payload.
func CallInto(ctx context.Context, gw Gateway, method string, params any, out any) error {
	raw, err := gw.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
