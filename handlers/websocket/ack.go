package websocket

import (
	"fmt"
	"reflect"

	"certificate-server/editor"

	socketio "github.com/zishang520/socket.io/v2/socket"
)

// ackReply is the answer to a session event. Clients receive it as
// (err, payload) or, with a one-parameter callback, as whichever applies.
type ackReply struct {
	err   error
	state *editor.State
	extra map[string]any
}

func (r ackReply) payload() map[string]any {
	p := map[string]any{"status": "ok"}
	if r.err != nil {
		p["status"] = "error"
		p["error"] = r.err.Error()
	}
	if r.state != nil {
		p["state"] = *r.state
	}
	for k, v := range r.extra {
		p[k] = v
	}
	return p
}

// values lays the reply out for a callback taking n parameters.
func (r ackReply) values(n int) []any {
	if n == 1 {
		if r.err != nil {
			return []any{r.err}
		}
		return []any{r.payload()}
	}
	var err any
	if r.err != nil {
		err = r.err
	}
	return []any{err, r.payload()}
}

// send answers through the callback when there is one and emits event back
// to the socket as well.
func (r ackReply) send(socket *socketio.Socket, ack ackFunc, event string) {
	if ack != nil {
		ack(r)
	}
	_ = socket.Emit(event, r.payload())
}

// ackFunc calls the client's acknowledgement callback, whatever its signature.
type ackFunc func(ackReply)

// extractAck splits a trailing acknowledgement callback off the event args.
func extractAck(datas []any) (ackFunc, []any) {
	if len(datas) == 0 {
		return nil, datas
	}
	last := datas[len(datas)-1]
	fn := reflect.ValueOf(last)
	if last == nil || fn.Kind() != reflect.Func {
		return nil, datas
	}

	fnType := fn.Type()
	ack := func(r ackReply) {
		values := r.values(fnType.NumIn())
		in := make([]reflect.Value, fnType.NumIn())
		for i := range in {
			var v any
			if i < len(values) {
				v = values[i]
			}
			in[i] = argValue(v, fnType.In(i))
		}
		fn.Call(in)
	}
	return ack, datas[:len(datas)-1]
}

// argValue converts v to a callback parameter of type target, falling back to
// the zero value when no sensible conversion exists.
func argValue(v any, target reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(target)
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(target):
		return rv
	case rv.Type().ConvertibleTo(target):
		return rv.Convert(target)
	case target.Kind() == reflect.String:
		return reflect.ValueOf(fmt.Sprint(v)).Convert(target)
	case target.Kind() == reflect.Map && target.Key().Kind() == reflect.String:
		if m, ok := v.(map[string]any); ok {
			return mapArg(m, target)
		}
	}
	return reflect.Zero(target)
}

// mapArg copies the entries of m whose values fit the target's element type.
func mapArg(m map[string]any, target reflect.Type) reflect.Value {
	out := reflect.MakeMapWithSize(target, len(m))
	elem := target.Elem()
	for k, v := range m {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(elem) {
			if !rv.Type().ConvertibleTo(elem) {
				continue
			}
			rv = rv.Convert(elem)
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), rv)
	}
	return out
}
