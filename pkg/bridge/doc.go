// Package bridge connects browser clients to navigation coordinators over
// WebSocket.
//
// Every connection is a Session with its own navstate.Store and
// navigate.Coordinator. The browser supplies the capabilities the
// coordinator needs:
//
//   - location messages update the reactive location;
//   - platform messages update the directly read address and fire
//     platform events;
//   - ack messages settle router commands.
//
// The server answers with command messages for the browser's router and a
// state message after every change of the navigation record, which the
// client renders as its loading indicator.
//
//	srv := bridge.New(bridge.DefaultConfig(), bridge.WithLogger(logger))
//	http.ListenAndServe(":7300", srv.Handler())
//
// # Protocol
//
// Messages are JSON objects with a "type" field:
//
//	client: {"type":"location","path":"/users","query":"page=2"}
//	client: {"type":"platform","event":"popstate","href":"https://example.com/users"}
//	client: {"type":"ack","seq":4,"error":""}
//	client: {"type":"navigate","op":"push","path":"/users","element":"nav-users"}
//
//	server: {"type":"hello","session":"1b4e28ba-2fa1-11d2-883f-0016d3cca427"}
//	server: {"type":"command","seq":4,"op":"push","path":"/users"}
//	server: {"type":"state","state":{"isNavigating":true,"targetPath":"/users",...}}
//	server: {"type":"error","code":"N061","error":"..."}
package bridge
