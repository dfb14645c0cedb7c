// Package hac provides the types and interfaces of a route-chain HTTP client
// that can dispatch requests either directly through a fetch transport or
// through a managed request/caching engine.
//
// # Overview
//
// A client is a tree of route segments. Each segment access extends a chain
// and a terminal call resolves it into an outgoing request. The last segment
// of the chain decides what happens:
//
//	root.At("users", "$get")            // GET <base>/users through the transport
//	root.At("users", "$alova", "$get")  // managed GET handle, not sent yet
//	root.At("users", ":id", "$url")     // URL only, no network access
//	root.At("users")                    // pending request, sent later
//
// The concrete interpreter lives in internal/chain and is constructed by the
// hacclient package:
//
//	engine, _ := managed.New(&managed.Config{BaseURL: "https://api.example.com"})
//	root, _ := hacclient.New(engine, &hac.Config{})
//
//	res, err := root.At("users", ":id").Managed().Get(ctx,
//	  &hac.Args{Param: map[string]string{"id": "1"}},
//	  &hac.CallConfig{CacheFor: 5 * time.Minute})
//	if err != nil { /* handle error */ }
//	handle, _ := res.AsHandle()
//	resp, err := handle.Send(ctx)
//
// # Arguments
//
// Args carries the six recognized argument kinds: param, query, json, form,
// header and cookie. DecodeArgs builds Args from an untyped map.
//
// # Headers
//
// Header layers are merged with increasing precedence: Args.Header, the
// adapter's static headers and HeaderResolver, then CallConfig.Headers. The
// Cookie header built from Args.Cookie and the JSON content type are applied
// last.
//
// # Errors
//
// Errors from header resolvers, transports and engines are returned to the
// caller unmodified. Construction and validation errors are the sentinels in
// errors.go and can be matched with errors.Is.
package hac
