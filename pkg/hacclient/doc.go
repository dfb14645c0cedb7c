// Package hacclient builds route-chain clients that implement hac.Node.
//
// A chain is built segment by segment and resolved by a terminal call. The
// last segment selects what happens:
//
//	root, err := hacclient.New(engine, &hac.Config{BaseURL: "https://api.example.com"})
//	if err != nil { log.Fatal(err) }
//
//	// Plain fetch: POST https://api.example.com/users
//	result, err := root.Extend("users").Post(ctx, &hac.Args{JSON: user}, nil)
//	resp, _ := result.AsResponse()
//
//	// Managed: an unsent engine handle for GET users/1
//	result, err = root.At("users", ":id").Managed().Get(ctx, &hac.Args{
//	  Param: map[string]string{"id": "1"},
//	}, &hac.CallConfig{Name: "user", CacheFor: time.Minute})
//	handle, _ := result.AsHandle()
//	body, err := handle.Await(ctx)
//
//	// URL only, no network access
//	u, err := root.At("users", ":id").URL(&hac.Args{Param: map[string]string{"id": "1"}})
//
// Headers are layered lowest first: Args.Header, Config.Headers,
// Config.HeaderResolver, then CallConfig.Headers. Cookie and Content-Type are
// set last.
package hacclient
