// Package papi provides the public types and contracts for a typed client
// to a digital-preservation repository API.
//
// The package defines the entity data model (structural, information and
// content objects, generations, bitstreams, fixities, identifiers and event
// actions), the typed APIError surfaced by every operation, the Cache
// contract with its memory, file and NATS KV backends, and a cursor-based
// pagination walker.
//
// Construct clients with the psclient package:
//
//	client, err := psclient.New(ctx, &papi.Config{
//	    APIEndpoint: "https://repo.example.com",
//	    Username:    "user@example.com",
//	    Password:    "secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	entity, err := client.Entities().GetInformationObject(ctx, ref)
//
// All operations take a context.Context and return explicit errors. The
// request pipeline caches the access token, retries transient failures with
// exponential backoff, and invalidates both the credential and token caches
// when the API answers 401 or 403 so the next attempt authenticates afresh.
package papi
