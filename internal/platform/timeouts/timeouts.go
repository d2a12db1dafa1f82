// Package timeouts defines timeout constants shared by the subscription
// server and its command-line client.
package timeouts

import "time"

// GRPCDial caps the wait for a dialed peer to report healthy.
const GRPCDial = 5 * time.Second

// GRPCRequest caps a single admin RPC issued by subscriptionctl.
const GRPCRequest = 5 * time.Second

// Shutdown limits how long the gRPC server drains in-flight requests.
const Shutdown = 5 * time.Second

// StorageOpen caps opening the database and applying migrations at startup.
const StorageOpen = 10 * time.Second
