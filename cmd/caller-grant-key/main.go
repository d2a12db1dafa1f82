// Package main provides a one-shot utility for caller grant key generation.
//
// It emits the asymmetric keypair used to sign and verify admin caller grants.
package main

import (
	"os"

	"github.com/fruitbox12/Subscription/internal/platform/config"
	"github.com/fruitbox12/Subscription/internal/tools/callergrantkey"
)

func main() {
	if err := callergrantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate caller grant key: %v", err)
	}
}
