// Command admintoken mints a registry administration token. The token is
// handed to operators; the hash goes into ADMIN_TOKEN_HASH.
package main

import (
	"fmt"
	"os"

	"batchledger/pkg/secrets"
)

func main() {
	token, err := secrets.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "admintoken: %v\n", err)
		os.Exit(1)
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "admintoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("token:            %s\n", token)
	fmt.Printf("ADMIN_TOKEN_HASH: %s\n", hash)
}
