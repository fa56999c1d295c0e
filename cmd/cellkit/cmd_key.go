package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/crypto"
)

func defaultKeyPath() string {
	return env("CELLKIT_PRIV_KEY", os.Getenv("HOME")+"/.cellkit.key")
}

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Generate a new secp256k1 private key.

When successful a new file with the hex encoded private key is created and
the lock arguments of the key are printed. This command fails if the private
key file already exists.
`)
		fl.PrintDefaults()
	}
	var (
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the private key file. You can use CELLKIT_PRIV_KEY environment variable to set it.")
	)
	fl.Parse(args)

	if _, err := os.Stat(*keyPathFl); !os.IsNotExist(err) {
		// Do not allow to overwrite already existing private key. User
		// must manually delete it first.
		return fmt.Errorf("private key file %q already exists, delete this file and try again", *keyPathFl)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("cannot generate key: %s", err)
	}
	if err := key.Save(*keyPathFl); err != nil {
		return fmt.Errorf("cannot save private key: %s", err)
	}
	_, err = fmt.Fprintln(output, hexutil.Encode(key.LockScript().Args))
	return err
}

func cmdKeyaddr(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the address and the default lock script of your private key.
`)
		fl.PrintDefaults()
	}
	var (
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the private key file. You can use CELLKIT_PRIV_KEY environment variable to set it.")
		testnetFl = fl.Bool("testnet", false, "Print the test network address.")
	)
	fl.Parse(args)

	key, err := crypto.LoadPrivateKey(*keyPathFl)
	if err != nil {
		return fmt.Errorf("cannot load private key: %s", err)
	}
	lock := key.LockScript()
	addr, err := cellkit.ShortAddress(addressPrefix(*testnetFl), lock)
	if err != nil {
		return fmt.Errorf("cannot build address: %s", err)
	}
	fmt.Fprintf(output, "address:   %s\n", addr)
	fmt.Fprintf(output, "code_hash: %s\n", lock.CodeHash)
	fmt.Fprintf(output, "hash_type: %s\n", lock.HashType)
	fmt.Fprintf(output, "args:      %s\n", hexutil.Encode(lock.Args))
	return nil
}
