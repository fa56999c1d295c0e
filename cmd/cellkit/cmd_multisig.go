package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/iov-one/cellkit/crypto"
	"github.com/iov-one/cellkit/x/multisig"
)

func cmdMultisigTemplate(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out an example multisig session document.

A session holds an unsigned transaction, the multisig lock that must unlock
it and the signatures collected so far. Sessions are usually created by the
deploy command with the -export flag.
`)
		fl.PrintDefaults()
	}
	fl.Parse(args)

	_, err := io.WriteString(output, multisig.Template)
	return err
}

func cmdMultisigMessage(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print out the hex encoded message that every cosigner of given session must
sign.
`)
		fl.PrintDefaults()
	}
	var (
		sessionFl = fl.String("session", "", "Path to the session file.")
	)
	fl.Parse(args)

	s, err := multisig.LoadSession(*sessionFl)
	if err != nil {
		return fmt.Errorf("cannot load session: %s", err)
	}
	msg, err := s.Message()
	if err != nil {
		return fmt.Errorf("cannot compute message: %s", err)
	}
	_, err = fmt.Fprintln(output, msg)
	return err
}

func cmdMultisigSign(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Sign the session message with your private key and print out the hex encoded
signature.

Use -append to store the signature in the session file, so that it can be
passed to the next cosigner.
`)
		fl.PrintDefaults()
	}
	var (
		sessionFl = fl.String("session", "", "Path to the session file.")
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the private key file. You can use CELLKIT_PRIV_KEY environment variable to set it.")
		appendFl = fl.Bool("append", false, "Write the signature into the session file.")
	)
	fl.Parse(args)

	s, err := multisig.LoadSession(*sessionFl)
	if err != nil {
		return fmt.Errorf("cannot load session: %s", err)
	}
	key, err := crypto.LoadPrivateKey(*keyPathFl)
	if err != nil {
		return fmt.Errorf("cannot load private key: %s", err)
	}
	sig, err := s.Sign(key)
	if err != nil {
		return fmt.Errorf("cannot sign: %s", err)
	}
	if *appendFl {
		if err := s.Save(*sessionFl); err != nil {
			return fmt.Errorf("cannot save session: %s", err)
		}
	}
	_, err = fmt.Fprintln(output, hexutil.Encode(sig))
	return err
}

func cmdMultisigAggregate(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Combine signatures collected in a session into a signed transaction.

The binary serialized transaction is written to the file given with -out or
to the standard output, and can be submitted with the send-tx command:

  $ cellkit multisig-aggregate -session my.toml | cellkit send-tx
`)
		fl.PrintDefaults()
	}
	var (
		sessionFl = fl.String("session", "", "Path to the session file.")
		outFl     = fl.String("out", "", "Path to the file the transaction is written to. Standard output is used if not set.")
	)
	fl.Parse(args)

	s, err := multisig.LoadSession(*sessionFl)
	if err != nil {
		return fmt.Errorf("cannot load session: %s", err)
	}
	complete, err := s.Complete()
	if err != nil {
		return fmt.Errorf("invalid session signatures: %s", err)
	}
	if !complete {
		return fmt.Errorf("session holds %d signatures that do not satisfy the %d of %d policy",
			len(s.Signatures), s.Lock.Policy.RequireN, len(s.Lock.Policy.PubkeyHashes))
	}
	tx, err := s.Aggregate()
	if err != nil {
		return fmt.Errorf("cannot aggregate signatures: %s", err)
	}

	if *outFl == "" {
		_, err = writeTx(output, tx)
		return err
	}
	return writeTxFile(*outFl, tx)
}
