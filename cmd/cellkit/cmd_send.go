package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/client"
)

func defaultRPCURL() string {
	return env("CELLKIT_RPC", "http://127.0.0.1:8114")
}

// clientOptions returns the node client configuration for given request
// rate. A non positive rate disables the limit.
func clientOptions(rps float64) []client.Option {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return []client.Option{client.WithRateLimit(rps, burst)}
}

func cmdSendTx(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Read binary serialized transaction from standard input and submit it. The
transaction hash is printed out.

Make sure the transaction is signed before submitting it.
`)
		fl.PrintDefaults()
	}
	var (
		rpcFl = fl.String("rpc", defaultRPCURL(),
			"Node RPC address. You can use CELLKIT_RPC environment variable to set it.")
		waitFl    = fl.Bool("wait", false, "Wait until the transaction is committed.")
		timeoutFl = fl.Duration("timeout", 10*time.Minute, "How long to wait for the transaction to be committed.")
		pollFl    = fl.Duration("poll", 3*time.Second, "Time between two transaction status checks.")
		rpsFl     = fl.Float64("rps", 0, "Maximum number of node requests per second. Zero means no limit.")
	)
	fl.Parse(args)

	tx, _, err := readTx(input)
	if err != nil {
		return fmt.Errorf("cannot read transaction from input: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFl)
	defer cancel()

	c, err := client.Dial(ctx, *rpcFl, clientOptions(*rpsFl)...)
	if err != nil {
		return fmt.Errorf("cannot connect to the node: %s", err)
	}
	defer c.Close()

	hash, err := c.SendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("cannot send transaction: %s", err)
	}
	fmt.Fprintln(output, hash)
	if !*waitFl {
		return nil
	}

	for {
		status, err := c.TransactionStatus(ctx, hash)
		if err != nil {
			return fmt.Errorf("cannot get transaction status: %s", err)
		}
		switch status {
		case cellkit.TxCommitted:
			return nil
		case cellkit.TxRejected:
			return fmt.Errorf("transaction %s rejected", hash)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not committed: %s", hash, ctx.Err())
		case <-time.After(*pollFl):
		}
	}
}
