package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/client"
	"github.com/iov-one/cellkit/crypto"
	"github.com/iov-one/cellkit/migration"
	"github.com/iov-one/cellkit/x/deployment"
	"github.com/iov-one/cellkit/x/multisig"
)

func cmdDeploy(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Deploy cells and dep groups described by a deployment file.

Cells recorded by previous deployments of the same environment are reused
when unchanged and updated in place otherwise. Use -migrate=false to create
all cells anew. Every committed transaction is recorded in the migrations
directory of the environment before the next one is sent.

Cells owned by a single key are signed with -key. Cells owned by a multisig
lock are signed either with -cosigners, when enough cosigner keys are
available locally, or with sessions collected in the -sessions directory.
Use -export to write sessions for cosigners without sending anything.

The out point of every deployed cell and dep group is printed out.
`)
		fl.PrintDefaults()
	}
	var (
		specFl = fl.String("spec", env("CELLKIT_SPEC", "deployment.toml"),
			"Path to the deployment file. Relative artifact paths are resolved against its directory. You can use CELLKIT_SPEC environment variable to set it.")
		envFl        = fl.String("env", "dev", "Deployment environment, either dev or production.")
		migrationsFl = fl.String("migrations", env("CELLKIT_MIGRATIONS", "migrations"),
			"Directory holding migration records of every environment. You can use CELLKIT_MIGRATIONS environment variable to set it.")
		migrateFl = fl.Bool("migrate", true, "Reuse and update cells recorded by previous deployments.")
		feeFl     = flCapacity(fl, "fee", "0.001", "Fee paid by every transaction, in CKB.")
		rpcFl     = fl.String("rpc", defaultRPCURL(),
			"Node RPC address. You can use CELLKIT_RPC environment variable to set it.")
		keyPathFl = fl.String("key", defaultKeyPath(),
			"Path to the private key owning a single key deployment lock. You can use CELLKIT_PRIV_KEY environment variable to set it.")
		cosignersFl = flStrings(fl, "cosigners", "Comma separated paths to cosigner private keys of a multisig lock.")
		sessionsFl  = fl.String("sessions", "", "Directory with signed multisig sessions.")
		exportFl    = fl.String("export", "", "Write planned transactions into given directory instead of sending them.")
		lockDepFl   = flCellDep(fl, "lock-dep", "Dep group needed to unlock the deployment lock, as <tx hash>:<index>. Genesis dep groups are used for default locks if not set.")
		pollFl      = fl.Duration("poll", 3*time.Second, "Time between two transaction status checks.")
		timeoutFl   = fl.Duration("timeout", 10*time.Minute, "How long a transaction may take to be committed.")
		retriesFl   = fl.Int("retries", 3, "How many times a failed node request is repeated.")
		rpsFl       = fl.Float64("rps", 0, "Maximum number of node requests per second. Zero means no limit.")
		debugFl     = fl.Bool("debug", false, "Print out debug logs.")
	)
	fl.Parse(args)

	if *envFl != "dev" && *envFl != "production" {
		return fmt.Errorf("unknown environment %q, must be dev or production", *envFl)
	}

	spec, err := deployment.LoadSpec(*specFl)
	if err != nil {
		return fmt.Errorf("cannot load deployment file: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := client.Dial(ctx, *rpcFl, clientOptions(*rpsFl)...)
	if err != nil {
		return fmt.Errorf("cannot connect to the node: %s", err)
	}
	defer c.Close()

	lockDeps, err := deploymentLockDeps(ctx, c, spec.Lock, *lockDepFl)
	if err != nil {
		return err
	}
	opts := deployment.Options{
		Migrate:  *migrateFl,
		FeePerTx: *feeFl,
		LockDeps: lockDeps,
	}
	planner := &deployment.Planner{
		Funding:   c,
		Artifacts: deployment.FileArtifacts{Dir: filepath.Dir(*specFl)},
	}
	store := migration.NewStore(filepath.Join(*migrationsFl, *envFl))

	if *exportFl != "" {
		return exportPlan(ctx, output, planner, spec, store, opts, *exportFl)
	}

	signer, err := deploymentSigner(spec.Lock, *keyPathFl, *cosignersFl, *sessionsFl)
	if err != nil {
		return err
	}
	retry := deployment.DefaultRetryConfig()
	retry.MaxRetries = *retriesFl
	executor := &deployment.Executor{
		Planner:        planner,
		Chain:          c,
		Signer:         signer,
		Logger:         newLogger(*debugFl).With("env", *envFl),
		Retry:          &retry,
		PollInterval:   *pollFl,
		ConfirmTimeout: *timeoutFl,
	}
	report, err := executor.Run(ctx, deployment.RunContext{
		Spec:    spec,
		Options: opts,
		Store:   store,
	})
	if err != nil {
		return fmt.Errorf("deployment failed: %s", err)
	}
	for _, hash := range report.Confirmed {
		fmt.Fprintf(output, "committed %s\n", hash)
	}
	printOutPoints(output, report.Plan.OutPoints)
	return nil
}

// deploymentLockDeps returns the dep groups needed to unlock cells owned by
// the deployment lock.
func deploymentLockDeps(ctx context.Context, c *client.Client, lock deployment.Lock, declared *cellkit.CellDep) ([]cellkit.CellDep, error) {
	if declared != nil {
		return []cellkit.CellDep{*declared}, nil
	}
	script, err := lock.Script()
	if err != nil {
		return nil, fmt.Errorf("invalid deployment lock: %s", err)
	}
	if script.HashType != cellkit.HashTypeType ||
		(script.CodeHash != cellkit.Secp256k1Blake160CodeHash && script.CodeHash != cellkit.MultisigCodeHash) {
		return nil, fmt.Errorf("deployment lock %s is not a default lock, use -lock-dep to declare its dep group", script.CodeHash)
	}
	genesis, err := c.GenesisDeps(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot get genesis dep groups: %s", err)
	}
	if script.CodeHash == cellkit.MultisigCodeHash {
		return []cellkit.CellDep{genesis.Multisig}, nil
	}
	return []cellkit.CellDep{genesis.Secp256k1}, nil
}

func deploymentSigner(lock deployment.Lock, keyPath string, cosigners []string, sessions string) (deployment.Signer, error) {
	if lock.Multisig != nil {
		if len(cosigners) == 0 && sessions == "" {
			return nil, fmt.Errorf("multisig lock requires -cosigners or -sessions")
		}
		if sessions != "" {
			return multisig.SessionSigner{Dir: sessions}, nil
		}
		keys := make([]*crypto.PrivateKey, len(cosigners))
		for i, path := range cosigners {
			k, err := crypto.LoadPrivateKey(path)
			if err != nil {
				return nil, fmt.Errorf("cannot load cosigner key: %s", err)
			}
			keys[i] = k
		}
		return multisig.LocalSigner{Lock: *lock.Multisig, Keys: keys}, nil
	}

	key, err := crypto.LoadPrivateKey(keyPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load private key: %s", err)
	}
	if lock.Raw.CodeHash == cellkit.Secp256k1Blake160CodeHash && !key.LockScript().Equal(*lock.Raw) {
		return nil, fmt.Errorf("key %q does not own the deployment lock", keyPath)
	}
	return crypto.KeySigner{Key: key}, nil
}

// exportPlan writes every planned transaction into given directory. Multisig
// transactions are written as sessions ready to be signed by cosigners,
// other transactions as unsigned binary transactions.
func exportPlan(
	ctx context.Context,
	output io.Writer,
	planner *deployment.Planner,
	spec *deployment.Spec,
	store *migration.Store,
	opts deployment.Options,
	dir string,
) error {
	state, err := store.Load()
	if err != nil {
		return fmt.Errorf("cannot load migrations: %s", err)
	}
	plan, err := planner.Plan(ctx, spec, state, opts)
	if err != nil {
		return fmt.Errorf("cannot plan deployment: %s", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create export directory: %s", err)
	}
	for _, ptx := range plan.Transactions {
		if spec.Lock.Multisig != nil {
			path := multisig.SessionPath(dir, ptx.Tx)
			if err := multisig.NewSession(ptx.Tx, *spec.Lock.Multisig).Save(path); err != nil {
				return fmt.Errorf("cannot export session: %s", err)
			}
			fmt.Fprintln(output, path)
			continue
		}
		path := filepath.Join(dir, ptx.Tx.Hash().String()+".bin")
		if err := writeTxFile(path, ptx.Tx); err != nil {
			return err
		}
		fmt.Fprintln(output, path)
	}
	return nil
}

func writeTxFile(path string, tx *cellkit.Transaction) error {
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("cannot create transaction file: %s", err)
	}
	defer fd.Close()
	if _, err := writeTx(fd, tx); err != nil {
		return fmt.Errorf("cannot write transaction: %s", err)
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("cannot close transaction file: %s", err)
	}
	return nil
}

func printOutPoints(w io.Writer, ops map[string]cellkit.OutPoint) {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s %s\n", name, ops[name])
	}
}
