package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
)

// flCapacity returns a value that is being initialized with given default
// value and optionally overwritten by a command line argument if provided.
// This function follows Go's flag package convention.
// If given value cannot be deserialized to required type, process is
// terminated.
func flCapacity(fl *flag.FlagSet, name, defaultVal, usage string) *cellkit.Capacity {
	var c cellkit.Capacity
	if defaultVal != "" {
		if err := c.Set(defaultVal); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q capacity flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var(&c, name, usage)
	return &c
}

// flCellDep returns a cell dependency declared as "<tx hash>:<index>". Dep
// group is the dependency type. A nil value is returned when not set.
func flCellDep(fl *flag.FlagSet, name, usage string) **cellkit.CellDep {
	var d flagCellDep
	fl.Var(&d, name, usage)
	return &d.dep
}

type flagCellDep struct {
	dep *cellkit.CellDep
}

func (d *flagCellDep) String() string {
	if d == nil || d.dep == nil {
		return ""
	}
	return d.dep.OutPoint.String()
}

func (d *flagCellDep) Set(raw string) error {
	op, err := parseOutPoint(raw)
	if err != nil {
		return err
	}
	d.dep = &cellkit.CellDep{OutPoint: op, DepType: cellkit.DepTypeDepGroup}
	return nil
}

func parseOutPoint(raw string) (cellkit.OutPoint, error) {
	chunks := strings.Split(raw, ":")
	if len(chunks) != 2 {
		return cellkit.OutPoint{}, errors.Wrap(errors.ErrInput, "out point format is <tx hash>:<index>")
	}
	hash, err := cellkit.ParseHash(chunks[0])
	if err != nil {
		return cellkit.OutPoint{}, errors.Wrap(err, "tx hash")
	}
	index, err := strconv.ParseUint(chunks[1], 10, 32)
	if err != nil {
		return cellkit.OutPoint{}, errors.Wrapf(errors.ErrInput, "index: %s", err)
	}
	return cellkit.OutPoint{TxHash: hash, Index: uint32(index)}, nil
}

// flStrings returns a comma separated list of values.
func flStrings(fl *flag.FlagSet, name, usage string) *[]string {
	var s flagStrings
	fl.Var(&s, name, usage)
	return (*[]string)(&s)
}

type flagStrings []string

func (s *flagStrings) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *flagStrings) Set(raw string) error {
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*s = append(*s, v)
		}
	}
	return nil
}
