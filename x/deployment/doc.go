/*
Package deployment turns a description of scripts and dep groups into the
transactions that put them on chain.

A deployment is described by a Spec. The Planner compares the spec with the
state recorded by previous deployments and builds at most two unsigned
transactions: one creating or updating all cells and one creating or updating
all dep groups. The Executor signs, broadcasts and confirms them in order and
records the outcome after every confirmed transaction, so an interrupted
deployment can be resumed by running it again with migration enabled.
*/
package deployment
