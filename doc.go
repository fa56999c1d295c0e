/*

Package cellkit defines the ledger types used throughout the deployment tool:
hashes, scripts, out-points, transactions and witnesses, together with their
canonical binary serialization and JSON-RPC representation.

The binary layout follows the ledger's molecule encoding. Only the structures
that a deployment needs to build, hash and sign are implemented here.
Extensions (multisig, deployment) build on top of this package and never
serialize ledger data by hand.

*/

package cellkit
