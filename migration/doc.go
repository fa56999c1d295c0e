/*
Package migration keeps track of cells created by previous deployments.

Every deployment environment has its own directory. The directory holds a
single deployment.json file, describing where each named cell currently
lives on chain, and a lock file that prevents two deployments from working
on the same environment at the same time.

The deployment file is never modified in place. A new version is written to
a temporary file in the same directory, flushed to disk and renamed over the
previous version, so an interrupted write never leaves a partial file. A
file that cannot be parsed is reported as corrupted and is never repaired
automatically.
*/
package migration
