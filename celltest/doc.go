/*
Package celltest provides helpers and in memory fakes for testing code that
builds, signs and submits transactions.
*/
package celltest
